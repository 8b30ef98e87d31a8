package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
)

// PrintJSON 以缩进JSON输出任意数据
func PrintJSON(data interface{}) error {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化输出失败: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(payload))
	return err
}

// printTagged 带颜色与标记前缀的消息输出
func printTagged(c *color.Color, tag, format string, args ...interface{}) {
	c.Fprintf(os.Stdout, tag+format+"\n", args...)
}

// Success 输出成功消息
func Success(format string, args ...interface{}) {
	printTagged(color.New(color.FgGreen, color.Bold), "✅ ", format, args...)
}

// Error 输出错误消息
func Error(format string, args ...interface{}) {
	printTagged(color.New(color.FgRed, color.Bold), "❌ ", format, args...)
}

// Info 输出信息
func Info(format string, args ...interface{}) {
	printTagged(color.New(color.FgCyan), "ℹ️  ", format, args...)
}

// Warning 输出警告
func Warning(format string, args ...interface{}) {
	printTagged(color.New(color.FgYellow), "⚠️  ", format, args...)
}
