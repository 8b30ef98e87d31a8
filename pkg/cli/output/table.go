package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Table 终端表格输出
// 列宽在Render时按表头与所有单元格的最大宽度计算，短行右侧留空
type Table struct {
	headers []string
	rows    [][]string
	out     io.Writer
}

// NewTable 创建表格（默认写到标准输出）
func NewTable(headers []string) *Table {
	return &Table{headers: headers, out: os.Stdout}
}

// SetOutput 重定向表格输出
func (t *Table) SetOutput(w io.Writer) {
	t.out = w
}

// AddRow 追加一行，多出的单元格被截断
func (t *Table) AddRow(cells ...string) {
	if len(cells) > len(t.headers) {
		cells = cells[:len(t.headers)]
	}
	t.rows = append(t.rows, cells)
}

// Render 渲染表格
func (t *Table) Render() {
	widths := t.columnWidths()

	headerColor := color.New(color.FgCyan, color.Bold)
	headerCells := make([]string, len(t.headers))
	for i, h := range t.headers {
		headerCells[i] = headerColor.Sprintf("%-*s", widths[i], h)
	}
	fmt.Fprintln(t.out, strings.Join(headerCells, "  "))

	rules := make([]string, len(widths))
	for i, w := range widths {
		rules[i] = strings.Repeat("-", w)
	}
	fmt.Fprintln(t.out, strings.Join(rules, "  "))

	for _, row := range t.rows {
		line := make([]string, len(row))
		for i, cell := range row {
			line[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		fmt.Fprintln(t.out, strings.Join(line, "  "))
	}
}

func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}
