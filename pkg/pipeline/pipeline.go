// Package pipeline 提供内置的抓取/抽取任务体
// 任务体以名称注册到JobRegistry，由API层按名称引用
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher 页面抓取接口
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Extractor 页面抽取接口
// selector为CSS选择器，返回命中的文本内容
type Extractor interface {
	Extract(html, selector string) ([]string, error)
}

// ResultStore 抽取结果落地接口，由调用方按业务实现
type ResultStore interface {
	Store(ctx context.Context, taskID string, result interface{}) error
}

// GoqueryExtractor 基于goquery的Extractor实现
type GoqueryExtractor struct{}

// Extract 按CSS选择器抽取文本
func (GoqueryExtractor) Extract(html, selector string) ([]string, error) {
	return ExtractText(html, selector)
}

// HTTPFetcher 基于net/http的抓取器
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

// NewHTTPFetcher 创建抓取器
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: "crawl-engine/1.0",
		maxBody:   10 << 20, // 单页10MB上限
	}
}

// Fetch 抓取页面内容
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("抓取失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("抓取失败: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	return body, nil
}

// stringParam 从任务参数取字符串字段
func stringParam(params map[string]interface{}, key string) (string, error) {
	raw, ok := params[key]
	if !ok {
		return "", fmt.Errorf("缺少参数: %s", key)
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("参数%s必须为非空字符串", key)
	}
	return s, nil
}
