package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/LENAX/crawl-engine/pkg/core/scheduler"
)

// RegisterBuiltins 注册内置任务体
// scrape        抓取页面并返回HTML（参数：url）
// extract_text  按CSS选择器抽取文本（参数：html、selector）
// extract_links 抽取页面内全部链接（参数：html）
func RegisterBuiltins(registry *scheduler.JobRegistry) {
	fetcher := NewHTTPFetcher(0)

	registry.Register("scrape", func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		url, err := stringParam(params, "url")
		if err != nil {
			return nil, err
		}
		body, err := fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"url":  url,
			"html": string(body),
			"size": len(body),
		}, nil
	})

	registry.Register("extract_text", func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		html, err := stringParam(params, "html")
		if err != nil {
			return nil, err
		}
		selector, err := stringParam(params, "selector")
		if err != nil {
			return nil, err
		}
		return ExtractText(html, selector)
	})

	registry.Register("extract_links", func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		html, err := stringParam(params, "html")
		if err != nil {
			return nil, err
		}
		return ExtractLinks(html)
	})
}

// ExtractText 按CSS选择器抽取文本内容
func ExtractText(html, selector string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}

	var texts []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			texts = append(texts, text)
		}
	})
	return texts, nil
}

// ExtractLinks 抽取页面内全部超链接（去重、忽略锚点与js伪链接）
func ExtractLinks(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		if _, ok := seen[href]; ok {
			return
		}
		seen[href] = struct{}{}
		links = append(links, href)
	})
	return links, nil
}
