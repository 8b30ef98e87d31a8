// Package crawlengine 提供调度器HTTP API的客户端封装，供CLI使用
package crawlengine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/LENAX/crawl-engine/pkg/api/dto"
	"github.com/LENAX/crawl-engine/pkg/core/scheduler"
)

// Client HTTP API客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New 创建客户端
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ScheduleTask 注册任务
func (c *Client) ScheduleTask(req dto.ScheduleTaskRequest) (string, error) {
	var resp dto.APIResponse[dto.ScheduleTaskResponse]
	if err := c.post("/api/v1/tasks", req, &resp); err != nil {
		return "", err
	}
	if resp.Code != 0 {
		return "", fmt.Errorf("%s", resp.Message)
	}
	return resp.Data.TaskID, nil
}

// GetTask 查询任务
func (c *Client) GetTask(id string) (*scheduler.TaskInfo, error) {
	var resp dto.APIResponse[scheduler.TaskInfo]
	if err := c.get("/api/v1/tasks/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return &resp.Data, nil
}

// ListTasks 列出内存中的全部任务
func (c *Client) ListTasks() ([]*scheduler.TaskInfo, error) {
	var resp dto.APIResponse[[]*scheduler.TaskInfo]
	if err := c.get("/api/v1/tasks", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return resp.Data, nil
}

// CancelTask 取消任务
func (c *Client) CancelTask(id string) error {
	var resp dto.APIResponse[any]
	if err := c.post("/api/v1/tasks/"+url.PathEscape(id)+"/cancel", nil, &resp); err != nil {
		return err
	}
	if resp.Code != 0 {
		return fmt.Errorf("%s", resp.Message)
	}
	return nil
}

// History 查询历史执行记录
func (c *Client) History(status string, limit int) ([]dto.TaskHistoryItem, error) {
	path := fmt.Sprintf("/api/v1/tasks/history?limit=%d", limit)
	if status != "" {
		path += "&status=" + url.QueryEscape(status)
	}
	var resp dto.APIResponse[[]dto.TaskHistoryItem]
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return resp.Data, nil
}

// Metrics 查询调度器运行指标
func (c *Client) Metrics() (*scheduler.SchedulerMetrics, error) {
	var resp dto.APIResponse[scheduler.SchedulerMetrics]
	if err := c.get("/api/v1/metrics", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return &resp.Data, nil
}

// Resources 查询资源使用快照（原始JSON）
func (c *Client) Resources() (map[string]interface{}, error) {
	var resp dto.APIResponse[map[string]interface{}]
	if err := c.get("/api/v1/resources", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return resp.Data, nil
}

// Funcs 查询已注册的任务体名称
func (c *Client) Funcs() ([]string, error) {
	var resp dto.APIResponse[[]string]
	if err := c.get("/api/v1/tasks/funcs", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return resp.Data, nil
}

func (c *Client) get(path string, out interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()
	return decode(resp.Body, out)
}

func (c *Client) post(path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求失败: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", reader)
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()
	return decode(resp.Body, out)
}

func decode(r io.Reader, out interface{}) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}
