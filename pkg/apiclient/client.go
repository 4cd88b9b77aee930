// Package apiclient 提供了一个与收支后端交互的客户端。
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"rentbook-go/internal/model"
)

// Client 是收支后端 REST 接口的客户端。
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient 创建一个新的客户端实例，baseURL 形如 http://localhost:8080。
func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL, httpc: http.DefaultClient}
}

// UploadResult 是上传接口的响应体。
type UploadResult struct {
	Message string           `json:"message"`
	File    model.StoredFile `json:"file"`
}

// UploadReceipt 以 multipart 表单上传收据，expenseID 非 nil 时随表单关联到支出。
func (c *Client) UploadReceipt(ctx context.Context, name, contentType string, data []byte, expenseID *uint) (*UploadResult, error) {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("构建表单失败: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("构建表单失败: %w", err)
	}
	if expenseID != nil {
		if err := w.WriteField("expense_id", strconv.FormatUint(uint64(*expenseID), 10)); err != nil {
			return nil, fmt.Errorf("构建表单失败: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("构建表单失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", body)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out UploadResult
	if err := c.do(req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadReceipt 下载收据内容，调用方负责关闭返回的读取器。
func (c *Client) DownloadReceipt(ctx context.Context, id uint) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/files/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("调用后端失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, apiError(resp)
	}
	return resp.Body, nil
}

// DeleteReceipt 删除收据记录及其磁盘内容。
func (c *Client) DeleteReceipt(ctx context.Context, id uint) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/api/files/%d", c.baseURL, id), nil)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	return c.do(req, http.StatusOK, nil)
}

// ListReceipts 列出文件记录，expenseID 非 nil 时只返回该支出名下的。
func (c *Client) ListReceipts(ctx context.Context, expenseID *uint) ([]model.StoredFile, error) {
	u := c.baseURL + "/api/files"
	if expenseID != nil {
		u += "?expense_id=" + url.QueryEscape(strconv.FormatUint(uint64(*expenseID), 10))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	var out struct {
		Count int                `json:"count"`
		Files []model.StoredFile `json:"files"`
	}
	if err := c.do(req, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// CreateExpense 创建支出记录。
func (c *Client) CreateExpense(ctx context.Context, payload any) (*model.Expense, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/expenses", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Message string        `json:"message"`
		Expense model.Expense `json:"expense"`
	}
	if err := c.do(req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out.Expense, nil
}

// ListProperties 拉取全部房产，供表单下拉使用。
func (c *Client) ListProperties(ctx context.Context) ([]model.Property, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/properties", nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	var out struct {
		Count      int              `json:"count"`
		Properties []model.Property `json:"properties"`
	}
	if err := c.do(req, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Properties, nil
}

// ListCategories 拉取全部支出类别。
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/categories", nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	var out struct {
		Count      int              `json:"count"`
		Categories []model.Category `json:"categories"`
	}
	if err := c.do(req, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("调用后端失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}

// apiError 把后端的 {error} 响应还原为带状态码的错误。
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return fmt.Errorf("后端返回错误 [%d]: %s", resp.StatusCode, e.Error)
	}
	return fmt.Errorf("后端返回错误 [%d]: %s", resp.StatusCode, string(body))
}
