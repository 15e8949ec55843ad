package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"telegram-chat-log/internal/domain"
)

// ServerClient — клиент для взаимодействия с API сервера журнала.
type ServerClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewServerClient создает новый экземпляр ServerClient.
func NewServerClient(baseURL string, timeout time.Duration) *ServerClient {
	return &ServerClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// APIError — ответ сервера с кодом, отличным от ожидаемого.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// MessageDTO — сообщение из ответа /api/v1/history.
type MessageDTO struct {
	domain.NormalizedMessage
	Badge        string `json:"badge"`
	MediaSummary string `json:"media_summary,omitempty"`
}

// API-ответы
type historyResponse struct {
	ChatID   int64        `json:"chat_id"`
	Messages []MessageDTO `json:"messages"`
}

type StartTaskResponse struct {
	TaskID string `json:"task_id"`
}

type TaskStatusResponse struct {
	TaskID       string `json:"task_id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	MessageCount int    `json:"message_count,omitempty"`
}

// ResultFile — файл экспорта, скачанный с сервера.
type ResultFile struct {
	Name string
	Data []byte
}

func chatQuery(chatID int64, limit int) url.Values {
	q := url.Values{}
	if chatID != 0 {
		q.Set("chat_id", strconv.FormatInt(chatID, 10))
	}
	q.Set("limit", strconv.Itoa(limit))
	return q
}

// History запрашивает последние сообщения чата. chatID == 0 означает целевой чат сервера.
func (c *ServerClient) History(ctx context.Context, chatID int64, limit int) ([]MessageDTO, error) {
	var result historyResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/history?"+chatQuery(chatID, limit).Encode(), http.StatusOK, &result); err != nil {
		return nil, err
	}
	return result.Messages, nil
}

// StartExport ставит на сервере задачу выгрузки истории в XLSX.
func (c *ServerClient) StartExport(ctx context.Context, chatID int64, limit int) (*StartTaskResponse, error) {
	var result StartTaskResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/export?"+chatQuery(chatID, limit).Encode(), http.StatusAccepted, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTaskStatus запрашивает статус задачи.
func (c *ServerClient) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatusResponse, error) {
	var result TaskStatusResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/tasks/"+url.PathEscape(taskID), http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DownloadResult скачивает файл выполненной задачи.
func (c *ServerClient) DownloadResult(ctx context.Context, taskID string) (*ResultFile, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/tasks/"+url.PathEscape(taskID)+"/result", http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read result: %w", err)
	}

	name := taskID + ".xlsx"
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return &ResultFile{Name: name, Data: data}, nil
}

func (c *ServerClient) doJSON(ctx context.Context, method, path string, wantStatus int, out any) error {
	resp, err := c.do(ctx, method, path, wantStatus)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *ServerClient) do(ctx context.Context, method, path string, wantStatus int) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != wantStatus {
		defer resp.Body.Close()
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) == nil {
			apiErr.Message = body.Error
		}
		return nil, apiErr
	}
	return resp, nil
}
