package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"telegram-text-export/internal/domain"
)

// ServerAPI — операции сервиса рендеринга, которые нужны боту и консольному клиенту.
type ServerAPI interface {
	StartTask(ctx context.Context, fileName, format string, content io.Reader) (*StartTaskResponse, error)
	GetTaskStatus(ctx context.Context, taskID string) (*TaskStatusResponse, error)
	GetTaskFiles(ctx context.Context, taskID string) (*TaskFilesResponse, error)
	DownloadFile(ctx context.Context, taskID, path string) ([]byte, error)
}

// ServerClient — клиент для взаимодействия с API сервиса рендеринга.
type ServerClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewServerClient создает новый экземпляр ServerClient.
func NewServerClient(baseURL string, timeout time.Duration) *ServerClient {
	return &ServerClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// API-ответы
type StartTaskResponse struct {
	TaskID string `json:"task_id"`
}

type TaskStatusResponse struct {
	TaskID       string `json:"task_id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Hash         string `json:"hash,omitempty"`
	Cached       bool   `json:"cached,omitempty"`
}

// TaskFilesResponse — оглавление готового архива.
type TaskFilesResponse struct {
	TaskID string               `json:"task_id"`
	Hash   string               `json:"hash"`
	Files  []domain.ArchiveFile `json:"files"`
}

// StartTask отправляет модель выгрузки на рендеринг. Пустой format означает формат по умолчанию.
func (c *ServerClient) StartTask(ctx context.Context, fileName, format string, content io.Reader) (*StartTaskResponse, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	if format != "" {
		if err := w.WriteField("format", format); err != nil {
			return nil, fmt.Errorf("failed to write format field: %w", err)
		}
	}
	fw, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file for %s: %w", fileName, err)
	}
	if _, err = io.Copy(fw, content); err != nil {
		return nil, fmt.Errorf("failed to copy file content for %s: %w", fileName, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/render", &b)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var result StartTaskResponse
	if err := c.do(req, http.StatusAccepted, &result); err != nil {
		return nil, err
	}
	if result.TaskID == "" {
		return nil, fmt.Errorf("server returned no task id")
	}
	return &result, nil
}

// GetTaskStatus запрашивает статус задачи.
func (c *ServerClient) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/tasks/"+url.PathEscape(taskID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result TaskStatusResponse
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTaskFiles запрашивает оглавление архива выполненной задачи.
func (c *ServerClient) GetTaskFiles(ctx context.Context, taskID string) (*TaskFilesResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/tasks/"+url.PathEscape(taskID)+"/files", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result TaskFilesResponse
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DownloadFile скачивает один файл архива по пути из оглавления.
func (c *ServerClient) DownloadFile(ctx context.Context, taskID, path string) ([]byte, error) {
	fileURL := fmt.Sprintf("%s/api/v1/tasks/%s/files/%s", c.baseURL, url.PathEscape(taskID), (&url.URL{Path: path}).EscapedPath())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func (c *ServerClient) do(req *http.Request, want int, v interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}
