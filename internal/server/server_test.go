package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"telegram-text-export/internal/adapters/parser"
	"telegram-text-export/internal/cache"
	"telegram-text-export/internal/core/services"
	"telegram-text-export/internal/domain"
	"telegram-text-export/internal/pkg/config"
	"telegram-text-export/internal/ports"
	"telegram-text-export/internal/server/usecase"
)

// Мок для ExportRenderer
type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) RenderExport(ctx context.Context, src ports.DataSource, format string) (*usecase.RenderResult, error) {
	args := m.Called(ctx, src, format)
	if res := args.Get(0); res != nil {
		return res.(*usecase.RenderResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, renderer ExportRenderer) *Server {
	t.Helper()
	cfg := &config.Config{
		Server: config.Server{Host: "localhost", Port: 8080, MaxUploadSizeMB: 1},
		Export: config.Export{
			OutputDir:           t.TempDir(),
			LineBreak:           "lf",
			InternalLinksDomain: "https://t.me/",
			Timezone:            "UTC",
		},
		Processing: config.Processing{TaskTimeout: time.Minute, CacheTTL: time.Minute},
	}
	if renderer == nil {
		renderer = usecase.NewRenderExportUseCase(cfg, parser.NewJSONParser(), services.NewExportService(),
			cache.NewCacheStore(), usecase.WithLogger(discardLogger()))
	}
	srv, err := New(cfg, renderer, NewTaskStore(), cache.NewCacheStore(), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.HTTPServer.Handler.ServeHTTP(rr, req)
	return rr
}

func uploadRequest(t *testing.T, field string, content []byte, fields ...string) *http.Request {
	t.Helper()
	var b bytes.Buffer
	writer := multipart.NewWriter(&b)
	for i := 0; i+1 < len(fields); i += 2 {
		require.NoError(t, writer.WriteField(fields[i], fields[i+1]))
	}
	fw, err := writer.CreateFormFile(field, "result.json")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/render", &b)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func submit(t *testing.T, srv *Server, content string) string {
	t.Helper()
	rr := serve(srv, uploadRequest(t, "file", []byte(content)))
	require.Equal(t, http.StatusAccepted, rr.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotEmpty(t, resp["task_id"])
	return resp["task_id"]
}

func waitStatus(t *testing.T, srv *Server, taskID string, status TaskStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		task, err := srv.taskStore.GetTask(taskID)
		return err == nil && task.Status == status
	}, 5*time.Second, 10*time.Millisecond)
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, new(mockRenderer))

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, float64(0), resp["cached_archives"])

	srv.cacheStore.Put("hash", t.TempDir(), nil, time.Minute)
	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	resp = nil
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, float64(1), resp["cached_archives"])
}

func TestServer_Render(t *testing.T) {
	t.Run("Полный цикл: загрузка, статус, оглавление, файл", func(t *testing.T) {
		srv := newTestServer(t, nil)
		taskID := submit(t, srv, `{
			"dialogs": [{
				"info": {"type": "personal", "name": "Bob", "relative_path": "chats/chat_1/"},
				"peers": [{"type": "user", "id": 2, "first_name": "Bob"}],
				"messages": [{"id": 1, "from_id": 2, "text": "Hello"}]
			}]
		}`)
		waitStatus(t, srv, taskID, TaskStatusCompleted)

		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/"+taskID, nil))
		require.Equal(t, http.StatusOK, rr.Code)
		var status map[string]interface{}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&status))
		assert.Equal(t, string(TaskStatusCompleted), status["status"])
		assert.NotEmpty(t, status["hash"])
		assert.Equal(t, false, status["cached"])

		rr = serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/"+taskID+"/files", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		var manifest struct {
			Files []domain.ArchiveFile `json:"files"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&manifest))
		paths := make([]string, 0, len(manifest.Files))
		for _, f := range manifest.Files {
			paths = append(paths, f.Path)
		}
		assert.Equal(t, []string{"chats.txt", "chats/chat_1/messages.txt", "overview.txt"}, paths)

		rr = serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/"+taskID+"/files/chats/chat_1/messages.txt", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Hello")
		assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))

		rr = serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/"+taskID+"/files/secret.txt", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Ошибка рендеринга переводит задачу в failed", func(t *testing.T) {
		renderer := new(mockRenderer)
		renderer.On("RenderExport", mock.Anything, mock.Anything, "").
			Return(nil, errors.New("failed to parse model")).Once()
		srv := newTestServer(t, renderer)

		taskID := submit(t, srv, `{}`)
		waitStatus(t, srv, taskID, TaskStatusFailed)

		task, err := srv.taskStore.GetTask(taskID)
		require.NoError(t, err)
		assert.Equal(t, "failed to parse model", task.ErrorMessage)
		renderer.AssertExpectations(t)

		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/"+taskID+"/files", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Загруженная модель передается рендереру из памяти", func(t *testing.T) {
		renderer := new(mockRenderer)
		var uploaded []byte
		renderer.On("RenderExport", mock.Anything, mock.Anything, parser.FormatTL).
			Run(func(args mock.Arguments) {
				data, err := args.Get(1).(ports.DataSource).Fetch()
				if err == nil {
					uploaded = data
				}
			}).
			Return(&usecase.RenderResult{Hash: "h"}, nil).Once()
		srv := newTestServer(t, renderer)

		rr := serve(srv, uploadRequest(t, "file", []byte("binary dump"), "format", parser.FormatTL))
		require.Equal(t, http.StatusAccepted, rr.Code)
		var resp map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))

		waitStatus(t, srv, resp["task_id"], TaskStatusCompleted)
		assert.Equal(t, []byte("binary dump"), uploaded)
		renderer.AssertExpectations(t)
	})

	t.Run("Неизвестный формат модели", func(t *testing.T) {
		renderer := new(mockRenderer)
		srv := newTestServer(t, renderer)
		rr := serve(srv, uploadRequest(t, "file", []byte(`{}`), "format", "xml"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "xml")
		renderer.AssertNotCalled(t, "RenderExport", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Фото без файла переводит задачу в failed, сервер продолжает работу", func(t *testing.T) {
		srv := newTestServer(t, nil)
		taskID := submit(t, srv, `{
			"dialogs": [{
				"info": {"type": "personal", "name": "Bob", "relative_path": "chats/chat_1/"},
				"messages": [{"id": 1, "media": {"type": "photo"}}]
			}]
		}`)
		waitStatus(t, srv, taskID, TaskStatusFailed)

		task, err := srv.taskStore.GetTask(taskID)
		require.NoError(t, err)
		assert.Contains(t, task.ErrorMessage, "file has neither relative path nor skip reason")

		nextID := submit(t, srv, `{"personal": {"user": {"first_name": "Ivan"}}}`)
		waitStatus(t, srv, nextID, TaskStatusCompleted)
	})

	t.Run("Каталог диалога вне корня выгрузки", func(t *testing.T) {
		srv := newTestServer(t, nil)
		taskID := submit(t, srv, `{
			"dialogs": [{"info": {"type": "personal", "name": "Bob", "relative_path": "../../escaped/"}}]
		}`)
		waitStatus(t, srv, taskID, TaskStatusFailed)

		task, err := srv.taskStore.GetTask(taskID)
		require.NoError(t, err)
		assert.Contains(t, task.ErrorMessage, "leaves the export directory")
	})

	t.Run("Паника рендерера переводит задачу в failed", func(t *testing.T) {
		renderer := new(mockRenderer)
		renderer.On("RenderExport", mock.Anything, mock.Anything, "").
			Panic("writer contract violated").Once()
		srv := newTestServer(t, renderer)

		var taskID string
		require.NotPanics(t, func() { taskID = submit(t, srv, `{}`) })
		waitStatus(t, srv, taskID, TaskStatusFailed)

		task, err := srv.taskStore.GetTask(taskID)
		require.NoError(t, err)
		assert.Equal(t, "internal error: writer contract violated", task.ErrorMessage)

		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Запрос без файла", func(t *testing.T) {
		srv := newTestServer(t, new(mockRenderer))
		rr := serve(srv, uploadRequest(t, "other", []byte(`{}`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Запрос не multipart", func(t *testing.T) {
		srv := newTestServer(t, new(mockRenderer))
		rr := serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/render", bytes.NewBufferString("{}")))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Слишком большой файл", func(t *testing.T) {
		renderer := new(mockRenderer)
		srv := newTestServer(t, renderer)
		rr := serve(srv, uploadRequest(t, "file", bytes.Repeat([]byte("x"), 2<<20)))
		assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, rr.Code)
		renderer.AssertNotCalled(t, "RenderExport", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestServer_Tasks(t *testing.T) {
	srv := newTestServer(t, new(mockRenderer))

	t.Run("Статус задачи в ожидании", func(t *testing.T) {
		srv.taskStore.CreateTask("test-task-1", time.Minute)

		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/test-task-1", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp map[string]interface{}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "test-task-1", resp["task_id"])
		assert.Equal(t, string(TaskStatusPending), resp["status"])
		assert.NotContains(t, resp, "hash")
	})

	t.Run("Задача не найдена", func(t *testing.T) {
		for _, path := range []string{
			"/api/v1/tasks/non-existent",
			"/api/v1/tasks/non-existent/files",
			"/api/v1/tasks/non-existent/files/overview.txt",
		} {
			rr := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusNotFound, rr.Code, path)
		}
	})

	t.Run("Оглавление незавершенной задачи", func(t *testing.T) {
		srv.taskStore.CreateTask("test-task-2", time.Minute)
		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/test-task-2/files", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Файл завершенной задачи отдается из каталога архива", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "overview.txt"), []byte("First name: Ivan\n"), 0o644))
		srv.taskStore.CreateTask("test-task-3", time.Minute)
		require.NoError(t, srv.taskStore.UpdateTaskResult("test-task-3", &usecase.RenderResult{
			Dir:   dir,
			Files: []domain.ArchiveFile{{Path: "overview.txt", Size: 17}},
		}))

		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/test-task-3/files/overview.txt", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "First name: Ivan\n", rr.Body.String())
	})
}
