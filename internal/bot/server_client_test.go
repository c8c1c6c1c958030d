package bot

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gotd/td/bin"
	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-text-export/internal/adapters/parser"
	"telegram-text-export/internal/adapters/telegram"
	"telegram-text-export/internal/cache"
	"telegram-text-export/internal/core/services"
	"telegram-text-export/internal/pkg/config"
	"telegram-text-export/internal/server"
	"telegram-text-export/internal/server/usecase"
)

// newBackend поднимает настоящий сервис рендеринга с обоими форматами модели.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Server: config.Server{Host: "localhost", Port: 8080, MaxUploadSizeMB: 1},
		Export: config.Export{
			OutputDir:           t.TempDir(),
			LineBreak:           "lf",
			InternalLinksDomain: "https://t.me/",
			SliceSize:           10,
			Timezone:            "UTC",
		},
		Processing: config.Processing{TaskTimeout: time.Minute, CacheTTL: time.Minute},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cacheStore := cache.NewCacheStore()
	renderer := usecase.NewRenderExportUseCase(cfg, parser.NewJSONParser(), services.NewExportService(), cacheStore,
		usecase.WithLogger(logger),
		usecase.WithParser(parser.FormatTL, telegram.NewDumpParser()),
	)
	srv, err := server.New(cfg, renderer, server.NewTaskStore(), cacheStore, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	ts := httptest.NewServer(srv.HTTPServer.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func waitCompleted(t *testing.T, client *ServerClient, taskID string) *TaskStatusResponse {
	t.Helper()
	var status *TaskStatusResponse
	require.Eventually(t, func() bool {
		var err error
		status, err = client.GetTaskStatus(context.Background(), taskID)
		if err != nil {
			return false
		}
		return status.Status == "completed" || status.Status == "failed"
	}, 5*time.Second, 10*time.Millisecond)
	return status
}

func TestServerClient(t *testing.T) {
	ts := newBackend(t)
	client := NewServerClient(ts.URL+"/", time.Second)
	ctx := context.Background()

	t.Run("result.json: задача, оглавление, файл", func(t *testing.T) {
		start, err := client.StartTask(ctx, "result.json", parser.FormatJSON,
			strings.NewReader(`{"personal": {"user": {"first_name": "Ivan"}}}`))
		require.NoError(t, err)

		status := waitCompleted(t, client, start.TaskID)
		require.Equal(t, "completed", status.Status, status.ErrorMessage)
		assert.NotEmpty(t, status.Hash)

		files, err := client.GetTaskFiles(ctx, start.TaskID)
		require.NoError(t, err)
		require.Len(t, files.Files, 1)
		assert.Equal(t, "overview.txt", files.Files[0].Path)

		data, err := client.DownloadFile(ctx, start.TaskID, "overview.txt")
		require.NoError(t, err)
		assert.Contains(t, string(data), "Ivan")
	})

	t.Run("бинарный дамп", func(t *testing.T) {
		var b bin.Buffer
		require.NoError(t, (&telegram.Dump{Self: &tg.User{ID: 1, FirstName: "Ivan"}}).Encode(&b))

		start, err := client.StartTask(ctx, "account.bin", parser.FormatTL, bytes.NewReader(b.Buf))
		require.NoError(t, err)

		status := waitCompleted(t, client, start.TaskID)
		assert.Equal(t, "completed", status.Status, status.ErrorMessage)
	})

	t.Run("ошибка разбора доходит до клиента", func(t *testing.T) {
		start, err := client.StartTask(ctx, "result.json", "", strings.NewReader(`{"personal": `))
		require.NoError(t, err)

		status := waitCompleted(t, client, start.TaskID)
		assert.Equal(t, "failed", status.Status)
		assert.NotEmpty(t, status.ErrorMessage)
	})

	t.Run("неизвестный формат", func(t *testing.T) {
		_, err := client.StartTask(ctx, "result.xml", "xml", strings.NewReader(`<x/>`))
		assert.ErrorContains(t, err, "unexpected status code 400")
	})

	t.Run("файл вне оглавления", func(t *testing.T) {
		start, err := client.StartTask(ctx, "result.json", "", strings.NewReader(`{}`))
		require.NoError(t, err)
		waitCompleted(t, client, start.TaskID)

		_, err = client.DownloadFile(ctx, start.TaskID, "../config.yml")
		assert.ErrorContains(t, err, "unexpected status code")
	})

	t.Run("неизвестная задача", func(t *testing.T) {
		_, err := client.GetTaskStatus(ctx, "missing")
		assert.ErrorContains(t, err, "404")
	})
}

func TestServerClient_BadResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	_, err := NewServerClient(ts.URL, time.Second).StartTask(context.Background(), "a.json", "", strings.NewReader("{}"))
	assert.ErrorContains(t, err, "no task id")
}
