package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"telegram-text-export/internal/adapters/parser"
	"telegram-text-export/internal/adapters/source"
	"telegram-text-export/internal/cache"
	"telegram-text-export/internal/domain"
	"telegram-text-export/internal/pkg/config"
	"telegram-text-export/internal/ports"
	"telegram-text-export/internal/server/usecase"
)

// Срок хранения записи о задаче.
const taskTTL = 24 * time.Hour

// ExportRenderer определяет интерфейс варианта использования, который рендерит модель выгрузки.
type ExportRenderer interface {
	RenderExport(ctx context.Context, src ports.DataSource, format string) (*usecase.RenderResult, error)
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	taskStore  *TaskStore
	cacheStore *cache.CacheStore
	renderer   ExportRenderer
	log        *slog.Logger

	stopCleanup context.CancelFunc
}

// New создает новый экземпляр Server и запускает фоновую очистку задач и кэша.
func New(cfg *config.Config, renderer ExportRenderer, taskStore *TaskStore, cacheStore *cache.CacheStore, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		cfg:        cfg,
		taskStore:  taskStore,
		cacheStore: cacheStore,
		renderer:   renderer,
		log:        log,
	}

	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(middleware.RequestID)
	chiRouter.Use(middleware.Logger)
	chiRouter.Use(middleware.Recoverer)

	chiRouter.Get("/health", s.handleHealth)

	// Маршруты API
	chiRouter.Route("/api/v1", func(r chi.Router) {
		r.Post("/render", s.handleRender)
		r.Get("/tasks/{taskID}", s.handleTaskStatus)
		r.Get("/tasks/{taskID}/files", s.handleTaskFiles)
		r.Get("/tasks/{taskID}/files/*", s.handleTaskFile)
	})

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      chiRouter,
		ReadTimeout:  config.DefaultReadTimeout,
		WriteTimeout: config.DefaultWriteTimeout,
		IdleTimeout:  config.DefaultIdleTimeout,
	}

	interval := cfg.Processing.CleanupInterval
	if interval <= 0 {
		interval = config.DefaultCleanupInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.stopCleanup = cancel
	s.taskStore.StartCleanupTicker(ctx, interval)
	s.cacheStore.StartCleanupTicker(ctx, interval)

	return s, nil
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера и фоновой очистки
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down http server")
	s.stopCleanup()
	return s.HTTPServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"cached_archives": s.cacheStore.Len(),
	})
}

// handleRender принимает модель выгрузки (поле формы "file", формат в поле "format")
// и ставит задачу рендеринга. Модель целиком держится в памяти до конца задачи.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Server.MaxUploadSizeMB << 20
	if maxSize <= 0 {
		maxSize = config.DefaultMaxUploadSizeMB << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Файл слишком большой", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Не удалось разобрать форму", http.StatusBadRequest)
		return
	}

	format := r.FormValue("format")
	switch format {
	case "", parser.FormatJSON, parser.FormatTL:
	default:
		http.Error(w, fmt.Sprintf("Неизвестный формат модели %q", format), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Не удалось получить файл из формы", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.log.Error("failed to read upload", "error", err)
		http.Error(w, "Не удалось прочитать загруженный файл", http.StatusInternalServerError)
		return
	}

	taskID := uuid.NewString()
	s.taskStore.CreateTask(taskID, taskTTL)
	s.log.Info("render task created", "task_id", taskID, "format", format, "size", len(data))

	go s.runTask(taskID, source.NewMemorySource(data), format)

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

// runTask выполняет рендеринг в фоне с таймаутом из конфигурации.
// Паника рендерера переводит задачу в failed, процесс продолжает работу.
func (s *Server) runTask(taskID string, src ports.DataSource, format string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("render task panicked", "task_id", taskID, "panic", r, "stack", string(debug.Stack()))
			_ = s.taskStore.UpdateTaskError(taskID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	_ = s.taskStore.UpdateTaskStatus(taskID, TaskStatusProcessing)

	ctx := context.Background()
	if timeout := s.cfg.Processing.TaskTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := s.renderer.RenderExport(ctx, src, format)
	if err != nil {
		s.log.Error("render task failed", "task_id", taskID, "error", err)
		_ = s.taskStore.UpdateTaskError(taskID, err.Error())
		return
	}

	s.log.Info("render task completed", "task_id", taskID, "files", len(result.Files),
		"cached", result.Cached, "cached_archives", s.cacheStore.Len())
	_ = s.taskStore.UpdateTaskResult(taskID, result)
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	task, ok := s.lookupTask(w, r)
	if !ok {
		return
	}

	resp := map[string]interface{}{
		"task_id":       task.ID,
		"status":        task.Status,
		"error_message": task.ErrorMessage,
	}
	if task.Result != nil {
		resp["hash"] = task.Result.Hash
		resp["cached"] = task.Result.Cached
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTaskFiles возвращает оглавление готового архива.
func (s *Server) handleTaskFiles(w http.ResponseWriter, r *http.Request) {
	task, ok := s.completedTask(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, struct {
		TaskID string               `json:"task_id"`
		Hash   string               `json:"hash"`
		Files  []domain.ArchiveFile `json:"files"`
	}{
		TaskID: task.ID,
		Hash:   task.Result.Hash,
		Files:  task.Result.Files,
	})
}

// handleTaskFile отдает один файл архива. Доступны только пути из оглавления.
func (s *Server) handleTaskFile(w http.ResponseWriter, r *http.Request) {
	task, ok := s.completedTask(w, r)
	if !ok {
		return
	}

	rel := chi.URLParam(r, "*")
	found := false
	for _, f := range task.Result.Files {
		if f.Path == rel {
			found = true
			break
		}
	}
	if !found {
		http.Error(w, "Файл не найден", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	http.ServeFile(w, r, filepath.Join(task.Result.Dir, filepath.FromSlash(rel)))
}

func (s *Server) lookupTask(w http.ResponseWriter, r *http.Request) (Task, bool) {
	task, err := s.taskStore.GetTask(chi.URLParam(r, "taskID"))
	if err != nil {
		http.Error(w, "Задача не найдена", http.StatusNotFound)
		return Task{}, false
	}
	return task, true
}

func (s *Server) completedTask(w http.ResponseWriter, r *http.Request) (Task, bool) {
	task, ok := s.lookupTask(w, r)
	if !ok {
		return Task{}, false
	}
	if task.Status != TaskStatusCompleted || task.Result == nil {
		http.Error(w, "Задача не завершена", http.StatusBadRequest)
		return Task{}, false
	}
	return task, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
