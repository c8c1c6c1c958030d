package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"telegram-text-export/internal/adapters/parser"
	"telegram-text-export/internal/cache"
	"telegram-text-export/internal/core/services"
	"telegram-text-export/internal/log"
	"telegram-text-export/internal/pkg/config"
	"telegram-text-export/internal/server"
	"telegram-text-export/internal/server/usecase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

// run инкапсулирует всю логику инициализации и запуска приложения.
func run() error {
	configPath := flag.String("config", "", "path to config.yml")
	flag.Parse()

	// 1. Загрузка и валидация конфигурации
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		// Логгер еще не инициализирован, выводим в stderr
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализация логгера
	logger := log.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	// 3. Инициализация зависимостей
	taskStore := server.NewTaskStore()
	cacheStore := cache.NewCacheStore()
	exporter := services.NewExportService(
		services.WithSliceSize(cfg.Export.SliceSize),
		services.WithLogger(logger.With(slog.String("component", "export"))),
	)
	renderLog := logger.With(slog.String("component", "render"))
	renderOpts := []usecase.Option{usecase.WithLogger(renderLog)}
	for _, format := range []string{parser.FormatJSON, parser.FormatTL} {
		p, err := parser.ForFormat(format, renderLog)
		if err != nil {
			return fmt.Errorf("failed to create %s parser: %w", format, err)
		}
		renderOpts = append(renderOpts, usecase.WithParser(format, p))
	}
	renderer := usecase.NewRenderExportUseCase(cfg, parser.NewJSONParser(), exporter, cacheStore, renderOpts...)

	// 4. Создание HTTP-сервера
	srv, err := server.New(cfg, renderer, taskStore, cacheStore, logger.With(slog.String("component", "server")))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// 5. Запуск сервера и graceful shutdown
	serverErr := make(chan error, 1)
	go func() {
		defer close(serverErr)
		slog.Info("Starting server", "addr", cfg.Address(), "output_dir", cfg.Export.OutputDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("Signal received, shutting down...")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	<-serverErr
	slog.Info("Application exited gracefully")
	return nil
}
