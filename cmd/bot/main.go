package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sevlyar/go-daemon"

	"telegram-text-export/internal/bot"
	"telegram-text-export/internal/log"
	"telegram-text-export/internal/pkg/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("bot run failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config.yml")
	detach := flag.Bool("daemon", false, "run in background, writing pid and log files from the bot section")
	flag.Parse()

	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Bot.Validate(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to validate bot config: %v\n", err)
		os.Exit(1)
	}

	// 2. Отделение от терминала. Родитель завершается, работу продолжает потомок,
	// его stdout и stderr уходят в LogFileName.
	if *detach {
		dctx := &daemon.Context{
			PidFileName: cfg.Bot.PidFile,
			PidFilePerm: 0o644,
			LogFileName: cfg.Bot.LogFile,
			LogFilePerm: 0o640,
			WorkDir:     "./",
			Umask:       0o27,
		}
		child, err := dctx.Reborn()
		if err != nil {
			return fmt.Errorf("failed to daemonize: %w", err)
		}
		if child != nil {
			_, _ = fmt.Fprintf(os.Stdout, "bot started in background, pid %d\n", child.Pid)
			return nil
		}
		defer func() { _ = dctx.Release() }()
	}

	// 3. Логгер с маскировкой токена бота
	logger := log.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)
	if err := tgbotapi.SetLogger(&log.TGBotAPIAdapter{Logger: logger.With(slog.String("component", "tgbotapi"))}); err != nil {
		return fmt.Errorf("failed to set bot api logger: %w", err)
	}

	// 4. Инициализация компонентов
	taskStore := bot.NewTaskStore()
	serverClient := bot.NewServerClient(cfg.Bot.BackendURL, cfg.Bot.HTTPTimeout)

	b, err := bot.NewBot(cfg.Bot, serverClient, taskStore, logger.With(slog.String("component", "bot")))
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	slog.Info("bot created, starting", "backend_url", cfg.Bot.BackendURL)

	// 5. Работа до сигнала завершения
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b.Start(ctx)

	slog.Info("bot stopped gracefully")
	return nil
}
