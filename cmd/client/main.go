package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"telegram-text-export/internal/adapters/exporter"
	"telegram-text-export/internal/adapters/parser"
	"telegram-text-export/internal/bot"
	"telegram-text-export/internal/domain"
)

func main() {
	var (
		serverAddr   string
		downloadDir  string
		format       string
		pollInterval time.Duration
		timeout      time.Duration
	)
	flag.StringVar(&serverAddr, "server", "http://localhost:8080", "Server address")
	flag.StringVar(&downloadDir, "download", "", "Directory to download the rendered archive into")
	flag.StringVar(&format, "format", parser.FormatJSON, "Model format: json or tl")
	flag.DurationVar(&pollInterval, "poll", 2*time.Second, "Task status poll interval")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP request timeout")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("Exactly one model file is required. Usage: client [flags] <result.json>")
	}
	filePath := flag.Arg(0)

	ctx := context.Background()
	client := bot.NewServerClient(serverAddr, timeout)

	// Отправка модели на сервер
	file, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("Не удалось открыть модель: %v", err)
	}
	taskResp, err := client.StartTask(ctx, filepath.Base(filePath), format, file)
	file.Close()
	if err != nil {
		log.Fatalf("Не удалось создать задачу: %v", err)
	}
	taskID := taskResp.TaskID

	fmt.Printf("Задача создана с идентификатором: %s\n", taskID)

	// Опрос о статусе задачи
	for {
		time.Sleep(pollInterval)

		statusResp, err := client.GetTaskStatus(ctx, taskID)
		if err != nil {
			log.Fatalf("Не удалось получить статус задачи: %v", err)
		}

		fmt.Printf("Статус задачи: %s\n", statusResp.Status)

		switch statusResp.Status {
		case "completed":
			if statusResp.Cached {
				fmt.Println("Архив взят из кэша.")
			}
			manifest, err := client.GetTaskFiles(ctx, taskID)
			if err != nil {
				log.Fatalf("Не удалось получить оглавление: %v", err)
			}
			printManifest(statusResp.Hash, manifest.Files)
			if downloadDir != "" {
				download(ctx, client, taskID, manifest.Files, downloadDir)
			}
			return
		case "failed":
			fmt.Printf("Задача не выполнена: %s\n", statusResp.ErrorMessage)
			os.Exit(1)
		case "pending", "processing":
			continue
		default:
			log.Fatalf("Неизвестный статус задачи: %s", statusResp.Status)
		}
	}
}

func printManifest(title string, files []domain.ArchiveFile) {
	if err := exporter.NewConsoleExporter(os.Stdout).Export(title, files); err != nil {
		log.Fatalf("Не удалось вывести оглавление: %v", err)
	}
}

func download(ctx context.Context, client *bot.ServerClient, taskID string, files []domain.ArchiveFile, dir string) {
	for _, f := range files {
		rel := filepath.FromSlash(f.Path)
		if !filepath.IsLocal(rel) {
			log.Fatalf("Сервер вернул путь вне архива: %s", f.Path)
		}

		data, err := client.DownloadFile(ctx, taskID, f.Path)
		if err != nil {
			log.Fatalf("Не удалось скачать %s: %v", f.Path, err)
		}

		target := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			log.Fatalf("Не удалось создать каталог: %v", err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			log.Fatalf("Не удалось записать %s: %v", target, err)
		}
	}
	fmt.Printf("Архив сохранен в %s\n", dir)
}
