// Команда exporter рендерит одну или несколько моделей выгрузки в текстовые архивы.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"telegram-text-export/internal/adapters/exporter"
	"telegram-text-export/internal/adapters/output/text"
	"telegram-text-export/internal/adapters/parser"
	"telegram-text-export/internal/adapters/source"
	"telegram-text-export/internal/adapters/ui"
	"telegram-text-export/internal/core/services"
	"telegram-text-export/internal/log"
	"telegram-text-export/internal/pkg/config"
	"telegram-text-export/internal/pkg/term"
	"telegram-text-export/internal/ports"
	"telegram-text-export/internal/server/usecase"
)

const usage = `Usage: exporter [flags] <result.json>...

Renders every model into <out>/<name>/. Use "-" to read a model from stdin.

Flags:
`

func main() {
	if err := run(); err != nil {
		slog.Error("export failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	flags := flag.NewFlagSet("exporter", flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprint(flags.Output(), usage)
		flags.PrintDefaults()
	}
	configPath := flags.String("config", "", "path to config.yml")
	outDir := flags.String("out", "", "output directory (overrides export.output_dir)")
	crlf := flags.Bool("crlf", false, "use CRLF line breaks")
	manifest := flags.Bool("manifest", false, "print the file list of every written archive")
	jobs := flags.Int("jobs", runtime.NumCPU(), "number of models rendered concurrently")
	format := flags.String("format", parser.FormatJSON, "model format: json or tl")
	_ = flags.Parse(os.Args[1:])

	inputs := flags.Args()
	if len(inputs) == 0 {
		flags.Usage()
		return errors.New("at least one model file is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *outDir != "" {
		cfg.Export.OutputDir = *outDir
	}
	if *crlf {
		cfg.Export.LineBreak = "crlf"
	}

	logger := log.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	modelParser, err := parser.ForFormat(*format, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interactive := term.IsTerminal(os.Stdout)
	progress := ui.NewProgress(os.Stdout, !interactive, term.Width(os.Stdout)/2)

	exportService := services.NewExportService(
		services.WithSliceSize(cfg.Export.SliceSize),
		services.WithLogger(logger),
	)

	names := archiveNames(inputs)
	errs := make([]error, len(inputs))

	g := new(errgroup.Group)
	g.SetLimit(max(*jobs, 1))
	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			dir := filepath.Join(cfg.Export.OutputDir, names[i])
			task := progress.Start(names[i])
			if err := renderOne(ctx, cfg, exportService, modelParser, input, dir, task, logger); err != nil {
				task.Fail(err)
				errs[i] = fmt.Errorf("%s: %w", input, err)
				return nil
			}
			task.Complete()
			return nil
		})
	}
	_ = g.Wait()
	progress.Wait()

	if *manifest {
		printer := exporter.NewConsoleExporter(os.Stdout)
		for i, name := range names {
			if errs[i] != nil {
				continue
			}
			if err := printManifest(printer, name, filepath.Join(cfg.Export.OutputDir, name)); err != nil {
				errs[i] = err
			}
		}
	}

	return errors.Join(errs...)
}

// renderOne рендерит одну модель. Нарушение контракта писателя завершает только эту модель.
func renderOne(
	ctx context.Context,
	cfg *config.Config,
	service *services.ExportService,
	modelParser ports.Parser,
	input, dir string,
	stats ui.Task,
	logger *slog.Logger,
) (err error) {
	var writer *text.Writer
	defer func() {
		if r := recover(); r != nil {
			if writer != nil {
				_ = writer.Close()
			}
			logger.Error("render panicked", "input", input, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("render aborted: %v", r)
		}
	}()

	data, err := source.NewCliSource(input).Fetch()
	if err != nil {
		return err
	}

	export, err := modelParser.Parse(data)
	if err != nil {
		return err
	}

	settings, err := usecase.NewSettings(cfg, dir)
	if err != nil {
		return err
	}

	writer = text.NewWriter(text.WithLogger(logger.With(slog.String("input", input))))
	if err := service.Run(ctx, export, writer, settings, stats); err != nil {
		return err
	}

	logger.Info("archive written", "input", input, "overview", writer.MainFilePath())
	return nil
}

func printManifest(printer *exporter.ConsoleExporter, name, dir string) error {
	files, err := usecase.BuildManifest(dir)
	if err != nil {
		return err
	}
	return printer.Export(name, files)
}

// archiveNames выбирает каталог для каждого входа по имени файла без расширения.
// Занятое имя получает первый свободный числовой суффикс, все имена различны.
func archiveNames(inputs []string) []string {
	names := make([]string, len(inputs))
	taken := make(map[string]bool, len(inputs))
	for i, input := range inputs {
		name := "stdin"
		if input != source.StdinPath {
			base := filepath.Base(input)
			name = strings.TrimSuffix(base, filepath.Ext(base))
		}
		candidate := name
		for n := 2; taken[candidate]; n++ {
			candidate = name + "_" + strconv.Itoa(n)
		}
		taken[candidate] = true
		names[i] = candidate
	}
	return names
}
