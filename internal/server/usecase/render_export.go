package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strings"

	"golang.org/x/sync/singleflight"

	"telegram-text-export/internal/adapters/output"
	"telegram-text-export/internal/adapters/output/text"
	"telegram-text-export/internal/cache"
	"telegram-text-export/internal/domain"
	"telegram-text-export/internal/pkg/config"
	"telegram-text-export/internal/ports"
)

// ErrUnknownFormat возвращается для формата модели без зарегистрированного парсера.
var ErrUnknownFormat = errors.New("unknown model format")

// Exporter проводит модель выгрузки через протокол писателя.
type Exporter interface {
	Run(ctx context.Context, export *domain.Export, writer ports.Writer, settings ports.Settings, stats ports.Stats) error
}

// RenderResult описывает результат рендеринга одной модели.
type RenderResult struct {
	Hash   string
	Dir    string
	Files  []domain.ArchiveFile
	Cached bool
}

// Option — функциональная опция для RenderExportUseCase.
type Option func(*RenderExportUseCase)

// WithLogger устанавливает логгер.
func WithLogger(l *slog.Logger) Option {
	return func(uc *RenderExportUseCase) {
		if l != nil {
			uc.log = l
		}
	}
}

// WithParser регистрирует парсер для формата модели.
func WithParser(format string, p ports.Parser) Option {
	return func(uc *RenderExportUseCase) {
		if p != nil {
			uc.parsers[format] = p
		}
	}
}

// RenderExportUseCase рендерит загруженную модель выгрузки в текстовый архив.
// Одновременные запросы одной модели выполняют один рендеринг.
type RenderExportUseCase struct {
	cfg        *config.Config
	parser     ports.Parser
	parsers    map[string]ports.Parser
	exporter   Exporter
	cacheStore *cache.CacheStore
	log        *slog.Logger

	inflight singleflight.Group
}

// NewRenderExportUseCase создает новый экземпляр RenderExportUseCase.
func NewRenderExportUseCase(
	cfg *config.Config,
	parser ports.Parser,
	exporter Exporter,
	cacheStore *cache.CacheStore,
	opts ...Option,
) *RenderExportUseCase {
	uc := &RenderExportUseCase{
		cfg:        cfg,
		parser:     parser,
		parsers:    make(map[string]ports.Parser),
		exporter:   exporter,
		cacheStore: cacheStore,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// NewSettings строит параметры писателя для каталога архива dir.
func NewSettings(cfg *config.Config, dir string) (ports.Settings, error) {
	loc, err := cfg.Location()
	if err != nil {
		return ports.Settings{}, err
	}
	if !strings.HasSuffix(dir, string(os.PathSeparator)) {
		dir += string(os.PathSeparator)
	}
	return ports.Settings{
		Path:                dir,
		LineBreak:           cfg.LineBreak(),
		InternalLinksDomain: cfg.Export.InternalLinksDomain,
		Location:            loc,
	}, nil
}

// RenderExport рендерит модель формата format из src в каталог <output_dir>/<hash>/.
// Пустой формат означает парсер по умолчанию. Хеш учитывает содержимое модели
// и параметры рендеринга, повторный запрос отдается из кэша.
func (uc *RenderExportUseCase) RenderExport(ctx context.Context, src ports.DataSource, format string) (*RenderResult, error) {
	modelParser, err := uc.parserFor(format)
	if err != nil {
		return nil, err
	}
	data, err := src.Fetch()
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	key := uc.cacheKey(data)

	v, err, shared := uc.inflight.Do(key, func() (interface{}, error) {
		return uc.render(ctx, key, modelParser, data)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		uc.log.Debug("render shared with a concurrent request", "hash", key)
	}

	result := *v.(*RenderResult)
	result.Files = slices.Clone(result.Files)
	return &result, nil
}

func (uc *RenderExportUseCase) parserFor(format string) (ports.Parser, error) {
	if p, ok := uc.parsers[format]; ok {
		return p, nil
	}
	if format == "" {
		return uc.parser, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func (uc *RenderExportUseCase) cacheKey(data []byte) string {
	return cache.CalculateHashFromString(strings.Join([]string{
		cache.CalculateHash(data),
		uc.cfg.Export.LineBreak,
		uc.cfg.Export.InternalLinksDomain,
		uc.cfg.Export.Timezone,
	}, "|"))
}

// render выполняется не более одного раза одновременно для каждого key.
func (uc *RenderExportUseCase) render(ctx context.Context, key string, modelParser ports.Parser, data []byte) (*RenderResult, error) {
	if item, found := uc.cacheStore.Get(key); found {
		if _, err := os.Stat(item.Dir); err == nil {
			uc.log.Info("cache hit", "hash", key)
			return &RenderResult{Hash: key, Dir: item.Dir, Files: item.Files, Cached: true}, nil
		}
		uc.log.Warn("cached archive is missing, rendering again", "hash", key, "dir", item.Dir)
	}

	export, err := modelParser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	uc.log.Info("model parsed", "hash", key, "dialogs", len(export.Dialogs), "left_channels", len(export.LeftChannels))

	dir := filepath.Join(uc.cfg.Export.OutputDir, key)
	// остатки прерванного рендеринга
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("failed to clean output directory: %w", err)
	}

	settings, err := NewSettings(uc.cfg, dir)
	if err != nil {
		return nil, err
	}

	stats := &output.Stats{}
	if err := uc.runExporter(ctx, export, settings, stats); err != nil {
		return nil, fmt.Errorf("failed to render export: %w", err)
	}

	files, err := BuildManifest(dir)
	if err != nil {
		return nil, err
	}

	ttl := uc.cfg.Processing.CacheTTL
	uc.cacheStore.Put(key, dir, files, ttl)

	count, size := stats.Snapshot()
	uc.log.Info("export rendered",
		"hash", key, "files", count, "bytes", size, "ttl", ttl.String(), "cache_size", uc.cacheStore.Len())
	return &RenderResult{Hash: key, Dir: dir, Files: files}, nil
}

// runExporter превращает нарушение контракта писателя в ошибку этого рендеринга.
func (uc *RenderExportUseCase) runExporter(ctx context.Context, export *domain.Export, settings ports.Settings, stats ports.Stats) (err error) {
	writer := text.NewWriter(text.WithLogger(uc.log))
	defer func() {
		if r := recover(); r != nil {
			_ = writer.Close()
			uc.log.Error("render panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("render aborted: %v", r)
		}
	}()
	return uc.exporter.Run(ctx, export, writer, settings, stats)
}

// BuildManifest перечисляет файлы архива в лексикографическом порядке путей.
// Пути относительные и разделены "/".
func BuildManifest(dir string) ([]domain.ArchiveFile, error) {
	files := []domain.ArchiveFile{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == dir {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		sum, err := cache.CalculateFileHash(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, domain.ArchiveFile{
			Path:   filepath.ToSlash(rel),
			Size:   info.Size(),
			SHA256: sum,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build manifest: %w", err)
	}
	slices.SortFunc(files, func(a, b domain.ArchiveFile) int {
		return strings.Compare(a.Path, b.Path)
	})
	return files, nil
}
