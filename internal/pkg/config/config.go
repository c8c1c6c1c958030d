// Package config предоставляет управление конфигурацией приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // часовые пояса доступны и в минимальных образах

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Server содержит конфигурацию HTTP-сервиса рендеринга
type Server struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxUploadSizeMB int64         `yaml:"max_upload_size_mb"`
}

// Export содержит параметры текстового архива
type Export struct {
	OutputDir           string `yaml:"output_dir"`
	LineBreak           string `yaml:"line_break"` // lf, crlf
	InternalLinksDomain string `yaml:"internal_links_domain"`
	SliceSize           int    `yaml:"slice_size"`
	Timezone            string `yaml:"timezone"`
}

// Processing содержит конфигурацию обработки
type Processing struct {
	TaskTimeout     time.Duration `yaml:"task_timeout"` // 0 - без ограничений
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Bot содержит конфигурацию Telegram-бота, который пересылает выгрузки сервису рендеринга
type Bot struct {
	Token            string        `yaml:"token"`
	BackendURL       string        `yaml:"backend_url"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	HTTPTimeout      time.Duration `yaml:"http_timeout"`
	MaxFileSizeMB    int64         `yaml:"max_file_size_mb"`
	MaxFilesPerReply int           `yaml:"max_files_per_reply"`
	PidFile          string        `yaml:"pid_file"` // для запуска демоном
	LogFile          string        `yaml:"log_file"`
}

// Config содержит конфигурацию приложения
type Config struct {
	Server     Server     `yaml:"server"`
	Export     Export     `yaml:"export"`
	Processing Processing `yaml:"processing"`
	Logging    Logging    `yaml:"logging"`
	Bot        Bot        `yaml:"bot"`
}

// LoadConfig загружает конфигурацию: значения по умолчанию, затем YAML-файл path
// (DefaultConfigFile, если путь пуст), затем переменные окружения и .env файл.
func LoadConfig(path string) (*Config, error) {
	// .env необязателен, переменные окружения могут быть заданы напрямую
	_ = godotenv.Load()

	if path == "" {
		path = DefaultConfigFile
	}

	cfg := defaultConfig()
	if err := loadFromYAML(path, cfg); err != nil {
		return nil, err
	}
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию из env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация: %w", err)
	}
	return cfg, nil
}

// loadFromYAML накладывает значения из YAML-файла на cfg. Отсутствие файла не является ошибкой.
func loadFromYAML(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}
	return nil
}

// loadFromEnv переопределяет значения переменными окружения
func loadFromEnv(cfg *Config) error {
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Export.OutputDir = getEnv("EXPORT_OUTPUT_DIR", cfg.Export.OutputDir)
	cfg.Export.LineBreak = getEnv("EXPORT_LINE_BREAK", cfg.Export.LineBreak)
	cfg.Export.InternalLinksDomain = getEnv("EXPORT_INTERNAL_LINKS_DOMAIN", cfg.Export.InternalLinksDomain)
	cfg.Export.Timezone = getEnv("EXPORT_TIMEZONE", cfg.Export.Timezone)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
	cfg.Bot.Token = getEnv("BOT_TOKEN", cfg.Bot.Token)
	cfg.Bot.BackendURL = getEnv("BOT_BACKEND_URL", cfg.Bot.BackendURL)

	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("недопустимый SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("EXPORT_SLICE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("недопустимый EXPORT_SLICE_SIZE: %w", err)
		}
		cfg.Export.SliceSize = size
	}
	if v := os.Getenv("TASK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("недопустимый TASK_TIMEOUT: %w", err)
		}
		cfg.Processing.TaskTimeout = d
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("недопустимый CACHE_TTL: %w", err)
		}
		cfg.Processing.CacheTTL = d
	}
	if v := os.Getenv("BOT_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("недопустимый BOT_POLL_INTERVAL: %w", err)
		}
		cfg.Bot.PollInterval = d
	}
	return nil
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LineBreak возвращает перевод строки архива.
func (c *Config) LineBreak() string {
	if c.Export.LineBreak == "crlf" {
		return "\r\n"
	}
	return "\n"
}

// Location возвращает часовой пояс дат архива.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Export.Timezone)
	if err != nil {
		return nil, fmt.Errorf("недопустимый export.timezone %q: %w", c.Export.Timezone, err)
	}
	return loc, nil
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout должно быть положительным")
	}

	if c.Server.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("server.max_upload_size_mb должно быть положительным")
	}

	if c.Export.OutputDir == "" {
		return fmt.Errorf("export.output_dir не может быть пустым")
	}

	switch c.Export.LineBreak {
	case "lf", "crlf":
	default:
		return fmt.Errorf("export.line_break должен быть одним из: lf, crlf")
	}

	if c.Export.SliceSize <= 0 {
		return fmt.Errorf("export.slice_size должно быть положительным")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.Processing.TaskTimeout < 0 {
		return fmt.Errorf("processing.task_timeout должно быть неотрицательным (0 для отсутствия ограничений)")
	}

	if c.Processing.CacheTTL <= 0 {
		return fmt.Errorf("processing.cache_ttl должно быть положительным")
	}

	if c.Processing.CleanupInterval <= 0 {
		return fmt.Errorf("processing.cleanup_interval должно быть положительным")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format должен быть одним из: json, text")
	}

	return nil
}

// Validate проверяет раздел бота. Вызывается только процессом бота,
// сервису рендеринга токен не нужен.
func (b *Bot) Validate() error {
	if b.Token == "" || b.Token == "YOUR_TELEGRAM_BOT_TOKEN" {
		return fmt.Errorf("bot.token не настроен")
	}
	if b.BackendURL == "" {
		return fmt.Errorf("bot.backend_url не может быть пустым")
	}
	if b.PollInterval <= 0 {
		return fmt.Errorf("bot.poll_interval должно быть положительным")
	}
	if b.HTTPTimeout <= 0 {
		return fmt.Errorf("bot.http_timeout должно быть положительным")
	}
	if b.MaxFileSizeMB <= 0 {
		return fmt.Errorf("bot.max_file_size_mb должно быть положительным")
	}
	if b.MaxFilesPerReply <= 0 {
		return fmt.Errorf("bot.max_files_per_reply должно быть положительным")
	}
	return nil
}

// getEnv извлекает значение переменной окружения или возвращает значение по умолчанию, если она не установлена
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
