package config

import "time"

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxUploadSizeMB = 50
	DefaultCleanupInterval = 1 * time.Hour

	// Export defaults
	DefaultOutputDir           = "exports"
	DefaultLineBreak           = "lf"
	DefaultInternalLinksDomain = "https://t.me/"
	DefaultSliceSize           = 100
	DefaultTimezone            = "UTC"

	// Processing defaults
	DefaultTaskTimeout = 600 * time.Second
	DefaultCacheTTL    = 60 * time.Minute

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Bot defaults
	DefaultBotBackendURL       = "http://localhost:8080"
	DefaultBotPollInterval     = 2 * time.Second
	DefaultBotHTTPTimeout      = 30 * time.Second
	DefaultBotMaxFileSizeMB    = 20 // предел Bot API для скачивания файлов
	DefaultBotMaxFilesPerReply = 10
	DefaultBotPidFile          = "bot.pid"
	DefaultBotLogFile          = "bot.log"

	// Файл конфигурации, который читается, если путь не указан явно.
	DefaultConfigFile = "config.yml"
)

// defaultConfig возвращает конфигурацию со значениями по умолчанию.
func defaultConfig() *Config {
	return &Config{
		Server: Server{
			Host:            DefaultServerHost,
			Port:            DefaultServerPort,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxUploadSizeMB: DefaultMaxUploadSizeMB,
		},
		Export: Export{
			OutputDir:           DefaultOutputDir,
			LineBreak:           DefaultLineBreak,
			InternalLinksDomain: DefaultInternalLinksDomain,
			SliceSize:           DefaultSliceSize,
			Timezone:            DefaultTimezone,
		},
		Processing: Processing{
			TaskTimeout:     DefaultTaskTimeout,
			CacheTTL:        DefaultCacheTTL,
			CleanupInterval: DefaultCleanupInterval,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Bot: Bot{
			BackendURL:       DefaultBotBackendURL,
			PollInterval:     DefaultBotPollInterval,
			HTTPTimeout:      DefaultBotHTTPTimeout,
			MaxFileSizeMB:    DefaultBotMaxFileSizeMB,
			MaxFilesPerReply: DefaultBotMaxFilesPerReply,
			PidFile:          DefaultBotPidFile,
			LogFile:          DefaultBotLogFile,
		},
	}
}
