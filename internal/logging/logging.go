// Package logging builds the application logger and the event helpers shared
// by the provider, the pipeline and the dashboard.
//
// Console output goes to stderr so that table and CSV output on stdout stay
// clean. The file sink rotates through lumberjack.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"stock-forecaster/internal/config"
)

// LogConfig selects sinks and level for NewLoggerWithConfig.
type LogConfig struct {
	Level   string
	Console bool
	NoColor bool
	File    bool

	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// FromConfig converts the [logging] section of config.toml.
func FromConfig(cfg config.LoggingConfig) LogConfig {
	lc := LogConfig{
		Level:      cfg.Level,
		Console:    cfg.Console,
		File:       cfg.File,
		FilePath:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
	}
	if lc.FilePath == "" {
		lc.FilePath = filepath.Join(config.DefaultConfigDir(), "logs", "forecaster.log")
	}
	return lc
}

// NewLoggerWithConfig creates the application logger and sets the global
// level. With every sink disabled it still writes to stderr.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var sinks []io.Writer
	if cfg.Console {
		sinks = append(sinks, consoleWriter(cfg.NoColor))
	}
	if cfg.File {
		if w, err := rotatingWriter(cfg); err == nil {
			sinks = append(sinks, w)
		}
	}

	var out io.Writer
	switch len(sinks) {
	case 0:
		out = os.Stderr
	case 1:
		out = sinks[0]
	default:
		out = zerolog.MultiLevelWriter(sinks...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	return zerolog.New(out).With().Timestamp().Str("service", "forecaster").Logger()
}

var levelLabels = map[string]string{
	"debug": "\033[36mDBG\033[0m",
	"info":  "\033[32mINF\033[0m",
	"warn":  "\033[33mWRN\033[0m",
	"error": "\033[31mERR\033[0m",
}

func consoleWriter(noColor bool) zerolog.ConsoleWriter {
	w := zerolog.ConsoleWriter{
		Out:           os.Stderr,
		TimeFormat:    time.Kitchen,
		NoColor:       noColor,
		FieldsExclude: []string{"service"},
	}
	if !noColor {
		w.FormatLevel = func(i interface{}) string {
			name, _ := i.(string)
			if label, ok := levelLabels[name]; ok {
				return label
			}
			return "???"
		}
	}
	return w
}

func rotatingWriter(cfg LogConfig) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   true,
	}, nil
}

// parseLevel falls back to info for empty or unknown names.
func parseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(level)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// SetDebugLevel sets the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

type loggerKey struct{}

// WithLogger stores a request-scoped logger in ctx.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored by WithLogger, or a no-op logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithSymbol tags every entry with the ticker being processed.
func WithSymbol(logger zerolog.Logger, symbol string) zerolog.Logger {
	return logger.With().Str("symbol", symbol).Logger()
}

// WithProvider tags every entry with the market-data provider name.
func WithProvider(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("provider", name).Logger()
}

// LogStage logs the outcome of one pipeline stage. Halts are warnings.
func LogStage(logger zerolog.Logger, stage, symbol string, duration time.Duration, err error) {
	if err != nil {
		logger.Warn().
			Str("event", "stage").
			Str("stage", stage).
			Str("symbol", symbol).
			Dur("duration", duration).
			Err(err).
			Msg("Stage halted")
		return
	}
	logger.Debug().
		Str("event", "stage").
		Str("stage", stage).
		Str("symbol", symbol).
		Dur("duration", duration).
		Msg("Stage completed")
}

// LogProviderCall logs one market-data request. status is zero when no
// response arrived.
func LogProviderCall(logger zerolog.Logger, symbol string, status int, duration time.Duration, err error) {
	event := logger.Debug()
	if err != nil {
		event = logger.Warn().Err(err)
	}
	event.
		Str("event", "provider_call").
		Str("symbol", symbol).
		Int("status", status).
		Dur("duration", duration).
		Msg("Provider call")
}

// LogRequest logs one served HTTP request at a level chosen by status.
func LogRequest(logger zerolog.Logger, requestID, method, path string, status int, latency time.Duration) {
	var event *zerolog.Event
	switch {
	case status >= 500:
		event = logger.Error()
	case status >= 400:
		event = logger.Warn()
	default:
		event = logger.Info()
	}
	event.
		Str("event", "http").
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("latency", latency).
		Msg("Request completed")
}
