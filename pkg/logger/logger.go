package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with additional context
type Logger struct {
	zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	Output string // stdout or file path
}

// New creates a new logger with the given configuration
func New(cfg Config) *Logger {
	var output io.Writer = os.Stdout

	// Set output
	if cfg.Output != "" && cfg.Output != "stdout" {
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			output = file
		}
	}

	// Set format
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	// Parse level
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()

	return &Logger{Logger: logger}
}

// Default creates a default console logger
func Default() *Logger {
	return New(Config{
		Level:  "info",
		Format: "console",
		Output: "stdout",
	})
}

// Nop creates a logger that discards everything (used in tests)
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// WithComponent adds a component field to the logger
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.With().Str("component", component).Logger(),
	}
}

// WithOrigin adds origin fields to the logger (for content origins)
func (l *Logger) WithOrigin(originType, sourceName string) *Logger {
	return &Logger{
		Logger: l.With().
			Str("origin_type", originType).
			Str("source", sourceName).
			Logger(),
	}
}

// WithSubreddit adds a subreddit field to the logger
func (l *Logger) WithSubreddit(name string) *Logger {
	return &Logger{
		Logger: l.With().Str("subreddit", name).Logger(),
	}
}

// WithPostID adds a post ID to the logger
func (l *Logger) WithPostID(id string) *Logger {
	return &Logger{
		Logger: l.With().Str("post_id", id).Logger(),
	}
}
