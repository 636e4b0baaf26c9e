// Package logging initializes the slog loggers used across the pipeline.
// Structured JSON goes to stdout for machine consumption, a human-readable
// text log goes to stderr, and an optional rotating file log captures the
// full run for the operator's audit trail.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

var structuredLogger *slog.Logger
var humanReadableLogger *slog.Logger
var fileWriter io.WriteCloser

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

// Add trace and fatal level names.
var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

func replaceLevelNames(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level := a.Value.Any().(slog.Level)
		levelLabel, exists := levelNames[level]
		if !exists {
			levelLabel = level.String()
		}
		a.Value = slog.StringValue(levelLabel)
	}
	return a
}

// Init initializes the logging system with structured and human-readable
// loggers at the given level.
func Init(level slog.Level) {
	structuredHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	})
	structuredLogger = slog.New(structuredHandler)

	humanReadableHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	})
	humanReadableLogger = slog.New(humanReadableHandler)

	slog.SetDefault(structuredLogger)
}

// InitFileLog attaches a rotating file log. maxSizeMB bounds a single log
// file; maxBackups bounds how many rotated files are kept.
func InitFileLog(path string, level slog.Level, maxSizeMB, maxBackups int) {
	fileWriter = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	handler := slog.NewJSONHandler(fileWriter, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	})
	structuredLogger = slog.New(handler)
	slog.SetDefault(structuredLogger)
}

// Close flushes and closes the file log if one was opened.
func Close() error {
	if fileWriter != nil {
		return fileWriter.Close()
	}
	return nil
}

// Structured returns the structured JSON logger.
func Structured() *slog.Logger {
	if structuredLogger == nil {
		Init(slog.LevelInfo)
	}
	return structuredLogger
}

// HumanReadable returns the text logger writing to stderr.
func HumanReadable() *slog.Logger {
	if humanReadableLogger == nil {
		Init(slog.LevelInfo)
	}
	return humanReadableLogger
}

// ForService returns a structured logger with a service attribute attached,
// so every record from one pipeline stage is taggable to that stage.
func ForService(service string) *slog.Logger {
	return Structured().With("service", service)
}
