// Package logging provides categorized structured logging for GridScout on
// top of zap. Each subsystem gets a named logger so log output can be
// filtered per concern (api, dataset, picklist, store, sheets, llm).
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a logging subsystem.
type Category string

const (
	CategoryBoot     Category = "boot"
	CategoryAPI      Category = "api"
	CategoryDataset  Category = "dataset"
	CategoryPicklist Category = "picklist"
	CategoryStore    Category = "store"
	CategorySheets   Category = "sheets"
	CategoryTBA      Category = "tba"
	CategoryLLM      Category = "llm"
	CategoryArchive  Category = "archive"
)

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	loggers = make(map[Category]*zap.Logger)
)

// Initialize configures the process-wide logger. level is one of
// debug/info/warn/error; format is console or json. Safe to call more than
// once; later calls replace the root logger.
func Initialize(level, format string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if format != "json" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	root = logger
	loggers = make(map[Category]*zap.Logger)
	mu.Unlock()
	return nil
}

// Get returns the named logger for a category.
func Get(cat Category) *zap.Logger {
	mu.RLock()
	if l, ok := loggers[cat]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[cat]; ok {
		return l
	}
	l := root.Named(string(cat))
	loggers[cat] = l
	return l
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}
