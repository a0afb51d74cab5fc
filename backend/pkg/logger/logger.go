// Package logger holds the process-wide zap logger and the component names
// that tag its children.
package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Component names the subsystem a log entry comes from
type Component string

const (
	Remote      Component = "remote"
	Memorize    Component = "memorize"
	GraphStore  Component = "graphstore"
	Store       Component = "store"
	StoreSQLite Component = "store.sqlite"
	StoreNeo4j  Component = "store.neo4j"
)

// ServiceName is attached to every entry of the global logger
const ServiceName = "memgraph"

// Logger is the global logger instance, nil until Init succeeds
var Logger *zap.Logger

var (
	fallbackOnce sync.Once
	fallback     *zap.Logger
)

// Init builds the global logger. Production environments log JSON at info,
// everything else logs colored console output at debug. A non-empty level
// ("debug", "info", "warn", "error") overrides the environment default.
func Init(env, level string) error {
	config := newConfig(env)
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		config.Level = zap.NewAtomicLevelAt(lvl)
	}

	built, err := config.Build()
	if err != nil {
		return err
	}
	Logger = built.With(zap.String("service", ServiceName))
	return nil
}

func newConfig(env string) zap.Config {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return config
}

// Sync flushes any buffered log entries
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Get returns the global logger, or a shared development logger when Init
// has not run (tests, tools)
func Get() *zap.Logger {
	if Logger != nil {
		return Logger
	}
	fallbackOnce.Do(func() {
		l, err := zap.NewDevelopment()
		if err != nil {
			l = zap.NewNop()
		}
		fallback = l
	})
	return fallback
}

// For returns a child of the global logger named after c
func For(c Component) *zap.Logger {
	return Get().Named(string(c))
}
