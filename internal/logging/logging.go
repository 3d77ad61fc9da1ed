// Package logging builds the zap logger shared by every command.
package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

// ConfigFromEnv reads LOG_LEVEL and LOG_FORMAT, falling back to info/json.
// Verbose forces debug level with the console encoder.
func ConfigFromEnv(verbose bool) Config {
	cfg := Config{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "json"),
	}
	if verbose {
		cfg.Level = "debug"
		cfg.Format = "console"
	}
	return cfg
}

// New builds a logger writing to stderr so stdout stays clean for --json output.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		zc = zap.NewProductionConfig()
	case "console", "text":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q: use json or console", cfg.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("could not build logger: %w", err)
	}
	return logger, nil
}

// Nop returns a logger that discards everything. Used by tests and library callers
// that do not care about logs.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// NewRunID returns a fresh identifier for one Cono run.
func NewRunID() string {
	return uuid.NewString()
}

// WithRun annotates a logger with the run identifier and Cono name.
func WithRun(logger *zap.Logger, runID, cono string) *zap.Logger {
	return logger.With(zap.String("run_id", runID), zap.String("cono", cono))
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
