package internal

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"casefile/internal/config"
)

// GlobalOptions are the root command's persistent flags.
type GlobalOptions struct {
	EnvFile  string
	LogFile  string
	LogLevel string
}

// LoadConfig resolves the environment, then applies the global flags that
// were set. Subcommands apply their own flags before calling Normalize.
func (g *GlobalOptions) LoadConfig() (config.Config, error) {
	cfg, err := config.Load(g.EnvFile)
	if err != nil {
		return config.Config{}, err
	}
	if strings.TrimSpace(g.LogFile) != "" {
		cfg.LogFile = g.LogFile
	}
	if strings.TrimSpace(g.LogLevel) != "" {
		cfg.LogLevel = g.LogLevel
	}
	return cfg, nil
}

// NewLogger builds a JSON file logger, or a no-op logger when no file is
// configured. The terminal is never a log sink.
func NewLogger(cfg config.Config) (*zap.Logger, error) {
	if strings.TrimSpace(cfg.LogFile) == "" {
		return zap.NewNop(), nil
	}
	level := zapcore.InfoLevel
	if cfg.LogLevel != "" {
		parsed, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = parsed
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{cfg.LogFile}
	zc.ErrorOutputPaths = []string{cfg.LogFile}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
