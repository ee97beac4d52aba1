// Package logging builds the process-wide zap logger.
package logging

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/handbook/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production logger writing to stderr, so command output on
// stdout stays clean.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	prodConfig := zap.NewProductionConfig()
	prodConfig.Level = zap.NewAtomicLevelAt(level)
	prodConfig.Encoding = "console"
	if cfg.Format == "json" {
		prodConfig.Encoding = "json"
	}
	prodConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	prodConfig.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	prodConfig.OutputPaths = []string{"stderr"}
	prodConfig.ErrorOutputPaths = []string{"stderr"}
	prodConfig.Sampling = nil

	logger, err := prodConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
