// internal/logger/logger.go
package logger

import "go.uber.org/zap"

// Logger wraps a sugared zap logger so adapters and services share one
// structured logging surface.
type Logger struct {
	*zap.SugaredLogger
}

// New builds a logger for the given mode; anything other than "production"
// gets the development config.
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	if mode == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{l.Sugar()}, nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}
