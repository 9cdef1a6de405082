// Package utils provides logging and rate table CSV helpers for the ROI engine.
package utils

import (
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every log entry.
const ServiceName = "msme-roi-engine"

// Logger is the global logger instance.
var Logger *zap.Logger

// InitLogger initializes the global logger. Every entry carries the service
// name and, when set, the deployment stage.
func InitLogger(level, stage string) error {
	zapLevel := ParseLevel(level)

	// Lambda and the server behind a collector want JSON; a terminal wants color.
	var config zap.Config
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		config = zap.NewProductionConfig()
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
		// Rate table gaps must never be sampled away.
		config.Sampling = nil
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	fields := []zap.Field{zap.String("service", ServiceName)}
	if stage != "" {
		fields = append(fields, zap.String("stage", stage))
	}

	logger, err := config.Build(zap.Fields(fields...))
	if err != nil {
		return err
	}
	Logger = logger
	return nil
}

// ParseLevel maps a LOG_LEVEL value onto a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLogger replaces the global logger.
func SetLogger(l *zap.Logger) {
	Logger = l
}

// GetLogger returns the global logger, initializing if necessary.
func GetLogger() *zap.Logger {
	if Logger == nil {
		_ = InitLogger("info", "")
	}
	return Logger
}

// QuoteLogger returns a logger scoped to one quote. The diagnostic id is the
// value clients receive, so support can find the entry from a response.
func QuoteLogger(diagnosticID string) *zap.Logger {
	return GetLogger().With(zap.String("quote_id", diagnosticID))
}

// Sync flushes any buffered log entries.
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// LogField creates a zap field for structured logging.
type LogField = zap.Field

// Common field constructors
var (
	String = zap.String
	Int    = zap.Int
	Bool   = zap.Bool
	Error  = zap.Error
)

// Decimal logs a decimal as its exact string form.
func Decimal(key string, d decimal.Decimal) LogField {
	return zap.String(key, d.String())
}

// Rate logs a rate with two decimals, the way it is quoted.
func Rate(key string, d decimal.Decimal) LogField {
	return zap.String(key, d.StringFixed(2))
}
