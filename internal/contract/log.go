package contract

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	loggerMu sync.RWMutex
	logger   = newDefaultLogger()
)

// newLoggerConfig returns the console configuration shared by every logger the CLI builds.
// Logs go to stderr so that stdout stays reserved for results and the MCP protocol.
func newLoggerConfig(level zapcore.Level) zap.Config {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	return config
}

func newDefaultLogger() *zap.Logger {
	l, err := newLoggerConfig(zapcore.WarnLevel).Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// InitLogger replaces the package logger. Verbose enables debug output.
func InitLogger(verbose bool) error {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	l, err := newLoggerConfig(level).Build()
	if err != nil {
		return err
	}
	SetLogger(l)
	return nil
}

// SetLogger installs the given logger, for instance zaptest.NewLogger in tests.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// Logger returns the package logger.
func Logger() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// SyncLogger flushes buffered log entries.
func SyncLogger() {
	_ = Logger().Sync()
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	Logger().Error(msg, zap.Error(err))
	SyncLogger()
	os.Exit(1)
}

// LogWarn logs a warning message.
func LogWarn(msg string, err error) {
	Logger().Warn(msg, zap.Error(err))
}
