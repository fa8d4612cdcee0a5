package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls where and how much the logger writes
type Options struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	File   string // optional; when set, JSON records are appended here as well
}

var (
	sugar   = zap.NewNop().Sugar()
	logFile *os.File
	mu      sync.RWMutex
	isSetup bool
)

// SetupLogger installs the process logger. Calling it twice is a no-op until CloseLogger.
func SetupLogger(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return nil
	}

	level, err := parseLevel(opts.Level)
	if err != nil {
		return err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var stderrEncoder zapcore.Encoder
	if strings.EqualFold(opts.Format, "json") {
		stderrEncoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		consoleCfg := encoderCfg
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		stderrEncoder = zapcore.NewConsoleEncoder(consoleCfg)
	}
	cores := []zapcore.Core{
		zapcore.NewCore(stderrEncoder, zapcore.Lock(os.Stderr), level),
	}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		// The file always records debug detail so per-file failures can be traced later.
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(f), zapcore.DebugLevel))
	}

	sugar = zap.New(zapcore.NewTee(cores...)).Sugar()
	sugar.Debugw("logger started", "at", time.Now().Format(time.RFC3339))
	isSetup = true
	return nil
}

func parseLevel(raw string) (zapcore.Level, error) {
	if strings.TrimSpace(raw) == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(raw))); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", raw, err)
	}
	return level, nil
}

// CloseLogger flushes and closes the log file, restoring the no-op logger
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	_ = sugar.Sync()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	sugar = zap.NewNop().Sugar()
	isSetup = false
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// LogInfo logs a formatted information message
func LogInfo(format string, args ...interface{}) {
	current().Infof(format, args...)
}

// DebugLog logs a formatted message at debug level
func DebugLog(format string, args ...interface{}) {
	current().Debugf(format, args...)
}

// LogError logs a formatted error message
func LogError(format string, args ...interface{}) {
	current().Errorf(format, args...)
}

// LogWarning logs a formatted warning message
func LogWarning(format string, args ...interface{}) {
	current().Warnf(format, args...)
}

// Debug logs a message with structured key/value pairs
func Debug(msg string, keysAndValues ...interface{}) {
	current().Debugw(msg, keysAndValues...)
}

// Info logs a message with structured key/value pairs
func Info(msg string, keysAndValues ...interface{}) {
	current().Infow(msg, keysAndValues...)
}

// Warn logs a message with structured key/value pairs
func Warn(msg string, keysAndValues ...interface{}) {
	current().Warnw(msg, keysAndValues...)
}

// Error logs a message with structured key/value pairs
func Error(msg string, keysAndValues ...interface{}) {
	current().Errorw(msg, keysAndValues...)
}

// LogImageProcessed logs the outcome of analyzing one file
func LogImageProcessed(path string, success bool, errMsg string) {
	if success {
		current().Debugw("processed", "path", path)
		return
	}
	current().Warnw("failed", "path", path, "error", errMsg)
}
