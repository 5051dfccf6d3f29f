package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/musher-dev/clawdash/internal/paths"
)

const (
	redactedValue = "[REDACTED]"

	// maxLogFileBytes triggers rotation of the default log file at open.
	maxLogFileBytes = 10 << 20
	// maxLogBackups is how many rotated files are kept (.1 … .N).
	maxLogBackups = 3
)

type contextKey struct{}

// Config holds the configuration for the observability logger.
type Config struct {
	Level          string
	Format         string
	LogFile        string
	StderrMode     string
	InteractiveTTY bool
	SessionID      string
	CommandPath    string
	Version        string
	Commit         string
}

// WithLogger returns a new context carrying the given logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts the logger from ctx, falling back to slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}

	return slog.Default()
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewLogger creates a structured logger from the given configuration.
//
// When stderr is disabled (the default for interactive terminals, where log
// lines would corrupt the dashboard) and no --log-file is given, records go
// to the default log file under the state directory.
func NewLogger(cfg *Config) (*slog.Logger, func() error, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	stderrEnabled, err := shouldEnableStderr(cfg.StderrMode, cfg.InteractiveTTY)
	if err != nil {
		return nil, nil, err
	}

	logPath := strings.TrimSpace(cfg.LogFile)
	rotate := false

	if !stderrEnabled && logPath == "" {
		defaultPath, pathErr := paths.DefaultLogFile()
		if pathErr != nil {
			return nil, nil, fmt.Errorf("no log sinks configured: %w", pathErr)
		}

		logPath = defaultPath
		rotate = true
	}

	writers := make([]io.Writer, 0, 2)
	closers := make([]io.Closer, 0, 1)

	if stderrEnabled {
		writers = append(writers, os.Stderr)
	}

	if logPath != "" {
		if rotate {
			if rotErr := rotateLogFile(logPath, maxLogFileBytes, maxLogBackups); rotErr != nil {
				return nil, nil, rotErr
			}
		}

		logFile, openErr := openLogFile(logPath)
		if openErr != nil {
			return nil, nil, openErr
		}

		writers = append(writers, logFile)
		closers = append(closers, logFile)
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactAttr,
	}

	multiWriter := io.MultiWriter(writers...)

	var handler slog.Handler

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "json":
		handler = slog.NewJSONHandler(multiWriter, handlerOpts)
	case "text":
		handler = slog.NewTextHandler(multiWriter, handlerOpts)
	default:
		for _, closer := range closers {
			_ = closer.Close()
		}

		return nil, nil, fmt.Errorf("invalid log format: %q (allowed: json, text)", cfg.Format)
	}

	logger := slog.New(handler).With(
		slog.String("session.id", cfg.SessionID),
		slog.String("command.path", cfg.CommandPath),
		slog.String("cli.version", cfg.Version),
		slog.String("cli.commit", cfg.Commit),
	)

	cleanup := func() error {
		var firstErr error
		for _, closer := range closers {
			if closeErr := closer.Close(); closeErr != nil && firstErr == nil {
				firstErr = closeErr
			}
		}

		return firstErr
	}

	return logger, cleanup, nil
}

func openLogFile(path string) (*os.File, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("log file path cannot be empty")
	}

	if mkErr := os.MkdirAll(filepath.Dir(cleanPath), 0o700); mkErr != nil {
		return nil, fmt.Errorf("create log file directory: %w", mkErr)
	}

	file, err := os.OpenFile(filepath.Clean(cleanPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return file, nil
}

// rotateLogFile shifts path to path.1, path.1 to path.2 and so on once path
// exceeds maxBytes. The oldest backup beyond maxBackups is removed.
func rotateLogFile(path string, maxBytes int64, maxBackups int) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("stat log file: %w", err)
	}

	if info.Size() <= maxBytes {
		return nil
	}

	oldest := path + "." + strconv.Itoa(maxBackups)
	if rmErr := os.Remove(oldest); rmErr != nil && !os.IsNotExist(rmErr) {
		return fmt.Errorf("remove oldest log backup: %w", rmErr)
	}

	for i := maxBackups - 1; i >= 1; i-- {
		from := path + "." + strconv.Itoa(i)
		to := path + "." + strconv.Itoa(i+1)

		if mvErr := os.Rename(from, to); mvErr != nil && !os.IsNotExist(mvErr) {
			return fmt.Errorf("rotate log backup: %w", mvErr)
		}
	}

	if mvErr := os.Rename(path, path+".1"); mvErr != nil {
		return fmt.Errorf("rotate log file: %w", mvErr)
	}

	return nil
}

func shouldEnableStderr(mode string, interactiveTTY bool) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return !interactiveTTY, nil
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --log-stderr value %q (allowed: auto, on, off)", mode)
	}
}

func parseLevel(level string) (slog.Leveler, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return nil, fmt.Errorf("invalid log level: %q (allowed: error, warn, info, debug)", level)
	}
}

func redactAttr(_ []string, attr slog.Attr) slog.Attr {
	key := strings.ToLower(attr.Key)
	if isSensitiveKey(key) {
		return slog.String(attr.Key, redactedValue)
	}

	return attr
}

func isSensitiveKey(key string) bool {
	if key == "authorization" {
		return true
	}

	// Token counters are usage numbers, not credentials.
	if strings.HasSuffix(key, "tokens") {
		return false
	}

	sensitiveSubstrings := []string{"token", "api_key", "apikey", "secret", "credential", "password"}
	for _, pattern := range sensitiveSubstrings {
		if strings.Contains(key, pattern) {
			return true
		}
	}

	return false
}
