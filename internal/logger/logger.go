package logger

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"fishfollow/internal/config"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger provides leveled logging (info/warning/error) to rotating files and stdout/stderr.
type Logger struct {
	infoLog    *logrus.Logger
	warningLog *logrus.Logger
	errorLog   *logrus.Logger
	files      map[string]*lumberjack.Logger
	logDir     string
	mu         sync.Mutex
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	logger := &Logger{
		logDir: config.LogDirectory,
		files:  make(map[string]*lumberjack.Logger),
	}

	logger.setupLoggers()
	return logger
}

// setupLoggers initializes writers and per-level loggers.
func (l *Logger) setupLoggers() {
	l.infoLog = l.newLevelLogger(os.Stdout, "info.log", logrus.InfoLevel)
	l.warningLog = l.newLevelLogger(os.Stdout, "warning.log", logrus.WarnLevel)
	l.errorLog = l.newLevelLogger(os.Stderr, "error.log", logrus.ErrorLevel)
}

func (l *Logger) newLevelLogger(console io.Writer, filename string, level logrus.Level) *logrus.Logger {
	file := &lumberjack.Logger{
		Filename:   filepath.Join(l.logDir, filename),
		LocalTime:  true,
		MaxSize:    10,
		MaxAge:     7,
		MaxBackups: 3,
	}
	l.files[filename] = file

	lg := logrus.New()
	lg.SetLevel(level)
	lg.SetOutput(io.MultiWriter(console, file))
	lg.SetFormatter(&formatter.Formatter{
		NoColors:        true,
		TimestampFormat: "2006/01/02 15:04:05",
		HideKeys:        true,
	})
	return lg
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Warnf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Errorf(format, v...)
}

// CleanLogs truncates the given log file. A file that was never written is
// already clean.
func (l *Logger) CleanLogs(fileName string) error {
	l.mu.Lock()
	file, ok := l.files[fileName]
	if ok {
		file.Close()
	}
	l.mu.Unlock()

	if !ok {
		return fmt.Errorf("unknown log file %q", fileName)
	}

	if err := os.Truncate(filepath.Join(l.logDir, fileName), 0); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.Error("Error truncating log file %s: %v", fileName, err)
		return fmt.Errorf("truncate %s: %w", fileName, err)
	}

	l.Info("Log file %s has been cleared", fileName)
	return nil
}

// Close flushes and closes all log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, file := range l.files {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
