package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger writes component-tagged debug lines for one run.
// All loggers derived with For share the same underlying file, so a run
// produces a single log at <dir>/<run-id>.log.
//
// All log methods write unconditionally; verbosity filtering belongs to
// Console, which is what users see.
type Logger struct {
	runID     string
	component string
	sink      *sink
	logPath   string
}

// sink is the shared destination behind every Logger of a run.
type sink struct {
	mu        sync.Mutex
	logger    *log.Logger
	file      *os.File
	closeOnce sync.Once
}

var (
	runID     string
	runIDOnce sync.Once
)

// getRunID returns or creates the run ID for this process
func getRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

// NewLogger creates a logger for component writing to <dir>/<run-id>.log.
//
// If the directory cannot be created or the file cannot be opened, it returns
// a fallback logger that writes to stderr along with the error. Callers can
// check the error to detect fallback mode.
func NewLogger(dir, component string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		err = fmt.Errorf("failed to create log directory: %w", err)
		return newFallbackLogger(component, err), err
	}

	id := getRunID()
	logPath := filepath.Join(dir, id+".log")

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, err), err
	}

	return &Logger{
		runID:     id,
		component: component,
		sink:      &sink{logger: log.New(file, "", 0), file: file},
		logPath:   logPath,
	}, nil
}

// newFallbackLogger creates a logger that writes to stderr when file logging fails
func newFallbackLogger(component string, err error) *Logger {
	fl := &Logger{
		runID:     getRunID(),
		component: component,
		sink:      &sink{logger: log.New(os.Stderr, "", 0)},
	}
	fl.Warnf("failed to initialize file logging: %v; falling back to stderr", err)
	return fl
}

// Discard returns a logger that drops everything.
func Discard(component string) *Logger {
	return &Logger{
		runID:     getRunID(),
		component: component,
		sink:      &sink{logger: log.New(io.Discard, "", 0)},
	}
}

// For returns a logger for another component sharing this logger's file.
func (l *Logger) For(component string) *Logger {
	return &Logger{
		runID:     l.runID,
		component: component,
		sink:      l.sink,
		logPath:   l.logPath,
	}
}

func (l *Logger) write(level, format string, v ...interface{}) {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	message := fmt.Sprintf(format, v...)

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.logger.Printf("[%s] [%s] [%s] %s", timestamp, l.component, level, message)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.write("DEBUG", format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.write("INFO", format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write("WARN", format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write("ERROR", format, v...)
}

// Writer returns the underlying destination, suitable for piping external
// process output into the run log.
func (l *Logger) Writer() io.Writer {
	if l.sink.file != nil {
		return l.sink.file
	}
	return l.sink.logger.Writer()
}

// RunID returns the ID shared by every logger of this run.
func (l *Logger) RunID() string {
	return l.runID
}

// LogPath returns the path to the log file, or "" in fallback mode.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times and from any
// logger derived with For.
func (l *Logger) Close() error {
	var err error
	l.sink.closeOnce.Do(func() {
		if l.sink.file != nil {
			err = l.sink.file.Close()
		}
	})
	return err
}

// RunID returns the current global run ID
func RunID() string {
	return getRunID()
}
