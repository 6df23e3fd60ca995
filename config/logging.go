package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// LogWriter receives application, gin and gorm logs. OpenLog replaces it.
var LogWriter io.Writer = os.Stdout

// OpenLog sends the standard logger and LogWriter to stdout and to s.LogFile. When the file
// cannot be opened it falls back to stdout alone and returns the error for the caller to
// report. The close func is always safe to call.
func OpenLog(s Settings) (io.Writer, func() error, error) {
	useStdout := func() {
		LogWriter = os.Stdout
		log.SetOutput(LogWriter)
	}
	noop := func() error { return nil }

	if s.LogFile == "" {
		useStdout()
		return LogWriter, noop, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.LogFile), 0o755); err != nil {
		useStdout()
		return LogWriter, noop, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(s.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		useStdout()
		return LogWriter, noop, fmt.Errorf("open log file: %w", err)
	}

	LogWriter = io.MultiWriter(os.Stdout, file)
	log.SetOutput(LogWriter)
	return LogWriter, file.Close, nil
}
