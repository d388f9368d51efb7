package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// OpenLogFile opens (appending) the dated log file for appName in dir,
// creating dir when needed. Files are named <appName>-YYYY-MM-DD.log.
func OpenLogFile(dir, appName string, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.log", appName, now.Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// outputFromEnv returns stderr, teed to a dated file under LOG_DIR when set.
// A log file that cannot be opened is reported once and skipped.
func outputFromEnv() io.Writer {
	dir := os.Getenv("LOG_DIR")
	if dir == "" {
		return os.Stderr
	}
	f, err := OpenLogFile(dir, "caseform", time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		return os.Stderr
	}
	return io.MultiWriter(os.Stderr, f)
}
