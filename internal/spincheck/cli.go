package spincheck

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/mealspin/pkg/logger"
)

// SetupLogging sends the global logger to both stdout and logFile. An empty
// logFile gets a timestamped name. The returned closer closes the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		logFile = "spincheck_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission) //nolint:gosec // path comes from a flag
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWriter(io.MultiWriter(os.Stdout, file)); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}

	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information for the spin check tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `mealspin spin check
===================

Requests many suggestions for one user against a running mealspin server and
reports how picks were distributed across item types, items and cuisines.

Usage:
  go run ./cmd/spincheck [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -user string
        User id sent as X-User-ID (required)
  -requests int
        Number of suggestions to request (default 1000)
  -workers int
        Number of concurrent requests (default CPU cores * 2)
  -endpoint string
        /suggestions, /suggestions/meal or /suggestions/restaurant (default "/suggestions")
  -record
        Record each pick through POST /selections and verify the replay
  -timeout duration
        HTTP request timeout (default 10s)
  -output string
        Write the distribution as JSON to this file
  -log string
        Log file for test output (default: spincheck_TIMESTAMP.log)
  -verbose
        Log every pick
  -help
        Show this help message

Examples:
  # Check the weighting for alice
  go run ./cmd/spincheck -user alice -requests 5000

  # Only meals, recording each pick
  go run ./cmd/spincheck -user alice -endpoint /suggestions/meal -record
`)
}
