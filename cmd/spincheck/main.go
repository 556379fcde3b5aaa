package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/mealspin/internal/spincheck"
)

// Default configuration constants.
const (
	defaultRequests   = 1000
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 10 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		userID     = flag.String("user", "", "User id sent as X-User-ID")
		requests   = flag.Int("requests", defaultRequests, "Number of suggestions to request")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent requests")
		endpoint   = flag.String("endpoint", spincheck.EndpointSuggestion, "Suggestion route to call")
		record     = flag.Bool("record", false, "Record each pick and verify the idempotent replay")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Write the distribution as JSON to this file")
		logFile    = flag.String("log", "", "Log file for test output (default: spincheck_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Log every pick")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		spincheck.ShowHelp(os.Stdout)
		return
	}

	closer, err := spincheck.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	config := &spincheck.Config{
		BaseURL:    *baseURL,
		UserID:     *userID,
		Requests:   *requests,
		Workers:    *workers,
		Timeout:    *timeout,
		Endpoint:   *endpoint,
		Record:     *record,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	if _, err := spincheck.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Spin check failed: " + err.Error() + "\n")
		os.Exit(1) //nolint:gocritic // deferred cleanup is best effort
	}
}
