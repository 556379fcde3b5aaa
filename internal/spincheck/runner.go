package spincheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/mealspin/internal/adapters/http/api"
	"github.com/okian/mealspin/pkg/logger"
)

// Report is the outcome of a run.
type Report struct {
	Stats        Stats
	Distribution Distribution
}

type outcome int

const (
	outcomePicked outcome = iota
	outcomeEmpty
	outcomeFailed
)

type counters struct {
	picked, empty, failed        atomic.Int64
	recorded, replayed, recFails atomic.Int64
}

// Run executes the spin check: a health check, Requests concurrent suggestion
// calls and, with Record set, one idempotent selection per pick.
func Run(ctx context.Context, config *Config) (*Report, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	stats := Stats{StartTime: time.Now(), Requested: config.Requests}
	log := logger.Get()

	log.Info(ctx, "starting mealspin spin check",
		logger.String("baseURL", config.BaseURL),
		logger.String("endpoint", config.Endpoint),
		logger.String("user", config.UserID),
		logger.Int("requests", config.Requests),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("record", config.Record))

	client := newHTTPClient(config.Timeout, config.UserID)
	if err := checkServiceHealth(ctx, client, config); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	tally := NewTally()
	var c counters

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)
	for i := 0; i < config.Requests; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			item, res := spinOnce(gctx, client, config)
			switch res {
			case outcomePicked:
				c.picked.Add(1)
				tally.Add(item.Type, item.ID, item.Cuisine)
				if config.Verbose {
					log.Debug(gctx, "picked", logger.String("type", item.Type),
						logger.String("id", item.ID), logger.String("cuisine", item.Cuisine))
				}
				if config.Record {
					recordPick(gctx, client, config, item, &c)
				}
			case outcomeEmpty:
				c.empty.Add(1)
			default:
				c.failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Picked = int(c.picked.Load())
	stats.Empty = int(c.empty.Load())
	stats.Failed = int(c.failed.Load())
	stats.Recorded = int(c.recorded.Load())
	stats.Replayed = int(c.replayed.Load())
	stats.RecordFail = int(c.recFails.Load())
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	report := &Report{Stats: stats, Distribution: tally.Snapshot()}
	displayFinalStats(ctx, report)

	if config.OutputFile != "" {
		if err := saveDistribution(ctx, config.OutputFile, report.Distribution); err != nil {
			log.Warn(ctx, "failed to save distribution", logger.Error(err))
		}
	}

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("spin check interrupted: %w", err)
	}
	return report, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, config *Config) error {
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return fmt.Errorf("read health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

func spinOnce(ctx context.Context, client *HTTPClient, config *Config) (pickedItem, outcome) {
	resp, err := client.Get(ctx, config.BaseURL+config.Endpoint)
	if err != nil {
		return pickedItem{}, outcomeFailed
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return pickedItem{}, outcomeFailed
	}

	switch resp.StatusCode {
	case http.StatusNoContent:
		return pickedItem{}, outcomeEmpty
	case http.StatusOK:
		var pr pickResponse
		if err := json.Unmarshal(body, &pr); err != nil {
			return pickedItem{}, outcomeFailed
		}
		item := pr.item()
		if item.Type == "" {
			item.Type = pr.Type
		}
		if item.ID == "" {
			return pickedItem{}, outcomeFailed
		}
		return item, outcomePicked
	default:
		return pickedItem{}, outcomeFailed
	}
}

// recordPick posts the pick with a fresh request id, then replays the same
// request and expects the stored result back.
func recordPick(ctx context.Context, client *HTTPClient, config *Config, item pickedItem, c *counters) {
	req := selectionRequest{ItemType: item.Type, ItemID: item.ID, RequestID: uuid.NewString()}
	url := config.BaseURL + "/selections"

	status, _, err := postSelection(ctx, client, url, req)
	if err != nil || status != http.StatusCreated {
		c.recFails.Add(1)
		return
	}
	c.recorded.Add(1)

	status, replay, err := postSelection(ctx, client, url, req)
	if err == nil && status == http.StatusOK && replay {
		c.replayed.Add(1)
		return
	}
	logger.Get().Warn(ctx, "selection replay not honoured",
		logger.String("requestID", req.RequestID), logger.Int("status", status))
}

func postSelection(ctx context.Context, client *HTTPClient, url string, req selectionRequest) (int, bool, error) {
	resp, err := client.Post(ctx, url, req)
	if err != nil {
		return 0, false, err
	}
	if _, err := readResponseBody(resp); err != nil {
		return 0, false, err
	}
	return resp.StatusCode, resp.Header.Get(api.HeaderReplay) == "true", nil
}

// saveDistribution writes d to filename as indented JSON.
func saveDistribution(ctx context.Context, filename string, d Distribution) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal distribution: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), logFilePermission); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}

	logger.Get().Info(ctx, "distribution saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final statistics and the top shares.
func displayFinalStats(ctx context.Context, r *Report) {
	var successRate, picksPerSecond float64
	if r.Stats.Requested > 0 {
		successRate = float64(r.Stats.Picked+r.Stats.Empty) / float64(r.Stats.Requested) * percentageMultiplier
	}
	if r.Stats.Duration > 0 {
		picksPerSecond = float64(r.Stats.Picked) / r.Stats.Duration.Seconds()
	}

	log := logger.Get()
	log.Info(ctx, "final statistics",
		logger.Int("requested", r.Stats.Requested),
		logger.Int("picked", r.Stats.Picked),
		logger.Int("empty", r.Stats.Empty),
		logger.Int("failed", r.Stats.Failed),
		logger.Int("recorded", r.Stats.Recorded),
		logger.Int("replayed", r.Stats.Replayed),
		logger.Int("recordFailed", r.Stats.RecordFail),
		logger.Duration("duration", r.Stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("picksPerSecond", picksPerSecond))

	for _, s := range r.Distribution.Types {
		log.Info(ctx, "type share", logger.String("type", s.Key),
			logger.Int("count", s.Count), logger.Float64("percent", s.Percent))
	}
	for _, s := range r.Distribution.Cuisines {
		log.Info(ctx, "cuisine share", logger.String("cuisine", s.Key),
			logger.Int("count", s.Count), logger.Float64("percent", s.Percent))
	}
}
