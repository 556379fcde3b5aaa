package spincheck

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/mealspin/internal/validation"
)

// Endpoints the tool can spin against.
const (
	EndpointSuggestion = "/suggestions"
	EndpointMeal       = "/suggestions/meal"
	EndpointRestaurant = "/suggestions/restaurant"
)

const (
	directoryPermission  = 0o750
	logFilePermission    = 0o600
	percentageMultiplier = 100
)

// ErrInvalidConfig is returned by Run for a config that fails validation.
var ErrInvalidConfig = errors.New("spincheck: invalid config")

// Config holds configuration for a spin check run.
type Config struct {
	// BaseURL of the service.
	BaseURL string `validate:"required,url"`
	// UserID is sent as X-User-ID.
	UserID   string `validate:"required"`
	Requests int    `validate:"min=1"`
	Workers  int    `validate:"min=1"`
	// Timeout bounds each HTTP request.
	Timeout  time.Duration `validate:"gt=0"`
	Endpoint string        `validate:"oneof=/suggestions /suggestions/meal /suggestions/restaurant"`

	Record     bool   // Record every pick through POST /selections
	OutputFile string // Distribution JSON output; empty disables it
	LogFile    string // Log file for test output
	Verbose    bool   // Log every pick
}

func (c *Config) validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	Requested  int
	Picked     int
	Empty      int
	Failed     int
	Recorded   int
	Replayed   int
	RecordFail int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
