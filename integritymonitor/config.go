package integritymonitor

import (
	"time"

	"github.com/rs/zerolog"
)

// Config mirrors the teacher's health_monitor.Config shape, retuned for
// checking an index's own invariants instead of polling a remote backend.
type Config struct {
	// Interval is the time between integrity checks.
	Interval time.Duration `mapstructure:"interval" default:"30s"`
	// UnhealthyThreshold is the number of consecutive failed checks before
	// the index is reported corrupt.
	UnhealthyThreshold int `mapstructure:"unhealthy_threshold" default:"3"`
	// HealthyThreshold is the number of consecutive passed checks before a
	// previously corrupt report is retracted.
	HealthyThreshold int `mapstructure:"healthy_threshold" default:"2"`
	// SampleSize is the number of stored hashes self-match-sampled on each
	// check. A zero value is replaced by the default (8) at construction; a
	// negative value disables sampling and checks only the count invariant.
	SampleSize int `mapstructure:"sample_size" default:"8"`

	// EnableCorruptChannel enables sending to channel when the index
	// enters a corrupt state.
	EnableCorruptChannel bool `mapstructure:"send_corrupt" default:"false"`
	// EnableRecoveredChannel enables sending to channel when the index
	// leaves a corrupt state.
	EnableRecoveredChannel bool `mapstructure:"send_recovered" default:"false"`

	logger zerolog.Logger
}
