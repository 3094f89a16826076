package integritymonitor

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	iviper "pdqindex-go/x/viper"
)

// Option configures a Monitor at construction time.
type Option func(*Config) error

// LoadConfig unmarshals v into Config using the shared mapstructure decode
// hooks from x/viper.
func LoadConfig(v *viper.Viper) Option {
	return func(c *Config) error {
		return iviper.Unmarshal(v, c)
	}
}

// WithConfig replaces the whole Config.
func WithConfig(cfg Config) Option {
	return func(c *Config) error {
		*c = cfg
		return nil
	}
}

// WithInterval sets the time between integrity checks.
func WithInterval(interval time.Duration) Option {
	return func(c *Config) error {
		c.Interval = interval
		return nil
	}
}

// WithUnhealthyThreshold sets the number of consecutive failed checks
// before the index is reported corrupt.
func WithUnhealthyThreshold(threshold int) Option {
	return func(c *Config) error {
		c.UnhealthyThreshold = threshold
		return nil
	}
}

// WithHealthyThreshold sets the number of consecutive passed checks
// before a corrupt report is retracted.
func WithHealthyThreshold(threshold int) Option {
	return func(c *Config) error {
		c.HealthyThreshold = threshold
		return nil
	}
}

// WithSampleSize sets how many stored hashes are self-match-sampled on
// each check.
func WithSampleSize(n int) Option {
	return func(c *Config) error {
		c.SampleSize = n
		return nil
	}
}

// WithLogLevel sets the minimum level the monitor's logger emits at.
func WithLogLevel(level zerolog.Level) Option {
	return func(c *Config) error {
		c.logger = c.logger.Level(level)
		return nil
	}
}

// EnableCorruptChannel turns on CorruptChan.
func EnableCorruptChannel() Option {
	return func(c *Config) error {
		c.EnableCorruptChannel = true
		return nil
	}
}

// EnableRecoveredChannel turns on RecoveredChan.
func EnableRecoveredChannel() Option {
	return func(c *Config) error {
		c.EnableRecoveredChannel = true
		return nil
	}
}
