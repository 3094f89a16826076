package index

import (
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	ilog "pdqindex-go/x/log"
	iviper "pdqindex-go/x/viper"
)

// Option configures an Index at construction time, following the teacher's
// health_monitor functional-options shape.
type Option func(*Config) error

// LoadConfig unmarshals v into Config using the shared mapstructure decode
// hooks (byte sizes, URLs, durations) from x/viper.
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

// WithShardCount overrides FlatBackend's concurrent-scan fan-out width.
func WithShardCount(n int) Option {
	return func(c *Config) error {
		c.ShardCount = n
		return nil
	}
}

// WithLogLevel sets the minimum level the index's logger emits at.
func WithLogLevel(level zerolog.Level) Option {
	return func(c *Config) error {
		c.logger = c.logger.Level(level)
		return nil
	}
}

func defaultLogger() zerolog.Logger {
	return ilog.Logger.With().Str("component", "index").Logger().Level(zerolog.InfoLevel)
}
