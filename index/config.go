package index

import (
	"github.com/rs/zerolog"

	"pdqindex-go/backend"
)

// Config mirrors the teacher's health_monitor.Config shape: mapstructure
// tags for viper-driven loading, default tags for creasty/defaults,
// and an unexported logger field set only through options.
type Config struct {
	// Threshold is the maximum Hamming distance a match may have.
	Threshold int `mapstructure:"threshold"`
	// Backend selects the range-search implementation.
	Backend backend.Kind `mapstructure:"backend" default:"flat"`
	// ShardCount bounds the goroutine fan-out FlatBackend uses once it
	// grows large enough to be worth parallelizing.
	ShardCount int `mapstructure:"shard_count" default:"4"`

	logger zerolog.Logger
}
