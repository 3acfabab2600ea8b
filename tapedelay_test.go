package tapedelay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(RateDAT, stereoChannels)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, RateDAT, cfg.SampleRate)
	assert.Equal(t, 2, cfg.Channels)
	assert.Equal(t, QualityMedium, cfg.Quality)
	assert.Equal(t, StrategyDualConverter, cfg.Strategy)
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig(RateDAT, 2)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"sample_rate_low", func(c *Config) { c.SampleRate = 4000 }},
		{"sample_rate_high", func(c *Config) { c.SampleRate = 500000 }},
		{"zero_channels", func(c *Config) { c.Channels = 0 }},
		{"too_many_channels", func(c *Config) { c.Channels = maxChannels + 1 }},
		{"chunk_too_small", func(c *Config) { c.ChunkSize = 8 }},
		{"chunk_too_large", func(c *Config) { c.ChunkSize = 1 << 16 }},
		{"block_below_chunk", func(c *Config) { c.MaxBlockSize = c.ChunkSize / 2 }},
		{"block_not_chunk_multiple", func(c *Config) { c.MaxBlockSize = c.ChunkSize*3 + 1 }},
		{"delay_negative", func(c *Config) { c.DelaySeconds = -1 }},
		{"delay_too_long", func(c *Config) { c.DelaySeconds = 600 }},
		{"delay_under_prefill_floor", func(c *Config) { c.DelaySeconds = 0.002 }},
		{"speed_bounds_inverted", func(c *Config) { c.MinSpeed, c.MaxSpeed = 2, 0.5 }},
		{"speed_min_zero", func(c *Config) { c.MinSpeed = 0 }},
		{"speed_below_supported", func(c *Config) { c.MinSpeed = 1.0 / 256.0 }},
		{"speed_above_supported", func(c *Config) { c.MaxSpeed = 256 }},
		{"unknown_quality", func(c *Config) { c.Quality = Quality(99) }},
		{"unknown_strategy", func(c *Config) { c.Strategy = Strategy(99) }},
		{"unknown_granularity", func(c *Config) { c.UpdateGranularity = Granularity(99) }},
		{"deferred_ratio_range_too_wide", func(c *Config) {
			c.Strategy = StrategyDeferredRatio
			c.MinSpeed, c.MaxSpeed = 1.0/32.0, 32
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfig_ValidateAccepts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"defaults", func(*Config) {}},
		{"quick_quality", func(c *Config) { c.Quality = QualityQuick }},
		{"very_high_quality", func(c *Config) { c.Quality = QualityVeryHigh }},
		{"deferred", func(c *Config) { c.Strategy = StrategyDeferredRatio }},
		{"chunk_granularity", func(c *Config) { c.UpdateGranularity = GranularityChunk }},
		{"wide_speed_dual", func(c *Config) { c.MinSpeed, c.MaxSpeed = 1.0/32.0, 32 }},
		{"short_delay", func(c *Config) { c.DelaySeconds = 4.0 * float64(defaultChunkSize) / float64(RateDAT) }},
		{"max_channels", func(c *Config) { c.Channels = maxChannels }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(RateDAT, 2)
			tt.mutate(&cfg)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestQuality_String(t *testing.T) {
	assert.Equal(t, "quick", QualityQuick.String())
	assert.Equal(t, "medium", QualityMedium.String())
	assert.Equal(t, "veryhigh", QualityVeryHigh.String())
}

func TestStrategy_String(t *testing.T) {
	assert.Equal(t, "dual-converter", StrategyDualConverter.String())
	assert.Equal(t, "deferred-ratio", StrategyDeferredRatio.String())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "normal", StatusNormal.String())
	assert.Equal(t, "degraded", StatusDegraded.String())
}
