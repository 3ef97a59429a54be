package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wildfire-spread-etl/internal/config"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		DataSize:         64,
		SampleSize:       32,
		BatchSize:        16,
		ShardCompression: "gzip",
		NormalizeMode:    config.ModeNormalize,
		CropMode:         config.CropRandom,
		RandomSeed:       42,
	}

	opts := OptionsFromConfig(cfg)
	require.NoError(t, opts.Validate())

	assert.Equal(t, 64, opts.DataSize)
	assert.Equal(t, 32, opts.SampleSize)
	assert.Equal(t, 16, opts.BatchSize)
	assert.Equal(t, "gzip", opts.Compression)
	assert.True(t, opts.ClipAndNormalize)
	assert.False(t, opts.ClipAndRescale)
	assert.True(t, opts.RandomCrop)
	assert.False(t, opts.CenterCrop)
	require.NotNil(t, opts.Rand, "non-zero seed injects a seeded source")
}

func TestOptionsFromConfig_SeededSourcesMatch(t *testing.T) {
	cfg := &config.Config{
		DataSize: 64, SampleSize: 32, BatchSize: 16,
		NormalizeMode: config.ModeNone, CropMode: config.CropRandom,
		RandomSeed: 7,
	}

	first := OptionsFromConfig(cfg)
	second := OptionsFromConfig(cfg)
	assert.Equal(t, first.Rand.Int63(), second.Rand.Int63(), "same seed, same sequence")
}

func TestOptionsFromConfig_ModeMapping(t *testing.T) {
	tests := []struct {
		name          string
		normalizeMode string
		cropMode      string
		wantNormalize bool
		wantRescale   bool
		wantRandom    bool
		wantCenter    bool
	}{
		{"normalize random", config.ModeNormalize, config.CropRandom, true, false, true, false},
		{"rescale center", config.ModeRescale, config.CropCenter, false, true, false, true},
		{"none none", config.ModeNone, config.CropNone, false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				DataSize: 64, SampleSize: 32, BatchSize: 16,
				NormalizeMode: tt.normalizeMode,
				CropMode:      tt.cropMode,
			}

			opts := OptionsFromConfig(cfg)
			require.NoError(t, opts.Validate())
			assert.Equal(t, tt.wantNormalize, opts.ClipAndNormalize)
			assert.Equal(t, tt.wantRescale, opts.ClipAndRescale)
			assert.Equal(t, tt.wantRandom, opts.RandomCrop)
			assert.Equal(t, tt.wantCenter, opts.CenterCrop)
			assert.Nil(t, opts.Rand, "zero seed leaves the source to the dataset")
		})
	}
}
