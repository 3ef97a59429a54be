package pipeline

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/couchcryptid/wildfire-spread-etl/internal/config"
	"github.com/couchcryptid/wildfire-spread-etl/internal/domain"
)

// Options configures the tile dataset pipeline. Exactly one of the two clip
// transforms and one of the two crop policies may be enabled; requesting both
// in either pair is a configuration error caught before any I/O.
type Options struct {
	// DataSize is the square side length of tiles as stored in shard files.
	DataSize int
	// SampleSize is the square side length after cropping; must not exceed DataSize.
	SampleSize int
	// BatchSize is the number of samples per assembled batch.
	BatchSize int

	// InputFeatures is the declared channel order of the input tensor; nil
	// selects domain.DefaultInputFeatures. This ordering is a compatibility
	// contract with externally trained models.
	InputFeatures []string
	// OutputFeatures is the declared label list; nil selects domain.DefaultOutputFeatures.
	OutputFeatures []string
	// Stats supplies per-feature normalization statistics; nil selects domain.DefaultStats.
	Stats domain.StatsTable

	ClipAndNormalize bool
	ClipAndRescale   bool
	RandomCrop       bool
	CenterCrop       bool

	// Compression names the shard file compression: "" or "gzip".
	Compression string

	// Rand seeds random cropping; nil leaves the dataset to create a
	// clock-seeded source. Inject a fixed-seed source for reproducible reads.
	Rand *rand.Rand
}

// OptionsFromConfig maps the service configuration onto pipeline options.
// Mode strings become the transform booleans; RANDOM_SEED zero leaves Rand
// nil so the dataset seeds from the clock.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		DataSize:         cfg.DataSize,
		SampleSize:       cfg.SampleSize,
		BatchSize:        cfg.BatchSize,
		Compression:      cfg.ShardCompression,
		ClipAndNormalize: cfg.NormalizeMode == config.ModeNormalize,
		ClipAndRescale:   cfg.NormalizeMode == config.ModeRescale,
		RandomCrop:       cfg.CropMode == config.CropRandom,
		CenterCrop:       cfg.CropMode == config.CropCenter,
	}
	if cfg.RandomSeed != 0 {
		opts.Rand = rand.New(rand.NewSource(cfg.RandomSeed))
	}
	return opts
}

// withDefaults fills unset feature lists and statistics.
func (o Options) withDefaults() Options {
	if o.InputFeatures == nil {
		o.InputFeatures = domain.DefaultInputFeatures()
	}
	if o.OutputFeatures == nil {
		o.OutputFeatures = domain.DefaultOutputFeatures()
	}
	if o.Stats == nil {
		o.Stats = domain.DefaultStats()
	}
	return o
}

// Validate checks the configuration-time invariants.
func (o Options) Validate() error {
	if o.ClipAndNormalize && o.ClipAndRescale {
		return errors.New("cannot have both clip-and-normalize and clip-and-rescale")
	}
	if o.RandomCrop && o.CenterCrop {
		return errors.New("cannot have both random crop and center crop")
	}
	if o.DataSize <= 0 {
		return fmt.Errorf("data size must be positive, got %d", o.DataSize)
	}
	if o.SampleSize <= 0 {
		return fmt.Errorf("sample size must be positive, got %d", o.SampleSize)
	}
	if o.SampleSize > o.DataSize {
		return fmt.Errorf("sample size %d exceeds data size %d", o.SampleSize, o.DataSize)
	}
	if o.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", o.BatchSize)
	}
	if len(o.OutputFeatures) == 0 {
		return errors.New("output feature list must not be empty")
	}
	if len(o.InputFeatures) == 0 {
		return errors.New("input feature list must not be empty")
	}
	if o.Compression != "" && o.Compression != "gzip" {
		return fmt.Errorf("unsupported compression %q", o.Compression)
	}
	return nil
}
