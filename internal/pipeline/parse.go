package pipeline

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/couchcryptid/wildfire-spread-etl/internal/domain"
)

// ParseTile converts one tile record into a cropped, normalized sample.
//
// Input feature grids are stacked along the channel axis in declared order and
// run through the configured clip transform; output grids are stacked raw so
// the {-1, 0, 1} fire-mask sentinels survive. Input and output are cropped
// with the same offset, then the weight mask is derived from the cropped
// output. A missing feature key, an unknown statistic key, or a grid whose
// length is not DataSize² is a hard error. A nil rng falls back to a
// time-seeded source when random cropping.
func ParseTile(rec domain.TileRecord, opts Options, rng *rand.Rand) (domain.Sample, error) {
	opts = opts.withDefaults()

	input, err := stackFeatures(rec, opts.InputFeatures, opts)
	if err != nil {
		return domain.Sample{}, err
	}

	// Outputs keep raw values; no clip transform applies.
	rawOpts := opts
	rawOpts.ClipAndNormalize = false
	rawOpts.ClipAndRescale = false
	output, err := stackFeatures(rec, opts.OutputFeatures, rawOpts)
	if err != nil {
		return domain.Sample{}, err
	}

	if opts.RandomCrop {
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		span := opts.DataSize - opts.SampleSize + 1
		y0, x0 := rng.Intn(span), rng.Intn(span)
		input = cropTensor(input, y0, x0, opts.SampleSize)
		output = cropTensor(output, y0, x0, opts.SampleSize)
	}
	if opts.CenterCrop {
		off := centerOffset(opts.DataSize, opts.SampleSize)
		input = cropTensor(input, off, off, opts.SampleSize)
		output = cropTensor(output, off, off, opts.SampleSize)
	}

	return domain.Sample{
		Input:  input,
		Output: output,
		Weight: deriveWeights(output),
	}, nil
}

// stackFeatures decodes the named grids and stacks them H×W×C in list order,
// applying the configured clip transform per feature.
func stackFeatures(rec domain.TileRecord, features []string, opts Options) (*domain.Tensor, error) {
	side := opts.DataSize
	t := domain.NewTensor(side, side, len(features))

	for c, name := range features {
		grid, ok := rec[name]
		if !ok {
			return nil, fmt.Errorf("tile record is missing feature %q", name)
		}
		if len(grid) != side*side {
			return nil, fmt.Errorf("feature %q has %d values, want %dx%d", name, len(grid), side, side)
		}

		switch {
		case opts.ClipAndNormalize:
			stats, err := opts.Stats.Lookup(name)
			if err != nil {
				return nil, err
			}
			grid = domain.ClipAndNormalize(grid, stats)
		case opts.ClipAndRescale:
			stats, err := opts.Stats.Lookup(name)
			if err != nil {
				return nil, err
			}
			grid = domain.ClipAndRescale(grid, stats)
		}

		for i, v := range grid {
			t.Data[i*t.C+c] = v
		}
	}
	return t, nil
}

// deriveWeights builds the loss mask from the raw output tensor: 1 where the
// cell value is known (>= 0), 0 where it is a no-data sentinel. Any negative
// value counts as no-data, not only exactly -1.
func deriveWeights(output *domain.Tensor) *domain.Tensor {
	w := domain.NewTensor(output.H, output.W, output.C)
	for i, v := range output.Data {
		if v >= 0 {
			w.Data[i] = 1
		}
	}
	return w
}
