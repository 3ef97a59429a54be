package pipeline

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wildfire-spread-etl/internal/domain"
)

// testOptions builds a small two-input configuration so tests stay readable.
func testOptions(side, sample int) Options {
	return Options{
		DataSize:       side,
		SampleSize:     sample,
		BatchSize:      4,
		InputFeatures:  []string{"elevation", "th"},
		OutputFeatures: []string{"FireMask"},
	}
}

// constGrid fills a side×side grid with one value.
func constGrid(side int, v float64) []float64 {
	g := make([]float64, side*side)
	for i := range g {
		g[i] = v
	}
	return g
}

// coordGrid encodes each cell's flat index as its value, so any crop window
// reveals its own offset.
func coordGrid(side int) []float64 {
	g := make([]float64, side*side)
	for i := range g {
		g[i] = float64(i)
	}
	return g
}

func TestParseTile_ChannelOrderFollowsDeclaration(t *testing.T) {
	opts := testOptions(4, 4)
	rec := domain.TileRecord{
		"elevation": constGrid(4, 100),
		"th":        constGrid(4, 200),
		"FireMask":  constGrid(4, 1),
	}

	sample, err := ParseTile(rec, opts, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, sample.Input.C)
	assert.Equal(t, 100.0, sample.Input.At(0, 0, 0), "channel 0 is the first declared feature")
	assert.Equal(t, 200.0, sample.Input.At(0, 0, 1), "channel 1 is the second declared feature")
	assert.Equal(t, 1, sample.Output.C)
}

func TestParseTile_NormalizesInputsOnly(t *testing.T) {
	opts := testOptions(2, 2)
	opts.ClipAndNormalize = true
	rec := domain.TileRecord{
		"elevation": constGrid(2, 5000), // clamps to 3536
		"th":        constGrid(2, 90),
		"FireMask":  []float64{-1, -1, 0, 1},
	}

	sample, err := ParseTile(rec, opts, nil)
	require.NoError(t, err)

	stats := domain.DefaultStats()["elevation"]
	want := (stats.ClipMax - stats.Mean) / stats.Std
	assert.InDelta(t, want, sample.Input.At(0, 0, 0), 1e-9)

	// Fire mask sentinels survive untouched.
	assert.Equal(t, []float64{-1, -1, 0, 1}, sample.Output.Data)
}

func TestParseTile_WeightMask(t *testing.T) {
	opts := testOptions(2, 2)
	rec := domain.TileRecord{
		"elevation": constGrid(2, 1),
		"th":        constGrid(2, 1),
		"FireMask":  []float64{-1, -1, 0, 1},
	}

	sample, err := ParseTile(rec, opts, nil)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0, 1, 1}, sample.Weight.Data)
}

func TestParseTile_WeightMask_AnyNegativeIsNoData(t *testing.T) {
	opts := testOptions(2, 2)
	rec := domain.TileRecord{
		"elevation": constGrid(2, 1),
		"th":        constGrid(2, 1),
		"FireMask":  []float64{-0.5, -2, 0, 0.7},
	}

	sample, err := ParseTile(rec, opts, nil)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0, 1, 1}, sample.Weight.Data)
}

func TestParseTile_RandomCrop_InputOutputAligned(t *testing.T) {
	const side, sampleSide = 8, 3
	opts := testOptions(side, sampleSide)
	opts.RandomCrop = true
	rec := domain.TileRecord{
		"elevation": coordGrid(side),
		"th":        constGrid(side, 0),
		"FireMask":  coordGrid(side),
	}

	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 20; run++ {
		sample, err := ParseTile(rec, opts, rng)
		require.NoError(t, err)
		require.Equal(t, sampleSide, sample.Input.H)
		require.Equal(t, sampleSide, sample.Output.H)

		// Identical offsets mean identical coordinate encodings.
		origin := sample.Input.At(0, 0, 0)
		for y := 0; y < sampleSide; y++ {
			for x := 0; x < sampleSide; x++ {
				wantCell := origin + float64(y*side+x)
				assert.Equal(t, wantCell, sample.Input.At(y, x, 0), "input window is contiguous")
				assert.Equal(t, wantCell, sample.Output.At(y, x, 0), "output crop shares the input offset")
			}
		}
	}
}

func TestParseTile_RandomCropNilRNG(t *testing.T) {
	const side, sampleSide = 6, 2
	opts := testOptions(side, sampleSide)
	opts.RandomCrop = true
	rec := domain.TileRecord{
		"elevation": coordGrid(side),
		"th":        constGrid(side, 0),
		"FireMask":  coordGrid(side),
	}

	sample, err := ParseTile(rec, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, sampleSide, sample.Input.H)
	assert.Equal(t, sampleSide, sample.Output.H)
}

func TestParseTile_CenterCropDeterministic(t *testing.T) {
	const side, sampleSide = 6, 2
	opts := testOptions(side, sampleSide)
	opts.CenterCrop = true
	rec := domain.TileRecord{
		"elevation": coordGrid(side),
		"th":        constGrid(side, 0),
		"FireMask":  coordGrid(side),
	}

	first, err := ParseTile(rec, opts, nil)
	require.NoError(t, err)
	second, err := ParseTile(rec, opts, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Input.Data, second.Input.Data)

	// (6-2)/2 = 2, so the window starts at row 2, column 2.
	assert.Equal(t, float64(2*side+2), first.Input.At(0, 0, 0))
	assert.Equal(t, float64(2*side+2), first.Output.At(0, 0, 0))
}

func TestParseTile_MissingFeature(t *testing.T) {
	opts := testOptions(2, 2)
	rec := domain.TileRecord{
		"elevation": constGrid(2, 1),
		"FireMask":  constGrid(2, 0),
	}

	_, err := ParseTile(rec, opts, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing feature "th"`)
}

func TestParseTile_ShapeMismatch(t *testing.T) {
	opts := testOptions(2, 2)
	rec := domain.TileRecord{
		"elevation": constGrid(2, 1),
		"th":        make([]float64, 3), // not 2x2
		"FireMask":  constGrid(2, 0),
	}

	_, err := ParseTile(rec, opts, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 2x2")
}

func TestParseTile_UnknownStatisticKey(t *testing.T) {
	opts := testOptions(2, 2)
	opts.InputFeatures = []string{"mystery"}
	opts.ClipAndRescale = true
	rec := domain.TileRecord{
		"mystery":  constGrid(2, 1),
		"FireMask": constGrid(2, 0),
	}

	_, err := ParseTile(rec, opts, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}

func TestParseTile_NormalizeRoundTrip(t *testing.T) {
	opts := testOptions(2, 2)
	opts.ClipAndNormalize = true
	raw := []float64{-50, 0, 896.5714, 9999}
	rec := domain.TileRecord{
		"elevation": raw,
		"th":        constGrid(2, 0),
		"FireMask":  constGrid(2, 0),
	}

	sample, err := ParseTile(rec, opts, nil)
	require.NoError(t, err)

	stats := domain.DefaultStats()["elevation"]
	channel := make([]float64, 4)
	for i := range channel {
		channel[i] = sample.Input.Data[i*sample.Input.C]
	}
	recovered := domain.Denormalize(channel, stats)

	want := []float64{0, 0, 896.5714, 3536} // clamped originals
	for i := range want {
		assert.InDelta(t, want[i], recovered[i], 1e-9, "index %d", i)
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		want   string
	}{
		{"both crops", func(o *Options) { o.RandomCrop, o.CenterCrop = true, true }, "both random crop and center crop"},
		{"both transforms", func(o *Options) { o.ClipAndNormalize, o.ClipAndRescale = true, true }, "both clip-and-normalize and clip-and-rescale"},
		{"sample exceeds data", func(o *Options) { o.SampleSize = 99 }, "exceeds data size"},
		{"zero batch", func(o *Options) { o.BatchSize = 0 }, "batch size"},
		{"bad compression", func(o *Options) { o.Compression = "zstd" }, "unsupported compression"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := testOptions(8, 4)
			tc.mutate(&opts)
			err := opts.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
