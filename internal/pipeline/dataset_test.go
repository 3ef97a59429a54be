package pipeline_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wildfire-spread-etl/internal/domain"
	"github.com/couchcryptid/wildfire-spread-etl/internal/observability"
	"github.com/couchcryptid/wildfire-spread-etl/internal/pipeline"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions(side, sample, batch int) pipeline.Options {
	return pipeline.Options{
		DataSize:       side,
		SampleSize:     sample,
		BatchSize:      batch,
		InputFeatures:  []string{"elevation", "th"},
		OutputFeatures: []string{"FireMask"},
		RandomCrop:     true,
		Rand:           rand.New(rand.NewSource(1)),
	}
}

// taggedTile builds a tile whose elevation grid carries a unique tag value so
// samples can be traced back to their source tile after interleaving.
func taggedTile(side int, tag float64) domain.TileRecord {
	elevation := make([]float64, side*side)
	th := make([]float64, side*side)
	mask := make([]float64, side*side)
	for i := range elevation {
		elevation[i] = tag
		mask[i] = float64(i%3 - 1) // cycles through -1, 0, 1
	}
	return domain.TileRecord{"elevation": elevation, "th": th, "FireMask": mask}
}

// writeShards writes nshards shard files of ntiles each, returning the glob
// pattern and the set of tags written.
func writeShards(t *testing.T, compression string, nshards, ntiles, side int) (string, []float64) {
	t.Helper()
	dir := t.TempDir()

	var tags []float64
	for s := 0; s < nshards; s++ {
		records := make([]domain.TileRecord, ntiles)
		for i := range records {
			tag := float64(s*100 + i)
			records[i] = taggedTile(side, tag)
			tags = append(tags, tag)
		}
		path := filepath.Join(dir, fmt.Sprintf("tiles_%03d", s))
		require.NoError(t, pipeline.WriteShard(path, compression, records))
	}
	return filepath.Join(dir, "tiles_*"), tags
}

func drainEpoch(t *testing.T, e *pipeline.Epoch) []domain.Batch {
	t.Helper()
	var batches []domain.Batch
	deadline := time.After(10 * time.Second)
	for {
		select {
		case batch, ok := <-e.Batches():
			if !ok {
				return batches
			}
			batches = append(batches, batch)
		case <-deadline:
			t.Fatal("timed out draining epoch")
		}
	}
}

func TestDataset_EpochBatching(t *testing.T) {
	pattern, _ := writeShards(t, "", 2, 5, 8)

	ds, err := pipeline.NewDataset(pattern, testOptions(8, 4, 4), discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	epoch, err := ds.Start(context.Background())
	require.NoError(t, err)

	batches := drainEpoch(t, epoch)
	require.NoError(t, epoch.Err())

	total := 0
	partials := 0
	for _, b := range batches {
		require.Equal(t, b.Size, b.Input.N)
		assert.Equal(t, 4, b.Input.H)
		assert.Equal(t, 4, b.Input.W)
		assert.Equal(t, 2, b.Input.C)
		assert.Equal(t, 1, b.Output.C)
		assert.Equal(t, 1, b.Weight.C)
		total += b.Size
		if b.Size < 4 {
			partials++
		}
	}
	assert.Equal(t, 10, total, "all samples from both shards appear once")
	assert.LessOrEqual(t, partials, 1, "at most one final partial batch")
}

func TestDataset_InterleaveKeepsSamplesIntact(t *testing.T) {
	pattern, tags := writeShards(t, "", 3, 4, 4)

	opts := testOptions(4, 4, 5) // no crop shrink: full tiles
	ds, err := pipeline.NewDataset(pattern, opts, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	epoch, err := ds.Start(context.Background())
	require.NoError(t, err)
	batches := drainEpoch(t, epoch)
	require.NoError(t, epoch.Err())

	// Every sample's elevation channel must be a single tag value: a mixed
	// grid would mean two shards' samples bled into each other.
	var seen []float64
	for _, b := range batches {
		for n := 0; n < b.Size; n++ {
			tag := b.Input.At(n, 0, 0, 0)
			for y := 0; y < b.Input.H; y++ {
				for x := 0; x < b.Input.W; x++ {
					require.Equal(t, tag, b.Input.At(n, y, x, 0), "sample %d is internally consistent", n)
				}
			}
			seen = append(seen, tag)
		}
	}

	sort.Float64s(seen)
	sorted := append([]float64(nil), tags...)
	sort.Float64s(sorted)
	assert.Equal(t, sorted, seen, "each tile appears exactly once across shards")
}

func TestDataset_Restartable(t *testing.T) {
	pattern, _ := writeShards(t, "", 2, 3, 4)

	ds, err := pipeline.NewDataset(pattern, testOptions(4, 2, 2), discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	for epochN := 0; epochN < 2; epochN++ {
		epoch, err := ds.Start(context.Background())
		require.NoError(t, err)
		batches := drainEpoch(t, epoch)
		require.NoError(t, epoch.Err())

		total := 0
		for _, b := range batches {
			total += b.Size
		}
		assert.Equal(t, 6, total, "epoch %d", epochN)
	}
}

func TestDataset_GzipShards(t *testing.T) {
	pattern, _ := writeShards(t, "gzip", 1, 3, 4)

	opts := testOptions(4, 2, 2)
	opts.Compression = "gzip"
	ds, err := pipeline.NewDataset(pattern, opts, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	epoch, err := ds.Start(context.Background())
	require.NoError(t, err)
	batches := drainEpoch(t, epoch)
	require.NoError(t, epoch.Err())

	total := 0
	for _, b := range batches {
		total += b.Size
	}
	assert.Equal(t, 3, total)
}

func TestDataset_MalformedRecordFailsEpoch(t *testing.T) {
	dir := t.TempDir()
	records := []domain.TileRecord{
		taggedTile(4, 1),
		{"elevation": make([]float64, 16)}, // missing th and FireMask
	}
	path := filepath.Join(dir, "tiles_000")
	require.NoError(t, pipeline.WriteShard(path, "", records))

	ds, err := pipeline.NewDataset(filepath.Join(dir, "tiles_*"), testOptions(4, 2, 2), discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	epoch, err := ds.Start(context.Background())
	require.NoError(t, err)
	drainEpoch(t, epoch)

	require.Error(t, epoch.Err())
	assert.Contains(t, epoch.Err().Error(), "missing feature")
}

func TestDataset_NoMatchingShards(t *testing.T) {
	ds, err := pipeline.NewDataset(filepath.Join(t.TempDir(), "nope_*"), testOptions(4, 2, 2), discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	_, err = ds.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no shard files match")
}

func TestDataset_ConfigErrorBeforeIO(t *testing.T) {
	opts := testOptions(4, 2, 2)
	opts.RandomCrop = true
	opts.CenterCrop = true

	// The pattern matches nothing; the configuration error must win because
	// validation happens before any I/O.
	_, err := pipeline.NewDataset("does/not/exist_*", opts, discardLogger(), observability.NewMetricsForTesting())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "random crop and center crop")
}

func TestDataset_AbandonedEpochStops(t *testing.T) {
	pattern, _ := writeShards(t, "", 1, 8, 4)

	ds, err := pipeline.NewDataset(pattern, testOptions(4, 2, 1), discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	epoch, err := ds.Start(ctx)
	require.NoError(t, err)

	// Pull one batch, then walk away.
	select {
	case <-epoch.Batches():
	case <-time.After(5 * time.Second):
		t.Fatal("no batch produced")
	}
	cancel()

	drainEpoch(t, epoch)
}
