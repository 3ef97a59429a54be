package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/wildfire-spread-etl/internal/domain"
	"github.com/couchcryptid/wildfire-spread-etl/internal/observability"
)

// Dataset produces batches of samples from a file pattern selecting one or
// more shard files. Shards are read in parallel and their samples interleaved
// with no cross-shard ordering guarantee; every sample is parsed
// independently, so order does not affect results.
//
// A Dataset is restartable: each call to Start begins a fresh epoch over the
// same shards.
type Dataset struct {
	pattern string
	opts    Options
	rng     *rand.Rand
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewDataset validates the configuration and builds a dataset over the shard
// files matching pattern. Configuration errors surface here, before any I/O.
func NewDataset(pattern string, opts Options, logger *slog.Logger, metrics *observability.Metrics) (*Dataset, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Dataset{
		pattern: pattern,
		opts:    opts,
		rng:     rng,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Epoch is one in-flight pass over the dataset. Drain Batches until it closes,
// then check Err: a malformed record anywhere fails the whole read.
type Epoch struct {
	batches chan domain.Batch
	err     error
}

// Batches returns the stream of assembled batches. The channel closes when
// every shard is exhausted or the epoch fails; an unconsumed epoch simply
// stops producing.
func (e *Epoch) Batches() <-chan domain.Batch {
	return e.batches
}

// Err reports the epoch failure, if any. Only valid after Batches has closed.
func (e *Epoch) Err() error {
	return e.err
}

// Start begins one epoch. Shard readers run concurrently, each with its own
// crop RNG derived from the dataset source so epochs are reproducible under an
// injected seed regardless of scheduling.
func (d *Dataset) Start(ctx context.Context) (*Epoch, error) {
	files, err := filepath.Glob(d.pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", d.pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no shard files match %q", d.pattern)
	}

	seeds := make([]int64, len(files))
	for i := range seeds {
		seeds[i] = d.rng.Int63()
	}

	samples := make(chan domain.Sample, d.opts.BatchSize)
	e := &Epoch{batches: make(chan domain.Batch)}

	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			return d.readShard(gctx, file, rand.New(rand.NewSource(seeds[i])), samples)
		})
	}

	go func() {
		// Err is written before samples closes, so the assembler (and any
		// caller reading Err after Batches closes) observes it safely.
		e.err = g.Wait()
		close(samples)
	}()

	go d.assemble(ctx, samples, e)

	d.logger.Info("dataset epoch started",
		"shards", len(files),
		"batch_size", d.opts.BatchSize,
		"sample_size", d.opts.SampleSize,
	)
	return e, nil
}

// readShard parses every record of one shard and forwards the samples.
func (d *Dataset) readShard(ctx context.Context, path string, rng *rand.Rand, out chan<- domain.Sample) error {
	return readShardFile(path, d.opts.Compression, func(rec domain.TileRecord) error {
		sample, err := ParseTile(rec, d.opts, rng)
		if err != nil {
			d.metrics.TileParseErrors.Inc()
			return fmt.Errorf("shard %s: %w", path, err)
		}
		d.metrics.TilesParsed.Inc()

		select {
		case out <- sample:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// assemble groups samples into fixed-size batches, allowing a final partial
// batch. Batch sends select on the caller's context so an abandoned epoch
// stops producing instead of leaking a goroutine.
func (d *Dataset) assemble(ctx context.Context, samples <-chan domain.Sample, e *Epoch) {
	defer close(e.batches)
	d.metrics.PipelineRunning.Set(1)
	defer d.metrics.PipelineRunning.Set(0)

	pending := make([]domain.Sample, 0, d.opts.BatchSize)
	start := time.Now()

	for sample := range samples {
		pending = append(pending, sample)
		if len(pending) < d.opts.BatchSize {
			continue
		}
		if !d.sendBatch(ctx, e, pending, start) {
			return
		}
		pending = pending[:0]
		start = time.Now()
	}

	// The sample stream is closed, so the epoch error is settled; flush the
	// partial batch only on a clean read.
	if e.err == nil && len(pending) > 0 {
		d.sendBatch(ctx, e, pending, start)
	}
}

func (d *Dataset) sendBatch(ctx context.Context, e *Epoch, pending []domain.Sample, start time.Time) bool {
	batch := stackBatch(pending)
	select {
	case e.batches <- batch:
		d.metrics.BatchesProduced.Inc()
		d.metrics.BatchAssemblyDuration.Observe(time.Since(start).Seconds())
		return true
	case <-ctx.Done():
		return false
	}
}

// stackBatch stacks samples into NHWC batch tensors. All samples share one
// shape by the parse contract.
func stackBatch(batch []domain.Sample) domain.Batch {
	first := batch[0]
	n := len(batch)
	input := domain.NewTensor4(n, first.Input.H, first.Input.W, first.Input.C)
	output := domain.NewTensor4(n, first.Output.H, first.Output.W, first.Output.C)
	weight := domain.NewTensor4(n, first.Weight.H, first.Weight.W, first.Weight.C)
	for i, s := range batch {
		// Shapes were validated at parse time; SetSample cannot fail here.
		_ = input.SetSample(i, s.Input)
		_ = output.SetSample(i, s.Output)
		_ = weight.SetSample(i, s.Weight)
	}
	return domain.Batch{Size: n, Input: input, Output: output, Weight: weight}
}
