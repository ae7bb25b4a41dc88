// Package pipeline runs a partitioned regression over a batch of records.
//
// Records are assigned bucket ordinals by a single dispatcher and spread
// round-robin over N partition workers. Every worker owns its bucket store,
// folds its records into it and encodes it as a shard, optionally persisting
// the shard as a checkpoint. The reducer then decodes all shards, merges them
// and evaluates every bucket. The outcome equals a single accumulator that saw
// every record, up to floating-point summation order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arloliu/linreg/bucket"
	"github.com/arloliu/linreg/errs"
	"github.com/arloliu/linreg/internal/dataset"
	"github.com/arloliu/linreg/regression"
	"github.com/arloliu/linreg/shard"
	"github.com/arloliu/linreg/storage"
)

// Partition reports the work of one partition worker.
type Partition struct {
	Name      string
	Records   int
	Buckets   int
	ShardSize int
	// Checkpoint is set when the shard was persisted.
	Checkpoint *storage.Checkpoint
}

// Result is the outcome of a run.
type Result struct {
	// Keys maps bucket ordinals to bucket keys.
	Keys       []string
	Store      *bucket.Store
	Buckets    []regression.BucketResult
	Partitions []Partition
	Elapsed    time.Duration
}

// Key returns the bucket key of an ordinal, or "#<ordinal>" when unknown.
func (r *Result) Key(ordinal uint64) string {
	if ordinal < uint64(len(r.Keys)) {
		return r.Keys[ordinal]
	}

	return fmt.Sprintf("#%d", ordinal)
}

// DefaultBucketKey is the bucket of records without a key.
const DefaultBucketKey = "default"

type observation struct {
	seq      int
	ordinal  uint64
	features []float64
	response float64
}

type partial struct {
	report Partition
	blob   []byte
	err    error
}

// PartitionName returns the checkpoint name of partition i.
func PartitionName(i int) string {
	return fmt.Sprintf("partition-%04d", i)
}

// Run aggregates records across partitions and evaluates every bucket.
//
// Parameters:
//   - ctx: Cancels dispatching, accumulation and reduction
//   - records: Observations, all with the same feature count
//   - opts: Optional configuration (WithPartitions, WithEncoderOptions,
//     WithEstimator, WithCheckpoints, WithMetrics, WithLogger)
//
// Returns:
//   - *Result: Merged store and per-bucket results
//   - error: ErrInvalidArgument for empty input or a record of the wrong width,
//     ctx.Err() on cancellation, or an encoding or checkpoint error
func Run(ctx context.Context, records []dataset.Record, opts ...Option) (*Result, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records", errs.ErrInvalidArgument)
	}

	start := time.Now()
	featuresCount := len(records[0].Features)
	if _, err := bucket.New(featuresCount); err != nil {
		return nil, err
	}

	// a checkpoint store holds exactly one run
	if cfg.Checkpoints != nil {
		removed, err := cfg.Checkpoints.Clear()
		if err != nil {
			return nil, err
		}
		if removed > 0 {
			cfg.Logger.Info().Int("checkpoints", removed).Msg("removed checkpoints of a previous run")
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inputs := make([]chan observation, cfg.Partitions)
	partials := make([]partial, cfg.Partitions)

	var wg sync.WaitGroup
	for i := range inputs {
		inputs[i] = make(chan observation, queueSize)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			partials[i] = runPartition(ctx, cfg, i, featuresCount, inputs[i])
			if partials[i].err != nil {
				cancel()
			}
		}(i)
	}

	registry := bucket.NewRegistry()
	dispatchErr := dispatch(ctx, records, registry, inputs)
	for _, in := range inputs {
		close(in)
	}
	wg.Wait()

	if err := firstError(dispatchErr, partials); err != nil {
		return nil, err
	}
	if registry.Collisions() > 0 {
		cfg.Logger.Warn().Int("collisions", registry.Collisions()).Msg("bucket key hash collisions resolved")
	}

	shards := make([][]byte, len(partials))
	reports := make([]Partition, len(partials))
	for i, p := range partials {
		shards[i] = p.blob
		reports[i] = p.report
	}

	store, results, err := reduce(ctx, cfg, shards, reports)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Keys:       registry.Keys(),
		Store:      store,
		Buckets:    results,
		Partitions: reports,
		Elapsed:    time.Since(start),
	}
	cfg.Logger.Info().
		Int("records", len(records)).
		Int("partitions", cfg.Partitions).
		Int("buckets", len(results)).
		Dur("elapsed", res.Elapsed).
		Msg("pipeline finished")

	return res, nil
}

func dispatch(ctx context.Context, records []dataset.Record, registry *bucket.Registry, inputs []chan observation) error {
	for seq, rec := range records {
		key := rec.Key
		if key == "" {
			key = DefaultBucketKey
		}

		ordinal, err := registry.Ordinal(key)
		if err != nil {
			return fmt.Errorf("record %d: %w", seq, err)
		}

		obs := observation{seq: seq, ordinal: ordinal, features: rec.Features, response: rec.Response}
		select {
		case inputs[seq%len(inputs)] <- obs:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

func runPartition(ctx context.Context, cfg *Config, i, featuresCount int, in <-chan observation) partial {
	name := PartitionName(i)
	logger := cfg.Logger.With().Str("partition", name).Logger()

	store, err := bucket.New(featuresCount)
	if err != nil {
		return partial{err: err}
	}

	var (
		records int
		failed  error
	)
	// drain the channel even after a failure so the dispatcher never blocks
	for obs := range in {
		if failed != nil {
			continue
		}
		if err := store.Sample(obs.ordinal, obs.features, obs.response); err != nil {
			failed = fmt.Errorf("record %d: %w", obs.seq, err)
			continue
		}
		records++
	}
	cfg.Metrics.AddSamples(records)

	if failed != nil {
		return partial{err: failed}
	}
	if err := ctx.Err(); err != nil {
		return partial{err: err}
	}

	encOpts := append([]shard.EncoderOption{shard.WithMetrics(cfg.Metrics)}, cfg.Encoder...)
	blob, err := shard.Encode(store, encOpts...)
	if err != nil {
		return partial{err: fmt.Errorf("encode %s: %w", name, err)}
	}

	report := Partition{
		Name:      name,
		Records:   records,
		Buckets:   store.Populated(),
		ShardSize: len(blob),
	}

	if cfg.Checkpoints != nil {
		cp, err := cfg.Checkpoints.Put(name, blob)
		if err != nil {
			return partial{err: fmt.Errorf("checkpoint %s: %w", name, err)}
		}
		report.Checkpoint = &cp
	}

	logger.Debug().
		Int("records", records).
		Int("buckets", report.Buckets).
		Int("shard_bytes", report.ShardSize).
		Msg("partition encoded")

	return partial{report: report, blob: blob}
}

func firstError(dispatchErr error, partials []partial) error {
	// a worker failure cancels the dispatcher, so prefer the root cause
	for _, p := range partials {
		if p.err != nil && !errors.Is(p.err, context.Canceled) {
			return p.err
		}
	}
	if dispatchErr != nil {
		return dispatchErr
	}
	for _, p := range partials {
		if p.err != nil {
			return p.err
		}
	}

	return nil
}

// reduce decodes the shards and merges them. With a checkpoint store the
// shards are read back from it instead of memory.
func reduce(ctx context.Context, cfg *Config, shards [][]byte, reports []Partition) (*bucket.Store, []regression.BucketResult, error) {
	stores := make([]*bucket.Store, 0, len(shards))
	for i, blob := range shards {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		var (
			store *bucket.Store
			err   error
		)
		if cfg.Checkpoints != nil {
			store, _, err = cfg.Checkpoints.Load(reports[i].Name)
		} else {
			store, err = shard.Decode(blob)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reduce %s: %w", reports[i].Name, err)
		}
		stores = append(stores, store)
	}

	return mergeAndEvaluate(cfg, stores)
}

func mergeAndEvaluate(cfg *Config, stores []*bucket.Store) (*bucket.Store, []regression.BucketResult, error) {
	merged, results, err := cfg.Estimator.ReduceStores(stores...)
	if err != nil {
		return nil, nil, fmt.Errorf("merge partitions: %w", err)
	}
	if merged != nil {
		cfg.Metrics.SetBuckets(merged.Populated())
	}

	return merged, results, nil
}

// ReduceCheckpoints merges every checkpoint of a store and evaluates every
// bucket. A checkpointed Run clears the store first, so the checkpoints all
// belong to the latest run. Bucket keys are not persisted, so the result
// carries no Keys.
//
// Returns:
//   - *Result: Merged store and per-bucket results
//   - error: ErrCheckpointNotFound when the store is empty, a decode error,
//     ErrInvalidArgument for checkpoints of different widths, or ctx.Err()
func ReduceCheckpoints(ctx context.Context, checkpoints *storage.Store, opts ...Option) (*Result, error) {
	if checkpoints == nil {
		return nil, fmt.Errorf("%w: nil checkpoint store", errs.ErrInvalidArgument)
	}

	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	list, err := checkpoints.List()
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: store %s is empty", errs.ErrCheckpointNotFound, checkpoints.Path())
	}

	stores := make([]*bucket.Store, 0, len(list))
	reports := make([]Partition, 0, len(list))
	for _, cp := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		store, loaded, err := checkpoints.Load(cp.Partition)
		if err != nil {
			return nil, err
		}
		stores = append(stores, store)
		reports = append(reports, Partition{
			Name:       loaded.Partition,
			Records:    int(store.Count()), //nolint: gosec
			Buckets:    store.Populated(),
			ShardSize:  loaded.Size,
			Checkpoint: &loaded,
		})
	}

	merged, results, err := mergeAndEvaluate(cfg, stores)
	if err != nil {
		return nil, err
	}

	return &Result{
		Store:      merged,
		Buckets:    results,
		Partitions: reports,
		Elapsed:    time.Since(start),
	}, nil
}
