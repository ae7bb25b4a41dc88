// Package linreg provides an incremental, mergeable ordinary least-squares
// regression engine.
//
// Observations are never retained. Each one is folded into a fixed-size set of
// moment sums, and a model is solved from those sums on demand. Because the
// sums are commutative and associative, partial aggregations built on separate
// partitions, workers or nodes merge into exactly the state a single
// accumulator would have reached.
//
// # Core Features
//
//   - Single-pass accumulation, O(n²) per observation in the feature count
//   - Order-independent merge of partial accumulators
//   - Cholesky solution of the normal equations (gonum)
//   - Fit statistics: RSS, MSE and R²
//   - Bucketed stores keyed by string through an xxHash64 registry
//   - Binary shard format with optional compression (Zstd, S2, LZ4) and checksum
//
// # Basic Usage
//
// Fitting observations held in memory:
//
//	import "github.com/arloliu/linreg"
//
//	result, _ := linreg.Fit(
//	    [][]float64{{1}, {2}, {3}, {4}},
//	    []float64{2.1, 3.9, 6.2, 7.8},
//	)
//	fmt.Println(result.Model.Formula())
//
// Accumulating incrementally and merging partials:
//
//	left, _ := linreg.NewAccumulator(2)
//	right, _ := linreg.NewAccumulator(2)
//	_ = left.Sample([]float64{1, 2}, 3)
//	_ = right.Sample([]float64{4, 5}, 6)
//	_ = left.Merge(right)
//	model, err := regression.Estimate(left)
//
// Moving a bucketed partial aggregation between processes:
//
//	store, _ := linreg.NewStore(2)
//	registry := bucket.NewRegistry()
//	ordinal, _ := registry.Ordinal("east")
//	_ = store.Sample(ordinal, []float64{1, 2}, 3)
//	data, _ := linreg.EncodeShard(store)
//	decoded, _ := linreg.DecodeShard(data)
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the sampling,
// regression, bucket and shard packages. For fine-grained control, use those
// packages directly.
package linreg

import (
	"github.com/arloliu/linreg/bucket"
	"github.com/arloliu/linreg/format"
	"github.com/arloliu/linreg/internal/hash"
	"github.com/arloliu/linreg/regression"
	"github.com/arloliu/linreg/sampling"
	"github.com/arloliu/linreg/shard"
)

var defaultShardOptions = []shard.EncoderOption{
	shard.WithLittleEndian(),
	shard.WithCompression(format.CompressionNone),
}

// NewAccumulator creates an empty accumulator for feature vectors of the given width.
//
// Parameters:
//   - featuresCount: Number of features per observation, in [1, sampling.MaxFeaturesCount]
//
// Returns:
//   - *sampling.SufficientStats: Empty accumulator
//   - error: ErrInvalidArgument if featuresCount is out of range
//
// Example:
//
//	acc, err := linreg.NewAccumulator(3)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = acc.Sample([]float64{1, 2, 3}, 10)
func NewAccumulator(featuresCount int) (*sampling.SufficientStats, error) {
	return sampling.New(featuresCount)
}

// Fit accumulates in-memory observations and evaluates them.
//
// Too few observations or linearly dependent features are reported through a
// StateInsufficient result, not an error.
//
// Parameters:
//   - features: One feature vector per observation, all of the same width
//   - responses: One response per observation
//   - opts: Optional estimator configuration (see regression.EstimatorOption)
//
// Returns:
//   - *regression.Result: Evaluation outcome with model and statistics
//   - error: ErrInvalidArgument for empty, ragged or mismatched input, or an
//     option validation error
//
// Example:
//
//	result, err := linreg.Fit(features, responses, regression.WithStatistics(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if result.Estimated() {
//	    fmt.Println(result.Model.Formula(), result.Statistics.R2)
//	}
func Fit(features [][]float64, responses []float64, opts ...regression.EstimatorOption) (*regression.Result, error) {
	est, err := regression.NewEstimator(opts...)
	if err != nil {
		return nil, err
	}

	stats, err := regression.Accumulate(features, responses)
	if err != nil {
		return nil, err
	}

	return est.Evaluate(stats)
}

// NewStore creates an empty bucket store for accumulators of the given width.
func NewStore(featuresCount int) (*bucket.Store, error) {
	return bucket.New(featuresCount)
}

// EncodeShard encodes a bucket store with the default shard settings
// (little-endian, no compression), overridden by opts.
//
// Parameters:
//   - store: Buckets to encode (not modified)
//   - opts: Optional encoder configuration (shard.WithCompression,
//     shard.WithLittleEndian, shard.WithBigEndian, shard.WithMetrics)
//
// Returns:
//   - []byte: Encoded shard
//   - error: ErrInvalidArgument for a nil store, or an option or codec error
//
// Example:
//
//	data, err := linreg.EncodeShard(store, shard.WithCompression(format.CompressionZstd))
func EncodeShard(store *bucket.Store, opts ...shard.EncoderOption) ([]byte, error) {
	allOpts := append(append([]shard.EncoderOption{}, defaultShardOptions...), opts...)

	return shard.Encode(store, allOpts...)
}

// DecodeShard decodes a shard produced by EncodeShard. Byte order and
// compression are detected from the shard header.
func DecodeShard(data []byte) (*bucket.Store, error) {
	return shard.Decode(data)
}

// BucketID returns the xxHash64 of a bucket key.
//
// A bucket.Registry uses the same hash to detect known keys; use a registry to
// obtain dense ordinals for a Store.
func BucketID(key string) uint64 {
	return hash.ID(key)
}
