package regression

import (
	"fmt"

	"github.com/arloliu/linreg/bucket"
	"github.com/arloliu/linreg/errs"
	"github.com/arloliu/linreg/sampling"
)

// EvaluateStore evaluates every populated bucket of a store.
//
// Each bucket is fitted independently, which makes per-bucket comparisons such
// as drift detection between time windows straightforward. Buckets without
// enough data yield StateInsufficient results rather than an error.
//
// Parameters:
//   - store: Buckets to evaluate (not modified)
//
// Returns:
//   - []BucketResult: One result per populated bucket, in ascending ordinal order
//   - error: Evaluation error if any
//
// Example:
//
//	results, err := est.EvaluateStore(store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, br := range results {
//	    fmt.Printf("bucket %d: %s\n", br.Ordinal, br.Result)
//	}
func (e *Estimator) EvaluateStore(store *bucket.Store) ([]BucketResult, error) {
	if store == nil {
		return nil, nil
	}

	results := make([]BucketResult, 0, store.Populated())
	for ordinal, stats := range store.All() {
		result, err := e.Evaluate(stats)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate bucket %d: %w", ordinal, err)
		}
		results = append(results, BucketResult{Ordinal: ordinal, Result: result})
	}

	return results, nil
}

// ReduceStores merges partial stores bucket by bucket and evaluates the result.
//
// This is the reduce step of a partitioned aggregation: every partition owns
// a store, and the partials are combined in any order. The inputs are not modified.
//
// Returns:
//   - *bucket.Store: Merged store
//   - []BucketResult: One result per populated bucket of the merged store
//   - error: ErrInvalidArgument if the stores have different feature counts
func (e *Estimator) ReduceStores(partials ...*bucket.Store) (*bucket.Store, []BucketResult, error) {
	var merged *bucket.Store
	for _, p := range partials {
		if p == nil {
			continue
		}
		if merged == nil {
			s, err := bucket.New(p.FeaturesCount())
			if err != nil {
				return nil, nil, err
			}
			merged = s
		}
		if err := merged.Merge(p); err != nil {
			return nil, nil, err
		}
		e.cfg.Metrics.IncMerges()
	}

	if merged == nil {
		return nil, nil, nil
	}

	results, err := e.EvaluateStore(merged)
	if err != nil {
		return nil, nil, err
	}

	return merged, results, nil
}

// Accumulate folds observations into a new accumulator. It is a convenience for
// callers that already hold the observations in memory.
//
// Parameters:
//   - features: One feature vector per observation
//   - responses: One response per observation
//
// Returns:
//   - *sampling.SufficientStats: Accumulator holding all observations
//   - error: ErrInvalidArgument for empty or mismatched input
func Accumulate(features [][]float64, responses []float64) (*sampling.SufficientStats, error) {
	if len(features) == 0 || len(features) != len(responses) {
		return nil, fmt.Errorf("%w: %d feature vectors with %d responses",
			errs.ErrInvalidArgument, len(features), len(responses))
	}

	stats, err := sampling.New(len(features[0]))
	if err != nil {
		return nil, err
	}
	for i, x := range features {
		if err := stats.Sample(x, responses[i]); err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}
	}

	return stats, nil
}
