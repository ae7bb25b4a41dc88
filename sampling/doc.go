// Package sampling provides the sufficient-statistics accumulator behind the
// incremental least-squares estimator.
//
// A SufficientStats value folds observations, each a feature vector plus a
// response value, into a fixed-size set of moment sums:
//
//   - the observation count
//   - per-feature sums Σxᵢ
//   - the lower triangle of the feature cross-product sums Σxᵢxⱼ (j <= i)
//   - per-feature feature·response sums Σxᵢy
//   - the response sum Σy and response square sum Σy²
//
// Those sums are all that is needed to build the normal equations of an
// ordinary least-squares fit, so raw observations never have to be retained.
//
// # Merging
//
// Sums are commutative and associative. Accumulators built independently on
// different partitions can therefore be merged in any order, in a chain or a
// tree, and produce the same state as a single accumulator that saw every
// observation:
//
//	left, _ := sampling.New(2)
//	right, _ := sampling.New(2)
//	_ = left.Sample([]float64{1, 2}, 3)
//	_ = right.Sample([]float64{4, 5}, 6)
//	_ = left.Merge(right)
//
// # State transfer
//
// AppendState and ReadState implement the binary state layout used to move
// partial accumulators between nodes; see state.go for the exact layout.
//
// # Precision
//
// Sums of products are susceptible to catastrophic cancellation and overflow for
// large-magnitude inputs. This is a known limitation of the exact moment-sums
// approach and is not compensated for.
//
// # Thread Safety
//
// A SufficientStats is not safe for concurrent mutation. Each partition or worker
// should own its accumulator exclusively and merge afterwards.
package sampling
