package sampling

import (
	"fmt"
	"math"

	"github.com/arloliu/linreg/errs"
)

// MaxFeaturesCount bounds the feature-vector width. Cross-product sums grow with
// the square of the width, and feature counts are expected to be small.
const MaxFeaturesCount = 1 << 12

// SufficientStats accumulates the moment sums of a stream of observations.
//
// The feature count is fixed at construction. Cross-product sums are stored as a
// packed lower triangle: entry (i, j) with j <= i lives at index i*(i+1)/2 + j.
type SufficientStats struct {
	featuresCount       int
	count               uint64
	featureSums         []float64
	crossSums           []float64 // packed lower triangle, n*(n+1)/2 entries
	featureResponseSums []float64
	responseSum         float64
	responseSquareSum   float64
}

// New creates an empty accumulator for feature vectors of the given width.
//
// Parameters:
//   - featuresCount: Number of features per observation, in [1, MaxFeaturesCount]
//
// Returns:
//   - *SufficientStats: Empty accumulator
//   - error: ErrInvalidArgument if featuresCount is out of range
func New(featuresCount int) (*SufficientStats, error) {
	if featuresCount <= 0 {
		return nil, fmt.Errorf("%w: features count must be positive, got %d", errs.ErrInvalidArgument, featuresCount)
	}
	if featuresCount > MaxFeaturesCount {
		return nil, fmt.Errorf("%w: features count %d exceeds %d", errs.ErrInvalidArgument, featuresCount, MaxFeaturesCount)
	}

	return newStats(featuresCount), nil
}

func newStats(featuresCount int) *SufficientStats {
	return &SufficientStats{
		featuresCount:       featuresCount,
		featureSums:         make([]float64, featuresCount),
		crossSums:           make([]float64, triangleSize(featuresCount)),
		featureResponseSums: make([]float64, featuresCount),
	}
}

// triangleSize returns the number of entries in a lower triangle including the diagonal.
func triangleSize(n int) int {
	return n * (n + 1) / 2
}

// triangleIndex maps (i, j) with j <= i to its packed index.
func triangleIndex(i, j int) int {
	return i*(i+1)/2 + j
}

// Sample folds one observation into the accumulator.
//
// The cost is O(n²) in the feature count, which is the price of an exact
// single-pass solution.
//
// Parameters:
//   - features: Feature vector, must have exactly FeaturesCount() entries
//   - response: Response value of the observation
//
// Returns:
//   - error: ErrInvalidArgument if the feature vector has the wrong length
func (s *SufficientStats) Sample(features []float64, response float64) error {
	if len(features) != s.featuresCount {
		return fmt.Errorf("%w: expected %d features, got %d", errs.ErrInvalidArgument, s.featuresCount, len(features))
	}

	s.count++
	k := 0
	for i, xi := range features {
		s.featureSums[i] += xi
		s.featureResponseSums[i] += xi * response
		for j := 0; j <= i; j++ {
			s.crossSums[k] += xi * features[j]
			k++
		}
	}
	s.responseSum += response
	s.responseSquareSum += response * response

	return nil
}

// Merge adds all sums of from into s.
//
// A nil from is treated as an empty partial and leaves s unchanged. from is not
// modified.
//
// Returns:
//   - error: ErrInvalidArgument if the feature counts differ
func (s *SufficientStats) Merge(from *SufficientStats) error {
	if from == nil {
		return nil
	}
	if from.featuresCount != s.featuresCount {
		return fmt.Errorf("%w: cannot merge %d-feature state into %d-feature state",
			errs.ErrInvalidArgument, from.featuresCount, s.featuresCount)
	}

	s.count += from.count
	for i := range s.featureSums {
		s.featureSums[i] += from.featureSums[i]
		s.featureResponseSums[i] += from.featureResponseSums[i]
	}
	for k := range s.crossSums {
		s.crossSums[k] += from.crossSums[k]
	}
	s.responseSum += from.responseSum
	s.responseSquareSum += from.responseSquareSum

	return nil
}

// FeaturesCount returns the fixed feature-vector width.
func (s *SufficientStats) FeaturesCount() int {
	return s.featuresCount
}

// Count returns the number of observations folded in.
func (s *SufficientStats) Count() uint64 {
	return s.count
}

// FeatureSums returns Σxᵢ per feature. The slice is owned by s and must not be modified.
func (s *SufficientStats) FeatureSums() []float64 {
	return s.featureSums
}

// FeatureResponseSums returns Σxᵢy per feature. The slice is owned by s and must not be modified.
func (s *SufficientStats) FeatureResponseSums() []float64 {
	return s.featureResponseSums
}

// CrossSum returns Σxᵢxⱼ. The lookup is symmetric, so (i, j) and (j, i) are equivalent.
func (s *SufficientStats) CrossSum(i, j int) float64 {
	if j > i {
		i, j = j, i
	}

	return s.crossSums[triangleIndex(i, j)]
}

// ResponseSum returns Σy.
func (s *SufficientStats) ResponseSum() float64 {
	return s.responseSum
}

// ResponseSquareSum returns Σy².
func (s *SufficientStats) ResponseSquareSum() float64 {
	return s.responseSquareSum
}

// FeatureMeans returns the mean of every feature, or zeros when no observation was sampled.
func (s *SufficientStats) FeatureMeans() []float64 {
	means := make([]float64, s.featuresCount)
	if s.count == 0 {
		return means
	}

	n := float64(s.count)
	for i, sum := range s.featureSums {
		means[i] = sum / n
	}

	return means
}

// ResponseMean returns the response mean, or 0 when no observation was sampled.
func (s *SufficientStats) ResponseMean() float64 {
	if s.count == 0 {
		return 0
	}

	return s.responseSum / float64(s.count)
}

// ResponseVariance returns the total sum of squares Σ(y-ȳ)² derived from the sums.
func (s *SufficientStats) ResponseVariance() float64 {
	if s.count == 0 {
		return 0
	}

	return s.responseSquareSum - s.responseSum*s.ResponseMean()
}

// Clone returns a deep copy of s.
func (s *SufficientStats) Clone() *SufficientStats {
	c := newStats(s.featuresCount)
	c.count = s.count
	copy(c.featureSums, s.featureSums)
	copy(c.crossSums, s.crossSums)
	copy(c.featureResponseSums, s.featureResponseSums)
	c.responseSum = s.responseSum
	c.responseSquareSum = s.responseSquareSum

	return c
}

// Reset clears all sums while keeping the feature count and allocated memory.
func (s *SufficientStats) Reset() {
	s.count = 0
	clear(s.featureSums)
	clear(s.crossSums)
	clear(s.featureResponseSums)
	s.responseSum = 0
	s.responseSquareSum = 0
}

// Equal reports whether s and other hold the same sums within a relative tolerance.
//
// A relTol of 0 requires bit-identical sums. Two values a and b are considered
// equal when |a-b| <= relTol * max(|a|, |b|).
func (s *SufficientStats) Equal(other *SufficientStats, relTol float64) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.featuresCount != other.featuresCount || s.count != other.count {
		return false
	}
	if !closeEnough(s.responseSum, other.responseSum, relTol) ||
		!closeEnough(s.responseSquareSum, other.responseSquareSum, relTol) {
		return false
	}

	return slicesClose(s.featureSums, other.featureSums, relTol) &&
		slicesClose(s.crossSums, other.crossSums, relTol) &&
		slicesClose(s.featureResponseSums, other.featureResponseSums, relTol)
}

func slicesClose(a, b []float64, relTol float64) bool {
	for i := range a {
		if !closeEnough(a[i], b[i], relTol) {
			return false
		}
	}

	return true
}

func closeEnough(a, b, relTol float64) bool {
	if a == b {
		return true
	}

	return math.Abs(a-b) <= relTol*math.Max(math.Abs(a), math.Abs(b))
}

// String returns a compact summary used in debug logs.
func (s *SufficientStats) String() string {
	return fmt.Sprintf("SufficientStats{Features: %d, Count: %d, FeatureSums: %v, ResponseSum: %g, ResponseSquareSum: %g}",
		s.featuresCount, s.count, s.featureSums, s.responseSum, s.responseSquareSum)
}
