package bucket

import (
	"fmt"
	"iter"

	"github.com/arloliu/linreg/errs"
	"github.com/arloliu/linreg/sampling"
)

// MaxOrdinal is the largest bucket ordinal a Store accepts.
const MaxOrdinal = 1<<24 - 1

// Store holds one accumulator per bucket ordinal.
type Store struct {
	featuresCount int
	slots         []*sampling.SufficientStats
	populated     int
}

// New creates an empty store for accumulators of the given width.
//
// Parameters:
//   - featuresCount: Feature-vector width of every bucket
//
// Returns:
//   - *Store: Empty store
//   - error: ErrInvalidArgument if featuresCount is out of range
func New(featuresCount int) (*Store, error) {
	if featuresCount <= 0 || featuresCount > sampling.MaxFeaturesCount {
		return nil, fmt.Errorf("%w: features count %d", errs.ErrInvalidArgument, featuresCount)
	}

	return &Store{featuresCount: featuresCount}, nil
}

// FeaturesCount returns the feature-vector width of the store.
func (s *Store) FeaturesCount() int {
	return s.featuresCount
}

// Get returns the accumulator of a bucket, or nil when the slot is absent.
func (s *Store) Get(ordinal uint64) *sampling.SufficientStats {
	if ordinal >= uint64(len(s.slots)) {
		return nil
	}

	return s.slots[ordinal]
}

// GetOrCreate returns the accumulator of a bucket, creating an empty one when
// the slot is absent. The slot slice grows as needed.
//
// Returns:
//   - *sampling.SufficientStats: Accumulator owned by the store
//   - error: ErrInvalidArgument if ordinal exceeds MaxOrdinal
func (s *Store) GetOrCreate(ordinal uint64) (*sampling.SufficientStats, error) {
	if err := s.grow(ordinal); err != nil {
		return nil, err
	}

	if s.slots[ordinal] == nil {
		stats, err := sampling.New(s.featuresCount)
		if err != nil {
			return nil, err
		}
		s.slots[ordinal] = stats
		s.populated++
	}

	return s.slots[ordinal], nil
}

// grow makes ordinal addressable, at least doubling capacity when it has to
// reallocate.
func (s *Store) grow(ordinal uint64) error {
	if ordinal > MaxOrdinal {
		return fmt.Errorf("%w: bucket ordinal %d exceeds %d", errs.ErrInvalidArgument, ordinal, MaxOrdinal)
	}

	need := int(ordinal) + 1
	if need <= len(s.slots) {
		return nil
	}
	if need <= cap(s.slots) {
		s.slots = s.slots[:need]
		return nil
	}

	grown := make([]*sampling.SufficientStats, need, max(need, 2*cap(s.slots)))
	copy(grown, s.slots)
	s.slots = grown

	return nil
}

// Sample folds one observation into a bucket, creating the bucket if needed.
func (s *Store) Sample(ordinal uint64, features []float64, response float64) error {
	if len(features) != s.featuresCount {
		return fmt.Errorf("%w: expected %d features, got %d", errs.ErrInvalidArgument, s.featuresCount, len(features))
	}

	stats, err := s.GetOrCreate(ordinal)
	if err != nil {
		return err
	}

	return stats.Sample(features, response)
}

// MergeBucket merges a partial accumulator into a bucket. A nil from is a no-op;
// from is never retained or modified.
func (s *Store) MergeBucket(ordinal uint64, from *sampling.SufficientStats) error {
	if from == nil {
		return nil
	}
	if from.FeaturesCount() != s.featuresCount {
		return fmt.Errorf("%w: cannot merge %d-feature state into %d-feature store",
			errs.ErrInvalidArgument, from.FeaturesCount(), s.featuresCount)
	}

	stats, err := s.GetOrCreate(ordinal)
	if err != nil {
		return err
	}

	return stats.Merge(from)
}

// Merge merges every populated bucket of other into s. other is not modified.
func (s *Store) Merge(other *Store) error {
	if other == nil {
		return nil
	}
	if other.featuresCount != s.featuresCount {
		return fmt.Errorf("%w: cannot merge %d-feature store into %d-feature store",
			errs.ErrInvalidArgument, other.featuresCount, s.featuresCount)
	}

	for ordinal, stats := range other.All() {
		if err := s.MergeBucket(ordinal, stats); err != nil {
			return fmt.Errorf("bucket %d: %w", ordinal, err)
		}
	}

	return nil
}

// Set replaces the accumulator of a bucket. The store takes ownership of stats;
// a nil stats clears the slot.
func (s *Store) Set(ordinal uint64, stats *sampling.SufficientStats) error {
	if stats == nil {
		s.Clear(ordinal)
		return nil
	}
	if stats.FeaturesCount() != s.featuresCount {
		return fmt.Errorf("%w: cannot store %d-feature state in %d-feature store",
			errs.ErrInvalidArgument, stats.FeaturesCount(), s.featuresCount)
	}
	if err := s.grow(ordinal); err != nil {
		return err
	}

	if s.slots[ordinal] == nil {
		s.populated++
	}
	s.slots[ordinal] = stats

	return nil
}

// Clear removes the accumulator of a bucket.
func (s *Store) Clear(ordinal uint64) {
	if ordinal >= uint64(len(s.slots)) || s.slots[ordinal] == nil {
		return
	}

	s.slots[ordinal] = nil
	s.populated--
}

// Len returns the number of addressable slots, populated or not.
func (s *Store) Len() int {
	return len(s.slots)
}

// Populated returns the number of buckets holding an accumulator.
func (s *Store) Populated() int {
	return s.populated
}

// Count returns the total number of observations over all buckets.
func (s *Store) Count() uint64 {
	var total uint64
	for _, stats := range s.All() {
		total += stats.Count()
	}

	return total
}

// Ordinals returns the ordinals of all populated buckets in ascending order.
func (s *Store) Ordinals() []uint64 {
	ordinals := make([]uint64, 0, s.populated)
	for ordinal := range s.All() {
		ordinals = append(ordinals, ordinal)
	}

	return ordinals
}

// All iterates over populated buckets in ascending ordinal order.
func (s *Store) All() iter.Seq2[uint64, *sampling.SufficientStats] {
	return func(yield func(uint64, *sampling.SufficientStats) bool) {
		for i, stats := range s.slots {
			if stats == nil {
				continue
			}
			if !yield(uint64(i), stats) {
				return
			}
		}
	}
}

// Equal reports whether both stores hold the same populated buckets with equal
// accumulators within relTol (see sampling.SufficientStats.Equal).
func (s *Store) Equal(other *Store, relTol float64) bool {
	if s.featuresCount != other.featuresCount || s.populated != other.populated {
		return false
	}

	for ordinal, stats := range s.All() {
		if !stats.Equal(other.Get(ordinal), relTol) {
			return false
		}
	}

	return true
}
