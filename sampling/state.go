package sampling

import (
	"fmt"
	"math"

	"github.com/arloliu/linreg/endian"
	"github.com/arloliu/linreg/errs"
)

// State layout, in order:
//
//	features_count                int32
//	count                         int64
//	feature_sums                  float64[n]
//	feature_square_cross_sums     float64[n*(n+1)/2]  lower triangle, row-major
//	feature_response_product_sums float64[n]
//	response_sum                  float64
//	response_square_sum           float64
//
// Array lengths are implied by features_count and are not written.
const (
	featuresCountSize = 4
	countSize         = 8
	float64Size       = 8
	stateFixedSize    = featuresCountSize + countSize + 2*float64Size
)

// StateSize returns the encoded size in bytes of a state with the given width.
func StateSize(featuresCount int) int {
	return stateFixedSize + (2*featuresCount+triangleSize(featuresCount))*float64Size
}

// EncodedSize returns the number of bytes AppendState writes for s.
func (s *SufficientStats) EncodedSize() int {
	return StateSize(s.featuresCount)
}

// AppendState appends the binary state of s to dst and returns the extended slice.
//
// Parameters:
//   - dst: Destination buffer (may be nil)
//   - engine: Byte order of the written values
//
// Returns:
//   - []byte: dst with the encoded state appended
func (s *SufficientStats) AppendState(dst []byte, engine endian.EndianEngine) []byte {
	if free := cap(dst) - len(dst); free < s.EncodedSize() {
		grown := make([]byte, len(dst), len(dst)+s.EncodedSize())
		copy(grown, dst)
		dst = grown
	}

	dst = engine.AppendUint32(dst, uint32(s.featuresCount)) //nolint: gosec
	dst = engine.AppendUint64(dst, s.count)
	dst = appendFloats(dst, engine, s.featureSums)
	dst = appendFloats(dst, engine, s.crossSums)
	dst = appendFloats(dst, engine, s.featureResponseSums)
	dst = engine.AppendUint64(dst, math.Float64bits(s.responseSum))
	dst = engine.AppendUint64(dst, math.Float64bits(s.responseSquareSum))

	return dst
}

func appendFloats(dst []byte, engine endian.EndianEngine, values []float64) []byte {
	for _, v := range values {
		dst = engine.AppendUint64(dst, math.Float64bits(v))
	}

	return dst
}

// ReadState decodes one state from the start of data.
//
// Parameters:
//   - data: Encoded state, possibly followed by unrelated bytes
//   - engine: Byte order the state was written with
//
// Returns:
//   - *SufficientStats: Decoded accumulator, bit-identical to the encoded one
//   - int: Number of bytes consumed
//   - error: ErrInvalidStateSize if data is truncated, ErrInvalidArgument for a
//     feature count outside (0, MaxFeaturesCount], ErrCorruptedState for an impossible count
func ReadState(data []byte, engine endian.EndianEngine) (*SufficientStats, int, error) {
	if len(data) < featuresCountSize+countSize {
		return nil, 0, fmt.Errorf("%w: %d bytes is shorter than the state prefix", errs.ErrInvalidStateSize, len(data))
	}

	featuresCount := int(int32(engine.Uint32(data[0:4]))) //nolint: gosec
	if featuresCount <= 0 || featuresCount > MaxFeaturesCount {
		return nil, 0, fmt.Errorf("%w: encoded features count %d", errs.ErrInvalidArgument, featuresCount)
	}

	size := StateSize(featuresCount)
	if len(data) < size {
		return nil, 0, fmt.Errorf("%w: need %d bytes for %d features, got %d",
			errs.ErrInvalidStateSize, size, featuresCount, len(data))
	}

	count := engine.Uint64(data[4:12])
	if int64(count) < 0 { //nolint: gosec
		return nil, 0, fmt.Errorf("%w: negative observation count", errs.ErrCorruptedState)
	}

	s := newStats(featuresCount)
	s.count = count

	off := featuresCountSize + countSize
	off = readFloats(data, off, engine, s.featureSums)
	off = readFloats(data, off, engine, s.crossSums)
	off = readFloats(data, off, engine, s.featureResponseSums)
	s.responseSum = math.Float64frombits(engine.Uint64(data[off : off+8]))
	off += float64Size
	s.responseSquareSum = math.Float64frombits(engine.Uint64(data[off : off+8]))
	off += float64Size

	return s, off, nil
}

func readFloats(data []byte, off int, engine endian.EndianEngine, dst []float64) int {
	for i := range dst {
		dst[i] = math.Float64frombits(engine.Uint64(data[off : off+8]))
		off += float64Size
	}

	return off
}

// MarshalBinary encodes s in little-endian byte order.
func (s *SufficientStats) MarshalBinary() ([]byte, error) {
	return s.AppendState(make([]byte, 0, s.EncodedSize()), endian.GetLittleEndianEngine()), nil
}

// UnmarshalBinary replaces s with the little-endian state in data.
//
// data must contain exactly one state; trailing bytes are rejected.
func (s *SufficientStats) UnmarshalBinary(data []byte) error {
	decoded, n, err := ReadState(data, endian.GetLittleEndianEngine())
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("%w: %d trailing bytes after state", errs.ErrInvalidStateSize, len(data)-n)
	}

	*s = *decoded

	return nil
}
