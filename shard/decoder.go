package shard

import (
	"fmt"

	"github.com/arloliu/linreg/bucket"
	"github.com/arloliu/linreg/compress"
	"github.com/arloliu/linreg/errs"
	"github.com/arloliu/linreg/internal/hash"
	"github.com/arloliu/linreg/sampling"
	"github.com/arloliu/linreg/section"
)

// Peek parses and validates the shard header without touching the payload.
//
// Returns:
//   - section.Header: Parsed header
//   - error: ErrInvalidHeaderSize, ErrInvalidMagicNumber, ErrInvalidCompression,
//     ErrCorruptedState for an impossible feature count, or ErrInvalidIndexEntry
//     when the index section does not fit in data
func Peek(data []byte) (section.Header, error) {
	header, err := section.ParseHeader(data)
	if err != nil {
		return section.Header{}, err
	}

	if header.FeaturesCount == 0 || header.FeaturesCount > sampling.MaxFeaturesCount {
		return section.Header{}, fmt.Errorf("%w: shard features count %d", errs.ErrCorruptedState, header.FeaturesCount)
	}

	if header.IndexOffset != section.IndexOffsetOffset {
		return section.Header{}, fmt.Errorf("%w: index offset %d, expected %d",
			errs.ErrInvalidIndexEntry, header.IndexOffset, section.IndexOffsetOffset)
	}

	indexEnd := uint64(header.IndexOffset) + uint64(header.BucketCount)*section.IndexEntrySize
	if uint64(header.PayloadOffset) != indexEnd || indexEnd > uint64(len(data)) {
		return section.Header{}, fmt.Errorf("%w: index of %d entries does not fit in %d bytes",
			errs.ErrInvalidIndexEntry, header.BucketCount, len(data))
	}

	return header, nil
}

// Decode rebuilds the bucket store encoded in data.
//
// The decoded store is bit-identical to the encoded one: every populated
// bucket keeps its ordinal and exact sums.
//
// Parameters:
//   - data: Shard produced by Encode
//
// Returns:
//   - *bucket.Store: Decoded store, independent of data
//   - error: Any header validation error from Peek, a codec error,
//     ErrCorruptedState or ErrChecksumMismatch for a damaged payload,
//     ErrInvalidIndexEntry for a damaged index
func Decode(data []byte) (*bucket.Store, error) {
	header, err := Peek(data)
	if err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(header.Flag.Compression)
	if err != nil {
		return nil, err
	}

	payload, err := codec.Decompress(data[header.PayloadOffset:])
	if err != nil {
		return nil, fmt.Errorf("%w: decompress %s payload: %w", errs.ErrCorruptedState, header.Flag.Compression, err)
	}

	if uint64(len(payload)) != uint64(header.PayloadSize) {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d",
			errs.ErrCorruptedState, len(payload), header.PayloadSize)
	}

	if sum := hash.Checksum(payload); sum != header.Checksum {
		return nil, fmt.Errorf("%w: got %016x, want %016x", errs.ErrChecksumMismatch, sum, header.Checksum)
	}

	featuresCount := int(header.FeaturesCount)
	store, err := bucket.New(featuresCount)
	if err != nil {
		return nil, err
	}

	engine := header.Flag.GetEndianEngine()
	stateSize := sampling.StateSize(featuresCount)
	off := section.IndexOffsetOffset

	for i := range int(header.BucketCount) {
		entry, err := section.ParseIndexEntry(data[off:], engine)
		if err != nil {
			return nil, err
		}
		off += section.IndexEntrySize

		if err := validateEntry(entry, i, store, stateSize, len(payload)); err != nil {
			return nil, err
		}

		stats, _, err := sampling.ReadState(payload[entry.Offset:entry.End()], engine)
		if err != nil {
			return nil, fmt.Errorf("bucket %d: %w", entry.Ordinal, err)
		}
		if stats.FeaturesCount() != featuresCount {
			return nil, fmt.Errorf("%w: bucket %d has %d features, shard has %d",
				errs.ErrInvalidIndexEntry, entry.Ordinal, stats.FeaturesCount(), featuresCount)
		}

		if err := store.Set(entry.Ordinal, stats); err != nil {
			return nil, fmt.Errorf("bucket %d: %w", entry.Ordinal, err)
		}
	}

	return store, nil
}

// validateEntry checks entry i against the payload and the entries decoded so far.
// Ordinals must be strictly ascending, which also rules out duplicates.
func validateEntry(entry section.IndexEntry, i int, store *bucket.Store, stateSize, payloadSize int) error {
	if int(entry.Length) != stateSize {
		return fmt.Errorf("%w: entry %d has length %d, expected %d",
			errs.ErrInvalidIndexEntry, i, entry.Length, stateSize)
	}

	if entry.End() > payloadSize {
		return fmt.Errorf("%w: entry %d ends at %d beyond payload of %d bytes",
			errs.ErrInvalidIndexEntry, i, entry.End(), payloadSize)
	}

	if entry.Ordinal > bucket.MaxOrdinal {
		return fmt.Errorf("%w: entry %d ordinal %d exceeds %d",
			errs.ErrInvalidIndexEntry, i, entry.Ordinal, bucket.MaxOrdinal)
	}

	if uint64(store.Len()) > entry.Ordinal {
		return fmt.Errorf("%w: entry %d ordinal %d is not ascending",
			errs.ErrInvalidIndexEntry, i, entry.Ordinal)
	}

	return nil
}
