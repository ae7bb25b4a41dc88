// Package shard encodes a bucket store into a self-describing binary shard and
// decodes it back.
//
// A shard is how one partition hands its partial aggregation to a reducer: the
// partition encodes its bucket.Store once, the bytes travel or get
// checkpointed, and the reducer decodes every shard and merges the stores.
// Merging decoded stores yields the same sums as one store that saw every
// observation, because decoding is bit-exact.
//
// # Layout
//
// See package section for the byte-level layout. The payload is the
// concatenation of every populated bucket's accumulator state in ascending
// ordinal order, compressed as a whole with the codec chosen at encode time.
// The header carries an xxHash64 checksum of the uncompressed payload.
//
// # Usage
//
//	data, err := shard.Encode(store, shard.WithCompression(format.CompressionZstd))
//	if err != nil {
//	    return err
//	}
//
//	decoded, err := shard.Decode(data)
//	if err != nil {
//	    return err
//	}
//	_ = reduced.Merge(decoded)
//
// # Validation
//
// Decode rejects, with sentinel errors from package errs:
//   - data shorter than the header (ErrInvalidHeaderSize)
//   - a wrong magic number or reserved bits (ErrInvalidMagicNumber)
//   - an unknown codec (ErrInvalidCompression)
//   - index entries out of bounds, out of order or of the wrong length (ErrInvalidIndexEntry)
//   - a payload whose size or checksum does not match the header
//     (ErrCorruptedState, ErrChecksumMismatch)
package shard
