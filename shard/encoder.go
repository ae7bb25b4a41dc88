package shard

import (
	"fmt"

	"github.com/arloliu/linreg/bucket"
	"github.com/arloliu/linreg/compress"
	"github.com/arloliu/linreg/errs"
	"github.com/arloliu/linreg/internal/hash"
	"github.com/arloliu/linreg/internal/options"
	"github.com/arloliu/linreg/internal/pool"
	"github.com/arloliu/linreg/sampling"
	"github.com/arloliu/linreg/section"
)

// Encode serializes every populated bucket of store into a shard.
//
// Parameters:
//   - store: Bucket store to encode, not modified
//   - opts: Encoder options (compression, byte order, metrics)
//
// Returns:
//   - []byte: Encoded shard, owned by the caller
//   - error: ErrInvalidArgument for a nil store or an oversized payload,
//     ErrInvalidCompression for an unknown codec, or a codec error
func Encode(store *bucket.Store, opts ...EncoderOption) ([]byte, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", errs.ErrInvalidArgument)
	}

	cfg := newEncoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	header := section.NewHeader(store.FeaturesCount())
	header.Flag.Compression = cfg.compression
	if cfg.bigEndian {
		header.Flag.WithBigEndian()
	}
	engine := header.Flag.GetEndianEngine()

	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return nil, err
	}

	buf := pool.GetShardBuffer()
	defer pool.PutShardBuffer(buf)

	buf.Grow(store.Populated() * sampling.StateSize(store.FeaturesCount()))

	entries := make([]section.IndexEntry, 0, store.Populated())
	for ordinal, stats := range store.All() {
		offset := buf.Len()
		buf.B = stats.AppendState(buf.B, engine)
		entries = append(entries, section.NewIndexEntry(ordinal, offset, buf.Len()-offset))
	}

	payload := buf.Bytes()
	if uint64(len(payload)) > section.MaxOffset {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds the shard limit", errs.ErrInvalidArgument, len(payload))
	}

	compressed, err := codec.Compress(payload)
	if err != nil {
		return nil, fmt.Errorf("compress shard payload with %s: %w", cfg.compression, err)
	}

	indexSize := len(entries) * section.IndexEntrySize
	total := section.HeaderSize + indexSize + len(compressed)

	header.BucketCount = uint32(len(entries))                     //nolint: gosec
	header.PayloadOffset = uint32(section.HeaderSize + indexSize) //nolint: gosec
	header.PayloadSize = uint32(len(payload))                     //nolint: gosec
	header.Checksum = hash.Checksum(payload)

	out := make([]byte, total)
	header.WriteToSlice(out)

	off := section.IndexOffsetOffset
	for _, entry := range entries {
		off = entry.WriteToSlice(out, off, engine)
	}
	copy(out[off:], compressed)

	cfg.metrics.ObserveShard(total)

	return out, nil
}
