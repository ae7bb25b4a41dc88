package section

import (
	"fmt"

	"github.com/arloliu/linreg/errs"
	"github.com/arloliu/linreg/format"
)

// Header represents the fixed-size header of a shard.
//
// The flag options are always stored little-endian so the byte order can be
// detected before anything else is read. All other fields use the byte order
// selected by the flag.
type Header struct {
	// Flag holds the magic number, byte order and payload compression.
	Flag Flag // 4 bytes
	// FeaturesCount is the feature-vector width shared by every bucket.
	FeaturesCount uint32 // 4 bytes
	// BucketCount is the number of populated buckets, one index entry each.
	BucketCount uint32 // 4 bytes
	// IndexOffset is the byte offset where the index section starts.
	IndexOffset uint32 // 4 bytes
	// PayloadOffset is the byte offset where the (possibly compressed) payload starts.
	PayloadOffset uint32 // 4 bytes
	// PayloadSize is the size of the payload after decompression.
	PayloadSize uint32 // 4 bytes
	// Checksum is the xxHash64 of the uncompressed payload.
	Checksum uint64 // 8 bytes
}

// NewHeader creates a header for a shard of the given feature width.
func NewHeader(featuresCount int) *Header {
	return &Header{
		Flag:          NewFlag(),
		FeaturesCount: uint32(featuresCount), //nolint: gosec
		IndexOffset:   IndexOffsetOffset,
		PayloadOffset: IndexOffsetOffset,
	}
}

// Parse parses the header from a byte slice.
//
// Parameters:
//   - data: At least HeaderSize bytes of shard data
//
// Returns:
//   - error: ErrInvalidHeaderSize if data is too short, or a flag validation error
func (h *Header) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: got %d bytes, need %d", errs.ErrInvalidHeaderSize, len(data), HeaderSize)
	}

	h.Flag.Options = uint16(data[0]) | uint16(data[1])<<8
	h.Flag.Compression = format.CompressionType(data[2])
	h.Flag.reserved = data[3]

	if err := h.Flag.Validate(); err != nil {
		return err
	}

	engine := h.Flag.GetEndianEngine()
	h.FeaturesCount = engine.Uint32(data[4:8])
	h.BucketCount = engine.Uint32(data[8:12])
	h.IndexOffset = engine.Uint32(data[12:16])
	h.PayloadOffset = engine.Uint32(data[16:20])
	h.PayloadSize = engine.Uint32(data[20:24])
	h.Checksum = engine.Uint64(data[24:32])

	return nil
}

// Bytes serializes the header into HeaderSize bytes.
func (h *Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	h.WriteToSlice(b)

	return b
}

// WriteToSlice writes the header into the first HeaderSize bytes of data.
// It panics if data is too short.
func (h *Header) WriteToSlice(data []byte) {
	_ = data[HeaderSize-1]

	data[0] = byte(h.Flag.Options)
	data[1] = byte(h.Flag.Options >> 8)
	data[2] = byte(h.Flag.Compression)
	data[3] = h.Flag.reserved

	engine := h.Flag.GetEndianEngine()
	engine.PutUint32(data[4:8], h.FeaturesCount)
	engine.PutUint32(data[8:12], h.BucketCount)
	engine.PutUint32(data[12:16], h.IndexOffset)
	engine.PutUint32(data[16:20], h.PayloadOffset)
	engine.PutUint32(data[20:24], h.PayloadSize)
	engine.PutUint64(data[24:32], h.Checksum)
}

// ParseHeader parses and validates a shard header.
func ParseHeader(data []byte) (Header, error) {
	var h Header
	if err := h.Parse(data); err != nil {
		return Header{}, err
	}

	return h, nil
}
