package section

import (
	"fmt"

	"github.com/arloliu/linreg/endian"
	"github.com/arloliu/linreg/errs"
)

// IndexEntry locates the state of one bucket inside the uncompressed payload.
// It is a fixed size of 16 bytes.
type IndexEntry struct {
	// Ordinal is the bucket ordinal within the store.
	//
	// Offset: 0, Size: 8 bytes
	Ordinal uint64

	// Offset is the absolute byte offset of the bucket state from the payload start.
	//
	// Offset: 8, Size: 4 bytes
	Offset uint32

	// Length is the byte length of the bucket state.
	//
	// Offset: 12, Size: 4 bytes
	Length uint32
}

// NewIndexEntry creates an index entry for the given bucket location.
func NewIndexEntry(ordinal uint64, offset, length int) IndexEntry {
	return IndexEntry{
		Ordinal: ordinal,
		Offset:  uint32(offset), //nolint: gosec
		Length:  uint32(length), //nolint: gosec
	}
}

// End returns the payload offset right after the bucket state.
func (e IndexEntry) End() int {
	return int(e.Offset) + int(e.Length)
}

// Bytes serializes the index entry into IndexEntrySize bytes.
func (e IndexEntry) Bytes(engine endian.EndianEngine) []byte {
	b := make([]byte, IndexEntrySize)
	e.WriteToSlice(b, 0, engine)

	return b
}

// WriteToSlice writes the index entry into data at offset and returns the
// offset right after it. It panics if data is too short.
func (e IndexEntry) WriteToSlice(data []byte, offset int, engine endian.EndianEngine) int {
	engine.PutUint64(data[offset:offset+8], e.Ordinal)
	engine.PutUint32(data[offset+8:offset+12], e.Offset)
	engine.PutUint32(data[offset+12:offset+16], e.Length)

	return offset + IndexEntrySize
}

// ParseIndexEntry parses an index entry from the first IndexEntrySize bytes of data.
//
// Returns:
//   - IndexEntry: Parsed entry
//   - error: ErrInvalidIndexEntry if data is too short
func ParseIndexEntry(data []byte, engine endian.EndianEngine) (IndexEntry, error) {
	if len(data) < IndexEntrySize {
		return IndexEntry{}, fmt.Errorf("%w: got %d bytes, need %d", errs.ErrInvalidIndexEntry, len(data), IndexEntrySize)
	}

	return IndexEntry{
		Ordinal: engine.Uint64(data[0:8]),
		Offset:  engine.Uint32(data[8:12]),
		Length:  engine.Uint32(data[12:16]),
	}, nil
}
