package section

import "math"

const (
	// Bit masks of Flag.Options
	EndiannessMask   = 0x0001 // Mask for endianness bit (bit 0), 0=little, 1=big
	ReservedBitsMask = 0x000E // Mask for reserved bits (bits 1-3), must be 0
	MagicNumberMask  = 0xFFF0 // Mask for magic number (bits 4-15)

	// MagicShardV1Opt is the version 1 magic number of the shard format.
	MagicShardV1Opt = 0xEC10
)

// offset and section sizes in the shard
const (
	HeaderSize        = 32             // fixed header size in bytes
	IndexEntrySize    = 16             // fixed index entry size in bytes
	IndexOffsetOffset = HeaderSize     // byte offset where index section starts
	MaxOffset         = math.MaxUint32 // maximum payload offset or length of an index entry
)
