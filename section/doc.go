// Package section defines the low-level binary structures of a shard, the
// container that moves a bucket store of partial accumulators between nodes.
//
// # Shard Structure
//
//	┌─────────────────────────────────────────────────────────┐
//	│ Header (32 bytes, fixed)                                │
//	├─────────────────────────────────────────────────────────┤
//	│ Index (N × 16 bytes, fixed per entry)                   │
//	│  - One entry per populated bucket, ordinal ascending    │
//	├─────────────────────────────────────────────────────────┤
//	│ Payload (variable, optionally compressed as a whole)    │
//	│  - Concatenated accumulator states                      │
//	└─────────────────────────────────────────────────────────┘
//
// # Header Format
//
//	Bytes  | Field          | Type   | Description
//	-------|----------------|--------|----------------------------------
//	0-1    | Options        | uint16 | magic number and byte order, always little-endian
//	2      | Compression    | uint8  | payload codec (format.CompressionType)
//	3      | Reserved       | uint8  | must be 0
//	4-7    | FeaturesCount  | uint32 | feature-vector width
//	8-11   | BucketCount    | uint32 | number of index entries
//	12-15  | IndexOffset    | uint32 | start of the index section
//	16-19  | PayloadOffset  | uint32 | start of the payload
//	20-23  | PayloadSize    | uint32 | uncompressed payload size
//	24-31  | Checksum       | uint64 | xxHash64 of the uncompressed payload
//
// # Index Entry Format
//
//	Bytes  | Field   | Type   | Description
//	-------|---------|--------|----------------------------------
//	0-7    | Ordinal | uint64 | bucket ordinal
//	8-11   | Offset  | uint32 | state offset in the uncompressed payload
//	12-15  | Length  | uint32 | state length
package section
