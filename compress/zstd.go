package compress

// ZstdCompressor provides Zstandard compression.
//
// It gives the best ratio of the built-in codecs and suits shards that are
// checkpointed to disk or shipped over constrained links.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Returns:
//   - ZstdCompressor: New Zstd compressor instance
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
