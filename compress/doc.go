// Package compress provides the codecs applied to shard payloads.
//
// A shard carries every populated bucket of a store as one payload of
// concatenated accumulator states. The whole payload is compressed with a
// single codec chosen at encode time and recorded in the shard header:
//   - None: No compression (fastest, largest)
//   - Zstd: Best ratio, moderate speed
//   - S2: Balanced compression and speed
//   - LZ4: Fast decompression, moderate compression
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//	compressed, err := codec.Compress(payload)
//
// # Zstd Implementations
//
// Zstd is backed by the pure-Go github.com/klauspost/compress/zstd by default.
// Building with cgo enabled and the gozstd tag switches to the cgo binding
// github.com/valyala/gozstd. Both produce standard zstd frames, so shards stay
// interchangeable between builds.
//
// # Thread Safety
//
// All codecs are stateless values. Zstd and LZ4 pool their encoders and
// decoders internally, so a single codec may be shared across goroutines.
package compress
