package compress

import (
	"fmt"
	"testing"
)

func BenchmarkAllCodecs_Compress(b *testing.B) {
	for _, buckets := range []int{16, 256, 4096} {
		data := statePayload(buckets)

		for name, codec := range getAllCodecs() {
			b.Run(fmt.Sprintf("%s/%d_buckets", name, buckets), func(b *testing.B) {
				b.SetBytes(int64(len(data)))
				b.ReportAllocs()
				for b.Loop() {
					_, _ = codec.Compress(data)
				}
			})
		}
	}
}

func BenchmarkAllCodecs_Decompress(b *testing.B) {
	for _, buckets := range []int{16, 256, 4096} {
		data := statePayload(buckets)

		for name, codec := range getAllCodecs() {
			compressed, err := codec.Compress(data)
			if err != nil {
				b.Fatal(err)
			}

			b.Run(fmt.Sprintf("%s/%d_buckets", name, buckets), func(b *testing.B) {
				b.SetBytes(int64(len(data)))
				b.ReportAllocs()
				for b.Loop() {
					_, _ = codec.Decompress(compressed)
				}
			})
		}
	}
}

func BenchmarkZstdDecompress_Parallel(b *testing.B) {
	codec := NewZstdCompressor()
	data := statePayload(1024)
	compressed, err := codec.Compress(data)
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(data)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = codec.Decompress(compressed)
		}
	})
}
