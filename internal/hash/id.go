// Package hash provides the xxHash64 helpers used for bucket keys and shard checksums.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of a bucket key.
func ID(key string) uint64 {
	return xxhash.Sum64String(key)
}

// Checksum computes the xxHash64 of a payload.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
