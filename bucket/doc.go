// Package bucket provides the per-bucket accumulator store.
//
// A Store maps dense bucket ordinals to sampling.SufficientStats slots and grows
// on demand when a new ordinal is first sampled. Absent slots are nil; the
// estimator treats them as empty buckets.
//
// A Registry assigns ordinals to external string keys (a host name, a
// customer id, ...). Keys are hashed with xxHash64; different keys that share a
// hash still get distinct ordinals.
//
// # Thread Safety
//
// Neither Store nor Registry is safe for concurrent use. Each worker owns the
// stores of the buckets it processes; partial stores are combined afterwards
// with Store.Merge.
package bucket
