package bucket

import (
	"github.com/arloliu/linreg/internal/collision"
	"github.com/arloliu/linreg/internal/hash"
)

// Registry assigns dense bucket ordinals to string keys in first-seen order.
type Registry struct {
	hasher   func(string) uint64
	tracker  *collision.Tracker
	byHash   map[uint64]uint64 // hash → ordinal of the first key with that hash
	collided map[string]uint64 // ordinals of keys whose hash was already taken
	keys     []string          // ordinal → key
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return newRegistry(hash.ID)
}

func newRegistry(hasher func(string) uint64) *Registry {
	return &Registry{
		hasher:   hasher,
		tracker:  collision.NewTracker(),
		byHash:   make(map[uint64]uint64),
		collided: make(map[string]uint64),
	}
}

// Ordinal returns the ordinal of key, assigning the next free ordinal when the
// key is new.
//
// Returns:
//   - uint64: Bucket ordinal
//   - error: ErrInvalidBucketKey if key is empty
func (r *Registry) Ordinal(key string) (uint64, error) {
	h := r.hasher(key)
	if ordinal, ok := r.lookup(key, h); ok {
		return ordinal, nil
	}

	_, collided, err := r.tracker.Track(key, h)
	if err != nil {
		return 0, err
	}

	ordinal := uint64(len(r.keys))
	r.keys = append(r.keys, key)
	if collided {
		r.collided[key] = ordinal
	} else {
		r.byHash[h] = ordinal
	}

	return ordinal, nil
}

// Lookup returns the ordinal of a known key without assigning one.
func (r *Registry) Lookup(key string) (uint64, bool) {
	return r.lookup(key, r.hasher(key))
}

func (r *Registry) lookup(key string, h uint64) (uint64, bool) {
	if ordinal, ok := r.byHash[h]; ok && r.keys[ordinal] == key {
		return ordinal, true
	}
	ordinal, ok := r.collided[key]

	return ordinal, ok
}

// Key returns the key of an ordinal.
func (r *Registry) Key(ordinal uint64) (string, bool) {
	if ordinal >= uint64(len(r.keys)) {
		return "", false
	}

	return r.keys[ordinal], true
}

// Keys returns all keys in ordinal order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of registered keys.
func (r *Registry) Len() int {
	return len(r.keys)
}

// Collisions returns how many keys were registered under an already used hash.
func (r *Registry) Collisions() int {
	return r.tracker.Collisions()
}
