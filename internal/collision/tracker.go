package collision

import (
	"github.com/arloliu/linreg/errs"
)

// Tracker tracks bucket keys by their 64-bit hash and detects collisions.
// It keeps every key seen per hash so that different keys sharing a hash are
// recognized as different buckets.
type Tracker struct {
	keys       map[uint64][]string // Hash → keys sharing it, in tracking order
	count      int                 // Distinct keys tracked
	collisions int                 // Keys tracked under an already used hash
}

// NewTracker creates a new collision tracker.
func NewTracker() *Tracker {
	return &Tracker{
		keys: make(map[uint64][]string),
	}
}

// Track records key under hash.
//
// Returns:
//   - bool: true if key had not been tracked before
//   - bool: true if hash was already used by a different key
//   - error: ErrInvalidBucketKey if key is empty
func (t *Tracker) Track(key string, hash uint64) (added, collided bool, err error) {
	if key == "" {
		return false, false, errs.ErrInvalidBucketKey
	}

	existing := t.keys[hash]
	for _, k := range existing {
		if k == key {
			return false, false, nil
		}
	}

	collided = len(existing) > 0
	if collided {
		t.collisions++
	}
	t.keys[hash] = append(existing, key)
	t.count++

	return true, collided, nil
}

// Contains reports whether key was tracked under hash.
func (t *Tracker) Contains(key string, hash uint64) bool {
	for _, k := range t.keys[hash] {
		if k == key {
			return true
		}
	}

	return false
}

// HasCollision returns true if a collision has been detected.
func (t *Tracker) HasCollision() bool {
	return t.collisions > 0
}

// Collisions returns the number of keys tracked under an already used hash.
func (t *Tracker) Collisions() int {
	return t.collisions
}

// Count returns the number of tracked keys.
func (t *Tracker) Count() int {
	return t.count
}

// Reset clears all tracked keys and collision state.
func (t *Tracker) Reset() {
	clear(t.keys)
	t.count = 0
	t.collisions = 0
}
