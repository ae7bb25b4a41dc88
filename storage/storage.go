// Package storage persists encoded shards as checkpoints in a BoltDB file.
//
// Each partition owns at most one checkpoint: writing a partition again
// replaces its shard. A checkpoint lets a partition's partial aggregation
// survive a restart and be reduced later together with the other partitions.
//
// The package is safe for concurrent use; BoltDB serializes writers.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/arloliu/linreg/bucket"
	"github.com/arloliu/linreg/errs"
	"github.com/arloliu/linreg/format"
	"github.com/arloliu/linreg/shard"
)

const (
	shardsBucket      = "shards"      // partition -> encoded shard
	checkpointsBucket = "checkpoints" // partition -> checkpoint metadata (JSON)
)

// Checkpoint describes one stored shard.
type Checkpoint struct {
	ID            uuid.UUID              `json:"id"`
	Partition     string                 `json:"partition"`
	CreatedAt     time.Time              `json:"created_at"`
	Size          int                    `json:"size"`
	FeaturesCount int                    `json:"features_count"`
	BucketCount   int                    `json:"bucket_count"`
	Compression   format.CompressionType `json:"compression"`
}

// Store is a checkpoint store backed by BoltDB.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the checkpoint database at path.
//
// Returns:
//   - *Store: Open store, to be closed with Close
//   - error: Failure to open the file (for example a lock held by another process
//     beyond the one second timeout) or to create the buckets
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open checkpoint database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(shardsBucket)); err != nil {
			return fmt.Errorf("create shards bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(checkpointsBucket)); err != nil {
			return fmt.Errorf("create checkpoints bucket: %w", err)
		}

		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// Put stores blob as the checkpoint of partition, replacing any previous one.
//
// The blob must be a valid shard; its header is checked with shard.Peek and
// recorded in the checkpoint metadata.
//
// Parameters:
//   - partition: Non-empty partition name
//   - blob: Encoded shard, copied into the database
//
// Returns:
//   - Checkpoint: Metadata of the new checkpoint with a fresh ID
//   - error: ErrInvalidArgument for an empty partition, a shard header error, or a database error
func (s *Store) Put(partition string, blob []byte) (Checkpoint, error) {
	if partition == "" {
		return Checkpoint{}, fmt.Errorf("%w: empty partition name", errs.ErrInvalidArgument)
	}

	header, err := shard.Peek(blob)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint %q: %w", partition, err)
	}

	cp := Checkpoint{
		ID:            uuid.New(),
		Partition:     partition,
		CreatedAt:     s.now().UTC(),
		Size:          len(blob),
		FeaturesCount: int(header.FeaturesCount),
		BucketCount:   int(header.BucketCount),
		Compression:   header.Flag.Compression,
	}

	meta, err := json.Marshal(cp)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("marshal checkpoint: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		key := []byte(partition)
		if err := tx.Bucket([]byte(shardsBucket)).Put(key, blob); err != nil {
			return err
		}

		return tx.Bucket([]byte(checkpointsBucket)).Put(key, meta)
	})
	if err != nil {
		return Checkpoint{}, fmt.Errorf("store checkpoint %q: %w", partition, err)
	}

	return cp, nil
}

// Get returns a copy of the shard stored for partition and its metadata.
//
// Returns:
//   - []byte: Encoded shard, owned by the caller
//   - Checkpoint: Checkpoint metadata
//   - error: ErrCheckpointNotFound if the partition has no checkpoint
func (s *Store) Get(partition string) ([]byte, Checkpoint, error) {
	var (
		blob []byte
		cp   Checkpoint
	)

	err := s.db.View(func(tx *bbolt.Tx) error {
		key := []byte(partition)

		meta := tx.Bucket([]byte(checkpointsBucket)).Get(key)
		data := tx.Bucket([]byte(shardsBucket)).Get(key)
		if meta == nil || data == nil {
			return fmt.Errorf("%w: %q", errs.ErrCheckpointNotFound, partition)
		}

		if err := json.Unmarshal(meta, &cp); err != nil {
			return fmt.Errorf("unmarshal checkpoint %q: %w", partition, err)
		}

		// values are only valid inside the transaction
		blob = append([]byte(nil), data...)

		return nil
	})
	if err != nil {
		return nil, Checkpoint{}, err
	}

	return blob, cp, nil
}

// Load decodes the shard stored for partition into a bucket store.
func (s *Store) Load(partition string) (*bucket.Store, Checkpoint, error) {
	blob, cp, err := s.Get(partition)
	if err != nil {
		return nil, Checkpoint{}, err
	}

	store, err := shard.Decode(blob)
	if err != nil {
		return nil, Checkpoint{}, fmt.Errorf("decode checkpoint %q: %w", partition, err)
	}

	return store, cp, nil
}

// List returns the metadata of every checkpoint ordered by partition name.
func (s *Store) List() ([]Checkpoint, error) {
	var checkpoints []Checkpoint

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(checkpointsBucket)).ForEach(func(k, v []byte) error {
			var cp Checkpoint
			if err := json.Unmarshal(v, &cp); err != nil {
				return fmt.Errorf("unmarshal checkpoint %q: %w", k, err)
			}
			checkpoints = append(checkpoints, cp)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return checkpoints, nil
}

// Delete removes the checkpoint of partition.
//
// Returns:
//   - error: ErrCheckpointNotFound if the partition has no checkpoint
func (s *Store) Delete(partition string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		key := []byte(partition)

		checkpoints := tx.Bucket([]byte(checkpointsBucket))
		if checkpoints.Get(key) == nil {
			return fmt.Errorf("%w: %q", errs.ErrCheckpointNotFound, partition)
		}

		if err := checkpoints.Delete(key); err != nil {
			return err
		}

		return tx.Bucket([]byte(shardsBucket)).Delete(key)
	})
}

// Clear removes every checkpoint in one transaction.
//
// Returns:
//   - int: Number of checkpoints removed
//   - error: Database error; nothing is removed on failure
func (s *Store) Clear() (int, error) {
	var removed int

	err := s.db.Update(func(tx *bbolt.Tx) error {
		removed = tx.Bucket([]byte(checkpointsBucket)).Stats().KeyN

		for _, name := range []string{shardsBucket, checkpointsBucket} {
			if err := tx.DeleteBucket([]byte(name)); err != nil {
				return err
			}
			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("clear checkpoints: %w", err)
	}

	return removed, nil
}

// IsNotFound reports whether err means a missing checkpoint.
func IsNotFound(err error) bool {
	return errors.Is(err, errs.ErrCheckpointNotFound)
}
