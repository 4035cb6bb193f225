package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketReporting = []byte("reporting")
	bucketEndpoints = []byte("endpoints")
)

// BoltStore implements Store using BoltDB.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens or creates a BoltDB database.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketReporting, bucketEndpoints} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) SaveReporting(e *ReportingEntry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReporting)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketReporting)
		}
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return b.Put(e.Key().bytes(), data)
	})
}

func (s *BoltStore) GetReporting(key ReportingKey) (*ReportingEntry, error) {
	var e ReportingEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReporting)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketReporting)
		}
		data := b.Get(key.bytes())
		if data == nil {
			return fmt.Errorf("reporting %d/0x%04X/0x%04X: %w", key.Endpoint, key.Cluster, key.Attribute, ErrNotFound)
		}
		return json.Unmarshal(data, &e)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *BoltStore) DeleteReporting(key ReportingKey) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReporting)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketReporting)
		}
		return b.Delete(key.bytes())
	})
}

func (s *BoltStore) ListReporting(endpoint uint8) ([]*ReportingEntry, error) {
	var entries []*ReportingEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReporting)
		if b == nil {
			return nil // no bucket = no entries
		}
		prefix := []byte{endpoint}
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var e ReportingEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decode %X: %w", k, err)
			}
			entries = append(entries, &e)
		}
		return nil
	})
	return entries, err
}

func (s *BoltStore) SaveEndpointState(state *EndpointState) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEndpoints)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketEndpoints)
		}
		data, err := json.Marshal(state)
		if err != nil {
			return err
		}
		return b.Put([]byte{state.Endpoint}, data)
	})
}

func (s *BoltStore) GetEndpointState(endpoint uint8) (*EndpointState, error) {
	var state EndpointState
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEndpoints)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketEndpoints)
		}
		data := b.Get([]byte{endpoint})
		if data == nil {
			return fmt.Errorf("endpoint %d state: %w", endpoint, ErrNotFound)
		}
		return json.Unmarshal(data, &state)
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
