package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var localBucket = []byte("local_storage")

// BoltStore keeps the local state of the CLI in a bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens (creating if needed) the store at path.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(localBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Get(key string) (string, bool, error) {
	var (
		val string
		ok  bool
	)
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(localBucket).Get([]byte(key))
		if v != nil {
			val, ok = string(v), true
		}
		return nil
	})
	return val, ok, err
}

func (b *BoltStore) Set(key, value string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(localBucket).Put([]byte(key), []byte(value))
	})
}

func (b *BoltStore) Delete(key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(localBucket).Delete([]byte(key))
	})
}

// Close releases the file lock.
func (b *BoltStore) Close() error {
	return b.db.Close()
}
