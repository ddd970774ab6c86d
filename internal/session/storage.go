package session

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var sessionBucket = []byte("sessions")

// BoltStorage is a fiber.Storage for server-side web sessions. Each value
// is prefixed with its expiry in unix nanoseconds, zero meaning never.
type BoltStorage struct {
	db  *bbolt.DB
	now func() time.Time
}

// OpenBoltStorage opens (creating if needed) the session file at path.
func OpenBoltStorage(path string) (*BoltStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltStorage{db: db, now: time.Now}, nil
}

func (b *BoltStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	var out []byte
	expired := false
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(sessionBucket).Get([]byte(key))
		if len(v) < 8 {
			return nil
		}
		exp := int64(binary.BigEndian.Uint64(v[:8]))
		if exp != 0 && b.now().UnixNano() > exp {
			expired = true
			return nil
		}
		out = append([]byte(nil), v[8:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, b.Delete(key)
	}
	return out, nil
}

func (b *BoltStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	var deadline int64
	if exp > 0 {
		deadline = b.now().Add(exp).UnixNano()
	}
	buf := make([]byte, 8+len(val))
	binary.BigEndian.PutUint64(buf[:8], uint64(deadline))
	copy(buf[8:], val)

	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionBucket).Put([]byte(key), buf)
	})
}

func (b *BoltStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete([]byte(key))
	})
}

// Reset drops every session.
func (b *BoltStorage) Reset() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(sessionBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(sessionBucket)
		return err
	})
}

func (b *BoltStorage) Close() error {
	return b.db.Close()
}
