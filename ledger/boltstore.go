package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// BoltStore wraps a bbolt database. bbolt allows a single writer at a time,
// which gives Update the serialization the Store contract requires.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath and creates
// the named buckets. The parent directory is created if it does not exist.
// Opening fails after one second if another process holds the file lock.
func OpenBoltStore(dbPath string, buckets ...[]byte) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("ledger: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("ledger: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltstore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// View runs fn in a read-only bbolt transaction.
func (s *BoltStore) View(fn func(tx Tx) error) error {
	return s.db.View(func(btx *bbolt.Tx) error {
		return fn(&boltTx{tx: btx})
	})
}

// Update runs fn in a read-write bbolt transaction.
func (s *BoltStore) Update(fn func(tx Tx) error) error {
	return s.db.Update(func(btx *bbolt.Tx) error {
		return fn(&boltTx{tx: btx})
	})
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *BoltStore) Path() string { return s.db.Path() }

type boltTx struct {
	tx *bbolt.Tx
}

func (t *boltTx) Get(bucket, key []byte) ([]byte, error) {
	if err := checkKey(bucket, key); err != nil {
		return nil, err
	}
	b := t.tx.Bucket(bucket)
	if b == nil {
		return nil, ErrNotFound
	}
	v := b.Get(key)
	if v == nil {
		return nil, ErrNotFound
	}
	// bbolt memory is only valid for the life of the transaction.
	return cloneBytes(v), nil
}

func (t *boltTx) writableBucket(name []byte) (*bbolt.Bucket, error) {
	if !t.tx.Writable() {
		return nil, ErrReadOnly
	}
	b, err := t.tx.CreateBucketIfNotExists(name)
	if err != nil {
		return nil, fmt.Errorf("boltstore: create bucket %q: %w", name, err)
	}
	return b, nil
}

func (t *boltTx) Insert(bucket, key, value []byte) error {
	if err := checkKey(bucket, key); err != nil {
		return err
	}
	b, err := t.writableBucket(bucket)
	if err != nil {
		return err
	}
	if b.Get(key) != nil {
		return fmt.Errorf("%w: %s/%x", ErrExists, bucket, key)
	}
	if err := b.Put(key, value); err != nil {
		return fmt.Errorf("boltstore: insert: %w", err)
	}
	return nil
}

func (t *boltTx) Put(bucket, key, value []byte) error {
	if err := checkKey(bucket, key); err != nil {
		return err
	}
	b, err := t.writableBucket(bucket)
	if err != nil {
		return err
	}
	if err := b.Put(key, value); err != nil {
		return fmt.Errorf("boltstore: put: %w", err)
	}
	return nil
}

func (t *boltTx) ForEach(bucket []byte, fn func(key, value []byte) error) error {
	b := t.tx.Bucket(bucket)
	if b == nil {
		return nil
	}
	return b.ForEach(func(k, v []byte) error {
		return fn(cloneBytes(k), cloneBytes(v))
	})
}
