package ledger

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/sasha-s/go-deadlock"
)

// Tx is a view of the ledger inside a single transaction. Values returned by
// Get are copies and remain valid after the transaction ends.
type Tx interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(bucket, key []byte) ([]byte, error)

	// Insert stores value under key. Returns ErrExists if the key is present.
	Insert(bucket, key, value []byte) error

	// Put stores value under key, replacing any existing value.
	Put(bucket, key, value []byte) error

	// ForEach calls fn for every key in bucket in ascending key order.
	// Returning an error from fn stops the iteration.
	ForEach(bucket []byte, fn func(key, value []byte) error) error
}

// Store persists ledger records. Update runs fn atomically: either every
// write made through the Tx is committed, or (when fn returns an error)
// none of them are. Concurrent Updates are serialized.
type Store interface {
	// View runs fn in a read-only transaction.
	View(fn func(tx Tx) error) error

	// Update runs fn in a read-write transaction.
	Update(fn func(tx Tx) error) error

	// Close releases the store's resources.
	Close() error
}

func checkKey(bucket, key []byte) error {
	if len(bucket) == 0 || len(key) == 0 {
		return ErrEmptyKey
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

// ---------------------------------------------------------------------------
// MemStore
// ---------------------------------------------------------------------------

// MemStore is an in-memory Store. Writers hold the lock for the whole
// transaction and stage writes until fn returns nil.
type MemStore struct {
	mu      deadlock.RWMutex
	buckets map[string]map[string][]byte
	closed  bool
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{buckets: make(map[string]map[string][]byte)}
}

// View runs fn in a read-only transaction.
func (s *MemStore) View(fn func(tx Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(&memTx{store: s})
}

// Update runs fn in a read-write transaction.
func (s *MemStore) Update(fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx := &memTx{store: s, writable: true, pending: make(map[string]map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}

	for bucket, writes := range tx.pending {
		b, ok := s.buckets[bucket]
		if !ok {
			b = make(map[string][]byte)
			s.buckets[bucket] = b
		}
		for k, v := range writes {
			b[k] = v
		}
	}
	return nil
}

// Close marks the store closed. Later transactions fail with ErrClosed.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type memTx struct {
	store    *MemStore
	writable bool
	pending  map[string]map[string][]byte
}

func (t *memTx) lookup(bucket, key []byte) ([]byte, bool) {
	if w, ok := t.pending[string(bucket)]; ok {
		if v, ok := w[string(key)]; ok {
			return v, true
		}
	}
	v, ok := t.store.buckets[string(bucket)][string(key)]
	return v, ok
}

func (t *memTx) Get(bucket, key []byte) ([]byte, error) {
	if err := checkKey(bucket, key); err != nil {
		return nil, err
	}
	v, ok := t.lookup(bucket, key)
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(v), nil
}

func (t *memTx) Insert(bucket, key, value []byte) error {
	if err := checkKey(bucket, key); err != nil {
		return err
	}
	if _, ok := t.lookup(bucket, key); ok {
		return fmt.Errorf("%w: %s/%x", ErrExists, bucket, key)
	}
	return t.Put(bucket, key, value)
}

func (t *memTx) Put(bucket, key, value []byte) error {
	if !t.writable {
		return ErrReadOnly
	}
	if err := checkKey(bucket, key); err != nil {
		return err
	}
	w, ok := t.pending[string(bucket)]
	if !ok {
		w = make(map[string][]byte)
		t.pending[string(bucket)] = w
	}
	w[string(key)] = cloneBytes(value)
	return nil
}

func (t *memTx) ForEach(bucket []byte, fn func(key, value []byte) error) error {
	merged := make(map[string][]byte)
	for k, v := range t.store.buckets[string(bucket)] {
		merged[k] = v
	}
	for k, v := range t.pending[string(bucket)] {
		merged[k] = v
	}

	keys := make([][]byte, 0, len(merged))
	for k := range merged {
		keys = append(keys, []byte(k))
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })

	for _, k := range keys {
		if err := fn(k, cloneBytes(merged[string(k)])); err != nil {
			return err
		}
	}
	return nil
}
