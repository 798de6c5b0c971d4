package treedb

import (
	"fmt"
	"slices"
	"sync"
)

type memStorage struct {
	mu     sync.Mutex
	cond   *sync.Cond
	root   *memBucket
	closed bool
	writer bool
}

// newMemStorage returns a transient in-memory storage, used by OpenMem and tests.
func newMemStorage() storage {
	s := &memStorage{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *memStorage) BeginTx(writable bool) (storageTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if writable {
		for s.writer && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			return nil, ErrClosed
		}
		s.writer = true
	}

	// Snapshot the entire tree for transactional isolation (simplicity over efficiency).
	return &memTx{
		writable: writable,
		base:     s,
		root:     s.root.clone(),
	}, nil
}

func (s *memStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.root = nil
	if s.cond != nil {
		s.cond.Broadcast()
	}
	return nil
}

// Size is always 0; nothing is stored on disk.
func (s *memStorage) Size() int64 { return 0 }

type memTx struct {
	base     *memStorage
	writable bool
	root     *memBucket
	closed   bool
}

func (tx *memTx) Writable() bool { return tx.writable }

func (tx *memTx) closeLocked() {
	if tx.closed {
		return
	}
	tx.closed = true
	if tx.writable {
		tx.base.writer = false
		tx.base.cond.Broadcast()
	}
}

func (tx *memTx) Root() storageBucket {
	if tx.closed {
		panic("tx is closed")
	}
	if tx.root == nil {
		return nil
	}
	return memBucketHandle{tx: tx, b: tx.root}
}

func (tx *memTx) CreateRoot() (storageBucket, error) {
	if tx.closed {
		panic("tx is closed")
	}
	if !tx.writable {
		return nil, ErrNotWritable
	}
	if tx.root == nil {
		tx.root = &memBucket{}
	}
	return memBucketHandle{tx: tx, b: tx.root}, nil
}

func (tx *memTx) Commit() error {
	if tx.closed {
		return nil
	}
	if !tx.writable {
		return ErrNotWritable
	}
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	if tx.base.closed {
		tx.closeLocked()
		return ErrClosed
	}
	tx.base.root = tx.root
	tx.closeLocked()
	return nil
}

func (tx *memTx) Rollback() error {
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	tx.closeLocked()
	return nil
}


// memBucket keeps values and nested buckets in one sorted list, like Bolt.
type memBucket struct {
	items []memItem // sorted by key
}

type memItem struct {
	key   string
	value []byte
	sub   *memBucket
}

func (b *memBucket) clone() *memBucket {
	if b == nil {
		return nil
	}
	out := &memBucket{items: make([]memItem, len(b.items))}
	for i, it := range b.items {
		out.items[i] = memItem{
			key:   it.key,
			value: slices.Clone(it.value),
			sub:   it.sub.clone(),
		}
	}
	return out
}

func (b *memBucket) find(key []byte) (int, bool) {
	return slices.BinarySearchFunc(b.items, key, func(it memItem, k []byte) int {
		return compareStringBytes(it.key, k)
	})
}

type memBucketHandle struct {
	tx *memTx
	b  *memBucket
}

func (h memBucketHandle) Get(key []byte) []byte {
	i, ok := h.b.find(key)
	if !ok || h.b.items[i].sub != nil {
		return nil
	}
	return h.b.items[i].value
}

func (h memBucketHandle) Put(key, value []byte) error {
	if !h.tx.writable {
		return ErrNotWritable
	}
	if len(key) == 0 {
		return fmt.Errorf("key required")
	}
	if value == nil {
		value = []byte{}
	}
	i, ok := h.b.find(key)
	if ok {
		if h.b.items[i].sub != nil {
			return fmt.Errorf("incompatible value: %q is a bucket", key)
		}
		h.b.items[i].value = slices.Clone(value)
		return nil
	}
	h.b.items = slices.Insert(h.b.items, i, memItem{key: string(key), value: slices.Clone(value)})
	return nil
}

func (h memBucketHandle) Delete(key []byte) error {
	if !h.tx.writable {
		return ErrNotWritable
	}
	i, ok := h.b.find(key)
	if !ok {
		return nil
	}
	if h.b.items[i].sub != nil {
		return fmt.Errorf("incompatible value: %q is a bucket", key)
	}
	h.b.items = slices.Delete(h.b.items, i, i+1)
	return nil
}

func (h memBucketHandle) Bucket(name []byte) storageBucket {
	i, ok := h.b.find(name)
	if !ok || h.b.items[i].sub == nil {
		return nil
	}
	return memBucketHandle{tx: h.tx, b: h.b.items[i].sub}
}

func (h memBucketHandle) CreateBucket(name []byte) (storageBucket, error) {
	if !h.tx.writable {
		return nil, ErrNotWritable
	}
	if len(name) == 0 {
		return nil, fmt.Errorf("bucket name required")
	}
	i, ok := h.b.find(name)
	if ok {
		if h.b.items[i].sub == nil {
			return nil, fmt.Errorf("incompatible value: %q is not a bucket", name)
		}
		return memBucketHandle{tx: h.tx, b: h.b.items[i].sub}, nil
	}
	sub := &memBucket{}
	h.b.items = slices.Insert(h.b.items, i, memItem{key: string(name), sub: sub})
	return memBucketHandle{tx: h.tx, b: sub}, nil
}

func (h memBucketHandle) DeleteBucket(name []byte) error {
	if !h.tx.writable {
		return ErrNotWritable
	}
	i, ok := h.b.find(name)
	if !ok || h.b.items[i].sub == nil {
		return ErrBucketNotFound
	}
	h.b.items = slices.Delete(h.b.items, i, i+1)
	return nil
}

func (h memBucketHandle) ForEach(f func(k, v []byte) error) error {
	for _, it := range h.b.items {
		var v []byte
		if it.sub == nil {
			v = it.value
		}
		if err := f([]byte(it.key), v); err != nil {
			return err
		}
	}
	return nil
}

func (h memBucketHandle) IsEmpty() bool {
	return len(h.b.items) == 0
}

func compareStringBytes(a string, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
