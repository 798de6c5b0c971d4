package treedb

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"
)

// leafKey holds a node's own payload inside its bucket. Segments can't
// contain control characters, so it never collides with a child name.
var leafKey = []byte{0}

// Store is a hierarchical key-value store addressed by paths. Each path
// segment is a nested bucket; a node holds either a leaf payload or
// children. Batches are applied atomically.
//
// Store is safe for concurrent use.
type Store struct {
	st            storage
	logger        *slog.Logger
	verbose       bool
	allowOverlaps bool

	BatchCount  atomic.Uint64
	RejectCount atomic.Uint64
	SetCount    atomic.Uint64
	DeleteCount atomic.Uint64
	DropCount   atomic.Uint64
	ReadCount   atomic.Uint64
}

type Options struct {
	Logger    *slog.Logger
	Verbose   bool
	IsTesting bool
	MmapSize  int
	Timeout   time.Duration

	// AllowOverlaps makes Apply accept batches that write both a path and
	// one of its descendants. Entries are then applied ancestors first.
	AllowOverlaps bool
}

// Open opens or creates a Bolt-backed store in file.
func Open(file string, opt Options) (*Store, error) {
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.Timeout != 0 {
		bopt.Timeout = opt.Timeout
	}
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.InitialMmapSize = 1024 * 1024 * 64
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(file, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("treedb: %w", err)
	}
	return newStore(newBoltStorage(bdb), opt), nil
}

// OpenMem returns a store that lives in memory only.
func OpenMem(opt Options) *Store {
	return newStore(newMemStorage(), opt)
}

func newStore(st storage, opt Options) *Store {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	return &Store{
		st:            st,
		logger:        opt.Logger,
		verbose:       opt.Verbose,
		allowOverlaps: opt.AllowOverlaps,
	}
}

func (s *Store) Close() error {
	return s.st.Close()
}

// Apply writes all entries of b in a single transaction. Unless the store
// was opened with AllowOverlaps, a batch containing an ancestor/descendant
// pair is rejected with *OverlapError and nothing is written.
func (s *Store) Apply(b *Batch) error {
	if !s.allowOverlaps {
		if overlaps := FindOverlaps(b); len(overlaps) > 0 {
			s.RejectCount.Add(1)
			s.logger.Warn("treedb: rejected batch", "entries", b.Len(), checksumAttr(b), "overlaps", len(overlaps), "first", overlaps[0].String())
			return &OverlapError{overlaps}
		}
	}

	entries := b.Entries()
	if len(entries) == 0 {
		return nil
	}

	var sets, dels uint64
	err := s.write(func(root storageBucket) error {
		for _, e := range entries {
			if s.verbose {
				s.logger.Debug("treedb: apply", "path", e.Path.String(), "op", e.Value.Op().String())
			}
			if e.Value.IsDelete() {
				dels++
				if err := deleteNode(root, e.Path); err != nil {
					return storeErr("delete", e.Path, err)
				}
			} else {
				sets++
				if err := setNode(root, e.Path, e.Value.Payload()); err != nil {
					return storeErr("set", e.Path, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.BatchCount.Add(1)
	s.SetCount.Add(sets)
	s.DeleteCount.Add(dels)
	return nil
}

// Submit drops the writes of b made redundant by its own deletion markers,
// then applies the rest. Returns the batch that was applied and the dropped
// entries.
func (s *Store) Submit(b *Batch) (*Batch, []Removal, error) {
	clean, removed := Sanitize(b)
	if len(removed) > 0 {
		s.DropCount.Add(uint64(len(removed)))
		s.logger.Info("treedb: dropped overlapping writes", checksumAttr(b), "entries", b.Len(), "dropped", len(removed))
		if s.verbose {
			for _, r := range removed {
				s.logger.Debug("treedb: dropped", "path", r.Path.String(), "op", r.Value.Op().String(), "deleted_by", r.DeletedBy.String())
			}
		}
	}
	err := s.Apply(clean)
	if err != nil {
		return nil, removed, err
	}
	return clean, removed, nil
}

// Get returns the value at path: the stored payload for leaves, a
// map[string]any for interior nodes, nil if nothing is stored there.
func (s *Store) Get(path string) (any, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	s.ReadCount.Add(1)
	var result any
	err = s.read(func(root storageBucket) error {
		node := lookupNode(root, p.segs)
		if node == nil {
			return nil
		}
		v, err := readNode(node)
		if err != nil {
			return storeErr("get", p, err)
		}
		result = v
		return nil
	})
	return result, err
}

func (s *Store) Exists(path string) (bool, error) {
	p, err := ParsePath(path)
	if err != nil {
		return false, err
	}
	s.ReadCount.Add(1)
	var found bool
	err = s.read(func(root storageBucket) error {
		found = lookupNode(root, p.segs) != nil
		return nil
	})
	return found, err
}

func (s *Store) read(f func(root storageBucket) error) error {
	tx, err := s.st.BeginTx(false)
	if err != nil {
		return storeErr("begin", Path{}, err)
	}
	defer tx.Rollback()
	return f(tx.Root())
}

func (s *Store) write(f func(root storageBucket) error) error {
	tx, err := s.st.BeginTx(true)
	if err != nil {
		return storeErr("begin", Path{}, err)
	}
	defer tx.Rollback()

	root, err := tx.CreateRoot()
	if err != nil {
		return storeErr("begin", Path{}, err)
	}
	err = f(root)
	if err != nil {
		return err
	}
	return storeErr("commit", Path{}, tx.Commit())
}

func lookupNode(root storageBucket, segs []string) storageBucket {
	b := root
	for _, seg := range segs {
		if b == nil {
			return nil
		}
		b = b.Bucket(unsafeBytesFromString(seg))
	}
	return b
}

// nodeChain returns the buckets for root and every prefix of segs, creating
// them when needed. Leaf payloads along the way are dropped because those
// nodes become interior ones.
func nodeChain(root storageBucket, segs []string) ([]storageBucket, error) {
	chain := make([]storageBucket, 0, len(segs)+1)
	chain = append(chain, root)
	b := root
	for _, seg := range segs {
		if b != root {
			if err := b.Delete(leafKey); err != nil {
				return nil, err
			}
		}
		var err error
		b, err = b.CreateBucket(unsafeBytesFromString(seg))
		if err != nil {
			return nil, err
		}
		chain = append(chain, b)
	}
	return chain, nil
}

// existingChain is like nodeChain but stops at the first missing bucket.
func existingChain(root storageBucket, segs []string) []storageBucket {
	chain := []storageBucket{root}
	b := root
	for _, seg := range segs {
		b = b.Bucket(unsafeBytesFromString(seg))
		if b == nil {
			break
		}
		chain = append(chain, b)
	}
	return chain
}

func deleteNode(root storageBucket, p Path) error {
	parentSegs := p.segs[:len(p.segs)-1]
	chain := existingChain(root, parentSegs)
	if len(chain) != len(parentSegs)+1 {
		return nil // parent doesn't exist
	}
	parent := chain[len(chain)-1]
	err := parent.DeleteBucket(unsafeBytesFromString(p.Last()))
	if err == ErrBucketNotFound {
		return nil
	} else if err != nil {
		return err
	}
	return pruneEmpty(chain, parentSegs)
}

// pruneEmpty removes empty buckets from the bottom of chain up. chain[i] is
// the bucket for segs[:i].
func pruneEmpty(chain []storageBucket, segs []string) error {
	for i := len(chain) - 1; i > 0; i-- {
		if !chain[i].IsEmpty() {
			break
		}
		if err := chain[i-1].DeleteBucket(unsafeBytesFromString(segs[i-1])); err != nil {
			return err
		}
	}
	return nil
}

func setNode(root storageBucket, p Path, payload any) error {
	parentSegs := p.segs[:len(p.segs)-1]
	chain, err := nodeChain(root, parentSegs)
	if err != nil {
		return err
	}
	parent := chain[len(chain)-1]
	if parent != root {
		if err := parent.Delete(leafKey); err != nil {
			return err
		}
	}

	name := unsafeBytesFromString(p.Last())
	err = parent.DeleteBucket(name)
	if err != nil && err != ErrBucketNotFound {
		return err
	}
	node, err := parent.CreateBucket(name)
	if err != nil {
		return err
	}
	if err := writePayload(node, payload); err != nil {
		return err
	}
	if node.IsEmpty() {
		if err := parent.DeleteBucket(name); err != nil {
			return err
		}
		return pruneEmpty(chain, parentSegs)
	}
	return nil
}

// writePayload stores payload into an empty node. Objects expand into child
// nodes, with nil members skipped; anything else becomes a leaf.
func writePayload(node storageBucket, payload any) error {
	obj, ok := payload.(map[string]any)
	if !ok {
		data, err := encodeLeaf(payload)
		if err != nil {
			return err
		}
		return node.Put(leafKey, data)
	}

	for k, v := range obj {
		if v == nil {
			continue
		}
		if err := validateKey(k); err != nil {
			return err
		}
		name := unsafeBytesFromString(k)
		child, err := node.CreateBucket(name)
		if err != nil {
			return err
		}
		if err := writePayload(child, v); err != nil {
			return err
		}
		if child.IsEmpty() {
			if err := node.DeleteBucket(name); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateKey(k string) error {
	if k == "" {
		return pathErrf(k, 0, "empty key")
	}
	for i := 0; i < len(k); i++ {
		if k[i] == Sep {
			return pathErrf(k, 0, "key contains a separator")
		}
	}
	if c, bad := invalidSegmentChar(k); bad {
		return pathErrf(k, 0, "invalid character %q in key", c)
	}
	return nil
}

func readNode(b storageBucket) (any, error) {
	if leaf := b.Get(leafKey); leaf != nil {
		return decodeLeaf(leaf)
	}
	obj := make(map[string]any)
	err := b.ForEach(func(k, v []byte) error {
		if v != nil {
			return nil
		}
		name := string(k)
		child, err := readNode(b.Bucket(k))
		if err != nil {
			return err
		}
		if child != nil {
			obj[name] = child
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(obj) == 0 {
		return nil, nil
	}
	return obj, nil
}

func checksumAttr(b *Batch) slog.Attr {
	return slog.String("checksum", fmt.Sprintf("%016x", b.Checksum()))
}
