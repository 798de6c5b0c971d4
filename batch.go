package treedb

import (
	"fmt"
	"slices"
	"strings"
)

// Entry is a single path/value pair of a Batch.
type Entry struct {
	Path  Path
	Value Value
}

func (e Entry) String() string {
	return e.Path.String() + " = " + e.Value.String()
}

// Batch is a set of writes applied atomically by the store. Each path
// appears at most once. A Batch is not safe for concurrent mutation.
type Batch struct {
	entries map[string]Entry
}

func NewBatch() *Batch {
	return &Batch{entries: make(map[string]Entry)}
}

// BatchFromMap builds a batch from the store's wire format, where a nil
// value is a deletion marker.
func BatchFromMap(m map[string]any) (*Batch, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	b := &Batch{entries: make(map[string]Entry, len(m))}
	for _, k := range keys {
		v := m[k]
		path, err := ParsePath(k)
		if err != nil {
			return nil, err
		}
		if _, dup := b.entries[path.String()]; dup {
			return nil, pathErrf(k, 0, "duplicate path after normalization")
		}
		if v == nil {
			b.Put(path, Delete())
		} else {
			b.Put(path, Set(v))
		}
	}
	return b, nil
}

// Set adds a write of payload at path.
func (b *Batch) Set(path string, payload any) error {
	p, err := ParsePath(path)
	if err != nil {
		return err
	}
	b.Put(p, Set(payload))
	return nil
}

// Delete adds a deletion marker at path.
func (b *Batch) Delete(path string) error {
	p, err := ParsePath(path)
	if err != nil {
		return err
	}
	b.Put(p, Delete())
	return nil
}

// Put adds or replaces the entry for path. v must be Set(...) or Delete().
func (b *Batch) Put(path Path, v Value) {
	if path.IsZero() {
		panic("treedb: Put with zero path")
	}
	if v.op != OpSet && v.op != OpDelete {
		panic(fmt.Sprintf("treedb: Put %s with %v", path, v.op))
	}
	if b.entries == nil {
		b.entries = make(map[string]Entry)
	}
	b.entries[path.String()] = Entry{path, v}
}

func (b *Batch) Get(path string) (Value, bool) {
	if b == nil {
		return Value{}, false
	}
	e, ok := b.entries[strings.Trim(path, sepStr)]
	return e.Value, ok
}

func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// Entries returns the entries ordered by Path.Compare.
func (b *Batch) Entries() []Entry {
	if b == nil {
		return nil
	}
	result := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		result = append(result, e)
	}
	sortEntries(result)
	return result
}

func (b *Batch) Paths() []string {
	entries := b.Entries()
	result := make([]string, len(entries))
	for i, e := range entries {
		result[i] = e.Path.String()
	}
	return result
}

func (b *Batch) Clone() *Batch {
	out := &Batch{entries: make(map[string]Entry, b.Len())}
	if b != nil {
		for k, e := range b.entries {
			out.entries[k] = e
		}
	}
	return out
}

// Map returns the wire format of the batch. Deletion markers become nil, so
// a Set(nil) entry is indistinguishable from a deletion there.
func (b *Batch) Map() map[string]any {
	m := make(map[string]any, b.Len())
	if b == nil {
		return m
	}
	for k, e := range b.entries {
		if e.Value.IsDelete() {
			m[k] = nil
		} else {
			m[k] = e.Value.Payload()
		}
	}
	return m
}

func (b *Batch) String() string {
	var buf strings.Builder
	for _, e := range b.Entries() {
		buf.WriteString(e.String())
		buf.WriteByte('\n')
	}
	return buf.String()
}

// GoString is used by %#v in test failures.
func (b *Batch) GoString() string {
	return fmt.Sprintf("Batch(%d){\n%s}", b.Len(), b.String())
}

func sortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		return a.Path.Compare(b.Path)
	})
}
