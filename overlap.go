package treedb

import (
	"slices"
)

// PathsConflict reports whether one of two well-formed paths is a strict
// ancestor of the other. Equal paths and siblings do not conflict.
// The result for malformed paths is unspecified.
func PathsConflict(a, b string) bool {
	return segmentsConflict(splitPath(a), splitPath(b))
}

// Removal describes an entry dropped by Sanitize.
type Removal struct {
	Path  Path
	Value Value

	// DeletedBy is the outermost deletion marker above Path. It is always
	// kept in the sanitized batch.
	DeletedBy Path
}

func (r Removal) String() string {
	return r.Path.String() + " = " + r.Value.String() + " (deleted by " + r.DeletedBy.String() + ")"
}

// Overlap is a pair of batch paths where one is a strict ancestor of the other.
type Overlap struct {
	Ancestor   Path
	Descendant Path
}

func (o Overlap) String() string {
	return o.Ancestor.String() + " > " + o.Descendant.String()
}

// RemoveOverlappingUpdates returns a new batch without the entries that lie
// strictly below a deletion marker of b. Deletion markers below another
// deletion marker are dropped as well. Writes above a deletion marker are
// kept. b is not modified.
func RemoveOverlappingUpdates(b *Batch) *Batch {
	out, _ := Sanitize(b)
	return out
}

// RemoveOverlapping is RemoveOverlappingUpdates over the wire format, where
// nil values are deletion markers.
func RemoveOverlapping(m map[string]any) (map[string]any, error) {
	b, err := BatchFromMap(m)
	if err != nil {
		return nil, err
	}
	return RemoveOverlappingUpdates(b).Map(), nil
}

// Sanitize is RemoveOverlappingUpdates that also reports the dropped
// entries, ordered by path.
func Sanitize(b *Batch) (*Batch, []Removal) {
	out := &Batch{entries: make(map[string]Entry, b.Len())}
	if b.Len() == 0 {
		return out, nil
	}

	var deletions pathTrie
	var anyDeletions bool
	for _, e := range b.entries {
		if e.Value.IsDelete() {
			deletions.insert(e.Path)
			anyDeletions = true
		}
	}

	var removed []Removal
	for k, e := range b.entries {
		if anyDeletions && e.Path.Len() > 1 {
			if anc, ok := deletions.outermostAncestor(e.Path); ok {
				removed = append(removed, Removal{e.Path, e.Value, anc})
				continue
			}
		}
		out.entries[k] = e
	}

	slices.SortFunc(removed, func(a, b Removal) int {
		return a.Path.Compare(b.Path)
	})
	return out, removed
}

// FindOverlaps returns every ancestor/descendant pair of paths in b,
// regardless of values, ordered by ancestor and then descendant.
func FindOverlaps(b *Batch) []Overlap {
	if b.Len() < 2 {
		return nil
	}
	var all pathTrie
	for _, e := range b.entries {
		all.insert(e.Path)
	}
	var result []Overlap
	for _, e := range b.entries {
		all.walkAncestors(e.Path, func(anc Path) {
			result = append(result, Overlap{anc, e.Path})
		})
	}
	slices.SortFunc(result, func(a, b Overlap) int {
		if c := a.Ancestor.Compare(b.Ancestor); c != 0 {
			return c
		}
		return a.Descendant.Compare(b.Descendant)
	})
	return result
}
