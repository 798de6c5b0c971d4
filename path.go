package treedb

import (
	"strings"
)

// Sep separates path segments.
const Sep = '/'

const sepStr = string(Sep)

// Path is a parsed, non-empty sequence of segments like "users/u1/profile".
// A Path is immutable; the zero Path is invalid and has no segments.
type Path struct {
	segs []string
	str  string
}

// ParsePath normalizes and parses s. Leading and trailing separators are
// dropped; empty segments, control characters and any of ".$#[]" are
// rejected with a *PathError.
func ParsePath(s string) (Path, error) {
	norm := strings.Trim(s, sepStr)
	if norm == "" {
		return Path{}, pathErrf(s, 0, "empty path")
	}
	segs := strings.Split(norm, sepStr)
	for i, seg := range segs {
		if seg == "" {
			return Path{}, pathErrf(s, i, "empty segment")
		}
		if c, bad := invalidSegmentChar(seg); bad {
			return Path{}, pathErrf(s, i, "invalid character %q in segment %q", c, seg)
		}
	}
	return Path{segs: segs, str: norm}, nil
}

func MustParsePath(s string) Path {
	return must(ParsePath(s))
}

func invalidSegmentChar(seg string) (rune, bool) {
	for _, c := range seg {
		if c < 32 || c == 127 {
			return c, true
		}
		switch c {
		case '.', '$', '#', '[', ']':
			return c, true
		}
	}
	return 0, false
}

// splitPath splits without validation. Used by PathsConflict, which is
// defined only over well-formed input.
func splitPath(s string) []string {
	return strings.Split(s, sepStr)
}

func (p Path) String() string {
	return p.str
}

func (p Path) IsZero() bool {
	return len(p.segs) == 0
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.segs)
}

func (p Path) Segment(i int) string {
	return p.segs[i]
}

// Segments returns a copy of the segments.
func (p Path) Segments() []string {
	return append([]string(nil), p.segs...)
}

func (p Path) Last() string {
	if len(p.segs) == 0 {
		return ""
	}
	return p.segs[len(p.segs)-1]
}

// Parent returns the path without its last segment. Single-segment paths
// have no parent.
func (p Path) Parent() (Path, bool) {
	n := len(p.segs)
	if n <= 1 {
		return Path{}, false
	}
	segs := p.segs[:n-1:n-1]
	return Path{segs: segs, str: p.str[:len(p.str)-len(p.segs[n-1])-1]}, true
}

func (p Path) Child(seg string) (Path, error) {
	if p.IsZero() {
		return ParsePath(seg)
	}
	if seg == "" {
		return Path{}, pathErrf(p.str+sepStr, len(p.segs), "empty segment")
	}
	if strings.IndexByte(seg, Sep) >= 0 {
		return Path{}, pathErrf(p.str+sepStr+seg, len(p.segs), "segment %q contains a separator", seg)
	}
	if c, bad := invalidSegmentChar(seg); bad {
		return Path{}, pathErrf(p.str+sepStr+seg, len(p.segs), "invalid character %q in segment %q", c, seg)
	}
	segs := make([]string, len(p.segs)+1)
	copy(segs, p.segs)
	segs[len(p.segs)] = seg
	return Path{segs: segs, str: p.str + sepStr + seg}, nil
}

func (p Path) Equal(q Path) bool {
	return p.str == q.str
}

// Compare orders paths segment by segment; a path sorts before its
// descendants. Returns -1, 0 or 1.
func (p Path) Compare(q Path) int {
	n := min(len(p.segs), len(q.segs))
	for i := 0; i < n; i++ {
		if c := strings.Compare(p.segs[i], q.segs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(p.segs) < len(q.segs):
		return -1
	case len(p.segs) > len(q.segs):
		return 1
	default:
		return 0
	}
}

// IsAncestorOf reports whether p is a strict ancestor of q.
func (p Path) IsAncestorOf(q Path) bool {
	return len(p.segs) < len(q.segs) && hasSegmentPrefix(q.segs, p.segs)
}

// IsDescendantOf reports whether p is a strict descendant of q.
func (p Path) IsDescendantOf(q Path) bool {
	return q.IsAncestorOf(p)
}

// Conflicts reports whether one of p, q is a strict ancestor of the other.
// Equal paths do not conflict.
func (p Path) Conflicts(q Path) bool {
	return segmentsConflict(p.segs, q.segs)
}

func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.str), nil
}

func (p *Path) UnmarshalText(d []byte) error {
	pp, err := ParsePath(string(d))
	if err != nil {
		return err
	}
	*p = pp
	return nil
}

func hasSegmentPrefix(segs, prefix []string) bool {
	if len(prefix) > len(segs) {
		return false
	}
	for i, s := range prefix {
		if segs[i] != s {
			return false
		}
	}
	return true
}

func segmentsConflict(a, b []string) bool {
	if len(a) == len(b) {
		return false
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	return hasSegmentPrefix(b, a)
}
