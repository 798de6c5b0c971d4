package treedb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOverlappingPaths is matched by *OverlapError.
	ErrOverlappingPaths = errors.New("batch contains overlapping paths")
	ErrClosed           = errors.New("store closed")
	ErrNotWritable      = errors.New("tx not writable")

	// ErrBucketNotFound is returned by storageBucket.DeleteBucket when the bucket doesn't exist.
	ErrBucketNotFound = errors.New("bucket not found")
)

type PathError struct {
	Path string
	Pos  int // segment index
	Msg  string
}

func pathErrf(path string, pos int, format string, args ...any) error {
	return &PathError{path, pos, fmt.Sprintf(format, args...)}
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s (segment %d)", e.Path, e.Msg, e.Pos)
}

// OverlapError is returned by Store.Apply when a batch writes both a path
// and one of its descendants.
type OverlapError struct {
	Overlaps []Overlap
}

const maxReportedOverlaps = 3

func (e *OverlapError) Error() string {
	var buf strings.Builder
	buf.WriteString(ErrOverlappingPaths.Error())
	for i, o := range e.Overlaps {
		if i == maxReportedOverlaps {
			fmt.Fprintf(&buf, " (and %d more)", len(e.Overlaps)-i)
			break
		}
		if i == 0 {
			buf.WriteString(": ")
		} else {
			buf.WriteString(", ")
		}
		buf.WriteString(o.String())
	}
	return buf.String()
}

func (e *OverlapError) Is(target error) bool {
	return target == ErrOverlappingPaths
}

type StoreError struct {
	Op   string
	Path Path
	Err  error
}

func storeErr(op string, path Path, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{op, path, err}
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Error() string {
	if e.Path.IsZero() {
		return fmt.Sprintf("treedb: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("treedb: %s %s: %v", e.Op, e.Path, e.Err)
}
