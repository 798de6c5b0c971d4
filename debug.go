package treedb

import (
	"encoding/json"
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpLeaves = DumpFlags(1 << iota)
	DumpInterior
	DumpStats

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var dumpSep = strings.Repeat("-", 60)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump returns one "path = json" line per leaf in path order. With
// DumpInterior, interior nodes are listed as "path/". With DumpStats, a
// summary follows the rows.
func (s *Store) Dump(f DumpFlags) (string, error) {
	var buf strings.Builder
	var leaves, interior int
	err := s.read(func(root storageBucket) error {
		if root == nil {
			return nil
		}
		return root.ForEach(func(k, v []byte) error {
			if v != nil {
				return nil
			}
			return dumpNode(&buf, f, root.Bucket(k), string(k), &leaves, &interior)
		})
	})
	if err != nil {
		return "", err
	}
	if f.Contains(DumpStats) {
		if buf.Len() > 0 {
			fmt.Fprintln(&buf, dumpSep)
		}
		fmt.Fprintf(&buf, "leaves = %d, interior = %d\n", leaves, interior)
	}
	return buf.String(), nil
}

func dumpNode(w *strings.Builder, f DumpFlags, b storageBucket, path string, leaves, interior *int) error {
	if leaf := b.Get(leafKey); leaf != nil {
		*leaves++
		if !f.Contains(DumpLeaves) {
			return nil
		}
		v, err := decodeLeaf(leaf)
		if err != nil {
			fmt.Fprintf(w, "%s = ** ERROR: %v\n", path, err)
			return nil
		}
		raw, err := json.Marshal(v)
		if err != nil {
			fmt.Fprintf(w, "%s = %v\n", path, v)
		} else {
			fmt.Fprintf(w, "%s = %s\n", path, raw)
		}
		return nil
	}

	*interior++
	if f.Contains(DumpInterior) {
		fmt.Fprintf(w, "%s/\n", path)
	}
	return b.ForEach(func(k, v []byte) error {
		if v != nil {
			return nil
		}
		return dumpNode(w, f, b.Bucket(k), path+sepStr+string(k), leaves, interior)
	})
}
