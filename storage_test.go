package treedb

import (
	"errors"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"
)

func eachStorage(t *testing.T, f func(t *testing.T, s storage)) {
	t.Run("bolt", func(t *testing.T) {
		bdb := must(bbolt.Open(filepath.Join(t.TempDir(), "s.db"), 0666, &bbolt.Options{NoSync: true}))
		s := newBoltStorage(bdb)
		t.Cleanup(func() { ensure(s.Close()) })
		f(t, s)
	})
	t.Run("mem", func(t *testing.T) {
		s := newMemStorage()
		t.Cleanup(func() { ensure(s.Close()) })
		f(t, s)
	})
}

func keysOf(b storageBucket) (values, buckets []string) {
	ensure(b.ForEach(func(k, v []byte) error {
		if v == nil {
			buckets = append(buckets, string(k))
		} else {
			values = append(values, string(k))
		}
		return nil
	}))
	return
}

func TestStorage_NestedBuckets(t *testing.T) {
	eachStorage(t, func(t *testing.T, s storage) {
		wtx := must(s.BeginTx(true))
		if !wtx.Writable() {
			t.Fatalf("write tx is not writable")
		}
		if wtx.Root() != nil {
			t.Fatalf("Root() exists in an empty storage")
		}
		root := must(wtx.CreateRoot())
		a := must(root.CreateBucket([]byte("a")))
		ensure(a.Put([]byte("z"), []byte("1")))
		ensure(a.Put([]byte("k"), []byte("2")))
		b := must(a.CreateBucket([]byte("b")))
		ensure(b.Put(leafKey, []byte("leaf")))
		if a.IsEmpty() || !must(a.CreateBucket([]byte("empty"))).IsEmpty() {
			t.Fatalf("IsEmpty is wrong")
		}
		ensure(wtx.Commit())

		rtx := must(s.BeginTx(false))
		defer rtx.Rollback()
		ra := rtx.Root().Bucket([]byte("a"))
		if ra == nil {
			t.Fatalf("bucket a is missing after commit")
		}
		values, buckets := keysOf(ra)
		deepEqual(t, values, []string{"k", "z"})
		deepEqual(t, buckets, []string{"b", "empty"})
		deepEqual(t, string(ra.Bucket([]byte("b")).Get(leafKey)), "leaf")
		if ra.Get([]byte("b")) != nil {
			t.Errorf("Get returned a value for a nested bucket")
		}
		if ra.Bucket([]byte("k")) != nil {
			t.Errorf("Bucket returned a bucket for a value")
		}
		if _, err := ra.CreateBucket([]byte("x")); !errors.Is(err, ErrNotWritable) {
			t.Errorf("CreateBucket in read tx err = %v, wanted ErrNotWritable", err)
		}
	})
}

func TestStorage_DeleteBucketAndRollback(t *testing.T) {
	eachStorage(t, func(t *testing.T, s storage) {
		wtx := must(s.BeginTx(true))
		root := must(wtx.CreateRoot())
		a := must(root.CreateBucket([]byte("a")))
		must(a.CreateBucket([]byte("b")))
		ensure(wtx.Commit())

		wtx = must(s.BeginTx(true))
		root = wtx.Root()
		ensure(root.DeleteBucket([]byte("a")))
		if err := root.DeleteBucket([]byte("a")); err != ErrBucketNotFound {
			t.Errorf("second DeleteBucket err = %v, wanted ErrBucketNotFound", err)
		}
		if root.Bucket([]byte("a")) != nil {
			t.Errorf("bucket still visible after delete")
		}
		ensure(wtx.Rollback())
		ensure(wtx.Rollback())

		rtx := must(s.BeginTx(false))
		defer rtx.Rollback()
		if rtx.Root().Bucket([]byte("a")).Bucket([]byte("b")) == nil {
			t.Errorf("rolled back delete is visible")
		}
	})
}

func TestMemStorage_Isolation(t *testing.T) {
	s := newMemStorage()
	defer s.Close()

	rtx := must(s.BeginTx(false))
	wtx := must(s.BeginTx(true))
	root := must(wtx.CreateRoot())
	ensure(must(root.CreateBucket([]byte("a"))).Put([]byte("k"), []byte("v")))
	ensure(wtx.Commit())

	if rtx.Root() != nil {
		t.Errorf("read tx sees a later commit")
	}
	ensure(rtx.Rollback())

	rtx = must(s.BeginTx(false))
	deepEqual(t, string(rtx.Root().Bucket([]byte("a")).Get([]byte("k"))), "v")
	ensure(rtx.Rollback())

	if err := must(s.BeginTx(false)).Commit(); !errors.Is(err, ErrNotWritable) {
		t.Errorf("Commit of read tx err = %v, wanted ErrNotWritable", err)
	}
}

func TestStorage_Size(t *testing.T) {
	t.Run("bolt", func(t *testing.T) {
		bdb := must(bbolt.Open(filepath.Join(t.TempDir(), "s.db"), 0666, &bbolt.Options{NoSync: true}))
		s := newBoltStorage(bdb)
		if s.Size() == 0 {
			t.Errorf("Size() = 0 for a bolt file")
		}
		ensure(s.Close())
		deepEqual(t, s.Size(), int64(0))
	})
	t.Run("mem", func(t *testing.T) {
		s := newMemStorage()
		defer s.Close()
		wtx := must(s.BeginTx(true))
		defer wtx.Rollback()
		// doesn't wait for the writer
		deepEqual(t, s.Size(), int64(0))
	})
}
