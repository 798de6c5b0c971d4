package treedb

import (
	"unsafe"

	"go.etcd.io/bbolt"
)

var rootBucketName = []byte("tree")

type boltStorage struct {
	bdb *bbolt.DB
}

func newBoltStorage(bdb *bbolt.DB) storage {
	return &boltStorage{bdb: bdb}
}

func (s *boltStorage) BeginTx(writable bool) (storageTx, error) {
	btx, err := s.bdb.Begin(writable)
	if err != nil {
		if err == bbolt.ErrDatabaseNotOpen {
			return nil, ErrClosed
		}
		return nil, err
	}
	return &boltStorageTx{btx: btx}, nil
}

func (s *boltStorage) Close() error {
	return s.bdb.Close()
}

func (s *boltStorage) Size() int64 {
	var size int64
	err := s.bdb.View(func(btx *bbolt.Tx) error {
		size = btx.Size()
		return nil
	})
	if err != nil {
		return 0
	}
	return size
}

type boltStorageTx struct {
	btx *bbolt.Tx
}

func (tx *boltStorageTx) Writable() bool { return tx.btx.Writable() }

func (tx *boltStorageTx) Root() storageBucket {
	b := tx.btx.Bucket(rootBucketName)
	if b == nil {
		return nil
	}
	return boltBucket{b: b}
}

func (tx *boltStorageTx) CreateRoot() (storageBucket, error) {
	if !tx.btx.Writable() {
		return nil, ErrNotWritable
	}
	b, err := tx.btx.CreateBucketIfNotExists(rootBucketName)
	if err != nil {
		return nil, err
	}
	return boltBucket{b: b}, nil
}

func (tx *boltStorageTx) Commit() error { return tx.btx.Commit() }

func (tx *boltStorageTx) Rollback() error {
	err := tx.btx.Rollback()
	if err == bbolt.ErrTxClosed {
		return nil
	}
	return err
}


type boltBucket struct {
	b *bbolt.Bucket
}

func (b boltBucket) Get(key []byte) []byte { return b.b.Get(key) }

func (b boltBucket) Put(key, value []byte) error {
	return translateBoltErr(b.b.Put(key, value))
}

func (b boltBucket) Delete(key []byte) error {
	return translateBoltErr(b.b.Delete(key))
}

func (b boltBucket) Bucket(name []byte) storageBucket {
	child := b.b.Bucket(name)
	if child == nil {
		return nil
	}
	return boltBucket{b: child}
}

func (b boltBucket) CreateBucket(name []byte) (storageBucket, error) {
	child, err := b.b.CreateBucketIfNotExists(name)
	if err != nil {
		return nil, translateBoltErr(err)
	}
	return boltBucket{b: child}, nil
}

func (b boltBucket) DeleteBucket(name []byte) error {
	err := b.b.DeleteBucket(name)
	if err == bbolt.ErrBucketNotFound {
		return ErrBucketNotFound
	}
	return translateBoltErr(err)
}

func (b boltBucket) ForEach(f func(k, v []byte) error) error {
	return b.b.ForEach(f)
}

func (b boltBucket) IsEmpty() bool {
	k, _ := b.b.Cursor().First()
	return k == nil
}

func translateBoltErr(err error) error {
	if err == bbolt.ErrTxNotWritable {
		return ErrNotWritable
	}
	return err
}

func unsafeBytesFromString(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
