package treedb

// storage represents a key-value storage backend with nested buckets
// (Bolt or in-memory).
type storage interface {
	// BeginTx starts a new transaction.
	BeginTx(writable bool) (storageTx, error)
	// Close closes the storage.
	Close() error
	// Size returns the database size in bytes (0 if not applicable).
	Size() int64
}

// storageTx represents a storage transaction.
type storageTx interface {
	// Writable returns true if this is a writable transaction.
	Writable() bool

	// Root returns the top-level bucket holding the tree, or nil if it
	// doesn't exist yet.
	Root() storageBucket

	// CreateRoot returns the top-level bucket, creating it if needed.
	CreateRoot() (storageBucket, error)

	// Commit commits the transaction.
	Commit() error

	// Rollback aborts the transaction. It should be safe to call multiple times.
	Rollback() error
}

// storageBucket represents a bucket: sorted keys, each holding either a
// value or a nested bucket.
type storageBucket interface {
	// Get retrieves a value by key. Returns nil if not found.
	Get(key []byte) []byte

	// Put stores a key-value pair.
	Put(key, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key []byte) error

	// Bucket returns a nested bucket, or nil if it doesn't exist.
	Bucket(name []byte) storageBucket

	// CreateBucket returns a nested bucket, creating it if needed.
	CreateBucket(name []byte) (storageBucket, error)

	// DeleteBucket deletes a nested bucket with all its contents.
	// Returns ErrBucketNotFound if there is no such bucket.
	DeleteBucket(name []byte) error

	// ForEach calls f for each key in order. v is nil for nested buckets.
	ForEach(f func(k, v []byte) error) error

	// IsEmpty returns true if the bucket has neither values nor nested buckets.
	IsEmpty() bool
}
