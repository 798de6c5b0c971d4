package treedb

type StoreStats struct {
	Batches  uint64
	Rejected uint64
	Sets     uint64
	Deletes  uint64
	Dropped  uint64
	Reads    uint64

	Size int64 // bytes on disk, 0 for in-memory stores
}

// Writes returns the number of applied entries.
func (ss StoreStats) Writes() uint64 {
	return ss.Sets + ss.Deletes
}

func (s *Store) Stats() StoreStats {
	result := StoreStats{
		Batches:  s.BatchCount.Load(),
		Rejected: s.RejectCount.Load(),
		Sets:     s.SetCount.Load(),
		Deletes:  s.DeleteCount.Load(),
		Dropped:  s.DropCount.Load(),
		Reads:    s.ReadCount.Load(),
		Size:     s.st.Size(),
	}
	return result
}
