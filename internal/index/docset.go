package index

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// DocSet is a compressed set of document ids. Ids are the crawler's
// non-negative urlList.uid integers, so the unsigned bitmap keeps their
// natural order.
type DocSet struct {
	bm *roaring64.Bitmap
}

func NewDocSet(ids ...DocID) *DocSet {
	s := &DocSet{bm: roaring64.New()}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s *DocSet) Add(id DocID) {
	s.bm.Add(uint64(id))
}

// Contains is safe on a nil set, which contains nothing.
func (s *DocSet) Contains(id DocID) bool {
	return s != nil && s.bm.Contains(uint64(id))
}

func (s *DocSet) Len() int {
	if s == nil {
		return 0
	}
	return int(s.bm.GetCardinality())
}

// Union adds every id of other to s.
func (s *DocSet) Union(other *DocSet) {
	if other != nil {
		s.bm.Or(other.bm)
	}
}

// Difference removes every id of other from s.
func (s *DocSet) Difference(other *DocSet) {
	if other != nil {
		s.bm.AndNot(other.bm)
	}
}

// IDs returns the members in ascending order.
func (s *DocSet) IDs() []DocID {
	if s == nil {
		return nil
	}
	out := make([]DocID, 0, s.bm.GetCardinality())
	it := s.bm.Iterator()
	for it.HasNext() {
		out = append(out, DocID(it.Next()))
	}
	return out
}
