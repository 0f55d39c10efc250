package index

import "sort"

func sortedOffsets(p Positions) []int {
	out := make([]int, 0, len(p))
	for o := range p {
		out = append(out, o)
	}
	sort.Ints(out)
	return out
}

// Sorted returns the offsets in ascending order.
func (p Positions) Sorted() []int {
	return sortedOffsets(p)
}

// Union adds every offset of other to p.
func (p Positions) Union(other Positions) {
	for o := range other {
		p[o] = struct{}{}
	}
}
