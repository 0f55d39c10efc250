package merger

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/index"
)

// Candidate is a scored document. Seq is its insertion order, which breaks
// score ties so equal scores keep the order they were produced in.
type Candidate struct {
	DocID index.DocID
	Score float64
	Seq   int
}

// TopK returns the limit best candidates by descending score, ties by
// ascending Seq. A non-positive limit keeps every candidate.
func TopK(candidates []Candidate, limit int) []Candidate {
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}
	h := &candidateHeap{}
	heap.Init(h)
	for _, c := range candidates {
		heap.Push(h, c)
		if h.Len() > limit {
			heap.Pop(h)
		}
	}
	result := make([]Candidate, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(Candidate)
	}
	return result
}

type candidateHeap []Candidate

func (h candidateHeap) Len() int { return len(h) }

// Less orders the worst candidate first so it is evicted before the rest.
func (h candidateHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].Seq > h[j].Seq
}

func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x interface{}) {
	*h = append(*h, x.(Candidate))
}

func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
