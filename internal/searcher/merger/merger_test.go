package merger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ids(cs []Candidate) []int64 {
	out := make([]int64, len(cs))
	for i, c := range cs {
		out[i] = int64(c.DocID)
	}
	return out
}

func TestTopKOrdersByScoreThenSeq(t *testing.T) {
	in := []Candidate{
		{DocID: 1, Score: 0.5, Seq: 0},
		{DocID: 2, Score: 0.9, Seq: 1},
		{DocID: 3, Score: 0.5, Seq: 2},
		{DocID: 4, Score: 0.1, Seq: 3},
		{DocID: 5, Score: 0.9, Seq: 4},
	}
	assert.Equal(t, []int64{2, 5, 1, 3, 4}, ids(TopK(in, 0)))
	assert.Equal(t, []int64{2, 5, 1}, ids(TopK(in, 3)))
	assert.Equal(t, []int64{2, 5, 1, 3, 4}, ids(TopK(in, 50)))
}

func TestTopKEmpty(t *testing.T) {
	assert.Empty(t, TopK(nil, 5))
}

func BenchmarkTopK(b *testing.B) {
	in := make([]Candidate, 10000)
	for i := range in {
		in[i] = Candidate{DocID: 0, Score: float64((i * 7919) % 1000), Seq: i}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		TopK(in, 50)
	}
}
