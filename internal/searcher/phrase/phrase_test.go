package phrase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/errors"
)

const (
	docA index.DocID = 100
	docB index.DocID = 200
	docC index.DocID = 300
)

func full(positions map[index.DocID][]int) index.FullPostings {
	out := make(index.FullPostings, len(positions))
	for did, pos := range positions {
		out[did] = index.FullPosting{TF: len(pos), DF: len(positions), TFNorm: 1, IDF: 1, Positions: index.NewPositions(pos...)}
	}
	return out
}

func newStore() *index.MemoryStore {
	s := index.NewMemoryStore()
	s.AddWord("cat", 1)
	s.AddWord("dog", 2)
	s.AddWord("bird", 3)
	s.AddWord("the", 4)

	// A: adjacent; B: gap of two; C: dog before cat.
	s.SetFullPostings(1, index.FieldBody, full(map[index.DocID][]int{docA: {5}, docB: {5}, docC: {9}}))
	s.SetFullPostings(2, index.FieldBody, full(map[index.DocID][]int{docA: {6}, docB: {7}, docC: {8}}))
	s.SetFullPostings(1, index.FieldTitle, full(map[index.DocID][]int{docC: {0}}))
	s.SetFullPostings(2, index.FieldTitle, full(map[index.DocID][]int{docC: {1}}))
	return s
}

func TestMatchFieldAdjacent(t *testing.T) {
	m := NewMatcher(newStore())
	got, err := m.MatchField(context.Background(), []string{"cat", "dog"}, index.BodyExact, 1)
	require.NoError(t, err)
	assert.Equal(t, []index.DocID{docA}, got.IDs())
}

func TestMatchFieldDistance(t *testing.T) {
	m := NewMatcher(newStore())
	ctx := context.Background()

	got, err := m.MatchField(ctx, []string{"cat", "dog"}, index.BodyExact, 2)
	require.NoError(t, err)
	assert.Equal(t, []index.DocID{docA, docB}, got.IDs())

	clamped, err := m.MatchField(ctx, []string{"cat", "dog"}, index.BodyExact, 0)
	require.NoError(t, err)
	assert.Equal(t, []index.DocID{docA}, clamped.IDs())
}

func TestMatchFieldOrderMatters(t *testing.T) {
	m := NewMatcher(newStore())
	got, err := m.MatchField(context.Background(), []string{"dog", "cat"}, index.BodyExact, 1)
	require.NoError(t, err)
	assert.Equal(t, []index.DocID{docC}, got.IDs())
}

func TestMatchFieldUnknownOrMissingTerm(t *testing.T) {
	m := NewMatcher(newStore())
	ctx := context.Background()

	got, err := m.MatchField(ctx, []string{"cat", "unicorn"}, index.BodyExact, 1)
	require.NoError(t, err)
	assert.Zero(t, got.Len())

	got, err = m.MatchField(ctx, []string{"cat", "bird"}, index.BodyExact, 1)
	require.NoError(t, err)
	assert.Zero(t, got.Len(), "indexed word with no postings")

	got, err = m.MatchField(ctx, nil, index.BodyExact, 1)
	require.NoError(t, err)
	assert.Zero(t, got.Len())
}

func TestMatchFieldSingleWord(t *testing.T) {
	m := NewMatcher(newStore())
	got, err := m.MatchField(context.Background(), []string{"dog"}, index.BodyExact, 1)
	require.NoError(t, err)
	assert.Equal(t, []index.DocID{docA, docB, docC}, got.IDs())
}

func TestMatchRawVariant(t *testing.T) {
	s := newStore()
	s.SetPositions(4, index.BodyRawUnstemmed, index.PositionPostings{docB: index.NewPositions(6)})
	s.SetPositions(2, index.BodyRawUnstemmed, index.PositionPostings{docB: index.NewPositions(7)})
	m := NewMatcher(s)

	got, err := m.Match(context.Background(), []string{"the", "dog"}, Options{Raw: true, Distance: 1})
	require.NoError(t, err)
	assert.Equal(t, []index.DocID{docB}, got.IDs())

	got, err = m.Match(context.Background(), []string{"the", "dog"}, Options{Raw: true, StemForRaw: true, Distance: 1})
	require.NoError(t, err)
	assert.Zero(t, got.Len(), "stemmed raw index is empty")
}

func TestMatchUnionsTitleAndBody(t *testing.T) {
	m := NewMatcher(newStore())
	ctx := context.Background()

	both, err := m.Match(ctx, []string{"cat", "dog"}, Options{Distance: 1})
	require.NoError(t, err)
	assert.Equal(t, []index.DocID{docA, docC}, both.IDs())

	titleOnly, err := m.Match(ctx, []string{"cat", "dog"}, Options{MatchInTitle: true, Distance: 1})
	require.NoError(t, err)
	assert.Equal(t, []index.DocID{docC}, titleOnly.IDs())
}

func TestMatchMalformedPostingsSkipsWord(t *testing.T) {
	s := newStore()
	s.SetFullPostings(3, index.FieldBody, full(map[index.DocID][]int{docA: {7}, docB: {9}}))
	s.SetRawRecord(2, index.BodyExact, []byte(`{"100": 7}`))
	m := NewMatcher(s)
	ctx := context.Background()

	t.Run("trailing word dropped", func(t *testing.T) {
		got, err := m.MatchField(ctx, []string{"cat", "dog"}, index.BodyExact, 1)
		require.NoError(t, err)
		assert.Equal(t, []index.DocID{docA, docB, docC}, got.IDs())
	})

	t.Run("window widens over the skipped word", func(t *testing.T) {
		got, err := m.MatchField(ctx, []string{"cat", "dog", "bird"}, index.BodyExact, 1)
		require.NoError(t, err)
		assert.Equal(t, []index.DocID{docA}, got.IDs())
	})

	t.Run("every word malformed", func(t *testing.T) {
		got, err := m.MatchField(ctx, []string{"dog"}, index.BodyExact, 1)
		require.NoError(t, err)
		assert.Zero(t, got.Len())
	})
}

func TestMatchStoreFailure(t *testing.T) {
	s := newStore()
	s.SetFailure(apperrors.ErrStoreUnavailable)
	m := NewMatcher(s)

	_, err := m.Match(context.Background(), []string{"cat", "dog"}, Options{Distance: 1})
	assert.True(t, errors.Is(err, apperrors.ErrStoreUnavailable))
}

func BenchmarkMatchField(b *testing.B) {
	s := index.NewMemoryStore()
	s.AddWord("alpha", 1)
	s.AddWord("beta", 2)
	first := make(map[index.DocID][]int)
	second := make(map[index.DocID][]int)
	for d := 0; d < 2000; d++ {
		var a, c []int
		for p := 0; p < 50; p++ {
			a = append(a, p*7)
			c = append(c, p*7+3)
		}
		first[index.DocID(d)] = a
		second[index.DocID(d)] = c
	}
	s.SetFullPostings(1, index.FieldBody, full(first))
	s.SetFullPostings(2, index.FieldBody, full(second))
	m := NewMatcher(s)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = m.MatchField(ctx, []string{"alpha", "beta"}, index.BodyExact, 3)
	}
}
