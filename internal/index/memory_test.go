package index

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLookups(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.AddWord("cat", 1)
	m.SetFullPostings(1, FieldBody, FullPostings{
		100: {TF: 1, DF: 1, TFNorm: 1, IDF: 2, Positions: NewPositions(5)},
	})
	m.SetPositions(1, BodyRawUnstemmed, PositionPostings{100: NewPositions(12)})
	m.AddDocument(100, DocumentMeta{URL: "https://a.example", Title: "A", LastModified: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)})
	m.AddDocument(200, DocumentMeta{URL: "https://b.example"})
	m.AddLink(100, 200)

	wid, ok, err := m.WordID(ctx, "cat")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, WordID(1), wid)

	_, ok, err = m.WordID(ctx, "unicorn")
	require.NoError(t, err)
	assert.False(t, ok)

	exact, err := m.Positions(ctx, 1, BodyExact)
	require.NoError(t, err)
	assert.True(t, exact[100].Has(5), "exact positions share the full record")

	raw, err := m.Positions(ctx, 1, BodyRawUnstemmed)
	require.NoError(t, err)
	assert.True(t, raw[100].Has(12))

	missing, err := m.Positions(ctx, 1, TitleExact)
	require.NoError(t, err)
	assert.Empty(t, missing)

	full, err := m.FullPostings(ctx, 1, FieldBody)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, full[100].IDF, 1e-9)

	did, ok, err := m.DocIDOfURL(ctx, "https://b.example")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, DocID(200), did)

	children, err := m.ChildIDs(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, []DocID{200}, children)
	parents, err := m.ParentIDs(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, []DocID{100}, parents)

	n, err := m.WordCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, m.Calls(OpWordCount))
}

func TestMemoryStoreMalformedRecord(t *testing.T) {
	m := NewMemoryStore()
	m.SetRawRecord(3, TitleExact, []byte(`{"1": "oops"}`))

	_, err := m.FullPostings(context.Background(), 3, FieldTitle)
	assert.ErrorIs(t, err, apperrors.ErrMalformedPosting)
}

func TestMemoryStoreFailure(t *testing.T) {
	m := NewMemoryStore()
	boom := errors.New("connection reset")
	m.SetFailure(boom)

	_, _, err := m.WordID(context.Background(), "cat")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, m.Ping(context.Background()), boom)

	m.SetFailure(nil)
	assert.NoError(t, m.Ping(context.Background()))
}
