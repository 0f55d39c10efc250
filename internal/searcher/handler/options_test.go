package handler

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/executor"
)

func TestReadOptionsUnsetsMissingKeys(t *testing.T) {
	opts := readOptions(url.Values{"query": {"cat"}, "match-in-title": {"null"}, "exclude-words": {"dog"}}, 1)
	assert.Nil(t, opts["page-rank"])
	assert.Nil(t, opts["match-in-title"])
	assert.Nil(t, opts["phrase-search-options"])
	assert.Equal(t, "dog", opts["exclude-words"])
}

func TestOptionsRequest(t *testing.T) {
	opts := readOptions(url.Values{
		"query":                  {"cat"},
		"phrase-search-options":  {"2"},
		"match-in-title":         {"on"},
		"phrase-search-distance": {"3"},
	}, 1)
	req, err := opts.request("cat", 1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, executor.PhraseExact, req.PhraseMode)
	assert.True(t, req.MatchInTitle)
	assert.False(t, req.WithPageRank)
	assert.Equal(t, 3, req.Distance)
	assert.Nil(t, req.Window)
}

func TestOptionsWindowDefaults(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	w, err := Options{"date-end": "2023-12-31"}.window(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC), w.End)

	w, err = Options{"time-start": "09:15:30"}.window(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(1970, 1, 1, 9, 15, 30, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 6, 1, 23, 59, 59, 0, time.UTC), w.End)
}
