package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type refreshEvent struct {
	Generation int    `json:"generation"`
	Reason     string `json:"reason"`
}

func TestDecodeJSON(t *testing.T) {
	ev, err := DecodeJSON[refreshEvent]([]byte(`{"generation":7,"reason":"recrawl"}`))
	require.NoError(t, err)
	assert.Equal(t, refreshEvent{Generation: 7, Reason: "recrawl"}, ev)

	_, err = DecodeJSON[refreshEvent]([]byte(`not json`))
	assert.Error(t, err)
}
