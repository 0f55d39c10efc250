package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildSpansAttachToRoot(t *testing.T) {
	tracer := NewTracer(true, 1)
	ctx, root := tracer.StartSpan(context.Background(), "search", "req-1")
	require.True(t, root.Sampled())

	_, phrase := StartChildSpan(ctx, "phrase")
	phrase.SetAttr("candidates", 3)
	phrase.End()
	tracer.Finish(root)

	require.Len(t, root.Children, 1)
	assert.Equal(t, "req-1", root.Children[0].TraceID)
	assert.Equal(t, 3, root.Children[0].Attrs["candidates"])
}

func TestDisabledTracerDoesNotSample(t *testing.T) {
	var tracer *Tracer
	_, root := tracer.StartSpan(context.Background(), "search", "req-2")
	assert.False(t, root.Sampled())

	_, detached := StartChildSpan(context.Background(), "orphan")
	assert.Empty(t, detached.TraceID)
}
