package channel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryChannelReadWrite(t *testing.T) {
	ctx := context.Background()
	hub := NewMemoryHub()
	a, b := hub.Channel(), hub.Channel()

	_, ok, err := a.Read(ctx, "board-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Write(ctx, "board-1", []byte(`[]`)))
	v, ok, err := b.Read(ctx, "board-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(v))
}

func TestMemoryChannelDoesNotEchoToWriter(t *testing.T) {
	ctx := context.Background()
	hub := NewMemoryHub()
	a, b := hub.Channel(), hub.Channel()

	var gotA, gotB []string
	_, err := a.Subscribe("k", func(v []byte) { gotA = append(gotA, string(v)) })
	require.NoError(t, err)
	unsubscribe, err := b.Subscribe("k", func(v []byte) { gotB = append(gotB, string(v)) })
	require.NoError(t, err)

	require.NoError(t, a.Write(ctx, "k", []byte("1")))
	require.NoError(t, a.Write(ctx, "other", []byte("x")))
	unsubscribe()
	require.NoError(t, a.Write(ctx, "k", []byte("2")))
	require.NoError(t, b.Write(ctx, "k", []byte("3")))

	assert.Equal(t, []string{"1"}, gotB)
	assert.Equal(t, []string{"3"}, gotA)
}

func TestMemoryChannelHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewMemoryHub().Channel()

	assert.ErrorIs(t, c.Write(ctx, "k", nil), context.Canceled)
	_, _, err := c.Read(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}
