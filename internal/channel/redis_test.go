package channel

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisKeys(t *testing.T) {
	assert.Equal(t, "board:board-1", boardKey("board-1"))
	assert.Equal(t, "board:board-1:updates", updatesChannel("board-1"))
}

func TestKeyFromChannel(t *testing.T) {
	key, ok := keyFromChannel(updatesChannel("board-1"))
	assert.True(t, ok)
	assert.Equal(t, "board-1", key)

	for _, name := range []string{"board:board-1", "other:x:updates", "board::updates"} {
		_, ok := keyFromChannel(name)
		assert.False(t, ok, name)
	}
}

func TestRedisEnvelopeSkipsOwnOrigin(t *testing.T) {
	c := &RedisChannel{origin: "me"}

	own, err := json.Marshal(envelope{Origin: "me", Value: []byte(`[]`)})
	require.NoError(t, err)
	_, isOwn, err := c.unwrap(own)
	require.NoError(t, err)
	assert.True(t, isOwn)

	other, err := json.Marshal(envelope{Origin: "them", Value: []byte(`[1]`)})
	require.NoError(t, err)
	v, isOwn, err := c.unwrap(other)
	require.NoError(t, err)
	assert.False(t, isOwn)
	assert.Equal(t, `[1]`, string(v))

	_, _, err = c.unwrap([]byte("nope"))
	assert.Error(t, err)
}

// Runs against a real server when REDIS_URL is set.
func TestRedisChannelRoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	key := "test-" + time.Now().Format("150405.000000")
	defer client.Del(ctx, boardKey(key))

	a := NewRedisChannel(client, zerolog.Nop())
	b := NewRedisChannel(client, zerolog.Nop())

	got := make(chan string, 4)
	unsubscribeA, err := a.Subscribe(key, func(v []byte) { got <- "a:" + string(v) })
	require.NoError(t, err)
	defer unsubscribeA()
	unsubscribeB, err := b.Subscribe(key, func(v []byte) { got <- "b:" + string(v) })
	require.NoError(t, err)
	defer unsubscribeB()

	require.NoError(t, a.Write(ctx, key, []byte(`[]`)))

	select {
	case v := <-got:
		assert.Equal(t, "b:[]", v)
	case <-time.After(2 * time.Second):
		t.Fatal("no update delivered")
	}

	v, ok, err := b.Read(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(v))
}
