package libraries

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) *WebSocketMessage {
	t.Helper()
	select {
	case raw := <-c.Send:
		msg, err := ParseWebSocketMessage(raw)
		require.NoError(t, err)
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message")
		return nil
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("unexpected message %s", raw)
	case <-time.After(20 * time.Millisecond):
	}
}

func runHub(t *testing.T) *Hub {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func TestBroadcastReachesOtherSubscribersOnly(t *testing.T) {
	hub := runHub(t)
	writer, reader, bystander := NewClient(nil), NewClient(nil), NewClient(nil)
	for _, c := range []*Client{writer, reader, bystander} {
		hub.Join(c)
	}
	hub.Subscribe(writer, "board-1")
	hub.Subscribe(reader, "board-1")
	hub.Subscribe(bystander, "board-2")

	hub.BroadcastBoard("board-1", []byte(`[]`), writer.ID)

	msg := receive(t, reader)
	assert.Equal(t, WebSocketMessageTypeBoardUpdated, msg.Type)
	payload, ok := msg.Data.(*BoardPayload)
	require.True(t, ok)
	assert.Equal(t, "board-1", payload.BoardId)
	assert.JSONEq(t, `[]`, string(payload.Document))

	assertSilent(t, writer)
	assertSilent(t, bystander)
}

func TestUnsubscribeAndLeave(t *testing.T) {
	hub := runHub(t)
	a, b := NewClient(nil), NewClient(nil)
	hub.Join(a)
	hub.Join(b)
	hub.Subscribe(a, "board-1")
	hub.Subscribe(b, "board-1")

	hub.Unsubscribe(a, "board-1")
	hub.Leave(b)

	hub.BroadcastBoard("board-1", []byte(`[]`), "")
	assertSilent(t, a)

	select {
	case <-b.Done():
	case <-time.After(time.Second):
		t.Fatal("client not released")
	}
}

func TestStopReleasesClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	c := NewClient(nil)
	hub.Join(c)

	hub.Stop()
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("client not released")
	}

	// no blocking once stopped
	hub.Subscribe(c, "board-1")
	hub.BroadcastBoard("board-1", []byte(`[]`), "")
	hub.Leave(c)
	hub.Stop()
}

func TestParseWebSocketMessage(t *testing.T) {
	msg, err := ParseWebSocketMessage([]byte(`{"type":"subscribe","data":{"board_id":"b"}}`))
	require.NoError(t, err)
	sub, ok := msg.Data.(*SubscribePayload)
	require.True(t, ok)
	assert.Equal(t, "b", sub.BoardId)

	msg, err = ParseWebSocketMessage([]byte(`{"type":"board_write","data":{"board_id":"b","document":[{"id":"1"}]}}`))
	require.NoError(t, err)
	write, ok := msg.Data.(*BoardPayload)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":"1"}]`, string(write.Document))

	msg, err = ParseWebSocketMessage([]byte(`{"type":"ping"}`))
	require.NoError(t, err)
	assert.Equal(t, WebSocketMessageTypePing, msg.Type)
	assert.Nil(t, msg.Data)

	_, err = ParseWebSocketMessage([]byte(`not json`))
	assert.Error(t, err)
}

func TestErrorMessageShape(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	c := NewClient(nil)
	SendErrorMessage(hub, c, "Board ID is required")

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(<-c.Send, &got))
	assert.Equal(t, "error", got["type"])
	assert.Equal(t, map[string]interface{}{"message": "Board ID is required"}, got["data"])
}
