package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message within a second")
		return nil
	}
}

func TestBroadcastIsScopedToGame(t *testing.T) {
	h, _ := startHub(t)
	a := NewClient(1, 10)
	b := NewClient(1, 11)
	other := NewClient(2, 12)
	for _, c := range []*Client{a, b, other} {
		require.True(t, h.Register(c))
	}
	assert.Eventually(t, func() bool { return h.Subscribers(1) == 2 }, time.Second, 5*time.Millisecond)

	h.BroadcastToGame(1, []byte("hello"))
	assert.Equal(t, "hello", string(receive(t, a)))
	assert.Equal(t, "hello", string(receive(t, b)))

	h.BroadcastToGame(2, []byte("two"))
	assert.Equal(t, "two", string(receive(t, other)))
	assert.Empty(t, a.Send, "game 1 clients never see game 2 traffic")
}

func TestPublishEnvelope(t *testing.T) {
	h, _ := startHub(t)
	c := NewClient(4, 1)
	require.True(t, h.Register(c))

	require.NoError(t, h.Publish(4, "roster", map[string]int{"current_players": 3}))

	var ev struct {
		Type   string         `json:"type"`
		GameID uint           `json:"game_id"`
		Data   map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(receive(t, c), &ev))
	assert.Equal(t, "roster", ev.Type)
	assert.Equal(t, uint(4), ev.GameID)
	assert.Equal(t, 3, ev.Data["current_players"])
}

func TestUnregisterClosesSend(t *testing.T) {
	h, _ := startHub(t)
	c := NewClient(1, 1)
	require.True(t, h.Register(c))

	h.Unregister(c)
	_, ok := <-c.Send
	assert.False(t, ok)
	assert.Equal(t, 0, h.Subscribers(1))

	h.Unregister(c) // second time is a no-op
}

func TestSlowClientIsDropped(t *testing.T) {
	h, _ := startHub(t)
	slow := NewClient(1, 1)
	require.True(t, h.Register(slow))

	for i := 0; i <= sendBuffer; i++ {
		h.BroadcastToGame(1, []byte("x"))
	}
	assert.Eventually(t, func() bool { return h.Subscribers(1) == 0 }, time.Second, 5*time.Millisecond)

	n := 0
	for range slow.Send {
		n++
	}
	assert.Equal(t, sendBuffer, n, "buffered messages are still delivered before close")
}

func TestStopClosesClients(t *testing.T) {
	h, cancel := startHub(t)
	c := NewClient(1, 1)
	require.True(t, h.Register(c))

	cancel()
	_, ok := <-c.Send
	assert.False(t, ok)

	assert.Eventually(t, func() bool { return !h.Register(NewClient(1, 2)) }, time.Second, 10*time.Millisecond)
	h.BroadcastToGame(1, []byte("ignored")) // must not block once stopped
}
