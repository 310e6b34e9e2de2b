package live

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestHubBroadcastsToRoomOnly(t *testing.T) {
	hub := startHub(t)
	watcher := NewClient(hub, nil, MatchRoom("m1"))
	other := NewClient(hub, nil, MatchRoom("m2"))
	hub.Register <- watcher
	hub.Register <- other
	require.Eventually(t, func() bool { return hub.RoomSize(MatchRoom("m1")) == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastToRoom(MatchRoom("m1"), Message{Type: MessageLeaderboard, Payload: map[string]int{"a": 1}, RoomID: MatchRoom("m1")})

	select {
	case raw := <-watcher.Send:
		var msg struct {
			Type    MessageType    `json:"type"`
			Payload map[string]int `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, MessageLeaderboard, msg.Type)
		assert.Equal(t, 1, msg.Payload["a"])
	case <-time.After(time.Second):
		t.Fatal("watcher did not receive message")
	}
	assert.Empty(t, other.Send)
}

func TestHubUnregisterClosesClientAndRoom(t *testing.T) {
	hub := startHub(t)
	c := NewClient(hub, nil, SeriesRoom("s1"))
	hub.Register <- c
	hub.Unregister <- c

	require.Eventually(t, func() bool { return hub.RoomSize(SeriesRoom("s1")) == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-c.Send
	assert.False(t, open)

	// broadcasting to a closed client or an empty room is a no-op
	hub.BroadcastToRoom(SeriesRoom("s1"), Message{Type: MessageStandings})
	assert.False(t, c.trySend([]byte("x")))
}

func TestHubSkipsFullClients(t *testing.T) {
	hub := startHub(t)
	c := NewClient(hub, nil, MatchRoom("m1"))
	hub.Register <- c
	require.Eventually(t, func() bool { return hub.RoomSize(MatchRoom("m1")) == 1 }, time.Second, 5*time.Millisecond)

	for i := 0; i < sendBuffer+10; i++ {
		hub.BroadcastToRoom(MatchRoom("m1"), Message{Type: MessageMatchStatus})
	}
	assert.Len(t, c.Send, sendBuffer)
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	c := NewClient(hub, nil, MatchRoom("m1"))
	hub.Register <- c
	cancel()
	<-done

	_, open := <-c.Send
	assert.False(t, open)
	assert.Zero(t, hub.RoomSize(MatchRoom("m1")))
}

func TestClientPushReachesOnlyThatClient(t *testing.T) {
	hub := startHub(t)
	first := NewClient(hub, nil, MatchRoom("m1"))
	second := NewClient(hub, nil, MatchRoom("m1"))
	require.True(t, hub.Subscribe(first))
	require.True(t, hub.Subscribe(second))

	assert.True(t, first.Push(Message{Type: MessageMatchSnapshot, RoomID: MatchRoom("m1")}))

	raw := <-first.Send
	assert.Contains(t, string(raw), string(MessageMatchSnapshot))
	assert.Empty(t, second.Send)
}
