package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(h *ChatHub, userID, chatID uint, buffer int) *Client {
	return &Client{
		Hub:    h,
		UserID: userID,
		ChatID: chatID,
		Send:   make(chan []byte, buffer),
	}
}

func TestChatHubBroadcastFansOutToRoom(t *testing.T) {
	hub := NewChatHub()

	alice := newTestClient(hub, 1, 42, 8)
	aliceOtherDevice := newTestClient(hub, 1, 42, 8)
	bob := newTestClient(hub, 2, 42, 8)
	stranger := newTestClient(hub, 3, 99, 8)

	hub.RegisterClient(alice)
	hub.RegisterClient(aliceOtherDevice)
	hub.RegisterClient(bob)
	hub.RegisterClient(stranger)

	assert.Equal(t, 3, hub.ConnectionCount(42))
	assert.Equal(t, 1, hub.ConnectionCount(99))

	hub.Broadcast(42, []byte(`{"type":"message"}`))

	for _, c := range []*Client{alice, aliceOtherDevice, bob} {
		select {
		case msg := <-c.Send:
			assert.JSONEq(t, `{"type":"message"}`, string(msg))
		default:
			t.Fatalf("client %d did not receive broadcast", c.UserID)
		}
	}

	select {
	case <-stranger.Send:
		t.Fatal("client in another chat received broadcast")
	default:
	}
}

func TestChatHubBroadcastEvent(t *testing.T) {
	hub := NewChatHub()
	c := newTestClient(hub, 1, 7, 8)
	hub.RegisterClient(c)

	hub.BroadcastEvent(ChatEvent{Type: "message", ChatID: 7, Payload: map[string]string{"body": "hi"}})

	var event ChatEvent
	select {
	case msg := <-c.Send:
		require.NoError(t, json.Unmarshal(msg, &event))
	default:
		t.Fatal("no frame delivered")
	}

	assert.Equal(t, "message", event.Type)
	assert.Equal(t, uint(7), event.ChatID)
}

func TestChatHubUnregisterClosesSend(t *testing.T) {
	hub := NewChatHub()
	c := newTestClient(hub, 1, 7, 8)
	hub.RegisterClient(c)

	hub.UnregisterClient(c)
	assert.Equal(t, 0, hub.ConnectionCount(7))

	_, open := <-c.Send
	assert.False(t, open)

	// Second unregister is a no-op, not a double close.
	hub.UnregisterClient(c)
}

func TestChatHubFullBufferDropsWithNotice(t *testing.T) {
	hub := NewChatHub()
	c := newTestClient(hub, 1, 7, 1)
	hub.RegisterClient(c)

	hub.Broadcast(7, []byte(`first`))
	hub.Broadcast(7, []byte(`second`))

	assert.Equal(t, []byte(`first`), <-c.Send)

	// The second frame was dropped and the drop notice could not fit
	// either, so the buffer is empty now.
	select {
	case msg := <-c.Send:
		t.Fatalf("unexpected frame: %s", msg)
	default:
	}

	// With room in the buffer, a drop enqueues the notice instead.
	hub.Broadcast(7, []byte(`third`))
	hub.Broadcast(7, []byte(`fourth`))
	assert.Equal(t, []byte(`third`), <-c.Send)

	var notice ChatEvent
	require.NoError(t, json.Unmarshal(<-c.Send, &notice))
	assert.Equal(t, "messages_dropped", notice.Type)
}

func TestChatHubShutdownClearsRooms(t *testing.T) {
	hub := NewChatHub()
	c1 := newTestClient(hub, 1, 7, 8)
	c2 := newTestClient(hub, 2, 7, 8)
	hub.RegisterClient(c1)
	hub.RegisterClient(c2)

	require.NoError(t, hub.Shutdown(context.Background()))

	assert.Equal(t, 0, hub.ConnectionCount(7))
	_, open := <-c1.Send
	assert.False(t, open)
	_, open = <-c2.Send
	assert.False(t, open)
}

func TestNotifierPublishAndSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	notifier := NewNotifier(client)
	require.True(t, notifier.Enabled())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan ChatEvent, 1)
	go notifier.StartChatSubscriber(ctx, func(chatID uint, payload []byte) {
		var event ChatEvent
		if err := json.Unmarshal(payload, &event); err == nil && chatID == event.ChatID {
			received <- event
		}
	})

	// Give the pattern subscription time to land.
	require.Eventually(t, func() bool {
		err := notifier.PublishChatEvent(ctx, ChatEvent{Type: "message", ChatID: 12, Payload: map[string]string{"body": "yo"}})
		if err != nil {
			return false
		}
		select {
		case event := <-received:
			assert.Equal(t, uint(12), event.ChatID)
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 50*time.Millisecond)
}

func TestNotifierDisabledWithoutRedis(t *testing.T) {
	notifier := NewNotifier(nil)
	assert.False(t, notifier.Enabled())
	assert.Error(t, notifier.PublishChatEvent(context.Background(), ChatEvent{ChatID: 1}))
}

func TestParseChatChannel(t *testing.T) {
	id, err := parseChatChannel("match:chat:42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = parseChatChannel("match:chat:abc")
	assert.Error(t, err)
}
