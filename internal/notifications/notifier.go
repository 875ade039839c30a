package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const chatChannelPrefix = "match:chat:"

// Notifier publishes chat events through Redis so every server instance
// sees them, regardless of which instance holds the socket. With a nil
// Redis client it degrades to a no-op and the caller should broadcast
// locally instead.
type Notifier struct {
	redis *redis.Client
}

func NewNotifier(redisClient *redis.Client) *Notifier {
	return &Notifier{redis: redisClient}
}

// Enabled reports whether cross-instance delivery is available.
func (n *Notifier) Enabled() bool {
	return n != nil && n.redis != nil
}

// PublishChatEvent pushes an event onto the chat's channel.
func (n *Notifier) PublishChatEvent(ctx context.Context, event ChatEvent) error {
	if !n.Enabled() {
		return fmt.Errorf("notifier disabled, no redis client")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal chat event: %w", err)
	}

	channel := chatChannelPrefix + strconv.FormatUint(uint64(event.ChatID), 10)
	if err := n.redis.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

// StartChatSubscriber listens on every chat channel and hands each frame
// to the callback together with the chat it belongs to. Blocks until ctx
// is cancelled.
func (n *Notifier) StartChatSubscriber(ctx context.Context, handle func(chatID uint, payload []byte)) {
	if !n.Enabled() {
		slog.Warn("chat subscriber not started, no redis client")
		return
	}

	pubsub := n.redis.PSubscribe(ctx, chatChannelPrefix+"*")
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	slog.Info("chat subscriber started", "pattern", chatChannelPrefix+"*")

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			chatID, err := parseChatChannel(msg.Channel)
			if err != nil {
				slog.Error("ignoring message on malformed channel", "channel", msg.Channel, "error", err)
				continue
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						slog.Error("panic in chat event handler", "chat_id", chatID, "panic", r)
					}
				}()
				handle(chatID, []byte(msg.Payload))
			}()
		}
	}
}

func parseChatChannel(channel string) (uint, error) {
	raw := strings.TrimPrefix(channel, chatChannelPrefix)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat channel %q: %w", channel, err)
	}
	return uint(id), nil
}
