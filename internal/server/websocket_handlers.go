// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"kizuna/internal/models"
	"kizuna/internal/notifications"
	"kizuna/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// wsTicketTTL bounds the window between ticket issuance and the socket dial.
const wsTicketTTL = 30 * time.Second

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue a WebSocket ticket
// @Description Issue a short-lived single-use ticket for authenticating a WebSocket dial
// @Tags websocket
// @Produce json
// @Success 200 {object} object{ticket=string,expires_in=int}
// @Failure 503 {object} object{error=string}
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(fmt.Errorf("ticket issuance requires redis")))
	}

	ticket := uuid.NewString()
	key := fmt.Sprintf("ws_ticket:%s", ticket)
	if err := s.redis.Set(c.Context(), key, strconv.FormatUint(uint64(userID), 10), wsTicketTTL).Err(); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// WebSocketChatHandler handles WebSocket connections for one chat's live channel.
// The chat is chosen with the chat_id query parameter; membership is verified
// before the socket joins the room, and violations close with policy code 1008.
func (s *Server) WebSocketChatHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()

		// Get userID from context locals (set by AuthRequired middleware)
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			log.Printf("WebSocket Chat: Unauthenticated connection attempt")
			closeWithPolicyViolation(conn, "unauthorized")
			return
		}
		userID := userIDVal.(uint)

		chatIDRaw, err := strconv.ParseUint(conn.Query("chat_id"), 10, 32)
		if err != nil || chatIDRaw == 0 {
			closeWithPolicyViolation(conn, "chat_id query parameter required")
			return
		}
		chatID := uint(chatIDRaw)

		// Reject outsiders before the socket joins the room.
		if _, err := s.chatService.Authorize(ctx, chatID, userID); err != nil {
			log.Printf("WebSocket Chat: User %d denied for chat %d: %v", userID, chatID, err)
			closeWithPolicyViolation(conn, "not a member of this chat")
			return
		}

		if s.chatHub == nil {
			_ = conn.Close()
			return
		}

		client := notifications.NewClient(s.chatHub, conn, userID, chatID)
		s.chatHub.RegisterClient(client)

		client.IncomingHandler = func(c *notifications.Client, raw []byte) {
			var incoming struct {
				Body     string `json:"body"`
				ImageURL string `json:"image_url"`
			}
			if err := json.Unmarshal(raw, &incoming); err != nil {
				log.Printf("WebSocket Chat: Invalid frame from user %d", userID)
				return
			}

			message, err := s.chatService.SendMessage(ctx, service.SendMessageInput{
				ChatID:   chatID,
				SenderID: userID,
				Body:     incoming.Body,
				ImageURL: incoming.ImageURL,
			})
			if err != nil {
				response := notifications.ChatEvent{
					Type:    "error",
					ChatID:  chatID,
					Payload: map[string]string{"message": err.Error()},
				}
				if respJSON, merr := json.Marshal(response); merr == nil {
					c.TrySend(respJSON)
				}
				return
			}

			event := notifications.ChatEvent{
				Type:    "message",
				ChatID:  chatID,
				Payload: message,
			}

			// Redis delivers to every instance, including this one; the
			// local hub is the single-instance fallback.
			if s.notifier.Enabled() {
				if perr := s.notifier.PublishChatEvent(ctx, event); perr != nil {
					log.Printf("publish chat message error: %v", perr)
				}
				return
			}
			s.chatHub.BroadcastEvent(event)
		}

		// Send welcome message
		welcome := notifications.ChatEvent{
			Type:    "connected",
			ChatID:  chatID,
			Payload: map[string]interface{}{"user_id": userID},
		}
		if welcomeJSON, err := json.Marshal(welcome); err == nil {
			client.TrySend(welcomeJSON)
		}

		// Start write pump in a goroutine
		go client.WritePump()

		// Read pump runs in the main handler goroutine (blocking)
		client.ReadPump()
	})
}

func closeWithPolicyViolation(conn *websocket.Conn, reason string) {
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason))
	_ = conn.Close()
}
