// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"log"

	"kizuna/internal/models"
	"kizuna/internal/notifications"
	"kizuna/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetChats handles GET /api/matching/chats
// @Summary List chats
// @Description List one chat per active match with the latest message preview
// @Tags chats
// @Produce json
// @Success 200 {array} service.ChatSummary
// @Router /matching/chats [get]
func (s *Server) GetChats(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	chats, err := s.chatService.ListChats(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(chats)
}

// EnsureChat handles POST /api/matching/chats/ensure/:userId
// @Summary Open the chat with a matched user
// @Description Return the chat for the match with the given user, creating it if needed
// @Tags chats
// @Produce json
// @Param userId path int true "Matched user ID"
// @Success 200 {object} models.Chat
// @Failure 404 {object} object{error=string}
// @Router /matching/chats/ensure/{userId} [post]
func (s *Server) EnsureChat(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	otherUserID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	chat, err := s.chatService.EnsureChat(ctx, userID, otherUserID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(chat)
}

// GetChatMessages handles GET /api/matching/chats/:id/messages
// @Summary List chat messages
// @Description List messages in a chat, oldest first
// @Tags chats
// @Produce json
// @Param id path int true "Chat ID"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Message
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /matching/chats/{id}/messages [get]
func (s *Server) GetChatMessages(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	chatID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page := parsePagination(c, 50)
	messages, err := s.chatService.Messages(ctx, chatID, userID, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(messages)
}

// SendChatMessage handles POST /api/matching/chats/:id/messages
// @Summary Send a chat message
// @Description Persist a message and fan it out to every live socket on the chat
// @Tags chats
// @Accept json
// @Produce json
// @Param id path int true "Chat ID"
// @Param request body object{body=string,image_url=string} true "Message payload"
// @Success 201 {object} models.Message
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Router /matching/chats/{id}/messages [post]
func (s *Server) SendChatMessage(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	chatID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Body     string `json:"body"`
		ImageURL string `json:"image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	message, err := s.chatService.SendMessage(ctx, service.SendMessageInput{
		ChatID:   chatID,
		SenderID: userID,
		Body:     req.Body,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	s.broadcastChatMessage(c, message)

	return c.Status(fiber.StatusCreated).JSON(message)
}

// MarkChatRead handles POST /api/matching/chats/:id/read
// @Summary Mark a chat as read
// @Description Stamp every unread message from the other user as read
// @Tags chats
// @Produce json
// @Param id path int true "Chat ID"
// @Success 200 {object} object{status=string}
// @Failure 403 {object} object{error=string}
// @Router /matching/chats/{id}/read [post]
func (s *Server) MarkChatRead(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	chatID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.chatService.MarkRead(ctx, chatID, userID); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"status": "read"})
}

// broadcastChatMessage fans a persisted message out to live sockets. With
// Redis the event goes through pub/sub so every instance delivers it; the
// local hub is the fallback for single-instance deployments.
func (s *Server) broadcastChatMessage(c *fiber.Ctx, message *models.Message) {
	event := notifications.ChatEvent{
		Type:    "message",
		ChatID:  message.ChatID,
		Payload: message,
	}

	if s.notifier.Enabled() {
		if err := s.notifier.PublishChatEvent(c.Context(), event); err != nil {
			log.Printf("publish chat message error: %v", err)
		}
		return
	}

	if s.chatHub != nil {
		s.chatHub.BroadcastEvent(event)
	}
}
