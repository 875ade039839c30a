// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"kizuna/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SendChatRequest handles POST /api/matching/chat-requests/:userId
// @Summary Send a chat request
// @Description Ask another user to chat before any match exists, optionally with an opening message
// @Tags chat-requests
// @Accept json
// @Produce json
// @Param userId path int true "Recipient user ID"
// @Param request body object{message=string} false "Opening message"
// @Success 200 {object} models.ChatRequest "Existing pending request"
// @Success 201 {object} models.ChatRequest
// @Failure 400 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /matching/chat-requests/{userId} [post]
func (s *Server) SendChatRequest(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	targetUserID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	var req struct {
		Message string `json:"message"`
	}
	// Body is optional; a bare request carries no opening message.
	_ = c.BodyParser(&req)

	result, err := s.chatRequestService.Send(ctx, userID, targetUserID, req.Message)
	if err != nil {
		return respondServiceError(c, err)
	}

	status := fiber.StatusOK
	if result.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(result.Request)
}

// GetIncomingChatRequests handles GET /api/matching/chat-requests/incoming
// @Summary List incoming chat requests
// @Tags chat-requests
// @Produce json
// @Success 200 {array} service.ChatRequestSummary
// @Router /matching/chat-requests/incoming [get]
func (s *Server) GetIncomingChatRequests(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	requests, err := s.chatRequestService.ListIncoming(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(requests)
}

// GetOutgoingChatRequests handles GET /api/matching/chat-requests/outgoing
// @Summary List outgoing chat requests
// @Tags chat-requests
// @Produce json
// @Success 200 {array} service.ChatRequestSummary
// @Router /matching/chat-requests/outgoing [get]
func (s *Server) GetOutgoingChatRequests(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	requests, err := s.chatRequestService.ListOutgoing(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(requests)
}

// AcceptChatRequest handles POST /api/matching/chat-requests/:requestId/accept
// @Summary Accept a chat request
// @Description Accept a request, form the match, open the chat and migrate pending messages into it
// @Tags chat-requests
// @Produce json
// @Param requestId path int true "Chat request ID"
// @Success 200 {object} object{request=models.ChatRequest,match_id=int,chat_id=int}
// @Failure 403 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /matching/chat-requests/{requestId}/accept [post]
func (s *Server) AcceptChatRequest(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	result, err := s.chatRequestService.Accept(ctx, requestID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"request":  result.Request,
		"match_id": result.MatchID,
		"chat_id":  result.ChatID,
	})
}

// DeclineChatRequest handles POST /api/matching/chat-requests/:requestId/decline
// @Summary Decline a chat request
// @Description Decline a pending request; the requester may ask again later
// @Tags chat-requests
// @Produce json
// @Param requestId path int true "Chat request ID"
// @Success 200 {object} models.ChatRequest
// @Failure 403 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /matching/chat-requests/{requestId}/decline [post]
func (s *Server) DeclineChatRequest(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	request, err := s.chatRequestService.Decline(ctx, requestID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(request)
}

// GetChatRequestMessages handles GET /api/matching/chat-requests/:requestId/messages
// @Summary List pending messages on a chat request
// @Tags chat-requests
// @Produce json
// @Param requestId path int true "Chat request ID"
// @Success 200 {array} models.ChatRequestMessage
// @Failure 403 {object} object{error=string}
// @Router /matching/chat-requests/{requestId}/messages [get]
func (s *Server) GetChatRequestMessages(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	messages, err := s.chatRequestService.Messages(ctx, requestID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(messages)
}

// SendChatRequestMessage handles POST /api/matching/chat-requests/:requestId/messages
// @Summary Send a pending message on a chat request
// @Description Only the requester may write while the request is pending; messages move into the chat on accept
// @Tags chat-requests
// @Accept json
// @Produce json
// @Param requestId path int true "Chat request ID"
// @Param request body object{content=string,image_url=string} true "Message payload"
// @Success 201 {object} models.ChatRequestMessage
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /matching/chat-requests/{requestId}/messages [post]
func (s *Server) SendChatRequestMessage(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	var req struct {
		Content  string `json:"content"`
		ImageURL string `json:"image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	message, err := s.chatRequestService.SendPendingMessage(ctx, requestID, userID, req.Content, req.ImageURL)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(message)
}
