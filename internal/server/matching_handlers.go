// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"github.com/gofiber/fiber/v2"
)

// LikeUser handles POST /api/matching/likes/:userId
// @Summary Like a user
// @Description Record a like toward another user; a mutual like forms a match and opens a chat
// @Tags matching
// @Produce json
// @Param userId path int true "Target user ID"
// @Success 200 {object} service.LikeResult
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /matching/likes/{userId} [post]
func (s *Server) LikeUser(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	targetUserID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	result, err := s.matchService.Like(ctx, userID, targetUserID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(result)
}

// WithdrawLike handles DELETE /api/matching/likes/:userId
// @Summary Withdraw a like
// @Description Withdraw a previously given like; existing matches are not dissolved
// @Tags matching
// @Produce json
// @Param userId path int true "Target user ID"
// @Success 200 {object} object{status=string}
// @Failure 404 {object} object{error=string}
// @Router /matching/likes/{userId} [delete]
func (s *Server) WithdrawLike(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	targetUserID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.matchService.WithdrawLike(ctx, userID, targetUserID); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"status": "withdrawn"})
}

// GetMatches handles GET /api/matching/matches
// @Summary List matches
// @Description List the caller's active matches, newest first
// @Tags matching
// @Produce json
// @Success 200 {array} service.MatchSummary
// @Router /matching/matches [get]
func (s *Server) GetMatches(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	matches, err := s.matchService.ListMatches(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(matches)
}
