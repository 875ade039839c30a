// Package service implements the business logic for matching and chat.
package service

import (
	"context"
	"errors"
	"log/slog"

	"kizuna/internal/middleware"
	"kizuna/internal/models"
	"kizuna/internal/observability"
	"kizuna/internal/repository"
)

// LikeResult reports the outcome of a like. MatchID and ChatID are set only
// when the like completed a reciprocal pair.
type LikeResult struct {
	Status  string `json:"status"`
	Matched bool   `json:"matched"`
	MatchID *uint  `json:"match_id"`
	ChatID  *uint  `json:"chat_id"`
}

// MatchSummary is the list shape for a user's matches.
type MatchSummary struct {
	MatchID   uint               `json:"match_id"`
	OtherUser models.UserSummary `json:"other_user"`
	CreatedAt string             `json:"created_at"`
}

// MatchService provides like and match business logic.
type MatchService struct {
	likeRepo  repository.LikeRepository
	matchRepo repository.MatchRepository
	chatRepo  repository.ChatRepository
	userRepo  repository.UserRepository
}

// NewMatchService returns a new MatchService.
func NewMatchService(
	likeRepo repository.LikeRepository,
	matchRepo repository.MatchRepository,
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
) *MatchService {
	return &MatchService{
		likeRepo:  likeRepo,
		matchRepo: matchRepo,
		chatRepo:  chatRepo,
		userRepo:  userRepo,
	}
}

// Like records a like from one user toward another. Re-liking is idempotent:
// an existing row is reactivated instead of duplicated. When the target holds
// an active like back, the pair is matched and a chat is opened; repeating
// the call returns the same match and chat IDs.
func (s *MatchService) Like(ctx context.Context, actorID, targetID uint) (*LikeResult, error) {
	if actorID == targetID {
		return nil, models.NewValidationError("Cannot like yourself")
	}

	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	like, err := s.likeRepo.GetByPair(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}

	switch {
	case like == nil:
		like = &models.Like{
			FromUserID: actorID,
			ToUserID:   targetID,
			Status:     models.LikeStatusActive,
		}
		if createErr := s.likeRepo.Create(ctx, like); createErr != nil {
			if !isConflict(createErr) {
				return nil, createErr
			}
			// Lost an insert race; the surviving row carries the like.
			like, err = s.likeRepo.GetByPair(ctx, actorID, targetID)
			if err != nil {
				return nil, err
			}
			if like == nil {
				return nil, models.NewInternalError(errors.New("like vanished after conflict"))
			}
		}
	case like.Status == models.LikeStatusWithdrawn:
		if err := s.likeRepo.UpdateStatus(ctx, like.ID, models.LikeStatusActive); err != nil {
			return nil, err
		}
	}

	result := &LikeResult{Status: "liked"}

	reciprocal, err := s.likeRepo.GetByPair(ctx, targetID, actorID)
	if err != nil {
		return nil, err
	}
	if reciprocal == nil || reciprocal.Status != models.LikeStatusActive {
		return result, nil
	}

	match, created, err := ensureMatch(ctx, s.matchRepo, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if created {
		observability.MatchesFormed.WithLabelValues("reciprocal_like").Inc()
		middleware.Logger.InfoContext(ctx, "match formed",
			slog.Any("match_id", match.ID),
			slog.Any("user_a", match.UserAID),
			slog.Any("user_b", match.UserBID),
		)
	}

	chat, err := ensureChat(ctx, s.chatRepo, match.ID)
	if err != nil {
		return nil, err
	}

	result.Matched = true
	result.MatchID = &match.ID
	result.ChatID = &chat.ID
	return result, nil
}

// WithdrawLike retracts a standing like. Existing matches are unaffected.
func (s *MatchService) WithdrawLike(ctx context.Context, actorID, targetID uint) error {
	like, err := s.likeRepo.GetByPair(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if like == nil || like.Status != models.LikeStatusActive {
		return models.NewNotFoundError("Like", targetID)
	}
	return s.likeRepo.UpdateStatus(ctx, like.ID, models.LikeStatusWithdrawn)
}

// ListMatches returns the user's active matches, newest first.
func (s *MatchService) ListMatches(ctx context.Context, userID uint) ([]MatchSummary, error) {
	matches, err := s.matchRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]MatchSummary, 0, len(matches))
	for _, m := range matches {
		other := m.UserA
		if m.UserAID == userID {
			other = m.UserB
		}
		summaries = append(summaries, MatchSummary{
			MatchID:   m.ID,
			OtherUser: other.Summary(),
			CreatedAt: m.CreatedAt.UTC().Format(timeFormat),
		})
	}
	return summaries, nil
}
