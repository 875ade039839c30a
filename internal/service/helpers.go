package service

import (
	"context"
	"errors"
	"time"

	"kizuna/internal/models"
	"kizuna/internal/repository"
)

const timeFormat = time.RFC3339Nano

// isConflict reports whether err is a CONFLICT AppError.
func isConflict(err error) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == "CONFLICT"
}

// ensureMatch returns the match between two users, creating it when absent.
// An insert that loses the uniqueness race falls back to the surviving row,
// so concurrent callers converge on the same match. The second return value
// reports whether this call created the row.
func ensureMatch(ctx context.Context, matchRepo repository.MatchRepository, userID1, userID2 uint) (*models.Match, bool, error) {
	existing, err := matchRepo.GetByPair(ctx, userID1, userID2)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	a, b := models.CanonicalPair(userID1, userID2)
	match := &models.Match{UserAID: a, UserBID: b, ActiveFlag: true}
	if createErr := matchRepo.Create(ctx, match); createErr != nil {
		if !isConflict(createErr) {
			return nil, false, createErr
		}
		existing, err = matchRepo.GetByPair(ctx, userID1, userID2)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, models.NewInternalError(errors.New("match vanished after conflict"))
		}
		return existing, false, nil
	}
	return match, true, nil
}

// ensureChat returns the chat for a match, creating it lazily. Races resolve
// the same way as ensureMatch.
func ensureChat(ctx context.Context, chatRepo repository.ChatRepository, matchID uint) (*models.Chat, error) {
	existing, err := chatRepo.GetByMatchID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	chat := &models.Chat{MatchID: matchID}
	if createErr := chatRepo.Create(ctx, chat); createErr != nil {
		if !isConflict(createErr) {
			return nil, createErr
		}
		existing, err = chatRepo.GetByMatchID(ctx, matchID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, models.NewInternalError(errors.New("chat vanished after conflict"))
		}
		return existing, nil
	}
	return chat, nil
}
