package repository

import (
	"context"
	"errors"

	"kizuna/internal/models"

	"gorm.io/gorm"
)

// MatchRepository defines the interface for match data operations
type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id uint) (*models.Match, error)
	GetByPair(ctx context.Context, userID1, userID2 uint) (*models.Match, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Match, error)
}

// matchRepository implements MatchRepository
type matchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) Create(ctx context.Context, match *models.Match) error {
	// Enforce canonical ordering before hitting the unique index.
	match.UserAID, match.UserBID = models.CanonicalPair(match.UserAID, match.UserBID)
	if err := r.db.WithContext(ctx).Create(match).Error; err != nil {
		return translateWriteError(err, "Match already exists for this pair")
	}
	return nil
}

func (r *matchRepository) GetByID(ctx context.Context, id uint) (*models.Match, error) {
	var match models.Match
	if err := r.db.WithContext(ctx).
		Preload("UserA").
		Preload("UserB").
		First(&match, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Match", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &match, nil
}

// GetByPair returns the match between two users regardless of argument order,
// or nil when none exists.
func (r *matchRepository) GetByPair(ctx context.Context, userID1, userID2 uint) (*models.Match, error) {
	a, b := models.CanonicalPair(userID1, userID2)

	var match models.Match
	if err := r.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", a, b).
		First(&match).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &match, nil
}

func (r *matchRepository) ListForUser(ctx context.Context, userID uint) ([]models.Match, error) {
	var matches []models.Match
	if err := r.db.WithContext(ctx).
		Where("active_flag = ? AND (user_a_id = ? OR user_b_id = ?)", true, userID, userID).
		Preload("UserA").
		Preload("UserB").
		Order("created_at DESC").
		Find(&matches).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return matches, nil
}
