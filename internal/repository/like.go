package repository

import (
	"context"
	"errors"

	"kizuna/internal/models"

	"gorm.io/gorm"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	Create(ctx context.Context, like *models.Like) error
	GetByPair(ctx context.Context, fromUserID, toUserID uint) (*models.Like, error)
	UpdateStatus(ctx context.Context, likeID uint, status models.LikeStatus) error
}

// likeRepository implements LikeRepository
type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Create(ctx context.Context, like *models.Like) error {
	if err := r.db.WithContext(ctx).Create(like).Error; err != nil {
		return translateWriteError(err, "Like already exists for this pair")
	}
	return nil
}

// GetByPair returns the directed like from one user to another, or nil when
// no row exists.
func (r *likeRepository) GetByPair(ctx context.Context, fromUserID, toUserID uint) (*models.Like, error) {
	var like models.Like
	if err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ?", fromUserID, toUserID).
		First(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &like, nil
}

func (r *likeRepository) UpdateStatus(ctx context.Context, likeID uint, status models.LikeStatus) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("id = ?", likeID).
		Update("status", status).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
