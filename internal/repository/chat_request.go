package repository

import (
	"context"
	"errors"
	"time"

	"kizuna/internal/models"

	"gorm.io/gorm"
)

// ChatRequestRepository defines the interface for chat-request data operations
type ChatRequestRepository interface {
	Create(ctx context.Context, request *models.ChatRequest) error
	GetByID(ctx context.Context, id uint) (*models.ChatRequest, error)
	GetPendingByPair(ctx context.Context, fromUserID, toUserID uint) (*models.ChatRequest, error)
	ListIncoming(ctx context.Context, toUserID uint) ([]models.ChatRequest, error)
	ListOutgoing(ctx context.Context, fromUserID uint) ([]models.ChatRequest, error)
	UpdateStatus(ctx context.Context, requestID uint, status models.ChatRequestStatus, respondedAt time.Time) error
	CreateMessage(ctx context.Context, message *models.ChatRequestMessage) error
	ListMessages(ctx context.Context, requestID uint) ([]models.ChatRequestMessage, error)
	ListUnmigratedMessages(ctx context.Context, requestID uint) ([]models.ChatRequestMessage, error)
	MarkMessageMigrated(ctx context.Context, messageID uint, at time.Time) error
}

// chatRequestRepository implements ChatRequestRepository
type chatRequestRepository struct {
	db *gorm.DB
}

// NewChatRequestRepository creates a new chat-request repository
func NewChatRequestRepository(db *gorm.DB) ChatRequestRepository {
	return &chatRequestRepository{db: db}
}

func (r *chatRequestRepository) Create(ctx context.Context, request *models.ChatRequest) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return translateWriteError(err, "A pending chat request toward this user already exists")
	}
	return nil
}

func (r *chatRequestRepository) GetByID(ctx context.Context, id uint) (*models.ChatRequest, error) {
	var request models.ChatRequest
	if err := r.db.WithContext(ctx).
		Preload("FromUser").
		Preload("ToUser").
		First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Chat request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &request, nil
}

// GetPendingByPair returns the pending request from one user to another, or
// nil when no pending row exists. Terminal rows are ignored so a sender can
// ask again after a decline.
func (r *chatRequestRepository) GetPendingByPair(ctx context.Context, fromUserID, toUserID uint) (*models.ChatRequest, error) {
	var request models.ChatRequest
	if err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ? AND status = ?",
			fromUserID, toUserID, models.ChatRequestStatusPending).
		First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &request, nil
}

func (r *chatRequestRepository) ListIncoming(ctx context.Context, toUserID uint) ([]models.ChatRequest, error) {
	var requests []models.ChatRequest
	if err := r.db.WithContext(ctx).
		Where("to_user_id = ?", toUserID).
		Preload("FromUser").
		Preload("ToUser").
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

func (r *chatRequestRepository) ListOutgoing(ctx context.Context, fromUserID uint) ([]models.ChatRequest, error) {
	var requests []models.ChatRequest
	if err := r.db.WithContext(ctx).
		Where("from_user_id = ?", fromUserID).
		Preload("FromUser").
		Preload("ToUser").
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

func (r *chatRequestRepository) UpdateStatus(ctx context.Context, requestID uint, status models.ChatRequestStatus, respondedAt time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&models.ChatRequest{}).
		Where("id = ?", requestID).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": respondedAt,
		}).Error; err != nil {
		return translateWriteError(err, "Chat request was already resolved")
	}
	return nil
}

func (r *chatRequestRepository) CreateMessage(ctx context.Context, message *models.ChatRequestMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *chatRequestRepository) ListMessages(ctx context.Context, requestID uint) ([]models.ChatRequestMessage, error) {
	var messages []models.ChatRequestMessage
	if err := r.db.WithContext(ctx).
		Where("chat_request_id = ?", requestID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

// ListUnmigratedMessages returns pending messages that have not yet been
// copied into the real chat.
func (r *chatRequestRepository) ListUnmigratedMessages(ctx context.Context, requestID uint) ([]models.ChatRequestMessage, error) {
	var messages []models.ChatRequestMessage
	if err := r.db.WithContext(ctx).
		Where("chat_request_id = ? AND migrated_at IS NULL", requestID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

func (r *chatRequestRepository) MarkMessageMigrated(ctx context.Context, messageID uint, at time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&models.ChatRequestMessage{}).
		Where("id = ?", messageID).
		Update("migrated_at", at).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
