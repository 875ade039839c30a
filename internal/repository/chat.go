package repository

import (
	"context"
	"errors"
	"time"

	"kizuna/internal/models"

	"gorm.io/gorm"
)

// ChatRepository defines the interface for chat and message data operations
type ChatRepository interface {
	Create(ctx context.Context, chat *models.Chat) error
	GetByID(ctx context.Context, id uint) (*models.Chat, error)
	GetByMatchID(ctx context.Context, matchID uint) (*models.Chat, error)
	CreateMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, chatID uint, limit, offset int) ([]models.Message, error)
	LastMessage(ctx context.Context, chatID uint) (*models.Message, error)
	MessageExists(ctx context.Context, chatID, senderID uint, body string, createdAt time.Time) (bool, error)
	MarkRead(ctx context.Context, chatID, readerID uint, at time.Time) error
}

// chatRepository implements ChatRepository
type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Create(ctx context.Context, chat *models.Chat) error {
	if err := r.db.WithContext(ctx).Create(chat).Error; err != nil {
		return translateWriteError(err, "Chat already exists for this match")
	}
	return nil
}

func (r *chatRepository) GetByID(ctx context.Context, id uint) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.WithContext(ctx).
		Preload("Match").
		First(&chat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Chat", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &chat, nil
}

// GetByMatchID returns the chat attached to a match, or nil when it has not
// been created yet.
func (r *chatRepository) GetByMatchID(ctx context.Context, matchID uint) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		First(&chat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &chat, nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListMessages returns messages in chronological order. ID breaks ties for
// messages persisted in the same instant.
func (r *chatRepository) ListMessages(ctx context.Context, chatID uint, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	if err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

// LastMessage returns the most recent message in the chat, or nil for an
// empty chat.
func (r *chatRepository) LastMessage(ctx context.Context, chatID uint) (*models.Message, error) {
	var message models.Message
	if err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC").
		First(&message).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &message, nil
}

// MessageExists checks for a message with identical provenance. Used by the
// chat-request migration to keep message copies idempotent.
func (r *chatRepository) MessageExists(ctx context.Context, chatID, senderID uint, body string, createdAt time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("chat_id = ? AND sender_id = ? AND body = ? AND created_at = ?", chatID, senderID, body, createdAt).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// MarkRead stamps read_at on all unread messages in the chat that the reader
// did not send.
func (r *chatRepository) MarkRead(ctx context.Context, chatID, readerID uint, at time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("chat_id = ? AND sender_id <> ? AND read_at IS NULL", chatID, readerID).
		Update("read_at", at).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
