package service

import (
	"context"
	"time"

	"kizuna/internal/models"
	"kizuna/internal/repository"
)

const maxMessageBodyLen = 10000

// ChatSummary is the list shape for a user's chats.
type ChatSummary struct {
	ChatID      uint               `json:"chat_id"`
	MatchID     uint               `json:"match_id"`
	OtherUser   models.UserSummary `json:"other_user"`
	LastMessage *models.Message    `json:"last_message"`
}

// SendMessageInput carries the payload for persisting a chat message.
type SendMessageInput struct {
	ChatID   uint
	SenderID uint
	Body     string
	ImageURL string
}

// ChatService provides chat and message business logic.
type ChatService struct {
	chatRepo  repository.ChatRepository
	matchRepo repository.MatchRepository
	userRepo  repository.UserRepository
}

// NewChatService returns a new ChatService.
func NewChatService(
	chatRepo repository.ChatRepository,
	matchRepo repository.MatchRepository,
	userRepo repository.UserRepository,
) *ChatService {
	return &ChatService{
		chatRepo:  chatRepo,
		matchRepo: matchRepo,
		userRepo:  userRepo,
	}
}

// Authorize loads the chat and verifies the user is one side of its match.
// Unknown chats yield NOT_FOUND; known chats the user does not belong to
// yield FORBIDDEN.
func (s *ChatService) Authorize(ctx context.Context, chatID, userID uint) (*models.Chat, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.Match.Involves(userID) {
		return nil, models.NewForbiddenError("You are not a member of this chat")
	}
	return chat, nil
}

// EnsureChat opens (or returns) the chat with another user. The pair must
// already be matched.
func (s *ChatService) EnsureChat(ctx context.Context, userID, otherUserID uint) (*models.Chat, error) {
	if userID == otherUserID {
		return nil, models.NewValidationError("Cannot open a chat with yourself")
	}

	match, err := s.matchRepo.GetByPair(ctx, userID, otherUserID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, models.NewNotFoundError("Match", otherUserID)
	}

	return ensureChat(ctx, s.chatRepo, match.ID)
}

// ListChats returns a chat summary per active match, newest match first.
// Chats that have not been touched yet are created on the way out so the
// listing and the detail endpoints agree on IDs.
func (s *ChatService) ListChats(ctx context.Context, userID uint) ([]ChatSummary, error) {
	matches, err := s.matchRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ChatSummary, 0, len(matches))
	for _, m := range matches {
		chat, err := ensureChat(ctx, s.chatRepo, m.ID)
		if err != nil {
			return nil, err
		}

		last, err := s.chatRepo.LastMessage(ctx, chat.ID)
		if err != nil {
			return nil, err
		}

		other := m.UserA
		if m.UserAID == userID {
			other = m.UserB
		}
		summaries = append(summaries, ChatSummary{
			ChatID:      chat.ID,
			MatchID:     m.ID,
			OtherUser:   other.Summary(),
			LastMessage: last,
		})
	}
	return summaries, nil
}

// Messages returns the chat's messages in chronological order.
func (s *ChatService) Messages(ctx context.Context, chatID, userID uint, limit, offset int) ([]models.Message, error) {
	if _, err := s.Authorize(ctx, chatID, userID); err != nil {
		return nil, err
	}
	return s.chatRepo.ListMessages(ctx, chatID, limit, offset)
}

// SendMessage persists a message after re-verifying chat membership.
func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) (*models.Message, error) {
	if _, err := s.Authorize(ctx, input.ChatID, input.SenderID); err != nil {
		return nil, err
	}

	if input.Body == "" && input.ImageURL == "" {
		return nil, models.NewValidationError("Message requires a body or an image")
	}
	if len(input.Body) > maxMessageBodyLen {
		return nil, models.NewValidationError("Message body is too long")
	}

	message := &models.Message{
		ChatID:   input.ChatID,
		SenderID: input.SenderID,
		Body:     input.Body,
		ImageURL: input.ImageURL,
	}
	if err := s.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// MarkRead stamps the counterpart's unread messages as read.
func (s *ChatService) MarkRead(ctx context.Context, chatID, userID uint) error {
	if _, err := s.Authorize(ctx, chatID, userID); err != nil {
		return err
	}
	return s.chatRepo.MarkRead(ctx, chatID, userID, time.Now().UTC())
}
