package service

import (
	"context"
	"log/slog"
	"time"

	"kizuna/internal/middleware"
	"kizuna/internal/models"
	"kizuna/internal/observability"
	"kizuna/internal/repository"
)

// ChatRequestResult wraps a chat request with a created/existing tag so
// repeated sends stay idempotent at the API surface.
type ChatRequestResult struct {
	Request *models.ChatRequest `json:"request"`
	Created bool                `json:"created"`
}

// AcceptResult reports the chat opened by accepting a request.
type AcceptResult struct {
	Request *models.ChatRequest `json:"request"`
	ChatID  uint                `json:"chat_id"`
	MatchID uint                `json:"match_id"`
}

// ChatRequestSummary is the list shape for incoming and outgoing requests.
type ChatRequestSummary struct {
	ID             uint                     `json:"id"`
	FromUser       models.UserSummary       `json:"from_user"`
	ToUser         models.UserSummary       `json:"to_user"`
	Status         models.ChatRequestStatus `json:"status"`
	InitialMessage string                   `json:"initial_message"`
	CreatedAt      string                   `json:"created_at"`
	RespondedAt    *string                  `json:"responded_at,omitempty"`
}

// ChatRequestService provides the pre-match chat handshake business logic.
type ChatRequestService struct {
	requestRepo repository.ChatRequestRepository
	matchRepo   repository.MatchRepository
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
}

// NewChatRequestService returns a new ChatRequestService.
func NewChatRequestService(
	requestRepo repository.ChatRequestRepository,
	matchRepo repository.MatchRepository,
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
) *ChatRequestService {
	return &ChatRequestService{
		requestRepo: requestRepo,
		matchRepo:   matchRepo,
		chatRepo:    chatRepo,
		userRepo:    userRepo,
	}
}

// Send creates a pending chat request toward another user. When one already
// exists it is returned unchanged with Created=false. A decline does not
// block a later request; an accepted pair is already matched and is told so.
func (s *ChatRequestService) Send(ctx context.Context, fromUserID, toUserID uint, initialMessage string) (*ChatRequestResult, error) {
	if fromUserID == toUserID {
		return nil, models.NewValidationError("Cannot send a chat request to yourself")
	}
	if len(initialMessage) > maxMessageBodyLen {
		return nil, models.NewValidationError("Initial message is too long")
	}

	if _, err := s.userRepo.GetByID(ctx, toUserID); err != nil {
		return nil, err
	}

	match, err := s.matchRepo.GetByPair(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if match != nil {
		return nil, models.NewConflictError("You are already matched with this user")
	}

	existing, err := s.requestRepo.GetPendingByPair(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &ChatRequestResult{Request: existing, Created: false}, nil
	}

	request := &models.ChatRequest{
		FromUserID:     fromUserID,
		ToUserID:       toUserID,
		Status:         models.ChatRequestStatusPending,
		InitialMessage: initialMessage,
	}
	if createErr := s.requestRepo.Create(ctx, request); createErr != nil {
		if !isConflict(createErr) {
			return nil, createErr
		}
		existing, err = s.requestRepo.GetPendingByPair(ctx, fromUserID, toUserID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &ChatRequestResult{Request: existing, Created: false}, nil
		}
		return nil, createErr
	}

	return &ChatRequestResult{Request: request, Created: true}, nil
}

// Accept resolves a pending request: only the recipient may accept, the pair
// is matched, a chat is opened, and every pending message migrates into it.
// Accepting an already-accepted request re-runs the idempotent tail and
// returns the same chat; a declined request is terminal.
func (s *ChatRequestService) Accept(ctx context.Context, requestID, responderID uint) (*AcceptResult, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.ToUserID != responderID {
		return nil, models.NewForbiddenError("Only the recipient can accept a chat request")
	}

	switch request.Status {
	case models.ChatRequestStatusDeclined:
		return nil, models.NewConflictError("Chat request was already declined")
	case models.ChatRequestStatusPending:
		if err := s.requestRepo.UpdateStatus(ctx, requestID, models.ChatRequestStatusAccepted, time.Now().UTC()); err != nil {
			return nil, err
		}
		observability.ChatRequestsResolved.WithLabelValues("accepted").Inc()
	}

	match, created, err := ensureMatch(ctx, s.matchRepo, request.FromUserID, request.ToUserID)
	if err != nil {
		return nil, err
	}
	if created {
		observability.MatchesFormed.WithLabelValues("chat_request").Inc()
		middleware.Logger.InfoContext(ctx, "match formed from chat request",
			slog.Any("match_id", match.ID),
			slog.Any("request_id", requestID),
		)
	}

	chat, err := ensureChat(ctx, s.chatRepo, match.ID)
	if err != nil {
		return nil, err
	}

	if err := s.migrateMessages(ctx, request, chat.ID); err != nil {
		return nil, err
	}

	request.Status = models.ChatRequestStatusAccepted
	return &AcceptResult{Request: request, ChatID: chat.ID, MatchID: match.ID}, nil
}

// migrateMessages copies the initial message and every un-migrated pending
// message into the chat. Copies are keyed by sender, body, and original
// timestamp, so re-running after a partial failure never duplicates rows.
func (s *ChatRequestService) migrateMessages(ctx context.Context, request *models.ChatRequest, chatID uint) error {
	now := time.Now().UTC()

	if request.InitialMessage != "" {
		exists, err := s.chatRepo.MessageExists(ctx, chatID, request.FromUserID, request.InitialMessage, request.CreatedAt)
		if err != nil {
			return err
		}
		if !exists {
			if err := s.chatRepo.CreateMessage(ctx, &models.Message{
				ChatID:    chatID,
				SenderID:  request.FromUserID,
				Body:      request.InitialMessage,
				CreatedAt: request.CreatedAt,
			}); err != nil {
				return err
			}
		}
	}

	pending, err := s.requestRepo.ListUnmigratedMessages(ctx, request.ID)
	if err != nil {
		return err
	}
	for _, pm := range pending {
		exists, err := s.chatRepo.MessageExists(ctx, chatID, pm.SenderID, pm.Content, pm.CreatedAt)
		if err != nil {
			return err
		}
		if !exists {
			if err := s.chatRepo.CreateMessage(ctx, &models.Message{
				ChatID:    chatID,
				SenderID:  pm.SenderID,
				Body:      pm.Content,
				ImageURL:  pm.ImageURL,
				CreatedAt: pm.CreatedAt,
			}); err != nil {
				return err
			}
		}
		if err := s.requestRepo.MarkMessageMigrated(ctx, pm.ID, now); err != nil {
			return err
		}
	}
	return nil
}

// Decline resolves a pending request without opening a chat. Declining twice
// is a no-op; declining an accepted request is a conflict.
func (s *ChatRequestService) Decline(ctx context.Context, requestID, responderID uint) (*models.ChatRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.ToUserID != responderID {
		return nil, models.NewForbiddenError("Only the recipient can decline a chat request")
	}

	switch request.Status {
	case models.ChatRequestStatusAccepted:
		return nil, models.NewConflictError("Chat request was already accepted")
	case models.ChatRequestStatusDeclined:
		return request, nil
	}

	if err := s.requestRepo.UpdateStatus(ctx, requestID, models.ChatRequestStatusDeclined, time.Now().UTC()); err != nil {
		return nil, err
	}
	observability.ChatRequestsResolved.WithLabelValues("declined").Inc()

	request.Status = models.ChatRequestStatusDeclined
	return request, nil
}

// SendPendingMessage appends a message to a request that is still pending.
// Only the original sender may write before the recipient responds.
func (s *ChatRequestService) SendPendingMessage(ctx context.Context, requestID, senderID uint, content, imageURL string) (*models.ChatRequestMessage, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.FromUserID != senderID {
		if request.ToUserID == senderID {
			return nil, models.NewForbiddenError("Only the requester can send messages while the request is pending")
		}
		return nil, models.NewForbiddenError("You are not part of this chat request")
	}
	if request.IsTerminal() {
		return nil, models.NewConflictError("Chat request is no longer pending")
	}

	if content == "" && imageURL == "" {
		return nil, models.NewValidationError("Message requires content or an image")
	}
	if len(content) > maxMessageBodyLen {
		return nil, models.NewValidationError("Message content is too long")
	}

	message := &models.ChatRequestMessage{
		ChatRequestID: requestID,
		SenderID:      senderID,
		Content:       content,
		ImageURL:      imageURL,
	}
	if err := s.requestRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// Messages returns the pending messages of a request. Both parties may read.
func (s *ChatRequestService) Messages(ctx context.Context, requestID, callerID uint) ([]models.ChatRequestMessage, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.FromUserID != callerID && request.ToUserID != callerID {
		return nil, models.NewForbiddenError("You are not part of this chat request")
	}
	return s.requestRepo.ListMessages(ctx, requestID)
}

// ListIncoming returns requests addressed to the user, newest first.
func (s *ChatRequestService) ListIncoming(ctx context.Context, userID uint) ([]ChatRequestSummary, error) {
	requests, err := s.requestRepo.ListIncoming(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summarizeRequests(requests), nil
}

// ListOutgoing returns requests the user sent, newest first.
func (s *ChatRequestService) ListOutgoing(ctx context.Context, userID uint) ([]ChatRequestSummary, error) {
	requests, err := s.requestRepo.ListOutgoing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summarizeRequests(requests), nil
}

func summarizeRequests(requests []models.ChatRequest) []ChatRequestSummary {
	summaries := make([]ChatRequestSummary, 0, len(requests))
	for _, r := range requests {
		summary := ChatRequestSummary{
			ID:             r.ID,
			FromUser:       r.FromUser.Summary(),
			ToUser:         r.ToUser.Summary(),
			Status:         r.Status,
			InitialMessage: r.InitialMessage,
			CreatedAt:      r.CreatedAt.UTC().Format(timeFormat),
		}
		if r.RespondedAt != nil {
			responded := r.RespondedAt.UTC().Format(timeFormat)
			summary.RespondedAt = &responded
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
