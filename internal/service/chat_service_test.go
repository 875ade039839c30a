package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"kizuna/internal/models"
)

func chatWithMembers(chatID, matchID, a, b uint) *models.Chat {
	return &models.Chat{
		ID:      chatID,
		MatchID: matchID,
		Match:   models.Match{ID: matchID, UserAID: a, UserBID: b},
	}
}

func TestChatServiceAuthorizeOutsider(t *testing.T) {
	chats := noopChatRepo()
	chats.getByIDFn = func(context.Context, uint) (*models.Chat, error) {
		return chatWithMembers(1, 1, 10, 11), nil
	}

	svc := NewChatService(chats, noopMatchRepo(), noopUserRepo())
	_, err := svc.Authorize(context.Background(), 1, 12)
	assertAppErr(t, err, "FORBIDDEN")
}

func TestChatServiceAuthorizeUnknownChat(t *testing.T) {
	chats := noopChatRepo()
	chats.getByIDFn = func(context.Context, uint) (*models.Chat, error) {
		return nil, models.NewNotFoundError("Chat", 404)
	}

	svc := NewChatService(chats, noopMatchRepo(), noopUserRepo())
	_, err := svc.Authorize(context.Background(), 404, 10)
	assertAppErr(t, err, "NOT_FOUND")
}

func TestChatServiceEnsureChatSelf(t *testing.T) {
	svc := NewChatService(noopChatRepo(), noopMatchRepo(), noopUserRepo())
	_, err := svc.EnsureChat(context.Background(), 5, 5)
	assertAppErr(t, err, "VALIDATION_ERROR")
}

func TestChatServiceEnsureChatUnmatchedPair(t *testing.T) {
	svc := NewChatService(noopChatRepo(), noopMatchRepo(), noopUserRepo())
	_, err := svc.EnsureChat(context.Background(), 1, 2)
	assertAppErr(t, err, "NOT_FOUND")
}

func TestChatServiceEnsureChatReturnsExisting(t *testing.T) {
	matches := noopMatchRepo()
	matches.getByPairFn = func(context.Context, uint, uint) (*models.Match, error) {
		return &models.Match{ID: 8, UserAID: 1, UserBID: 2}, nil
	}

	chats := noopChatRepo()
	chats.getByMatchIDFn = func(_ context.Context, matchID uint) (*models.Chat, error) {
		return &models.Chat{ID: 30, MatchID: matchID}, nil
	}
	chats.createFn = func(context.Context, *models.Chat) error {
		t.Fatal("existing chat must not be recreated")
		return nil
	}

	svc := NewChatService(chats, matches, noopUserRepo())
	chat, err := svc.EnsureChat(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if chat.ID != 30 {
		t.Fatalf("expected chat 30, got %d", chat.ID)
	}
}

func TestChatServiceSendMessageEmpty(t *testing.T) {
	chats := noopChatRepo()
	chats.getByIDFn = func(context.Context, uint) (*models.Chat, error) {
		return chatWithMembers(1, 1, 10, 11), nil
	}

	svc := NewChatService(chats, noopMatchRepo(), noopUserRepo())
	_, err := svc.SendMessage(context.Background(), SendMessageInput{ChatID: 1, SenderID: 10})
	assertAppErr(t, err, "VALIDATION_ERROR")
}

func TestChatServiceSendMessageTooLong(t *testing.T) {
	chats := noopChatRepo()
	chats.getByIDFn = func(context.Context, uint) (*models.Chat, error) {
		return chatWithMembers(1, 1, 10, 11), nil
	}

	svc := NewChatService(chats, noopMatchRepo(), noopUserRepo())
	_, err := svc.SendMessage(context.Background(), SendMessageInput{
		ChatID:   1,
		SenderID: 10,
		Body:     strings.Repeat("a", maxMessageBodyLen+1),
	})
	assertAppErr(t, err, "VALIDATION_ERROR")
}

func TestChatServiceSendMessagePersists(t *testing.T) {
	chats := noopChatRepo()
	chats.getByIDFn = func(context.Context, uint) (*models.Chat, error) {
		return chatWithMembers(1, 1, 10, 11), nil
	}
	var saved *models.Message
	chats.createMessageFn = func(_ context.Context, message *models.Message) error {
		saved = message
		return nil
	}

	svc := NewChatService(chats, noopMatchRepo(), noopUserRepo())
	msg, err := svc.SendMessage(context.Background(), SendMessageInput{
		ChatID:   1,
		SenderID: 11,
		Body:     "hello",
		ImageURL: "https://img.example/1.png",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if saved != msg {
		t.Fatal("returned message is not the persisted one")
	}
	if saved.ChatID != 1 || saved.SenderID != 11 || saved.Body != "hello" {
		t.Fatalf("unexpected message %+v", saved)
	}
}

func TestChatServiceImageOnlyMessageAllowed(t *testing.T) {
	chats := noopChatRepo()
	chats.getByIDFn = func(context.Context, uint) (*models.Chat, error) {
		return chatWithMembers(1, 1, 10, 11), nil
	}
	chats.createMessageFn = func(context.Context, *models.Message) error { return nil }

	svc := NewChatService(chats, noopMatchRepo(), noopUserRepo())
	msg, err := svc.SendMessage(context.Background(), SendMessageInput{
		ChatID:   1,
		SenderID: 10,
		ImageURL: "https://img.example/2.png",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if msg.Body != "" || msg.ImageURL == "" {
		t.Fatalf("expected image-only message, got %+v", msg)
	}
}

func TestChatServiceMarkReadChecksMembership(t *testing.T) {
	chats := noopChatRepo()
	chats.getByIDFn = func(context.Context, uint) (*models.Chat, error) {
		return chatWithMembers(1, 1, 10, 11), nil
	}
	chats.markReadFn = func(context.Context, uint, uint, time.Time) error {
		t.Fatal("outsider must not reach the repository")
		return nil
	}

	svc := NewChatService(chats, noopMatchRepo(), noopUserRepo())
	err := svc.MarkRead(context.Background(), 1, 99)
	assertAppErr(t, err, "FORBIDDEN")
}

func TestChatServiceListChatsCreatesMissingChats(t *testing.T) {
	matches := noopMatchRepo()
	matches.listForUserFn = func(context.Context, uint) ([]models.Match, error) {
		return []models.Match{
			{ID: 1, UserAID: 1, UserBID: 2, UserB: models.User{ID: 2, DisplayName: "Ren"}},
		}, nil
	}

	chats := noopChatRepo()
	chats.createFn = func(_ context.Context, chat *models.Chat) error {
		chat.ID = 40
		return nil
	}
	chats.lastMessageFn = func(context.Context, uint) (*models.Message, error) {
		return &models.Message{ID: 9, Body: "latest"}, nil
	}

	svc := NewChatService(chats, matches, noopUserRepo())
	summaries, err := svc.ListChats(context.Background(), 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected one chat, got %d", len(summaries))
	}
	if summaries[0].ChatID != 40 {
		t.Fatalf("expected lazily created chat 40, got %d", summaries[0].ChatID)
	}
	if summaries[0].LastMessage == nil || summaries[0].LastMessage.Body != "latest" {
		t.Fatalf("expected last message, got %+v", summaries[0].LastMessage)
	}
}
