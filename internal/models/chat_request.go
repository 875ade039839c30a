package models

import (
	"time"
)

// ChatRequestStatus represents the state of a chat-request handshake.
type ChatRequestStatus string

const (
	// ChatRequestStatusPending indicates a request awaiting a response.
	ChatRequestStatusPending ChatRequestStatus = "pending"
	// ChatRequestStatusAccepted indicates the recipient opened the chat.
	ChatRequestStatusAccepted ChatRequestStatus = "accepted"
	// ChatRequestStatusDeclined indicates the recipient refused the chat.
	ChatRequestStatusDeclined ChatRequestStatus = "declined"
)

// ChatRequest is a directed ask to open a chat before any match exists.
// A partial unique index holds the pair to at most one pending request at a
// time; accepted and declined are terminal states and accumulate as history,
// so a sender can ask again after a decline.
type ChatRequest struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	FromUserID     uint              `gorm:"not null;uniqueIndex:uniq_chat_request_pending,where:status = 'pending';check:chk_chat_request_distinct,from_user_id <> to_user_id" json:"from_user_id"`
	ToUserID       uint              `gorm:"not null;uniqueIndex:uniq_chat_request_pending" json:"to_user_id"`
	Status         ChatRequestStatus `gorm:"type:varchar(20);default:'pending';check:chk_chat_request_status,status IN ('pending','accepted','declined')" json:"status"`
	InitialMessage string            `gorm:"type:text" json:"initial_message"`
	CreatedAt      time.Time         `json:"created_at"`
	RespondedAt    *time.Time        `json:"responded_at,omitempty"`

	FromUser User `gorm:"foreignKey:FromUserID" json:"-"`
	ToUser   User `gorm:"foreignKey:ToUserID" json:"-"`
}

// TableName specifies the table name for GORM
func (ChatRequest) TableName() string {
	return "chat_requests"
}

// IsTerminal reports whether the request can no longer change state.
func (r *ChatRequest) IsTerminal() bool {
	return r.Status != ChatRequestStatusPending
}

// ChatRequestMessage is a message sent while a chat request is still pending.
// On accept each row is copied into the real chat exactly once; MigratedAt
// marks rows that have already been copied.
type ChatRequestMessage struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ChatRequestID uint       `gorm:"not null;index:idx_chat_request_messages_request" json:"chat_request_id"`
	SenderID      uint       `gorm:"not null" json:"sender_id"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	ImageURL      string     `gorm:"size:512" json:"image_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	MigratedAt    *time.Time `json:"-"`

	ChatRequest ChatRequest `gorm:"foreignKey:ChatRequestID" json:"-"`
	Sender      User        `gorm:"foreignKey:SenderID" json:"-"`
}

// TableName specifies the table name for GORM
func (ChatRequestMessage) TableName() string {
	return "chat_request_messages"
}
