package models

import (
	"time"
)

// LikeStatus represents the state of a directed like.
type LikeStatus string

const (
	// LikeStatusActive indicates a standing like.
	LikeStatusActive LikeStatus = "active"
	// LikeStatusWithdrawn indicates a like the sender took back.
	LikeStatusWithdrawn LikeStatus = "withdrawn"
)

// Like is a directed interest edge from one user to another. A pair of
// reciprocal active likes forms a match. The (from, to) pair is unique; a
// repeated like reactivates the existing row instead of inserting a second.
type Like struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	FromUserID uint       `gorm:"not null;uniqueIndex:uniq_like_from_to;check:chk_like_distinct,from_user_id <> to_user_id" json:"from_user_id"`
	ToUserID   uint       `gorm:"not null;uniqueIndex:uniq_like_from_to" json:"to_user_id"`
	Status     LikeStatus `gorm:"type:varchar(20);default:'active';check:chk_likes_status,status IN ('active','withdrawn')" json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	FromUser User `gorm:"foreignKey:FromUserID" json:"-"`
	ToUser   User `gorm:"foreignKey:ToUserID" json:"-"`
}

// TableName specifies the table name for GORM
func (Like) TableName() string {
	return "likes"
}

// Match links two users who both expressed interest. The pair is stored in
// canonical order (UserAID < UserBID) so either direction of discovery maps
// to the same row.
type Match struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserAID    uint      `gorm:"not null;uniqueIndex:uniq_match_pair;check:chk_match_distinct,user_a_id <> user_b_id" json:"user_a_id"`
	UserBID    uint      `gorm:"not null;uniqueIndex:uniq_match_pair" json:"user_b_id"`
	ActiveFlag bool      `gorm:"default:true" json:"active_flag"`
	CreatedAt  time.Time `json:"created_at"`

	UserA User `gorm:"foreignKey:UserAID" json:"-"`
	UserB User `gorm:"foreignKey:UserBID" json:"-"`
}

// TableName specifies the table name for GORM
func (Match) TableName() string {
	return "matches"
}

// OtherUserID returns the counterpart of userID in the match pair.
func (m *Match) OtherUserID(userID uint) uint {
	if m.UserAID == userID {
		return m.UserBID
	}
	return m.UserAID
}

// Involves reports whether userID is one side of the match.
func (m *Match) Involves(userID uint) bool {
	return m.UserAID == userID || m.UserBID == userID
}

// CanonicalPair orders two user IDs so (a, b) and (b, a) address the same match.
func CanonicalPair(x, y uint) (uint, uint) {
	if x < y {
		return x, y
	}
	return y, x
}

// Chat is the single message room attached to a match. It is created lazily
// the first time either side needs it.
type Chat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MatchID   uint      `gorm:"not null;uniqueIndex:uniq_chat_match" json:"match_id"`
	CreatedAt time.Time `json:"created_at"`

	Match Match `gorm:"foreignKey:MatchID" json:"-"`
}

// TableName specifies the table name for GORM
func (Chat) TableName() string {
	return "chats"
}

// Message is a persisted chat message. Body and ImageURL are individually
// optional but at least one must be present.
type Message struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ChatID    uint       `gorm:"not null;index:idx_messages_chat" json:"chat_id"`
	SenderID  uint       `gorm:"not null" json:"sender_id"`
	Body      string     `gorm:"type:text" json:"body"`
	ImageURL  string     `gorm:"size:512" json:"image_url,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`

	Sender User `gorm:"foreignKey:SenderID" json:"-"`
}

// TableName specifies the table name for GORM
func (Message) TableName() string {
	return "messages"
}
