// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// MembershipTier represents a user's subscription level.
type MembershipTier string

const (
	// MembershipTierFree is the default tier for new accounts.
	MembershipTierFree MembershipTier = "free"
	// MembershipTierPremium unlocks matching and chat features.
	MembershipTierPremium MembershipTier = "premium"
	// MembershipTierAdmin marks operator accounts.
	MembershipTierAdmin MembershipTier = "admin"
)

// User mirrors an account from the identity provider. Only the fields the
// matching and chat flows need are stored here.
type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	DisplayName    string         `gorm:"size:100;not null" json:"display_name"`
	Email          string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	MembershipTier MembershipTier `gorm:"type:varchar(20);default:'free';check:chk_users_tier,membership_tier IN ('free','premium','admin')" json:"membership_tier"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// IsPremium reports whether the user may use premium-gated features.
func (u *User) IsPremium() bool {
	return u.MembershipTier == MembershipTierPremium
}

// UserSummary is the compact user shape embedded in list responses.
type UserSummary struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"display_name"`
}

// Summary returns the compact representation of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, DisplayName: u.DisplayName}
}
