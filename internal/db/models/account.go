package models

import "time"

// Account stores a connected platform identity and its OAuth tokens.
type Account struct {
	ID           string            `gorm:"primaryKey" json:"id"` // UUID
	Platform     string            `gorm:"index" json:"platform"` // e.g., "instagram", "twitter"
	AccountName  string            `json:"account_name"`
	AccessToken  string            `json:"-"`
	RefreshToken string            `json:"-"`
	TokenExpiry  time.Time         `json:"-"`
	Meta         map[string]string `gorm:"serializer:json" json:"meta"` // connected_at, demo_code, ...
	CreatedAt    time.Time         `json:"-"`
}
