package models

import (
	"time"
)

// GrantStatus tracks delivery of a coin grant to the wallet service
type GrantStatus string

const (
	GrantStatusPending   GrantStatus = "pending"
	GrantStatusDelivered GrantStatus = "delivered"
)

// CoinGrant records a reward owed to a user. It is written in the same
// transaction as the activity completion that earned it, so an entry can never
// be completed without its reward being durably recorded. The dispatch worker
// delivers pending grants to the wallet service and flips them to delivered;
// delivery is keyed by grant id so the wallet side can deduplicate retries.
type CoinGrant struct {
	ID         string      `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string      `gorm:"index;not null" json:"user_id"`
	ActivityID string      `gorm:"uniqueIndex;not null" json:"activity_id"`
	Amount     int         `gorm:"not null" json:"amount"`
	Reason     string      `gorm:"not null" json:"reason"`
	Status     GrantStatus `gorm:"not null;index;default:'pending'" json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}
