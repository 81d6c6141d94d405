package models

import "time"

// Tier is a coarse reputation bucket shown as a trust badge
type Tier string

const (
	TierProvisional Tier = "provisional"
	TierLow         Tier = "low"
	TierNormal      Tier = "normal"
	TierHigh        Tier = "high"
)

func (t Tier) Valid() bool {
	switch t {
	case TierProvisional, TierLow, TierNormal, TierHigh:
		return true
	}
	return false
}

// TrustScore stores the externally derived tier for a user, page or group
type TrustScore struct {
	SubjectType string    `gorm:"primaryKey;size:16" json:"type"`
	SubjectID   string    `gorm:"primaryKey;size:36" json:"id"`
	Tier        Tier      `gorm:"size:16;not null" json:"tier"`
	UpdatedAt   time.Time `json:"updated_at"`
}
