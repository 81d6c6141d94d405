package models

import "time"

// Verdict is the categorical result of a fact-check annotation
type Verdict string

const (
	VerdictTrue       Verdict = "true"
	VerdictFalse      Verdict = "false"
	VerdictMisleading Verdict = "misleading"
	VerdictOpinion    Verdict = "opinion"
	VerdictUnverified Verdict = "unverified"
	VerdictOutdated   Verdict = "outdated"
	VerdictSatire     Verdict = "satire"
)

var Verdicts = []Verdict{
	VerdictTrue, VerdictFalse, VerdictMisleading, VerdictOpinion,
	VerdictUnverified, VerdictOutdated, VerdictSatire,
}

func (v Verdict) Valid() bool {
	for _, known := range Verdicts {
		if v == known {
			return true
		}
	}
	return false
}

type FactCheckStatus string

const (
	FactCheckAvailable   FactCheckStatus = "available"
	FactCheckUnavailable FactCheckStatus = "unavailable"
	FactCheckPending     FactCheckStatus = "pending"
)

// FactCheck is the cached annotation for one post, produced at most once
type FactCheck struct {
	PostID      string          `gorm:"primaryKey;size:36" json:"post_id"`
	Status      FactCheckStatus `gorm:"size:16;not null" json:"status"`
	Verdict     Verdict         `gorm:"size:16" json:"verdict,omitempty"`
	Explanation string          `gorm:"type:text" json:"explanation,omitempty"`
	Confidence  *float64        `json:"confidence,omitempty"`
	Model       string          `gorm:"size:64" json:"-"`
	CheckedAt   time.Time       `json:"checked_at"`
}
