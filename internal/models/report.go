package models

import "time"

type ReportStatus string

const (
	ReportOpen      ReportStatus = "open"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

func (s ReportStatus) Valid() bool {
	return s == ReportOpen || s == ReportResolved || s == ReportDismissed
}

type ReportTargetType string

const (
	ReportTargetPost    ReportTargetType = "post"
	ReportTargetComment ReportTargetType = "comment"
	ReportTargetUser    ReportTargetType = "user"
	ReportTargetGroup   ReportTargetType = "group"
	ReportTargetPage    ReportTargetType = "page"
)

func (t ReportTargetType) Valid() bool {
	switch t {
	case ReportTargetPost, ReportTargetComment, ReportTargetUser, ReportTargetGroup, ReportTargetPage:
		return true
	}
	return false
}

// Report represents a user report for moderation
type Report struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	ReporterID string `gorm:"size:36;not null;index" json:"reporter_id"`
	Reporter   *User  `gorm:"foreignKey:ReporterID" json:"-"`

	TargetType ReportTargetType `gorm:"size:16;not null" json:"target_type"`
	TargetID   string           `gorm:"size:36;not null;index" json:"target_id"`

	Reason string       `gorm:"size:64;not null" json:"reason"`
	Note   string       `gorm:"type:text" json:"note"`
	Status ReportStatus `gorm:"size:16;default:open;index" json:"status"`

	ResolvedBy *string    `gorm:"size:36" json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
