// Package trust serves the tier badges attached to users, pages and groups.
package trust

import (
	"context"
	"errors"
	"time"

	apierrors "github.com/maskapp/mask/internal/errors"
	"github.com/maskapp/mask/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Subject types a tier can be attached to
const (
	SubjectUser  = "user"
	SubjectPage  = "page"
	SubjectGroup = "group"
)

var (
	ErrUnknownSubject = apierrors.BadRequest("type must be user, page or group")
	ErrInvalidTier    = apierrors.ValidationError("tier", "tier must be provisional, low, normal or high")
)

func validSubject(t string) bool {
	return t == SubjectUser || t == SubjectPage || t == SubjectGroup
}

// Badge is the public view of a subject's tier
type Badge struct {
	Type      string      `json:"type"`
	ID        string      `json:"id"`
	Tier      models.Tier `json:"tier"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Get returns the stored tier, or provisional when none was assigned
func (s *Service) Get(ctx context.Context, subjectType, subjectID string) (*Badge, error) {
	if !validSubject(subjectType) {
		return nil, ErrUnknownSubject
	}
	var score models.TrustScore
	err := s.db.WithContext(ctx).
		First(&score, "subject_type = ? AND subject_id = ?", subjectType, subjectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Badge{Type: subjectType, ID: subjectID, Tier: models.TierProvisional}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Badge{Type: subjectType, ID: subjectID, Tier: score.Tier, UpdatedAt: &score.UpdatedAt}, nil
}

// Set assigns a tier, replacing any previous one
func (s *Service) Set(ctx context.Context, subjectType, subjectID string, tier models.Tier) (*Badge, error) {
	if !validSubject(subjectType) {
		return nil, ErrUnknownSubject
	}
	if !tier.Valid() {
		return nil, ErrInvalidTier
	}
	score := models.TrustScore{SubjectType: subjectType, SubjectID: subjectID, Tier: tier, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject_type"}, {Name: "subject_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tier", "updated_at"}),
	}).Create(&score).Error
	if err != nil {
		return nil, err
	}
	return &Badge{Type: subjectType, ID: subjectID, Tier: tier, UpdatedAt: &score.UpdatedAt}, nil
}
