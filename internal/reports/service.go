// Package reports files user reports and moves them through moderation.
package reports

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	apierrors "github.com/maskapp/mask/internal/errors"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxReasonLength = 64
	maxNoteLength   = 1000
)

var (
	ErrNotFound       = apierrors.NotFound("report")
	ErrTargetNotFound = apierrors.NotFound("report target")
	ErrInvalidTarget  = apierrors.ValidationError("target_type", "target_type must be post, comment, user, group or page")
	ErrInvalidStatus  = apierrors.ValidationError("status", "status must be open, resolved or dismissed")
)

type FileInput struct {
	TargetType models.ReportTargetType `json:"target_type" binding:"required"`
	TargetID   string                  `json:"target_id" binding:"required"`
	Reason     string                  `json:"reason" binding:"required"`
	Note       string                  `json:"note"`
}

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

func targetModel(t models.ReportTargetType) interface{} {
	switch t {
	case models.ReportTargetPost:
		return &models.Post{}
	case models.ReportTargetComment:
		return &models.Comment{}
	case models.ReportTargetUser:
		return &models.User{}
	case models.ReportTargetGroup:
		return &models.Group{}
	case models.ReportTargetPage:
		return &models.Page{}
	}
	return nil
}

// File records a report. Reporting the same target twice while the first
// report is still open returns the existing report.
func (s *Service) File(ctx context.Context, reporterID string, in FileInput) (*models.Report, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	in.Note = strings.TrimSpace(in.Note)
	switch {
	case !in.TargetType.Valid():
		return nil, ErrInvalidTarget
	case in.Reason == "":
		return nil, apierrors.ValidationError("reason", "reason is required")
	case utf8.RuneCountInString(in.Reason) > maxReasonLength:
		return nil, apierrors.ValidationError("reason", "reason is too long")
	case utf8.RuneCountInString(in.Note) > maxNoteLength:
		return nil, apierrors.ValidationError("note", "note is too long")
	}

	db := s.db.WithContext(ctx)
	var n int64
	if err := db.Model(targetModel(in.TargetType)).Where("id = ?", in.TargetID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrTargetNotFound
	}

	var existing models.Report
	err := db.Where("reporter_id = ? AND target_type = ? AND target_id = ? AND status = ?",
		reporterID, in.TargetType, in.TargetID, models.ReportOpen).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	r := &models.Report{
		ReporterID: reporterID,
		TargetType: in.TargetType,
		TargetID:   in.TargetID,
		Reason:     in.Reason,
		Note:       in.Note,
		Status:     models.ReportOpen,
	}
	if err := db.Create(r).Error; err != nil {
		return nil, err
	}
	logger.Log.Info("Report filed",
		logger.WithUserID(reporterID),
		zap.String("target_type", string(in.TargetType)),
		zap.String("target_id", in.TargetID))
	return r, nil
}

// ReportView is a report with its reporter for the moderation queue
type ReportView struct {
	models.Report
	Reporter models.PublicUser `json:"reporter"`
}

// List returns reports newest first, optionally filtered by status
func (s *Service) List(ctx context.Context, status models.ReportStatus, limit, offset int) ([]ReportView, bool, error) {
	q := s.db.WithContext(ctx).Preload("Reporter").Order("created_at DESC")
	if status != "" {
		if !status.Valid() {
			return nil, false, ErrInvalidStatus
		}
		q = q.Where("status = ?", status)
	}
	var rows []models.Report
	if err := q.Limit(limit + 1).Offset(offset).Find(&rows).Error; err != nil {
		return nil, false, err
	}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	out := make([]ReportView, len(rows))
	for i := range rows {
		out[i] = ReportView{Report: rows[i], Reporter: rows[i].Reporter.Public()}
	}
	return out, hasMore, nil
}

func (s *Service) Get(ctx context.Context, id string) (*ReportView, error) {
	var r models.Report
	err := s.db.WithContext(ctx).Preload("Reporter").First(&r, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ReportView{Report: r, Reporter: r.Reporter.Public()}, nil
}

// SetStatus resolves, dismisses or reopens a report
func (s *Service) SetStatus(ctx context.Context, actorID, id string, status models.ReportStatus) (*ReportView, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	updates := map[string]interface{}{"status": status, "resolved_by": nil, "resolved_at": nil}
	if status != models.ReportOpen {
		updates["resolved_by"] = actorID
		updates["resolved_at"] = s.now()
	}
	res := s.db.WithContext(ctx).Model(&models.Report{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	logger.Log.Info("Report status changed",
		logger.WithUserID(actorID),
		zap.String("report_id", id),
		zap.String("status", string(status)))
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Report{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// OpenCount feeds the admin dashboard
func (s *Service) OpenCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Report{}).Where("status = ?", models.ReportOpen).Count(&n).Error
	return n, err
}
