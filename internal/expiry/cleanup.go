// Package expiry removes ephemeral posts once their lifetime has passed.
package expiry

import (
	"context"
	"sync"
	"time"

	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/metrics"
	"github.com/maskapp/mask/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const batchSize = 100

// Purger hard-deletes posts with everything hanging off them
type Purger interface {
	Purge(ctx context.Context, list []models.Post) error
}

// FileRemover deletes an uploaded file by its public URL, ignoring URLs the
// server did not issue
type FileRemover interface {
	Remove(ctx context.Context, url string) error
}

// CleanupService sweeps expired posts on a fixed interval
type CleanupService struct {
	db       *gorm.DB
	purger   Purger
	files    FileRemover
	interval time.Duration
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCleanupService(db *gorm.DB, purger Purger, files FileRemover, interval time.Duration) *CleanupService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CleanupService{
		db:       db,
		purger:   purger,
		files:    files,
		interval: interval,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *CleanupService) Start() {
	logger.Log.Info("Starting expiry sweep", zap.Duration("interval", s.interval))
	s.wg.Add(1)
	go s.run()
}

// Stop cancels the sweep and waits for an in-flight pass to finish
func (s *CleanupService) Stop() {
	s.cancel()
	s.wg.Wait()
	logger.Log.Info("Expiry sweep stopped")
}

func (s *CleanupService) run() {
	defer s.wg.Done()
	s.sweepAndLog()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweepAndLog()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *CleanupService) sweepAndLog() {
	start := time.Now()
	n, err := s.Sweep(s.ctx)
	if err != nil && s.ctx.Err() == nil {
		logger.Log.Error("Expiry sweep failed", zap.Int("deleted", n), zap.Error(err))
		return
	}
	if n > 0 {
		logger.Log.Info("Expiry sweep completed", zap.Int("deleted", n), zap.Duration("took", time.Since(start)))
	}
}

// Sweep deletes every post whose ExpiresAt has passed and returns how many
// were removed.
func (s *CleanupService) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().UTC()
	total := 0
	for {
		var batch []models.Post
		err := s.db.WithContext(ctx).
			Select("id", "author_id", "type", "original_post_id", "image_url").
			Where("expires_at IS NOT NULL AND expires_at <= ?", cutoff).
			Order("expires_at").
			Limit(batchSize).
			Find(&batch).Error
		if err != nil {
			return total, err
		}
		if len(batch) == 0 {
			return total, nil
		}

		if err := s.purger.Purge(ctx, batch); err != nil {
			return total, err
		}
		total += len(batch)
		metrics.App().PostsExpired.Add(float64(len(batch)))
		s.removeImages(ctx, batch)

		if len(batch) < batchSize {
			return total, nil
		}
	}
}

func (s *CleanupService) removeImages(ctx context.Context, batch []models.Post) {
	if s.files == nil {
		return
	}
	for _, p := range batch {
		if p.ImageURL == "" || p.Type == models.PostReshare {
			continue
		}
		if err := s.files.Remove(ctx, p.ImageURL); err != nil {
			logger.Log.Warn("Failed to delete expired post image",
				logger.WithPostID(p.ID),
				zap.String("image_url", p.ImageURL),
				zap.Error(err))
		}
	}
}
