package factcheck

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/maskapp/mask/internal/cache"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/metrics"
	"github.com/maskapp/mask/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const cacheTTL = 24 * time.Hour

func cacheKey(postID string) string { return "factcheck:" + postID }

// Annotator produces at most one annotation per post and caches it in the
// database and redis.
type Annotator struct {
	db       *gorm.DB
	cache    *cache.RedisClient
	provider Provider
	timeout  time.Duration
	now      func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

// NewAnnotator creates an annotator. provider may be nil, in which case every
// post is recorded as unavailable.
func NewAnnotator(db *gorm.DB, rc *cache.RedisClient, provider Provider, timeout time.Duration) *Annotator {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Annotator{
		db:       db,
		cache:    rc,
		provider: provider,
		timeout:  timeout,
		now:      time.Now,
		inflight: make(map[string]struct{}),
	}
}

// Schedule annotates a post in the background
func (a *Annotator) Schedule(postID, text string) {
	a.mu.Lock()
	if _, busy := a.inflight[postID]; busy {
		a.mu.Unlock()
		return
	}
	a.inflight[postID] = struct{}{}
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer func() {
			a.mu.Lock()
			delete(a.inflight, postID)
			a.mu.Unlock()
			a.wg.Done()
		}()
		a.Annotate(context.Background(), postID, text)
	}()
}

// Wait blocks until scheduled annotations finish
func (a *Annotator) Wait() {
	a.wg.Wait()
}

// Annotate returns the stored annotation for postID, calling the provider the
// first time only.
func (a *Annotator) Annotate(ctx context.Context, postID, text string) *models.FactCheck {
	if existing, err := a.load(ctx, postID); err == nil {
		return existing
	}

	fc := &models.FactCheck{PostID: postID, Status: models.FactCheckUnavailable, CheckedAt: a.now()}

	switch {
	case strings.TrimSpace(text) == "":
	case a.provider == nil:
		logger.Log.Debug("Fact-check skipped, no provider", zap.String("post_id", postID))
	default:
		fc.Model = a.provider.Model()
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		res, err := a.provider.Check(callCtx, text)
		cancel()
		if err != nil {
			logger.Log.Warn("Fact-check unavailable",
				zap.String("post_id", postID),
				zap.Error(err))
		} else {
			fc.Status = models.FactCheckAvailable
			fc.Verdict = res.Verdict
			fc.Explanation = res.Explanation
			fc.Confidence = res.Confidence
		}
	}

	// A concurrent annotation of the same post may have won; keep the first
	if err := a.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(fc).Error; err != nil {
		logger.Log.Warn("Failed to store fact-check", zap.String("post_id", postID), zap.Error(err))
		return fc
	}
	metrics.App().FactChecks.WithLabelValues(string(fc.Status)).Inc()

	stored, err := a.load(ctx, postID)
	if err != nil {
		return fc
	}
	return stored
}

func (a *Annotator) load(ctx context.Context, postID string) (*models.FactCheck, error) {
	var fc models.FactCheck
	if err := a.cache.GetJSON(ctx, cacheKey(postID), &fc); err == nil {
		metrics.CacheResult("factcheck", true)
		return &fc, nil
	}
	if a.cache.Enabled() {
		metrics.CacheResult("factcheck", false)
	}

	if err := a.db.WithContext(ctx).First(&fc, "post_id = ?", postID).Error; err != nil {
		return nil, err
	}
	if err := a.cache.SetJSON(ctx, cacheKey(postID), fc, cacheTTL); err != nil {
		logger.Log.Debug("Failed to cache fact-check", zap.Error(err))
	}
	return &fc, nil
}

// Get returns the annotation or a pending placeholder when none exists yet
func (a *Annotator) Get(ctx context.Context, postID string) (*models.FactCheck, error) {
	fc, err := a.load(ctx, postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.FactCheck{PostID: postID, Status: models.FactCheckPending}, nil
	}
	return fc, err
}

// Pills returns available annotations for the given posts keyed by post ID
func (a *Annotator) Pills(ctx context.Context, postIDs []string) map[string]models.FactCheck {
	out := make(map[string]models.FactCheck)
	if len(postIDs) == 0 {
		return out
	}
	var rows []models.FactCheck
	if err := a.db.WithContext(ctx).
		Where("post_id IN ? AND status = ?", postIDs, models.FactCheckAvailable).
		Find(&rows).Error; err != nil {
		logger.Log.Warn("Failed to load fact-checks", zap.Error(err))
		return out
	}
	for _, fc := range rows {
		out[fc.PostID] = fc
	}
	return out
}

// Forget drops the cached annotation after its post was deleted
func (a *Annotator) Forget(ctx context.Context, postIDs ...string) {
	keys := make([]string, len(postIDs))
	for i, id := range postIDs {
		keys[i] = cacheKey(id)
	}
	_ = a.cache.Del(ctx, keys...)
}
