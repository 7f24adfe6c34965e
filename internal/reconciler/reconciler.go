// Package reconciler merges submission status between the remote
// authority and the locally cached admin updates.
//
// Per tick, per submission:
//
//	remote reachable and different  -> remote wins, event + notification
//	remote unreachable              -> newest cached admin update strictly
//	                                   newer than the submission applies
//	neither source newer            -> untouched, no event (edge-triggered)
//
// Remote-wins-when-reachable and timestamp-comparison-on-fallback are
// deliberately two different rules; do not unify them.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/KoushikN01/legal-ai-forms-sub001/internal/cache"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/models"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/notification"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/remote"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/store"
	"go.uber.org/zap"
)

// Per-submission sync outcomes, for logging and tests.
const (
	outcomeInSync      = "in-sync"
	outcomeUpdated     = "updated"
	outcomeUnreachable = "unreachable"
)

// Config holds reconciler configuration
type Config struct {
	UserID       string
	PollInterval time.Duration // default 30s
	FetchTimeout time.Duration // bound on each remote fetch
}

// Reconciler is the background worker that keeps local submission status
// consistent with the remote authority.
type Reconciler struct {
	store    *store.Store
	kv       cache.KV
	fetcher  remote.StatusFetcher
	notifier *notification.Service
	logger   *zap.Logger

	userID       string
	pollInterval time.Duration
	fetchTimeout time.Duration

	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a reconciler.
func New(
	st *store.Store,
	kv cache.KV,
	fetcher remote.StatusFetcher,
	notifier *notification.Service,
	cfg Config,
	logger *zap.Logger,
) *Reconciler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	return &Reconciler{
		store:        st,
		kv:           kv,
		fetcher:      fetcher,
		notifier:     notifier,
		logger:       logger,
		userID:       cfg.UserID,
		pollInterval: cfg.PollInterval,
		fetchTimeout: cfg.FetchTimeout,
	}
}

// Start starts the polling loop.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		return fmt.Errorf("reconciler is already running")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.isRunning = true

	r.logger.Info("Reconciler started",
		zap.Duration("poll_interval", r.pollInterval),
		zap.Duration("fetch_timeout", r.fetchTimeout))

	go r.pollLoop()
	return nil
}

// Stop stops the polling loop. An in-flight tick may finish, but no new
// tick is scheduled after Stop returns.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRunning {
		return
	}

	r.isRunning = false
	if r.cancel != nil {
		r.cancel()
	}

	r.logger.Info("Reconciler stopped")
}

// Name returns the worker name for identification
func (r *Reconciler) Name() string {
	return "Reconciler"
}

func (r *Reconciler) pollLoop() {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	// Reconcile immediately on start, then on every tick.
	r.RunTick(r.ctx)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("Poll loop context cancelled")
			return

		case <-ticker.C:
			r.RunTick(r.ctx)
		}
	}
}

// RunTick reconciles every tracked submission once and persists the full
// set to the cache when anything changed. Exported so tests and the
// manual-refresh path can drive ticks without wall-clock timers.
// Returns the number of submissions that changed.
func (r *Reconciler) RunTick(ctx context.Context) int {
	subs := r.store.All()
	if len(subs) == 0 {
		return 0
	}

	changed := 0
	for _, sub := range subs {
		if ctx.Err() != nil {
			break
		}
		if r.reconcileOne(ctx, sub) {
			changed++
		}
	}

	// One batch write per tick, and none at all when nothing changed.
	if changed > 0 {
		r.persist()
		r.logger.Info("Reconciliation tick completed",
			zap.Int("checked", len(subs)),
			zap.Int("updated", changed))
	}
	return changed
}

// RefreshOne runs the reconciliation step for a single submission on
// demand (the user pressed refresh). Returns the submission afterwards,
// or nil for unknown ids.
func (r *Reconciler) RefreshOne(ctx context.Context, trackingID string) *models.Submission {
	sub := r.store.Get(trackingID)
	if sub == nil {
		return nil
	}
	if r.reconcileOne(ctx, sub) {
		r.persist()
	}
	return r.store.Get(trackingID)
}

// reconcileOne merges one submission against both sources of truth.
func (r *Reconciler) reconcileOne(ctx context.Context, sub *models.Submission) bool {
	fctx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	status, err := r.fetcher.FetchStatus(fctx, sub.ID)
	if err == nil {
		if status.Status == sub.Status {
			r.logTick(sub.ID, outcomeInSync, "")
			return false
		}
		// Remote is authoritative whenever it answers.
		message := status.Message
		if message == "" {
			message = fmt.Sprintf("Status changed to %s", status.Status)
		}
		if !r.applyChange(sub.ID, sub.Status, status.Status, message, "", time.Time{}) {
			// A concurrent refresh or tick landed this change first.
			r.logTick(sub.ID, outcomeInSync, "")
			return false
		}
		r.logTick(sub.ID, outcomeUpdated, "remote")
		return true
	}

	if !errors.Is(err, remote.ErrNotFound) {
		r.logger.Debug("Remote authority unreachable, trying local cache",
			zap.String("tracking_id", sub.ID),
			zap.Error(err))
	}

	update, cacheErr := cache.LatestStatusUpdate(r.kv, r.logger, sub.ID, sub.UpdatedAt)
	if cacheErr != nil {
		r.logger.Warn("Failed to read cached status updates",
			zap.String("tracking_id", sub.ID),
			zap.Error(cacheErr))
		return false
	}
	if update == nil {
		r.logTick(sub.ID, outcomeUnreachable, "")
		return false
	}

	// The update's own timestamp is carried onto the submission so the
	// strictly-newer guard keeps working across clock skew.
	if !r.applyChange(sub.ID, sub.Status, update.Status, update.Message, "Applied from locally cached admin update", update.Timestamp) {
		r.logTick(sub.ID, outcomeInSync, "")
		return false
	}
	r.logTick(sub.ID, outcomeUpdated, "local")
	return true
}

// applyChange lands a status change observed against expected. It
// reports false when a concurrent writer already moved the submission
// past expected, in which case no event or notification is produced.
func (r *Reconciler) applyChange(trackingID string, expected, status models.SubmissionStatus, message, details string, at time.Time) bool {
	if r.store.UpdateStatusFrom(trackingID, expected, status, message, details, at) == nil {
		return false
	}
	channels := r.notifier.Dispatch(trackingID, status, message)
	r.store.RecordNotifications(trackingID, channels)
	return true
}

func (r *Reconciler) persist() {
	encoded, err := cache.EncodeSubmissions(r.store.All())
	if err != nil {
		r.logger.Error("Failed to encode submissions for cache", zap.Error(err))
		return
	}
	if err := r.kv.SetMany(map[string]string{
		cache.SubmissionsKey(r.userID): encoded,
	}); err != nil {
		r.logger.Error("Failed to persist submissions to cache", zap.Error(err))
	}
}

func (r *Reconciler) logTick(trackingID, outcome, source string) {
	fields := []zap.Field{
		zap.String("tracking_id", trackingID),
		zap.String("outcome", outcome),
	}
	if source != "" {
		fields = append(fields, zap.String("source", source))
	}
	r.logger.Debug("Submission reconciled", fields...)
}
