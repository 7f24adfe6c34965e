// Package service is the façade the application layer talks to: transcript
// extraction, validation, submission creation and status tracking behind
// one explicitly constructed, dependency-injected engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/KoushikN01/legal-ai-forms-sub001/internal/cache"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/extractor"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/models"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/notification"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/reconciler"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/store"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/tracking"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/validator"
	"go.uber.org/zap"
)

// ErrNotFound means no submission matches the tracking id. It is a
// normal outcome, not a transport failure.
var ErrNotFound = errors.New("submission not found")

// Engine wires the extraction, validation, storage and reconciliation
// pieces together for one user session.
type Engine struct {
	extractor  *extractor.Extractor
	store      *store.Store
	kv         cache.KV
	reconciler *reconciler.Reconciler
	notifier   *notification.Service
	userID     string
	logger     *zap.Logger
}

// NewEngine creates the engine. All collaborators are injected; the
// engine owns no hidden global state.
func NewEngine(
	ext *extractor.Extractor,
	st *store.Store,
	kv cache.KV,
	rec *reconciler.Reconciler,
	notifier *notification.Service,
	userID string,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		extractor:  ext,
		store:      st,
		kv:         kv,
		reconciler: rec,
		notifier:   notifier,
		userID:     userID,
		logger:     logger,
	}
}

// ExtractFormData extracts candidate values for every field from a
// transcript. Misses are absent from the result, never an error.
func (e *Engine) ExtractFormData(transcript string, fields []models.FormField) map[string]string {
	return e.extractor.ExtractFormData(transcript, fields)
}

// ValidateForm validates values against the field rules and returns an
// errors-only map.
func (e *Engine) ValidateForm(values map[string]string, fields []models.FormField) map[string]string {
	return validator.ValidateForm(values, fields)
}

// CreateSubmission records an accepted form and persists the session's
// submissions to the local cache.
func (e *Engine) CreateSubmission(formID, formTitle string, data map[string]string) (*models.Submission, error) {
	sub, err := e.store.Create(formID, formTitle, data)
	if err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}

	if err := e.persist(); err != nil {
		// The submission exists in memory and keeps working; only the
		// durable snapshot is behind.
		e.logger.Warn("Failed to persist new submission to cache",
			zap.String("tracking_id", sub.ID),
			zap.Error(err))
	}

	return sub, nil
}

// TrackSubmission finds a submission by tracking id. Live session
// submissions are checked first with an exact lookup; the tiered match
// then covers ids quoted imprecisely and records from earlier sessions.
func (e *Engine) TrackSubmission(trackingID string) (*models.Submission, error) {
	if sub := e.store.Get(trackingID); sub != nil {
		return sub, nil
	}

	if sub := tracking.FindSubmission(e.store.All(), trackingID); sub != nil {
		return sub, nil
	}

	cached, err := cache.LoadSubmissions(e.kv, e.logger, e.userID)
	if err != nil {
		e.logger.Warn("Failed to read cached submissions",
			zap.String("tracking_id", trackingID),
			zap.Error(err))
	}
	if sub := tracking.FindSubmission(cached, trackingID); sub != nil {
		// Pull it into the session so the reconciler tracks it.
		e.store.Restore(sub)
		return e.store.Get(sub.ID), nil
	}

	return nil, ErrNotFound
}

// Submissions returns snapshots of every submission in the session,
// newest first.
func (e *Engine) Submissions() []*models.Submission {
	subs := e.store.All()
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].SubmittedAt.After(subs[j].SubmittedAt)
	})
	return subs
}

// RefreshStatus reconciles one submission on demand and returns it.
func (e *Engine) RefreshStatus(ctx context.Context, trackingID string) (*models.Submission, error) {
	sub, err := e.TrackSubmission(trackingID)
	if err != nil {
		return nil, err
	}
	if refreshed := e.reconciler.RefreshOne(ctx, sub.ID); refreshed != nil {
		return refreshed, nil
	}
	return sub, nil
}

// ApplyAdminUpdate records an admin-issued status change into the cache
// for the offline fallback path and applies it immediately to a live
// submission.
func (e *Engine) ApplyAdminUpdate(update models.StatusUpdate) error {
	if !update.Status.IsValid() {
		return fmt.Errorf("unknown status %q", update.Status)
	}

	if err := cache.AppendStatusUpdate(e.kv, e.logger, update); err != nil {
		return fmt.Errorf("record admin update: %w", err)
	}

	if updated := e.store.UpdateStatus(update.TrackingID, update.Status, update.Message, "Issued by admin"); updated != nil {
		channels := e.notifier.Dispatch(update.TrackingID, update.Status, update.Message)
		e.store.RecordNotifications(update.TrackingID, channels)
		if err := e.persist(); err != nil {
			e.logger.Warn("Failed to persist admin update to cache", zap.Error(err))
		}
	}

	return nil
}

// Hydrate loads previously persisted submissions for this session's user
// into the store so reconciliation covers earlier sessions.
func (e *Engine) Hydrate() error {
	subs, err := cache.LoadSubmissions(e.kv, e.logger, e.userID)
	if err != nil {
		return fmt.Errorf("hydrate submissions: %w", err)
	}
	for _, sub := range subs {
		e.store.Restore(sub)
	}
	if len(subs) > 0 {
		e.logger.Info("Session hydrated from cache", zap.Int("submissions", len(subs)))
	}
	return nil
}

// StartPolling starts the background reconciliation loop.
func (e *Engine) StartPolling(ctx context.Context) error {
	return e.reconciler.Start(ctx)
}

// StopPolling stops the background reconciliation loop.
func (e *Engine) StopPolling() {
	e.reconciler.Stop()
}

func (e *Engine) persist() error {
	encoded, err := cache.EncodeSubmissions(e.store.All())
	if err != nil {
		return err
	}
	return e.kv.Set(cache.SubmissionsKey(e.userID), encoded)
}
