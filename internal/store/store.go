// Package store holds the authoritative in-memory record of submissions
// created or tracked during the current session.
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/KoushikN01/legal-ai-forms-sub001/internal/models"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/tracking"
	"go.uber.org/zap"
)

// createRetries bounds the attempts to resolve a generated-id collision
// before Create gives up.
const createRetries = 3

// Subscriber receives a snapshot of the full submission after every
// create or status update. Callbacks run synchronously on the mutating
// goroutine and must not call back into mutating store methods.
type Subscriber func(models.Submission)

// Store is the in-memory submission store. All mutations to a single
// submission's event log are serialized; subscribers observe events in
// exactly the order they were appended.
type Store struct {
	mu          sync.RWMutex
	submissions map[string]*models.Submission

	subMu       sync.Mutex
	subscribers map[int]Subscriber
	nextSubID   int

	// notifyMu is acquired before mu is released on mutation, so
	// subscriber callbacks fire in mutation order.
	notifyMu sync.Mutex

	logger *zap.Logger
}

// New creates an empty submission store.
func New(logger *zap.Logger) *Store {
	return &Store{
		submissions: make(map[string]*models.Submission),
		subscribers: make(map[int]Subscriber),
		logger:      logger,
	}
}

// Create allocates a tracking id, records the submission with status
// submitted and a single creation event, and notifies subscribers.
// It fails only when the codec cannot produce a usable id.
func (s *Store) Create(formID, formTitle string, data map[string]string) (*models.Submission, error) {
	s.mu.Lock()

	var id string
	for attempt := 0; ; attempt++ {
		generated, err := tracking.Generate()
		if err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("generate tracking id: %w", err)
		}
		if _, taken := s.submissions[generated]; !taken {
			id = generated
			break
		}
		if attempt == createRetries {
			s.mu.Unlock()
			return nil, fmt.Errorf("generate tracking id: exhausted %d attempts without an unused id", createRetries)
		}
	}

	now := time.Now()
	sub := &models.Submission{
		ID:          id,
		FormID:      formID,
		FormTitle:   formTitle,
		Data:        cloneData(data),
		Status:      models.StatusSubmitted,
		SubmittedAt: now,
		UpdatedAt:   now,
		Events: []models.SubmissionEvent{{
			Timestamp: now,
			Status:    models.StatusSubmitted,
			Message:   "Form submitted successfully",
			Details:   fmt.Sprintf("Your %s has been received and is being processed.", formTitle),
		}},
		NotificationsSent: []string{},
	}
	s.submissions[id] = sub
	snapshot := sub.Clone()

	s.logger.Info("Submission created",
		zap.String("tracking_id", id),
		zap.String("form_id", formID))

	s.notifyLocked(snapshot)
	return snapshot, nil
}

// Get returns a copy of the submission with this exact tracking id, or
// nil. Fuzzy matching is the tracking package's job, applied by callers
// before Get.
func (s *Store) Get(id string) *models.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submissions[id].Clone()
}

// UpdateStatus appends a status event, updates the submission and
// notifies subscribers. Unknown ids are a silent no-op returning nil.
func (s *Store) UpdateStatus(id string, status models.SubmissionStatus, message, details string) *models.Submission {
	return s.applyStatus(id, "", status, message, details, time.Time{})
}

// UpdateStatusFrom is the compare-and-append variant of UpdateStatus:
// the change only lands if the submission's status still equals expected
// when the store's lock is taken. A concurrent writer that got there
// first makes this a no-op returning nil, so two actors observing the
// same old status cannot both append the same change. at stamps the
// event and UpdatedAt; pass the zero time to use the current clock.
func (s *Store) UpdateStatusFrom(id string, expected, status models.SubmissionStatus, message, details string, at time.Time) *models.Submission {
	return s.applyStatus(id, expected, status, message, details, at)
}

func (s *Store) applyStatus(id string, expected, status models.SubmissionStatus, message, details string, at time.Time) *models.Submission {
	s.mu.Lock()

	sub, ok := s.submissions[id]
	if !ok {
		s.mu.Unlock()
		return nil
	}

	if expected != "" && sub.Status != expected {
		current := sub.Status
		s.mu.Unlock()
		s.logger.Debug("Dropped status change against a stale snapshot",
			zap.String("tracking_id", id),
			zap.String("expected", string(expected)),
			zap.String("current", string(current)))
		return nil
	}

	if sub.Status.IsTerminal() && status != sub.Status {
		s.logger.Warn("Status change out of a terminal state",
			zap.String("tracking_id", id),
			zap.String("from", string(sub.Status)),
			zap.String("to", string(status)))
	}

	if at.IsZero() {
		at = time.Now()
	}
	sub.Status = status
	sub.UpdatedAt = at
	sub.Events = append(sub.Events, models.SubmissionEvent{
		Timestamp: at,
		Status:    status,
		Message:   message,
		Details:   details,
	})
	snapshot := sub.Clone()

	s.logger.Info("Submission status updated",
		zap.String("tracking_id", id),
		zap.String("status", string(status)))

	s.notifyLocked(snapshot)
	return snapshot
}

// RecordNotifications adds channels to the submission's used-channel set
// without appending a status event.
func (s *Store) RecordNotifications(id string, channels []string) {
	if len(channels) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[id]
	if !ok {
		return
	}
	for _, ch := range channels {
		if !contains(sub.NotificationsSent, ch) {
			sub.NotificationsSent = append(sub.NotificationsSent, ch)
		}
	}
}

// Restore inserts a submission rehydrated from the local cache. Existing
// entries win; restoring never fires subscriber callbacks.
func (s *Store) Restore(sub *models.Submission) {
	if sub == nil || sub.ID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.submissions[sub.ID]; exists {
		return
	}
	s.submissions[sub.ID] = sub.Clone()
}

// History returns the event log of a submission, or nil for unknown ids.
func (s *Store) History(id string) []models.SubmissionEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.submissions[id]
	if !ok {
		return nil
	}
	return append([]models.SubmissionEvent(nil), sub.Events...)
}

// All returns copies of every stored submission.
func (s *Store) All() []*models.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := make([]*models.Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		subs = append(subs, sub.Clone())
	}
	return subs
}

// Subscribe registers a callback for every create and update. The
// returned unsubscribe function is idempotent and safe to call while a
// notification is being delivered.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

// notifyLocked delivers a snapshot to all subscribers. It must be called
// with mu held; it hands off to notifyMu before releasing mu so that
// deliveries cannot be reordered across concurrent mutations.
func (s *Store) notifyLocked(snapshot *models.Submission) {
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.subMu.Lock()
	callbacks := make([]Subscriber, 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		callbacks = append(callbacks, fn)
	}
	s.subMu.Unlock()

	for _, fn := range callbacks {
		fn(*snapshot)
	}
}

func cloneData(data map[string]string) map[string]string {
	cloned := make(map[string]string, len(data))
	for k, v := range data {
		cloned[k] = v
	}
	return cloned
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
