package models

import "time"

// SubmissionStatus is the lifecycle status of a form submission.
type SubmissionStatus string

// Status constants
const (
	StatusSubmitted   SubmissionStatus = "submitted"
	StatusProcessing  SubmissionStatus = "processing"
	StatusUnderReview SubmissionStatus = "under_review"
	StatusApproved    SubmissionStatus = "approved"
	StatusRejected    SubmissionStatus = "rejected"
	StatusCompleted   SubmissionStatus = "completed"
)

// IsTerminal reports whether further status changes are unusual for this
// status. Terminal states are not a hard invariant: an admin can still
// reopen an approved submission, the store only flags it.
func (s SubmissionStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCompleted
}

// IsValid reports whether s is one of the known lifecycle statuses.
func (s SubmissionStatus) IsValid() bool {
	switch s {
	case StatusSubmitted, StatusProcessing, StatusUnderReview,
		StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// SubmissionEvent is one entry in a submission's append-only history.
// Events are never reordered or deleted; the last event's status always
// equals the submission's current status.
type SubmissionEvent struct {
	Timestamp time.Time        `json:"timestamp"`
	Status    SubmissionStatus `json:"status"`
	Message   string           `json:"message"`
	Details   string           `json:"details,omitempty"`
}

// Submission represents one filled-and-sent form instance.
type Submission struct {
	ID                string            `json:"id"`
	FormID            string            `json:"form_id"`
	FormTitle         string            `json:"form_title"`
	Data              map[string]string `json:"data"`
	Status            SubmissionStatus  `json:"status"`
	SubmittedAt       time.Time         `json:"submitted_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	Events            []SubmissionEvent `json:"events"`
	NotificationsSent []string          `json:"notifications_sent"`
}

// Clone returns a deep copy of the submission. The store hands out copies
// so callers can never mutate the stored record behind its back.
func (s *Submission) Clone() *Submission {
	if s == nil {
		return nil
	}
	c := *s
	if s.Data != nil {
		c.Data = make(map[string]string, len(s.Data))
		for k, v := range s.Data {
			c.Data[k] = v
		}
	}
	c.Events = append([]SubmissionEvent(nil), s.Events...)
	c.NotificationsSent = append([]string(nil), s.NotificationsSent...)
	return &c
}

// StatusUpdate is an out-of-band, admin-issued status change recorded
// into the local cache when the remote authority cannot be reached.
type StatusUpdate struct {
	TrackingID string           `json:"tracking_id"`
	Status     SubmissionStatus `json:"status"`
	Message    string           `json:"message"`
	Timestamp  time.Time        `json:"timestamp"`
}
