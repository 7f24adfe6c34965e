package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/KoushikN01/legal-ai-forms-sub001/internal/models"
)

// rawSubmission tolerates every snapshot shape observed in the wild:
// camelCase from the web client, snake_case from the backend, and the
// canonical form this engine writes. Normalization happens here, once,
// at the cache boundary; ambiguous field names never reach core types.
type rawSubmission struct {
	ID            string `json:"id"`
	TrackingID    string `json:"trackingId"`
	TrackingIDAlt string `json:"tracking_id"`

	FormID    string `json:"formId"`
	FormIDAlt string `json:"form_id"`
	FormType  string `json:"formType"`

	FormTitle    string `json:"formTitle"`
	FormTitleAlt string `json:"form_title"`

	Status string `json:"status"`

	Data     map[string]string `json:"data"`
	FormData map[string]string `json:"formData"`

	SubmittedAt    string `json:"submittedAt"`
	SubmittedAtAlt string `json:"submitted_at"`
	UpdatedAt      string `json:"updatedAt"`
	UpdatedAtAlt   string `json:"updated_at"`

	Events            []rawEvent `json:"events"`
	AdminMessage      string     `json:"adminMessage"`
	NotificationsSent []string   `json:"notifications_sent"`
}

type rawEvent struct {
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Details   string `json:"details"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// NormalizeSubmission maps one cached record into the canonical
// Submission. It fails on records with no usable tracking id or an
// unknown status; such records are skipped by the caller.
func NormalizeSubmission(record json.RawMessage) (*models.Submission, error) {
	var raw rawSubmission
	if err := json.Unmarshal(record, &raw); err != nil {
		return nil, fmt.Errorf("decode submission record: %w", err)
	}

	id := firstNonEmpty(raw.TrackingID, raw.TrackingIDAlt, raw.ID)
	if id == "" {
		return nil, fmt.Errorf("submission record has no tracking id")
	}

	status := models.SubmissionStatus(raw.Status)
	if raw.Status == "" {
		status = models.StatusSubmitted
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("submission %s has unknown status %q", id, raw.Status)
	}

	submittedAt := parseTime(firstNonEmpty(raw.SubmittedAt, raw.SubmittedAtAlt))
	updatedAt := parseTime(firstNonEmpty(raw.UpdatedAt, raw.UpdatedAtAlt))
	if updatedAt.IsZero() {
		updatedAt = submittedAt
	}

	sub := &models.Submission{
		ID:                id,
		FormID:            firstNonEmpty(raw.FormID, raw.FormIDAlt, raw.FormType),
		FormTitle:         firstNonEmpty(raw.FormTitle, raw.FormTitleAlt, raw.FormIDAlt, "Unknown Form"),
		Data:              firstNonNil(raw.Data, raw.FormData),
		Status:            status,
		SubmittedAt:       submittedAt,
		UpdatedAt:         updatedAt,
		NotificationsSent: raw.NotificationsSent,
	}

	for _, ev := range raw.Events {
		evStatus := models.SubmissionStatus(ev.Status)
		if !evStatus.IsValid() {
			continue
		}
		sub.Events = append(sub.Events, models.SubmissionEvent{
			Timestamp: parseTime(ev.Timestamp),
			Status:    evStatus,
			Message:   ev.Message,
			Details:   ev.Details,
		})
	}

	// The event log invariant: the last event carries the current status.
	// Records from the web client often have no event history at all.
	if n := len(sub.Events); n == 0 || sub.Events[n-1].Status != sub.Status {
		sub.Events = append(sub.Events, models.SubmissionEvent{
			Timestamp: updatedAt,
			Status:    sub.Status,
			Message:   "Restored from local cache",
			Details:   raw.AdminMessage,
		})
	}

	return sub, nil
}

func parseTime(value string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonNil(maps ...map[string]string) map[string]string {
	for _, m := range maps {
		if m != nil {
			return m
		}
	}
	return map[string]string{}
}
