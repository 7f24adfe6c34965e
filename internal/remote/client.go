// Package remote talks to the authoritative submission-status service.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/KoushikN01/legal-ai-forms-sub001/internal/models"
	"go.uber.org/zap"
)

// ErrNotFound means the authority answered and does not know the
// tracking id. It is distinct from a transport failure: callers fall
// back to the local cache either way, but only transport failures are
// retried against the same authority.
var ErrNotFound = errors.New("submission not found at remote authority")

// Status is the authority's answer for one tracking id.
type Status struct {
	Status  models.SubmissionStatus `json:"status"`
	Message string                  `json:"message"`
}

// StatusFetcher fetches the authoritative status for a tracking id.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, trackingID string) (*Status, error)
}

// Config holds remote client configuration
type Config struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
}

// Client is the HTTP implementation of StatusFetcher.
type Client struct {
	baseURL   string
	authToken string
	timeout   time.Duration
	http      *http.Client
	logger    *zap.Logger
}

// NewClient creates a remote status client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		authToken: cfg.AuthToken,
		timeout:   cfg.Timeout,
		http:      &http.Client{},
		logger:    logger,
	}
}

// FetchStatus queries GET {base}/track/{id}. Every call is bounded by the
// configured timeout on top of whatever deadline ctx already carries; a
// slow authority degrades to a fallback, never a hung poll loop.
func (c *Client) FetchStatus(ctx context.Context, trackingID string) (*Status, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/track/%s", c.baseURL, trackingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch status for %s: %w", trackingID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch status for %s: unexpected response %d", trackingID, resp.StatusCode)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode status for %s: %w", trackingID, err)
	}
	if !status.Status.IsValid() {
		return nil, fmt.Errorf("fetch status for %s: unknown status %q", trackingID, status.Status)
	}

	c.logger.Debug("Remote status fetched",
		zap.String("tracking_id", trackingID),
		zap.String("status", string(status.Status)))

	return &status, nil
}
