// Package notification decides when status-change notifications fire and
// through which channels. How a channel renders is the sink's problem.
package notification

import (
	"sync"

	"github.com/KoushikN01/legal-ai-forms-sub001/internal/models"
	"go.uber.org/zap"
)

// Channel names
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelInApp = "in_app"
)

// Notifier delivers one status-change notice over one channel.
type Notifier interface {
	Notify(trackingID string, status models.SubmissionStatus, message string) error
}

// Preferences gates which channels are attempted.
type Preferences struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	InApp bool `json:"in_app"`
}

// DefaultPreferences mirrors the product default: in-app and email on,
// SMS opt-in.
func DefaultPreferences() Preferences {
	return Preferences{Email: true, SMS: false, InApp: true}
}

func (p Preferences) enabled(channel string) bool {
	switch channel {
	case ChannelEmail:
		return p.Email
	case ChannelSMS:
		return p.SMS
	case ChannelInApp:
		return p.InApp
	}
	return false
}

// Service fans a status change out to the registered channel sinks that
// the current preferences allow.
type Service struct {
	mu     sync.RWMutex
	prefs  Preferences
	sinks  map[string]Notifier
	logger *zap.Logger
}

// NewService creates a notification service with the given defaults.
func NewService(prefs Preferences, logger *zap.Logger) *Service {
	return &Service{
		prefs:  prefs,
		sinks:  make(map[string]Notifier),
		logger: logger,
	}
}

// Register attaches a sink to a channel, replacing any previous one.
func (s *Service) Register(channel string, sink Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks[channel] = sink
}

// SetPreferences replaces the channel preferences.
func (s *Service) SetPreferences(prefs Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = prefs
}

// Preferences returns the current channel preferences.
func (s *Service) Preferences() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Dispatch delivers a notice over every enabled channel with a sink and
// returns the channels that succeeded. Delivery failures are logged and
// swallowed; a broken channel never blocks a status update.
func (s *Service) Dispatch(trackingID string, status models.SubmissionStatus, message string) []string {
	s.mu.RLock()
	prefs := s.prefs
	sinks := make(map[string]Notifier, len(s.sinks))
	for ch, sink := range s.sinks {
		sinks[ch] = sink
	}
	s.mu.RUnlock()

	var used []string
	for _, channel := range []string{ChannelEmail, ChannelSMS, ChannelInApp} {
		if !prefs.enabled(channel) {
			continue
		}
		sink, ok := sinks[channel]
		if !ok {
			continue
		}
		if err := sink.Notify(trackingID, status, message); err != nil {
			s.logger.Warn("Notification delivery failed",
				zap.String("channel", channel),
				zap.String("tracking_id", trackingID),
				zap.Error(err))
			continue
		}
		used = append(used, channel)
	}
	return used
}

// LogNotifier is the default in-app sink: it surfaces updates through the
// structured log, where the UI layer tails them.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed sink.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(trackingID string, status models.SubmissionStatus, message string) error {
	n.logger.Info("Status notification",
		zap.String("tracking_id", trackingID),
		zap.String("status", string(status)),
		zap.String("message", message))
	return nil
}
