// internal/pkg/notify/notify.go

// Package notify delivers user-facing operation outcomes.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Level classifies a notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Notification is one message shown to a user
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier is injected wherever an operation outcome must reach the user
type Notifier interface {
	Notify(ctx context.Context, recipient uint, level Level, message, title string)
	Clear(ctx context.Context, recipient uint)
}

// Sink receives every notification
type Sink interface {
	Deliver(ctx context.Context, recipient uint, n Notification) error
	Clear(ctx context.Context, recipient uint) error
}

// Service fans notifications out to its sinks. A failing sink is logged and
// never fails the caller.
type Service struct {
	sinks []Sink
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewService creates a notifier over sinks
func NewService(log logrus.FieldLogger, sinks ...Sink) *Service {
	return &Service{
		sinks: sinks,
		log:   log,
		now:   time.Now,
	}
}

func (s *Service) Notify(ctx context.Context, recipient uint, level Level, message, title string) {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Title:     title,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	for _, sink := range s.sinks {
		if err := sink.Deliver(ctx, recipient, n); err != nil {
			s.log.WithError(err).WithField("user_id", recipient).Warn("notification delivery failed")
		}
	}
}

func (s *Service) Clear(ctx context.Context, recipient uint) {
	for _, sink := range s.sinks {
		if err := sink.Clear(ctx, recipient); err != nil {
			s.log.WithError(err).WithField("user_id", recipient).Warn("notification clear failed")
		}
	}
}

// Channel binds a Notifier to one recipient
type Channel struct {
	notifier  Notifier
	recipient uint
}

// For returns the channel of recipient
func For(n Notifier, recipient uint) *Channel {
	return &Channel{notifier: n, recipient: recipient}
}

func (c *Channel) Success(ctx context.Context, message, title string) {
	c.notifier.Notify(ctx, c.recipient, LevelSuccess, message, title)
}

func (c *Channel) Error(ctx context.Context, message, title string) {
	c.notifier.Notify(ctx, c.recipient, LevelError, message, title)
}

func (c *Channel) Warning(ctx context.Context, message, title string) {
	c.notifier.Notify(ctx, c.recipient, LevelWarning, message, title)
}

func (c *Channel) Info(ctx context.Context, message, title string) {
	c.notifier.Notify(ctx, c.recipient, LevelInfo, message, title)
}

func (c *Channel) Clear(ctx context.Context) {
	c.notifier.Clear(ctx, c.recipient)
}
