// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/tidewater/inboxpilot/internal/model"
)

// Storage defines the contract for our persistence layer. The engine core
// never touches it directly; the cmd layer loads a settings snapshot at
// start and wires SaveSettings in as the engine's save callback.
type Storage interface {
	// Settings aggregate (full snapshot in, full snapshot out)
	LoadSettings(ctx context.Context) (*model.Settings, error)
	SaveSettings(ctx context.Context, settings *model.Settings) error

	// Inbox items
	SaveItem(ctx context.Context, item *model.InboxItem) error
	GetItem(ctx context.Context, id string) (*model.InboxItem, error)
	ListItems(ctx context.Context, limit int) ([]model.InboxItem, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Responder turns one inbound message plus business context into a
// conforming Decision. Implementations must never return a decision that
// violates the category, action, or stock invariants; backend failures
// degrade to the fallback decision rather than an error.
type Responder interface {
	Classify(ctx context.Context, content string, channel model.Channel, settings model.Settings) (model.Decision, error)
}

// Notifier receives notification intents for EMAIL_OWNER decisions.
// Actual delivery is outside the engine's scope.
type Notifier interface {
	Notify(ctx context.Context, intent model.NotificationIntent) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
