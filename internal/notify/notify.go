// Package notify collects notification intents. Delivery (email, push) is
// out of scope; downstream consumers drain the recorder.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tidewater/inboxpilot/internal/model"
)

// Recorder accumulates intents in memory and logs each one as it arrives.
type Recorder struct {
	intents []model.NotificationIntent
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewRecorder creates an empty recorder.
func NewRecorder(logger *slog.Logger) *Recorder {
	return &Recorder{logger: logger}
}

// Notify records the intent.
func (r *Recorder) Notify(_ context.Context, intent model.NotificationIntent) error {
	r.mu.Lock()
	r.intents = append(r.intents, intent)
	r.mu.Unlock()

	r.logger.Info("notification intent recorded",
		"target", intent.Target,
		"subject", intent.Subject)
	return nil
}

// Intents returns a copy of everything recorded so far.
func (r *Recorder) Intents() []model.NotificationIntent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.NotificationIntent, len(r.intents))
	copy(out, r.intents)
	return out
}
