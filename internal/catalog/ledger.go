package catalog

import (
	"log/slog"
	"sync"

	"github.com/tidewater/inboxpilot/internal/model"
)

// Ledger applies the sold-items portion of a decision to the catalog at
// most once per decision. The send scheduler already guarantees a single
// commit per item; the ledger's own guard makes the invariant hold even
// against a misbehaving caller.
type Ledger struct {
	store   *Store
	applied map[string]bool
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewLedger creates a ledger writing to the given store.
func NewLedger(store *Store, logger *slog.Logger) *Ledger {
	return &Ledger{
		store:   store,
		applied: make(map[string]bool),
		logger:  logger,
	}
}

// Apply decrements stock for each sold item, clamped so no product goes
// negative, and returns the quantities actually applied. A decision id
// that was already applied is a no-op returning nil.
func (l *Ledger) Apply(decisionID string, sold []model.SoldItem) []model.SoldItem {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.applied[decisionID] {
		l.logger.Warn("fulfillment already applied, ignoring", "decision_id", decisionID)
		return nil
	}
	l.applied[decisionID] = true

	if len(sold) == 0 {
		return nil
	}

	out := make([]model.SoldItem, 0, len(sold))
	for _, s := range sold {
		applied := l.store.Decrement(s.ProductID, s.Quantity)
		if applied == 0 {
			continue
		}
		if applied < s.Quantity {
			l.logger.Warn("clamped sale to available stock",
				"decision_id", decisionID,
				"product_id", s.ProductID,
				"requested", s.Quantity,
				"applied", applied)
		}
		out = append(out, model.SoldItem{ProductID: s.ProductID, Quantity: applied})
	}

	l.logger.Info("fulfillment applied",
		"decision_id", decisionID,
		"line_items", len(out))

	return out
}

// Applied reports whether a decision id has already been fulfilled.
func (l *Ledger) Applied(decisionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applied[decisionID]
}
