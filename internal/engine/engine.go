// Package engine implements the inbox state machine: classification of
// inbound items, the auto-send scheduler, and the commit step that applies
// fulfillment and archives replies.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tidewater/inboxpilot/internal/catalog"
	"github.com/tidewater/inboxpilot/internal/common"
	"github.com/tidewater/inboxpilot/internal/guideline"
	"github.com/tidewater/inboxpilot/internal/intake"
	"github.com/tidewater/inboxpilot/internal/model"
	"github.com/tidewater/inboxpilot/internal/service"
)

// SaveFunc persists an updated settings snapshot. Persistence mechanics
// are the caller's responsibility.
type SaveFunc func(ctx context.Context, settings model.Settings) error

// Config holds configuration options for the engine.
type Config struct {
	// AutoSendDelay is how long a ready decision waits before committing
	// unattended when the auto-reply policy is on.
	AutoSendDelay time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{AutoSendDelay: 1500 * time.Millisecond}
}

// Engine owns the working set of inbox items and drives each one through
// awaiting_decision → decision_ready → finalized.
type Engine struct {
	items      map[string]*model.InboxItem
	order      []string
	profile    model.Profile
	policy     model.Policy
	catalog    *catalog.Store
	ledger     *catalog.Ledger
	guidelines *guideline.Store
	responder  service.Responder
	notifier   service.Notifier
	save       SaveFunc
	sched      *scheduler
	logger     *slog.Logger
	delay      time.Duration
	focusID    string
	mu         sync.Mutex
}

// New creates an engine around a loaded settings aggregate.
func New(settings model.Settings, responder service.Responder, notifier service.Notifier, save SaveFunc, cfg Config, logger *slog.Logger) *Engine {
	if cfg.AutoSendDelay <= 0 {
		cfg.AutoSendDelay = DefaultConfig().AutoSendDelay
	}
	store := catalog.NewStore(settings.Catalog)
	return &Engine{
		items:      make(map[string]*model.InboxItem),
		profile:    settings.Profile,
		policy:     settings.Policy,
		catalog:    store,
		ledger:     catalog.NewLedger(store, logger),
		guidelines: guideline.NewStore(settings.Guidelines),
		responder:  responder,
		notifier:   notifier,
		save:       save,
		sched:      &scheduler{},
		logger:     logger,
		delay:      cfg.AutoSendDelay,
	}
}

// Settings assembles the current settings snapshot.
func (e *Engine) Settings() model.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settingsLocked()
}

func (e *Engine) settingsLocked() model.Settings {
	return model.Settings{
		Profile:    e.profile,
		Policy:     e.policy,
		Catalog:    e.catalog.Snapshot(),
		Guidelines: e.guidelines.All(),
	}
}

// Add appends an item to the working set. Items are never deleted.
func (e *Engine) Add(item model.InboxItem) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.items[item.ID]; exists {
		return
	}
	it := item
	e.items[item.ID] = &it
	e.order = append(e.order, item.ID)

	e.logger.Info("item added",
		"item_id", item.ID,
		"channel", item.Channel,
		"sender", item.Sender)
}

// Items returns the working set in insertion order.
func (e *Engine) Items() []model.InboxItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.InboxItem, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, *e.items[id])
	}
	return out
}

// Item returns a copy of one item.
func (e *Engine) Item(id string) (model.InboxItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	it, ok := e.items[id]
	if !ok {
		return model.InboxItem{}, fmt.Errorf("%w: %s", common.ErrItemNotFound, id)
	}
	return *it, nil
}

// Focus moves the active selection to the given item. Any timer armed for
// a different item is cancelled synchronously before Focus returns, so a
// stale commit can never fire after the selection has moved on.
func (e *Engine) Focus(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.items[id]; !ok {
		return fmt.Errorf("%w: %s", common.ErrItemNotFound, id)
	}

	if cancelled, ok := e.sched.CancelIfOther(id); ok {
		e.logger.Info("cancelled pending auto-send on focus change",
			"cancelled_item_id", cancelled,
			"focused_item_id", id)
	}
	e.focusID = id
	return nil
}

// Classify attaches a decision to an item and, when the auto-reply policy
// is on, arms the auto-send timer for it. Re-classifying a non-finalized
// item replaces its decision; a finalized item returns its existing one.
func (e *Engine) Classify(ctx context.Context, id string) (model.Decision, error) {
	e.mu.Lock()
	it, ok := e.items[id]
	if !ok {
		e.mu.Unlock()
		return model.Decision{}, fmt.Errorf("%w: %s", common.ErrItemNotFound, id)
	}
	if it.Finalized {
		d := *it.Decision
		e.mu.Unlock()
		return d, nil
	}

	// Switching the active item implicitly: cancel any timer armed for a
	// different item before this classification begins.
	if cancelled, ok := e.sched.CancelIfOther(id); ok {
		e.logger.Info("cancelled pending auto-send before classification",
			"cancelled_item_id", cancelled,
			"item_id", id)
	}
	e.focusID = id

	// Only the PII-masked form ever reaches the backend.
	content := it.CleanContent
	if content == "" {
		content = it.Content
	}
	channel := it.Channel
	settings := e.settingsLocked()
	e.mu.Unlock()

	// Suspension point: the backend call runs outside the engine lock.
	decision, err := e.responder.Classify(ctx, content, channel, settings)
	if err != nil {
		return model.Decision{}, fmt.Errorf("classification failed: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	it, ok = e.items[id]
	if !ok || it.Finalized {
		// The item was finalized while we were waiting on the backend.
		return decision, nil
	}
	d := decision
	it.Decision = &d

	e.logger.Info("decision attached",
		"item_id", id,
		"category", d.Category,
		"action", d.Action,
		"state", it.State())

	if e.policy.AutoReply {
		e.armLocked(id)
	}

	return decision, nil
}

// Commit finalizes an item: applies fulfillment exactly once, archives the
// reply (or the internal note when there is nothing to send), emits the
// owner notification, and persists the updated settings snapshot.
// Committing an already-finalized item is a no-op.
func (e *Engine) Commit(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commitLocked(ctx, id)
}

func (e *Engine) commitLocked(ctx context.Context, id string) error {
	it, ok := e.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrItemNotFound, id)
	}
	if it.Finalized {
		e.logger.Debug("commit on finalized item ignored", "item_id", id)
		return nil
	}
	if it.Decision == nil {
		return fmt.Errorf("%w: %s", common.ErrNoDecision, id)
	}

	// Entering committing: this item's own timer is spent or superseded.
	if armed, ok := e.sched.Armed(); ok && armed == id {
		e.sched.Cancel()
	}

	d := it.Decision

	if len(d.SoldItems) > 0 {
		applied := e.ledger.Apply(id, d.SoldItems)
		e.logger.Info("stock updated",
			"item_id", id,
			"order_code", d.OrderCode,
			"line_items", len(applied))
	}

	if d.HasReply() {
		reply := *d.ReplyText
		it.ArchivedReply = &reply
	} else if d.InternalNote != "" {
		note := d.InternalNote
		it.ArchivedReply = &note
	}
	it.Finalized = true

	if d.Action == model.ActionEmailOwner {
		e.emitNotification(ctx, it, d)
	}

	if e.save != nil {
		if err := e.save(ctx, e.settingsLocked()); err != nil {
			e.logger.Error("failed to persist settings snapshot", "error", err)
		}
	}

	e.logger.Info("item finalized",
		"item_id", id,
		"category", d.Category,
		"sent_reply", d.HasReply())

	return nil
}

func (e *Engine) emitNotification(ctx context.Context, it *model.InboxItem, d *model.Decision) {
	subject := fmt.Sprintf("Inbox: %s from %s", d.Category, it.Sender)
	summary := d.InternalNote
	if d.OrderCode != "" {
		total := model.OrderTotal(d.SoldItems, e.catalog.Snapshot())
		summary = fmt.Sprintf("Order %s confirmed, total $%.2f. %s", d.OrderCode, total, summary)
	}

	intent := model.NotificationIntent{
		Target:    e.policy.NotificationTarget,
		Subject:   subject,
		Summary:   summary,
		CreatedAt: time.Now(),
	}
	if err := e.notifier.Notify(ctx, intent); err != nil {
		e.logger.Warn("failed to emit notification intent", "item_id", it.ID, "error", err)
	}
}

// Teach appends a guideline and persists the updated snapshot.
func (e *Engine) Teach(ctx context.Context, trigger, reply string) (model.Guideline, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g := e.guidelines.Teach(trigger, reply)
	e.logger.Info("guideline taught", "trigger", trigger)

	if e.save != nil {
		if err := e.save(ctx, e.settingsLocked()); err != nil {
			return g, fmt.Errorf("failed to persist settings snapshot: %w", err)
		}
	}
	return g, nil
}

// CancelPending cancels any armed auto-send timer. Returns the item id the
// timer was armed for.
func (e *Engine) CancelPending() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sched.Cancel()
}

// PendingAutoSend reports the item id an auto-send timer is armed for.
func (e *Engine) PendingAutoSend() (string, bool) {
	return e.sched.Armed()
}

// UpdatePolicy changes the approval policy mid-flow. Toggling auto-reply
// off cancels any pending auto-send; toggling it on arms a timer for the
// focused item if its decision is ready.
func (e *Engine) UpdatePolicy(ctx context.Context, policy model.Policy) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.policy = policy

	if !policy.AutoReply {
		if cancelled, ok := e.sched.Cancel(); ok {
			e.logger.Info("cancelled pending auto-send on policy change", "item_id", cancelled)
		}
	} else if e.focusID != "" {
		if it, ok := e.items[e.focusID]; ok && it.State() == model.StateDecisionReady {
			e.armLocked(e.focusID)
		}
	}

	if e.save != nil {
		if err := e.save(ctx, e.settingsLocked()); err != nil {
			return fmt.Errorf("failed to persist settings snapshot: %w", err)
		}
	}
	return nil
}

// Simulate classifies ad-hoc content against the current settings without
// touching the working set, the ledger, or any timers. The content is
// PII-masked like intake content before it reaches the backend.
func (e *Engine) Simulate(ctx context.Context, content string, channel model.Channel) (model.Decision, error) {
	return e.responder.Classify(ctx, intake.MaskPII(content), channel, e.Settings())
}

// Catalog returns the current catalog snapshot.
func (e *Engine) Catalog() []model.Product {
	return e.catalog.Snapshot()
}

// AddProduct inserts or replaces a catalog entry and persists the updated
// snapshot.
func (e *Engine) AddProduct(ctx context.Context, p model.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.catalog.Add(p)
	e.logger.Info("product saved", "product_id", p.ID, "stock", p.Quantity)

	if e.save != nil {
		if err := e.save(ctx, e.settingsLocked()); err != nil {
			return fmt.Errorf("failed to persist settings snapshot: %w", err)
		}
	}
	return nil
}

// SetStock overwrites a product's stock count and persists the updated
// snapshot.
func (e *Engine) SetStock(ctx context.Context, productID string, qty int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.catalog.SetQuantity(productID, qty); err != nil {
		return err
	}
	e.logger.Info("stock set", "product_id", productID, "quantity", qty)

	if e.save != nil {
		if err := e.save(ctx, e.settingsLocked()); err != nil {
			return fmt.Errorf("failed to persist settings snapshot: %w", err)
		}
	}
	return nil
}

// Guidelines returns the taught guidelines in insertion order.
func (e *Engine) Guidelines() []model.Guideline {
	return e.guidelines.All()
}

// armLocked arms the auto-send timer for an item. Callers must hold e.mu.
func (e *Engine) armLocked(id string) {
	e.sched.Arm(id, e.delay, e.autoSend)
	e.logger.Info("auto-send armed", "item_id", id, "delay", e.delay)
}

// autoSend is the timer callback. It re-acquires the engine lock and only
// commits if its generation survived: a cancel or re-arm that happened
// after the timer fired but before the lock was acquired wins.
func (e *Engine) autoSend(id string, gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.sched.consume(gen) {
		e.logger.Debug("stale auto-send ignored", "item_id", id)
		return
	}

	if err := e.commitLocked(context.Background(), id); err != nil {
		e.logger.Error("auto-send commit failed", "item_id", id, "error", err)
	}
}
