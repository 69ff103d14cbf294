// Package llm implements the classification backend boundary: provider
// clients, output recovery, and the Responder that turns one inbound
// message plus business context into a conforming Decision.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tidewater/inboxpilot/internal/common"
	"github.com/tidewater/inboxpilot/internal/model"
	"github.com/tidewater/inboxpilot/internal/service"
)

// fallbackReply is sent when the backend is unreachable or its output
// cannot be recovered.
const fallbackReply = "I'm sorry, I'm having trouble processing your request right now."

// Responder implements service.Responder on top of a backend Client.
type Responder struct {
	client    Client
	logger    *slog.Logger
	retryOpts service.RetryOptions
}

// NewResponder creates a Responder for the configured provider.
func NewResponder(cfg Config, logger *slog.Logger) (*Responder, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Responder{
		client:    client,
		logger:    logger,
		retryOpts: retryOpts,
	}, nil
}

// NewResponderWithClient creates a Responder around an existing client.
// Used by tests and by callers that manage provider construction themselves.
func NewResponderWithClient(client Client, logger *slog.Logger) *Responder {
	return &Responder{
		client:    client,
		logger:    logger,
		retryOpts: service.RetryOptions{MaxAttempts: 1},
	}
}

// Classify produces a Decision for one inbound message. The contract is
// total: backend failures and malformed output degrade to the fallback
// decision, and whatever the backend returns is coerced until every
// category, action, and stock invariant holds.
func (r *Responder) Classify(ctx context.Context, content string, channel model.Channel, settings model.Settings) (model.Decision, error) {
	prompt := buildSystemPrompt(settings, channel)

	var completion string
	err := common.WithRetry(ctx, func() error {
		out, callErr := r.client.GenerateDecision(ctx, prompt, content)
		if callErr != nil {
			r.logger.Warn("backend call failed",
				"channel", channel,
				"error", callErr)
			return &common.RetryableError{Err: callErr, Retryable: true}
		}
		completion = out
		return nil
	}, r.retryOpts)
	if err != nil {
		r.logger.Error("classification backend unavailable, using fallback decision",
			"channel", channel,
			"error", err)
		return fallbackDecision(), nil
	}

	raw, err := extractDecision(completion)
	if err != nil {
		r.logger.Error("backend output unrecoverable, using fallback decision",
			"channel", channel,
			"error", err)
		return fallbackDecision(), nil
	}

	decision := r.toDecision(raw, settings.Catalog)
	decision.Normalize(settings.Policy, settings.Catalog)

	r.logger.Info("message classified",
		"channel", channel,
		"category", decision.Category,
		"action", decision.Action,
		"has_reply", decision.HasReply(),
		"sold_items", len(decision.SoldItems))

	return decision, nil
}

// toDecision converts wire output into a Decision, resolving product
// references by id first and by name second.
func (r *Responder) toDecision(raw rawDecision, catalog []model.Product) model.Decision {
	decision := model.Decision{
		Category:     model.Category(raw.Category),
		ReplyText:    raw.ReplyText,
		Action:       model.Action(raw.Action),
		InternalNote: strings.TrimSpace(raw.InternalNote),
		OrderCode:    strings.TrimSpace(raw.OrderCode),
	}

	for _, s := range raw.SoldItems {
		id := resolveProductID(s, catalog)
		if id == "" {
			r.logger.Warn("dropping sold item with unknown product",
				"product_id", s.ProductID,
				"name", s.Name)
			continue
		}
		decision.SoldItems = append(decision.SoldItems, model.SoldItem{
			ProductID: id,
			Quantity:  int(s.Quantity),
		})
	}

	return decision
}

func resolveProductID(s rawSoldItem, catalog []model.Product) string {
	for _, p := range catalog {
		if s.ProductID != "" && p.ID == s.ProductID {
			return p.ID
		}
	}
	for _, p := range catalog {
		if s.Name != "" && strings.EqualFold(p.Name, s.Name) {
			return p.ID
		}
	}
	return ""
}

// fallbackDecision is the safe decision for any unrecoverable failure.
func fallbackDecision() model.Decision {
	reply := fallbackReply
	return model.Decision{
		Category:     model.CategoryOther,
		ReplyText:    &reply,
		Action:       model.ActionNone,
		InternalNote: "Classification backend failed; sent a generic apology.",
	}
}
