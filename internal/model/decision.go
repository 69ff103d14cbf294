package model

import (
	"strings"

	"github.com/google/uuid"
)

// Action is the engine-level side effect attached to a Decision.
type Action string

// Valid actions.
const (
	ActionNone       Action = "NONE"
	ActionEmailOwner Action = "EMAIL_OWNER"
	ActionAskAddress Action = "ASK_ADDRESS"
)

// ParseAction maps a raw backend action tag onto the valid set, falling
// back to ActionNone.
func ParseAction(s string) Action {
	switch Action(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionEmailOwner:
		return ActionEmailOwner
	case ActionAskAddress:
		return ActionAskAddress
	default:
		return ActionNone
	}
}

// SoldItem is one line of a confirmed sale.
type SoldItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Decision is the structured output of classifying one inbound message.
// A nil ReplyText means "do not send a user-visible reply" and is distinct
// from an empty string.
type Decision struct {
	ReplyText    *string    `json:"replyText"`
	Category     Category   `json:"category"`
	Action       Action     `json:"action"`
	InternalNote string     `json:"internalNote,omitempty"`
	OrderCode    string     `json:"orderCode,omitempty"`
	SoldItems    []SoldItem `json:"soldItems,omitempty"`
}

// HasReply reports whether the decision carries a user-visible reply.
func (d *Decision) HasReply() bool {
	return d.ReplyText != nil
}

// FlatShippingFee is added to every confirmed order total.
const FlatShippingFee = 5.0

// Normalize coerces a decision into one that satisfies every invariant for
// the given policy and catalog snapshot. It is total: any input produces a
// conforming decision, never an error.
//
// Order of enforcement matters: the spam override beats everything,
// including user-taught guidelines; the auto-confirm gate beats any sale
// the backend claims; quantity clamping runs last so sold items can never
// exceed stock, and any sale that survives it carries EMAIL_OWNER.
func (d *Decision) Normalize(policy Policy, catalog []Product) {
	d.Category = ParseCategory(string(d.Category))
	d.Action = ParseAction(string(d.Action))

	// Empty-string replies from the backend mean "no reply".
	if d.ReplyText != nil && strings.TrimSpace(*d.ReplyText) == "" {
		d.ReplyText = nil
	}

	if d.Category.IsSpam() {
		d.ReplyText = nil
		d.Action = ActionNone
		d.SoldItems = nil
		d.OrderCode = ""
		if d.InternalNote == "" {
			d.InternalNote = "Spam detected; no reply sent."
		}
		return
	}

	if d.Category.IsPurchaseIntent() && !policy.AutoConfirmOrders {
		d.ReplyText = nil
		d.Action = ActionEmailOwner
		d.SoldItems = nil
		d.OrderCode = ""
		if d.InternalNote == "" {
			d.InternalNote = "Order forwarded to owner (auto-confirm disabled)."
		}
		return
	}

	// A missing shipping address blocks any stock mutation.
	if d.Action == ActionAskAddress {
		d.SoldItems = nil
		d.OrderCode = ""
		return
	}

	d.SoldItems = clampSoldItems(d.SoldItems, catalog)

	if len(d.SoldItems) == 0 {
		d.OrderCode = ""
		return
	}

	// A confirmed sale always notifies the owner, whatever action tag the
	// backend produced.
	d.Action = ActionEmailOwner
	if d.OrderCode == "" {
		d.OrderCode = NewOrderCode()
	}
}

// clampSoldItems drops unknown products and non-positive quantities, and
// clamps each requested quantity to available stock.
func clampSoldItems(sold []SoldItem, catalog []Product) []SoldItem {
	if len(sold) == 0 {
		return nil
	}

	remaining := make(map[string]int, len(catalog))
	for _, p := range catalog {
		remaining[p.ID] = p.Quantity
	}

	out := make([]SoldItem, 0, len(sold))
	for _, s := range sold {
		stock, ok := remaining[s.ProductID]
		if !ok || s.Quantity <= 0 || stock <= 0 {
			continue
		}
		qty := s.Quantity
		if qty > stock {
			qty = stock
		}
		remaining[s.ProductID] = stock - qty
		out = append(out, SoldItem{ProductID: s.ProductID, Quantity: qty})
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// OrderTotal computes the customer-facing total for a confirmed sale:
// the sum of unit price times quantity plus the flat shipping fee.
func OrderTotal(sold []SoldItem, catalog []Product) float64 {
	if len(sold) == 0 {
		return 0
	}

	prices := make(map[string]float64, len(catalog))
	for _, p := range catalog {
		prices[p.ID] = p.Price
	}

	total := FlatShippingFee
	for _, s := range sold {
		total += prices[s.ProductID] * float64(s.Quantity)
	}
	return total
}

// NewOrderCode synthesizes a unique order code.
func NewOrderCode() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}
