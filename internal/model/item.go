package model

import (
	"strings"
	"time"
)

// Channel identifies where an inbound message originated.
type Channel string

// Supported channels.
const (
	ChannelDM      Channel = "dm"
	ChannelComment Channel = "comment"
	ChannelReview  Channel = "review"
)

// ParseChannel maps a raw channel label onto the supported set, falling
// back to ChannelDM.
func ParseChannel(s string) Channel {
	switch Channel(strings.ToLower(strings.TrimSpace(s))) {
	case ChannelComment:
		return ChannelComment
	case ChannelReview:
		return ChannelReview
	default:
		return ChannelDM
	}
}

// ItemState is the lifecycle position of an inbox item.
type ItemState string

// Lifecycle states.
const (
	StateAwaitingDecision ItemState = "awaiting_decision"
	StateDecisionReady    ItemState = "decision_ready"
	StateFinalized        ItemState = "finalized"
)

// InboxItem is one inbound interaction in the working set. Items are
// created on intake, mutated only by attaching a decision and by the
// commit step, and never deleted.
type InboxItem struct {
	ReceivedAt    time.Time `json:"receivedAt"`
	Decision      *Decision `json:"decision,omitempty"`
	ArchivedReply *string   `json:"archivedReply,omitempty"`
	ID            string    `json:"id"`
	Sender        string    `json:"sender"`
	Content       string    `json:"content"`
	CleanContent  string    `json:"cleanContent,omitempty"`
	AccountID     string    `json:"accountId"`
	Channel       Channel   `json:"channel"`
	Finalized     bool      `json:"finalized"`
}

// State derives the lifecycle state from the item's fields.
func (it *InboxItem) State() ItemState {
	switch {
	case it.Finalized:
		return StateFinalized
	case it.Decision != nil:
		return StateDecisionReady
	default:
		return StateAwaitingDecision
	}
}
