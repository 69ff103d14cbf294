package llm

import (
	"context"
	"time"
)

// Client defines the interface for classification backends. Implementations
// return the raw completion text; extraction and validation into a
// conforming Decision happens in the Responder.
type Client interface {
	GenerateDecision(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Config holds configuration for the classification backend.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	Temperature float64
	MaxTokens   int
}

// rawDecision is the wire shape a backend is asked to produce. Every field
// is optional on the wire; validation and coercion live in model.Decision.
type rawDecision struct {
	ReplyText    *string       `json:"replyText"`
	Category     string        `json:"category"`
	Action       string        `json:"action"`
	InternalNote string        `json:"internalNote"`
	OrderCode    string        `json:"orderCode"`
	SoldItems    []rawSoldItem `json:"soldItems"`
}

// rawSoldItem tolerates backends that identify products by id or by name.
type rawSoldItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
}
