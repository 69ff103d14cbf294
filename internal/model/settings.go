package model

import (
	"strconv"
	"time"
)

// Product is one catalog entry. Quantity is a stock count and is never
// allowed to go negative.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Guideline is a user-taught trigger/reply pair. Immutable once created;
// consumed as soft priority context by the classifier, never interpreted
// programmatically by the engine.
type Guideline struct {
	CreatedAt time.Time `json:"createdAt"`
	Trigger   string    `json:"trigger"`
	Reply     string    `json:"reply"`
}

// String renders the guideline the way it is presented to the classifier.
func (g Guideline) String() string {
	return "When a customer says something like " + strconv.Quote(g.Trigger) + ", reply: " + strconv.Quote(g.Reply)
}

// Policy gates how decisions are committed.
type Policy struct {
	NotificationTarget string `json:"notificationTarget"`
	AutoReply          bool   `json:"autoReply"`
	AutoConfirmOrders  bool   `json:"autoConfirmOrders"`
}

// Profile describes the business for classifier context.
type Profile struct {
	BusinessName    string `json:"businessName"`
	Description     string `json:"description"`
	TargetAudience  string `json:"targetAudience"`
	BrandVoice      string `json:"brandVoice"`
}

// Settings is the business settings aggregate handed to the engine at
// start and emitted back whenever a guideline is taught or stock changes.
type Settings struct {
	Profile    Profile     `json:"profile"`
	Policy     Policy      `json:"policy"`
	Catalog    []Product   `json:"catalog"`
	Guidelines []Guideline `json:"guidelines"`
}

// Clone returns a deep copy so callers can hold a snapshot without
// aliasing the engine's live slices.
func (s Settings) Clone() Settings {
	out := s
	out.Catalog = make([]Product, len(s.Catalog))
	copy(out.Catalog, s.Catalog)
	out.Guidelines = make([]Guideline, len(s.Guidelines))
	copy(out.Guidelines, s.Guidelines)
	return out
}

// NotificationIntent is the record emitted when a decision carries the
// EMAIL_OWNER action. Delivery is external to this engine.
type NotificationIntent struct {
	CreatedAt time.Time `json:"createdAt"`
	Target    string    `json:"target"`
	Subject   string    `json:"subject"`
	Summary   string    `json:"summary"`
}
