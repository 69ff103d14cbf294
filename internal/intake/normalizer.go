// Package intake normalizes raw inbound messages into inbox items,
// masking obvious PII before the text reaches any external backend.
package intake

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tidewater/inboxpilot/internal/model"
)

var (
	urlRe   = regexp.MustCompile(`https?://[^\s]+`)
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
	orderRe = regexp.MustCompile(`\bORD-[A-Z0-9]{4,}\b`)
)

// RawMessage is an inbound interaction as it arrives on the wire, before
// any normalization.
type RawMessage struct {
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	AccountID string `json:"accountId"`
	Channel   string `json:"channel"`
}

// MaskPII replaces URLs, email addresses, phone-like digit runs, and
// order codes with placeholder tokens. The original content is kept on
// the item; only the masked form is handed to the classifier.
func MaskPII(s string) string {
	s = urlRe.ReplaceAllString(s, "[link]")
	s = emailRe.ReplaceAllString(s, "[email]")
	s = orderRe.ReplaceAllString(s, "[order]")
	s = phoneRe.ReplaceAllString(s, "[phone]")
	return s
}

// HashSender derives a stable pseudonymous handle from a sender id.
func HashSender(sender string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(sender))))
	return hex.EncodeToString(sum[:])[:16]
}

// Normalize turns a raw message into a new inbox item in the
// awaiting_decision state.
func Normalize(raw RawMessage) model.InboxItem {
	content := strings.TrimSpace(raw.Content)
	return model.InboxItem{
		ID:           uuid.NewString(),
		Sender:       strings.TrimSpace(raw.Sender),
		Content:      content,
		CleanContent: MaskPII(content),
		AccountID:    strings.TrimSpace(raw.AccountID),
		Channel:      model.ParseChannel(raw.Channel),
		ReceivedAt:   time.Now(),
	}
}
