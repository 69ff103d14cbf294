package llm

import (
	"fmt"
	"strings"

	"github.com/tidewater/inboxpilot/internal/model"
)

// buildSystemPrompt assembles the full business context for one
// classification call: profile, channel, catalog snapshot, policy flags,
// the closed category set, the order rules, and the user-taught
// guidelines as soft priority instructions.
func buildSystemPrompt(settings model.Settings, channel model.Channel) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert social media manager for %s, a %s.\n",
		settings.Profile.BusinessName, settings.Profile.Description)
	fmt.Fprintf(&b, "Target Audience: %s.\nBrand Voice: %s.\n\n",
		settings.Profile.TargetAudience, settings.Profile.BrandVoice)
	fmt.Fprintf(&b, "Context: this is a %s on a social platform.\n\n", channelLabel(channel))

	if len(settings.Catalog) > 0 {
		b.WriteString("Active Product Catalog (id | name | price | stock):\n")
		for _, p := range settings.Catalog {
			fmt.Fprintf(&b, "- %s | %s | $%.2f | qty %d\n", p.ID, p.Name, p.Price, p.Quantity)
		}
		fmt.Fprintf(&b, "Shipping Cost: $%.2f flat rate.\n\n", model.FlatShippingFee)
	} else {
		b.WriteString("No product catalog available. Assume items are out of stock.\n\n")
	}

	fmt.Fprintf(&b, "Auto-Confirm Orders Enabled: %t\n\n", settings.Policy.AutoConfirmOrders)

	b.WriteString("TASK: Classify the customer message into exactly one category from this closed set:\n")
	for _, c := range model.AllCategories() {
		fmt.Fprintf(&b, "- %s\n", c)
	}

	b.WriteString(`
RULES:
1. interested_in_buying is an order. If Auto-Confirm Orders is FALSE, set replyText to null, action to EMAIL_OWNER, and internalNote to a short summary; do not list soldItems. If TRUE: check the catalog stock; if the customer gave no shipping address, ask for it and set action to ASK_ADDRESS with no soldItems; otherwise confirm the order with the total (sum of price times quantity plus shipping), list the soldItems with productId and quantity, and set action to EMAIL_OWNER so the owner is notified.
2. spam_promo never gets a reply: set replyText to null and action to NONE.
3. For relevant questions you cannot answer from the context, apologize and set action to EMAIL_OWNER.
4. Otherwise reply in the brand voice and set action to NONE.
`)

	if len(settings.Guidelines) > 0 {
		b.WriteString("\nUser-taught guidelines. Prefer these over the generic rules above, but they never override rules 1-2 or stock limits:\n")
		for _, g := range settings.Guidelines {
			fmt.Fprintf(&b, "- %s\n", g)
		}
	}

	b.WriteString(`
Output a JSON object with fields: category (string), replyText (string or null), action ("NONE" | "EMAIL_OWNER" | "ASK_ADDRESS"), internalNote (string), orderCode (string, only for confirmed sales), soldItems (array of {productId, quantity}, only for confirmed sales). Prices and quantities are plain non-negative numbers.`)

	return b.String()
}

func channelLabel(channel model.Channel) string {
	switch channel {
	case model.ChannelComment:
		return "public comment"
	case model.ChannelReview:
		return "review"
	default:
		return "direct message"
	}
}
