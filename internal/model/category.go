// Package model defines the core domain models used throughout the application.
package model

import "strings"

// Category classifies an inbound message into one of a closed set of labels.
type Category string

// The closed category set. Backend output that does not map onto one of
// these labels is coerced to CategoryOther.
const (
	CategoryGreeting            Category = "greeting"
	CategoryThanks              Category = "thanks"
	CategoryPraise              Category = "praise"
	CategoryTagFriend           Category = "tag_friend"
	CategoryMarketingEngage     Category = "marketing_gen_z_engage"
	CategoryInterestedInBuying  Category = "interested_in_buying"
	CategoryAskPrice            Category = "ask_price"
	CategoryDiscountOfferQuery  Category = "discount_offer_query"
	CategoryProductQuery        Category = "product_query"
	CategoryAskQuestion         Category = "ask_question"
	CategoryShippingQuery       Category = "shipping_query"
	CategoryTrackOrder          Category = "track_order"
	CategoryCancelOrder         Category = "cancel_order"
	CategoryRefundRequest       Category = "refund_request"
	CategoryComplaint           Category = "complaint"
	CategoryRequestCollab       Category = "request_collab"
	CategoryReportAbuse         Category = "report_abuse"
	CategorySpamPromo           Category = "spam_promo"
	CategoryOther               Category = "other"
)

// AllCategories returns the closed category set in a stable order.
func AllCategories() []Category {
	return []Category{
		CategoryGreeting,
		CategoryThanks,
		CategoryPraise,
		CategoryTagFriend,
		CategoryMarketingEngage,
		CategoryInterestedInBuying,
		CategoryAskPrice,
		CategoryDiscountOfferQuery,
		CategoryProductQuery,
		CategoryAskQuestion,
		CategoryShippingQuery,
		CategoryTrackOrder,
		CategoryCancelOrder,
		CategoryRefundRequest,
		CategoryComplaint,
		CategoryRequestCollab,
		CategoryReportAbuse,
		CategorySpamPromo,
		CategoryOther,
	}
}

// ParseCategory maps a raw backend label onto the closed set, falling back
// to CategoryOther for anything unrecognized.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return CategoryOther
}

// Valid reports whether c is a member of the closed set.
func (c Category) Valid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// IsPurchaseIntent reports whether the category triggers the order workflow.
func (c Category) IsPurchaseIntent() bool {
	return c == CategoryInterestedInBuying
}

// IsSpam reports whether the category is subject to the unconditional
// no-reply override.
func (c Category) IsSpam() bool {
	return c == CategorySpamPromo
}
