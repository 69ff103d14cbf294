package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Category
	}{
		{name: "exact match", input: "greeting", want: CategoryGreeting},
		{name: "uppercase", input: "SPAM_PROMO", want: CategorySpamPromo},
		{name: "whitespace", input: "  interested_in_buying  ", want: CategoryInterestedInBuying},
		{name: "unknown label", input: "banana", want: CategoryOther},
		{name: "empty", input: "", want: CategoryOther},
		{name: "near miss", input: "interested in buying", want: CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCategory(tt.input))
		})
	}
}

func TestAllCategoriesClosedSet(t *testing.T) {
	all := AllCategories()
	assert.Len(t, all, 19)

	seen := make(map[Category]bool)
	for _, c := range all {
		assert.True(t, c.Valid(), "category %s should be valid", c)
		assert.False(t, seen[c], "category %s listed twice", c)
		seen[c] = true
	}
}

func TestCategoryPredicates(t *testing.T) {
	assert.True(t, CategoryInterestedInBuying.IsPurchaseIntent())
	assert.False(t, CategoryAskPrice.IsPurchaseIntent())
	assert.False(t, CategoryProductQuery.IsPurchaseIntent())

	assert.True(t, CategorySpamPromo.IsSpam())
	assert.False(t, CategoryMarketingEngage.IsSpam())
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		input string
		want  Action
	}{
		{input: "EMAIL_OWNER", want: ActionEmailOwner},
		{input: "ask_address", want: ActionAskAddress},
		{input: "NONE", want: ActionNone},
		{input: "", want: ActionNone},
		{input: "DELETE_EVERYTHING", want: ActionNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseAction(tt.input), "input %q", tt.input)
	}
}

func TestParseChannel(t *testing.T) {
	assert.Equal(t, ChannelComment, ParseChannel("comment"))
	assert.Equal(t, ChannelReview, ParseChannel(" REVIEW "))
	assert.Equal(t, ChannelDM, ParseChannel("dm"))
	assert.Equal(t, ChannelDM, ParseChannel("carrier pigeon"))
}
