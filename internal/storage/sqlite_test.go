package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewater/inboxpilot/internal/common"
	"github.com/tidewater/inboxpilot/internal/model"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestLoadSettingsFreshDatabase(t *testing.T) {
	store := newTestStorage(t)

	settings, err := store.LoadSettings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, settings.Profile.BusinessName)
	assert.Empty(t, settings.Catalog)
	assert.Empty(t, settings.Guidelines)
}

func TestSettingsRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	settings := &model.Settings{
		Profile: model.Profile{
			BusinessName:   "Tidewater Candle Co",
			Description:    "handmade candle studio",
			TargetAudience: "gift shoppers",
			BrandVoice:     "warm and playful",
		},
		Policy: model.Policy{
			NotificationTarget: "owner@example.com",
			AutoReply:          true,
			AutoConfirmOrders:  true,
		},
		Catalog: []model.Product{
			{ID: "p1", Name: "Widget", Price: 10.0, Quantity: 5},
			{ID: "p2", Name: "Gadget", Price: 25.0, Quantity: 2},
		},
		Guidelines: []model.Guideline{
			{Trigger: "do you gift wrap", Reply: "Yes, for free!", CreatedAt: time.Now().UTC()},
		},
	}

	require.NoError(t, store.SaveSettings(ctx, settings))

	loaded, err := store.LoadSettings(ctx)
	require.NoError(t, err)

	assert.Equal(t, settings.Profile, loaded.Profile)
	assert.Equal(t, settings.Policy, loaded.Policy)
	assert.Equal(t, settings.Catalog, loaded.Catalog)
	require.Len(t, loaded.Guidelines, 1)
	assert.Equal(t, "do you gift wrap", loaded.Guidelines[0].Trigger)
}

func TestSaveSettingsReplacesCatalogKeepsGuidelines(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	first := &model.Settings{
		Catalog:    []model.Product{{ID: "p1", Name: "Widget", Price: 10, Quantity: 5}},
		Guidelines: []model.Guideline{{Trigger: "a", Reply: "b", CreatedAt: time.Now().UTC()}},
	}
	require.NoError(t, store.SaveSettings(ctx, first))

	// A later snapshot with mutated stock and one more guideline.
	second := first.Clone()
	second.Catalog[0].Quantity = 3
	second.Guidelines = append(second.Guidelines,
		model.Guideline{Trigger: "c", Reply: "d", CreatedAt: time.Now().UTC()})
	require.NoError(t, store.SaveSettings(ctx, &second))

	loaded, err := store.LoadSettings(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Catalog, 1)
	assert.Equal(t, 3, loaded.Catalog[0].Quantity)
	require.Len(t, loaded.Guidelines, 2)
	assert.Equal(t, "a", loaded.Guidelines[0].Trigger)
	assert.Equal(t, "c", loaded.Guidelines[1].Trigger)
}

func TestItemRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	reply := "Order confirmed!"
	item := &model.InboxItem{
		ID:           "i1",
		Sender:       "alice",
		Content:      "two widgets please",
		CleanContent: "two widgets please",
		AccountID:    "acct-1",
		Channel:      model.ChannelDM,
		ReceivedAt:   time.Now().UTC().Truncate(time.Second),
		Decision: &model.Decision{
			Category:  model.CategoryInterestedInBuying,
			ReplyText: &reply,
			Action:    model.ActionEmailOwner,
			OrderCode: "ORD-DEADBEEF",
			SoldItems: []model.SoldItem{{ProductID: "p1", Quantity: 2}},
		},
	}
	require.NoError(t, store.SaveItem(ctx, item))

	loaded, err := store.GetItem(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, item.Sender, loaded.Sender)
	assert.Equal(t, item.Channel, loaded.Channel)
	require.NotNil(t, loaded.Decision)
	assert.Equal(t, model.CategoryInterestedInBuying, loaded.Decision.Category)
	assert.Equal(t, "ORD-DEADBEEF", loaded.Decision.OrderCode)
	require.Len(t, loaded.Decision.SoldItems, 1)
	assert.False(t, loaded.Finalized)

	// Finalize and upsert.
	archived := "Order confirmed!"
	item.ArchivedReply = &archived
	item.Finalized = true
	require.NoError(t, store.SaveItem(ctx, item))

	loaded, err = store.GetItem(ctx, "i1")
	require.NoError(t, err)
	assert.True(t, loaded.Finalized)
	require.NotNil(t, loaded.ArchivedReply)
	assert.Equal(t, archived, *loaded.ArchivedReply)
}

func TestGetItemNotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetItem(context.Background(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrItemNotFound)
}

func TestListItemsOrderAndLimit(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"i1", "i2", "i3"} {
		require.NoError(t, store.SaveItem(ctx, &model.InboxItem{
			ID:         id,
			Sender:     "alice",
			Content:    "hello",
			Channel:    model.ChannelDM,
			ReceivedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	items, err := store.ListItems(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "i1", items[0].ID)
	assert.Equal(t, "i3", items[2].ID)

	limited, err := store.ListItems(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "i1", limited[0].ID)
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStorage(t)

	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, store.Migrate(context.Background()))
}
