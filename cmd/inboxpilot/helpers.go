package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/tidewater/inboxpilot/internal/common"
	"github.com/tidewater/inboxpilot/internal/config"
	"github.com/tidewater/inboxpilot/internal/engine"
	"github.com/tidewater/inboxpilot/internal/llm"
	"github.com/tidewater/inboxpilot/internal/model"
	"github.com/tidewater/inboxpilot/internal/notify"
	"github.com/tidewater/inboxpilot/internal/service"
	"github.com/tidewater/inboxpilot/internal/storage"
)

// databasePath resolves the configured database location.
func databasePath() (string, error) {
	if dbPath := viper.GetString("database.path"); dbPath != "" {
		return config.ExpandPath(dbPath), nil
	}
	return config.DefaultDatabasePath()
}

// openStorage opens the database and brings the schema up to date.
func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath, err := databasePath()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// llmConfig assembles the backend configuration from viper and env.
func llmConfig() llm.Config {
	cfg := llm.Config{
		Provider:    viper.GetString("llm.provider"),
		APIKey:      viper.GetString("llm.api_key"),
		Model:       viper.GetString("llm.model"),
		MaxRetries:  viper.GetInt("llm.max_retries"),
		RetryDelay:  viper.GetDuration("llm.retry_delay"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
	}
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	return cfg
}

// offlineResponder stands in when a command never classifies; it fails
// loudly if something reaches for the backend anyway.
type offlineResponder struct{}

func (offlineResponder) Classify(_ context.Context, _ string, _ model.Channel, _ model.Settings) (model.Decision, error) {
	return model.Decision{}, fmt.Errorf("%w: no classification backend configured for this command", common.ErrBackendUnavailable)
}

// buildEngine wires storage, the classification backend, and the notifier
// into a ready engine. The caller owns closing the returned storage.
// Commands that never classify pass needBackend=false and skip backend
// configuration entirely.
func buildEngine(ctx context.Context, logger *slog.Logger, needBackend bool) (*engine.Engine, *storage.SQLiteStorage, error) {
	store, err := openStorage(ctx)
	if err != nil {
		return nil, nil, err
	}

	settings, err := store.LoadSettings(ctx)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to load settings: %w", err)
	}

	var responder service.Responder = offlineResponder{}
	if needBackend {
		responder, err = llm.NewResponder(llmConfig(), logger)
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}
	}

	save := func(ctx context.Context, s model.Settings) error {
		return store.SaveSettings(ctx, &s)
	}

	engCfg := engine.DefaultConfig()
	if d := viper.GetDuration("engine.auto_send_delay"); d > 0 {
		engCfg.AutoSendDelay = d
	}

	eng := engine.New(*settings, responder, notify.NewRecorder(logger), save, engCfg, logger)
	return eng, store, nil
}

// loadItems replays the archived inbox into the engine's working set.
func loadItems(ctx context.Context, store *storage.SQLiteStorage, eng *engine.Engine) error {
	items, err := store.ListItems(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}
	for _, item := range items {
		eng.Add(item)
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
