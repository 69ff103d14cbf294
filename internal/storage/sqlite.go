// Package storage implements SQLite persistence for the settings aggregate
// and the inbox item archive.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidewater/inboxpilot/internal/common"
	"github.com/tidewater/inboxpilot/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements the service.Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: dbPath cannot be empty", common.ErrInvalidConfig)
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// LoadSettings reads the full settings aggregate. A fresh database returns
// zero-value settings rather than an error.
func (s *SQLiteStorage) LoadSettings(ctx context.Context) (*model.Settings, error) {
	settings := &model.Settings{}

	var profileJSON, policyJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT profile_json, policy_json FROM settings WHERE id = 1`,
	).Scan(&profileJSON, &policyJSON)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// fresh database
	case err != nil:
		return nil, fmt.Errorf("failed to load settings row: %w", err)
	default:
		if err := json.Unmarshal([]byte(profileJSON), &settings.Profile); err != nil {
			return nil, fmt.Errorf("failed to decode profile: %w", err)
		}
		if err := json.Unmarshal([]byte(policyJSON), &settings.Policy); err != nil {
			return nil, fmt.Errorf("failed to decode policy: %w", err)
		}
	}

	catalog, err := s.loadProducts(ctx)
	if err != nil {
		return nil, err
	}
	settings.Catalog = catalog

	guidelines, err := s.loadGuidelines(ctx)
	if err != nil {
		return nil, err
	}
	settings.Guidelines = guidelines

	return settings, nil
}

func (s *SQLiteStorage) loadProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, price, quantity FROM products ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) loadGuidelines(ctx context.Context) ([]model.Guideline, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT trigger_text, reply_text, created_at FROM guidelines ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query guidelines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Guideline
	for rows.Next() {
		var g model.Guideline
		if err := rows.Scan(&g.Trigger, &g.Reply, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan guideline: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// SaveSettings replaces the stored settings aggregate with the given
// snapshot in one transaction.
func (s *SQLiteStorage) SaveSettings(ctx context.Context, settings *model.Settings) error {
	if settings == nil {
		return fmt.Errorf("%w: settings cannot be nil", common.ErrInvalidConfig)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	profileJSON, err := json.Marshal(settings.Profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	policyJSON, err := json.Marshal(settings.Policy)
	if err != nil {
		return fmt.Errorf("failed to encode policy: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO settings (id, profile_json, policy_json, updated_at)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   profile_json = excluded.profile_json,
		   policy_json = excluded.policy_json,
		   updated_at = excluded.updated_at`,
		string(profileJSON), string(policyJSON), time.Now()); err != nil {
		return fmt.Errorf("failed to save settings row: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}
	for i, p := range settings.Catalog {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO products (id, name, price, quantity, position) VALUES (?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Price, p.Quantity, i); err != nil {
			return fmt.Errorf("failed to save product %s: %w", p.ID, err)
		}
	}

	// Guidelines are append-only: insert only rows beyond what is stored.
	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM guidelines`).Scan(&stored); err != nil {
		return fmt.Errorf("failed to count guidelines: %w", err)
	}
	for i := stored; i < len(settings.Guidelines); i++ {
		g := settings.Guidelines[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO guidelines (trigger_text, reply_text, created_at) VALUES (?, ?, ?)`,
			g.Trigger, g.Reply, g.CreatedAt); err != nil {
			return fmt.Errorf("failed to save guideline: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settings: %w", err)
	}
	return nil
}

// SaveItem upserts one inbox item. The decision is stored as JSON.
func (s *SQLiteStorage) SaveItem(ctx context.Context, item *model.InboxItem) error {
	if item == nil || item.ID == "" {
		return fmt.Errorf("%w: item must have an id", common.ErrInvalidConfig)
	}

	var decisionJSON sql.NullString
	if item.Decision != nil {
		b, err := json.Marshal(item.Decision)
		if err != nil {
			return fmt.Errorf("failed to encode decision: %w", err)
		}
		decisionJSON = sql.NullString{String: string(b), Valid: true}
	}

	var archived sql.NullString
	if item.ArchivedReply != nil {
		archived = sql.NullString{String: *item.ArchivedReply, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (id, sender, content, clean_content, account_id, channel,
		                    received_at, decision_json, archived_reply, finalized)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   decision_json = excluded.decision_json,
		   archived_reply = excluded.archived_reply,
		   finalized = excluded.finalized`,
		item.ID, item.Sender, item.Content, item.CleanContent, item.AccountID,
		string(item.Channel), item.ReceivedAt, decisionJSON, archived, item.Finalized)
	if err != nil {
		return fmt.Errorf("failed to save item %s: %w", item.ID, err)
	}
	return nil
}

// GetItem loads one inbox item by id.
func (s *SQLiteStorage) GetItem(ctx context.Context, id string) (*model.InboxItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, sender, content, clean_content, account_id, channel,
		        received_at, decision_json, archived_reply, finalized
		 FROM items WHERE id = ?`, id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", common.ErrItemNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems returns items in intake order, oldest first. limit <= 0 means
// no limit.
func (s *SQLiteStorage) ListItems(ctx context.Context, limit int) ([]model.InboxItem, error) {
	query := `SELECT id, sender, content, clean_content, account_id, channel,
	                 received_at, decision_json, archived_reply, finalized
	          FROM items ORDER BY received_at, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.InboxItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.InboxItem, error) {
	var (
		item         model.InboxItem
		channel      string
		decisionJSON sql.NullString
		archived     sql.NullString
	)
	if err := row.Scan(&item.ID, &item.Sender, &item.Content, &item.CleanContent,
		&item.AccountID, &channel, &item.ReceivedAt, &decisionJSON, &archived,
		&item.Finalized); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}
	item.Channel = model.Channel(channel)
	if decisionJSON.Valid {
		var d model.Decision
		if err := json.Unmarshal([]byte(decisionJSON.String), &d); err != nil {
			return nil, fmt.Errorf("failed to decode decision for item %s: %w", item.ID, err)
		}
		item.Decision = &d
	}
	if archived.Valid {
		reply := archived.String
		item.ArchivedReply = &reply
	}
	return &item, nil
}
