package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Document keys. Each key holds one whole JSON document, overwritten on every save.
const (
	KeyRoomLabels      = "room_labels"
	KeyRoomsCache      = "rooms_cache"
	KeyHistory         = "history"
	KeyHistorySettings = "history_settings"
)

const (
	upsertDocumentSQL = `
		INSERT INTO documents (key, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			body=excluded.body,
			updated_at=excluded.updated_at
	`

	selectDocumentSQL = `SELECT body FROM documents WHERE key=?`
)

type DocumentSQLite struct {
	db *sql.DB
}

func NewDocumentSQLite(db *sql.DB) *DocumentSQLite {
	return &DocumentSQLite{db: db}
}

// Save marshals v and replaces the document stored under key.
func (r *DocumentSQLite) Save(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if _, err := r.db.ExecContext(ctx, upsertDocumentSQL, key, string(body), time.Now().UTC()); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Load unmarshals the document stored under key into dst.
// It reports false when the document does not exist yet.
func (r *DocumentSQLite) Load(ctx context.Context, key string, dst any) (bool, error) {
	var body string
	if err := r.db.QueryRowContext(ctx, selectDocumentSQL, key).Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}
