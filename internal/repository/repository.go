package repository

import (
	"context"
	"database/sql"
	"time"

	"geothermal_monitor/internal/models"
)

// Documents stores whole JSON documents by key.
type Documents interface {
	Save(ctx context.Context, key string, v any) error
	Load(ctx context.Context, key string, dst any) (bool, error)
}

// EventRepo is the append-only control journal.
type EventRepo interface {
	Append(ctx context.Context, e models.Event) error
	List(ctx context.Context, from, to time.Time, typ string, limit int) ([]models.Event, error)
}

type Repository struct {
	Documents Documents
	EventRepo EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Documents: NewDocumentSQLite(db),
		EventRepo: NewEventSQLite(db),
	}
}
