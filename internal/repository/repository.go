package repository

import (
	"context"
	"database/sql"
	"time"

	"coolerctl/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// EventRepo is the append-only operational log. Controller state itself is
// never persisted — only its history of transitions.
type EventRepo interface {
	Append(ctx context.Context, e models.CoolerEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.CoolerEvent, error)
}

type Repository struct {
	Events EventRepo
	Auth   Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Events: NewEventSQLite(db),
		Auth:   NewUserRepository(db),
	}
}
