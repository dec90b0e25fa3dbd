package repository

import (
	"context"
	"database/sql"
	"errors"
	"order-service/internal/entity"

	"github.com/google/uuid"
)

// StatusRepository maps status names to their identifiers. The status set is
// administered externally; this side only reads it.
type StatusRepository struct {
	db *sql.DB
}

func NewStatusRepository(db *sql.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// GetStatusByName resolves an exact, case-sensitive status name.
func (r *StatusRepository) GetStatusByName(ctx context.Context, name string) (*entity.OrderStatus, error) {
	query := `SELECT id, name FROM order_statuses WHERE name = ?`

	status := &entity.OrderStatus{}
	var id []byte
	err := r.db.QueryRowContext(ctx, query, name).Scan(&id, &status.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrStatusNotFound
	}
	if err != nil {
		return nil, err
	}

	if status.ID, err = uuid.FromBytes(id); err != nil {
		return nil, err
	}

	return status, nil
}
