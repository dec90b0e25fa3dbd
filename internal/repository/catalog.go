package repository

import (
	"context"
	"database/sql"
	"errors"
	"order-service/internal/entity"

	"github.com/google/uuid"
)

// CatalogRepository is the read-only product/service lookup.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetProductByID(ctx context.Context, productID uuid.UUID) (*entity.Product, error) {
	query := `
		SELECT p.id, p.name, p.unit_cost, p.unit_price, p.service_id, s.name
		FROM order_products p
		JOIN order_services s ON s.id = p.service_id
		WHERE p.id = ?`

	product := &entity.Product{}
	var id, serviceID []byte
	err := r.db.QueryRowContext(ctx, query, productID[:]).Scan(
		&id, &product.Name, &product.UnitCost, &product.UnitPrice, &serviceID, &product.ServiceName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	if product.ID, err = uuid.FromBytes(id); err != nil {
		return nil, err
	}
	if product.ServiceID, err = uuid.FromBytes(serviceID); err != nil {
		return nil, err
	}

	return product, nil
}
