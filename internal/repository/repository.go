package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"order-service/internal/entity"
	"order-service/internal/profit"

	"github.com/google/uuid"
)

// OrderRepository is the durable store for orders and their items. All
// monetary figures in its projections come from the current catalog rows,
// never from the order tables themselves.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// orderSummarySelect derives item counts and totals from the live catalog.
// seq breaks created_date ties in insertion order.
const orderSummarySelect = `
	SELECT o.id, o.reseller_id, o.customer_id, o.status_id, s.name, o.created_date,
		COUNT(i.id),
		COALESCE(SUM(i.quantity * p.unit_cost), 0),
		COALESCE(SUM(i.quantity * p.unit_price), 0)
	FROM orders o
	JOIN order_statuses s ON s.id = o.status_id
	LEFT JOIN order_items i ON i.order_id = o.id
	LEFT JOIN order_products p ON p.id = i.product_id
	%s
	GROUP BY o.id, o.reseller_id, o.customer_id, o.status_id, s.name, o.created_date, o.seq
	ORDER BY o.created_date DESC, o.seq ASC`

func (r *OrderRepository) GetOrders(ctx context.Context) ([]entity.OrderSummary, error) {
	return r.querySummaries(ctx, fmt.Sprintf(orderSummarySelect, ""))
}

// GetOrdersByStatus filters on the exact status name. An unknown name simply
// matches no rows.
func (r *OrderRepository) GetOrdersByStatus(ctx context.Context, status string) ([]entity.OrderSummary, error) {
	return r.querySummaries(ctx, fmt.Sprintf(orderSummarySelect, "WHERE s.name = ?"), status)
}

func (r *OrderRepository) querySummaries(ctx context.Context, query string, args ...interface{}) ([]entity.OrderSummary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []entity.OrderSummary{}
	for rows.Next() {
		var (
			summary                              entity.OrderSummary
			id, resellerID, customerID, statusID []byte
		)
		err := rows.Scan(&id, &resellerID, &customerID, &statusID, &summary.StatusName,
			&summary.CreatedDate, &summary.ItemCount, &summary.TotalCost, &summary.TotalPrice)
		if err != nil {
			return nil, err
		}
		if err := assignUUIDs(map[*uuid.UUID][]byte{
			&summary.ID:         id,
			&summary.ResellerID: resellerID,
			&summary.CustomerID: customerID,
			&summary.StatusID:   statusID,
		}); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}

func (r *OrderRepository) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*entity.OrderDetail, error) {
	orderQuery := `
		SELECT o.id, o.reseller_id, o.customer_id, o.status_id, s.name, o.created_date
		FROM orders o
		JOIN order_statuses s ON s.id = o.status_id
		WHERE o.id = ?`

	detail := &entity.OrderDetail{}
	var id, resellerID, customerID, statusID []byte
	err := r.db.QueryRowContext(ctx, orderQuery, orderID[:]).Scan(
		&id, &resellerID, &customerID, &statusID, &detail.StatusName, &detail.CreatedDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := assignUUIDs(map[*uuid.UUID][]byte{
		&detail.ID:         id,
		&detail.ResellerID: resellerID,
		&detail.CustomerID: customerID,
		&detail.StatusID:   statusID,
	}); err != nil {
		return nil, err
	}

	lineQuery := `
		SELECT i.id, i.order_id, i.product_id, p.name, i.service_id, sv.name,
			i.quantity, p.unit_cost, p.unit_price
		FROM order_items i
		JOIN order_products p ON p.id = i.product_id
		JOIN order_services sv ON sv.id = i.service_id
		WHERE i.order_id = ?
		ORDER BY i.seq ASC`

	rows, err := r.db.QueryContext(ctx, lineQuery, orderID[:])
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		line, err := scanOrderLine(rows)
		if err != nil {
			return nil, err
		}
		detail.Items = append(detail.Items, *line)
		detail.TotalCost += line.TotalCost
		detail.TotalPrice += line.TotalPrice
	}

	return detail, rows.Err()
}

// GetProductLines reports every persisted order item across all orders with
// current catalog cost and price, in insertion order.
func (r *OrderRepository) GetProductLines(ctx context.Context) ([]entity.OrderLine, error) {
	query := `
		SELECT i.id, i.order_id, i.product_id, p.name, i.service_id, sv.name,
			i.quantity, p.unit_cost, p.unit_price
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		JOIN order_products p ON p.id = i.product_id
		JOIN order_services sv ON sv.id = i.service_id
		ORDER BY o.seq ASC, i.seq ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []entity.OrderLine{}
	for rows.Next() {
		line, err := scanOrderLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}

	return lines, rows.Err()
}

// GetProfitLines returns one row per item of every order in the given
// status, carrying the owning order's creation date and current catalog
// figures for profit aggregation.
func (r *OrderRepository) GetProfitLines(ctx context.Context, statusName string) ([]profit.Line, error) {
	query := `
		SELECT o.created_date, i.quantity, p.unit_cost, p.unit_price
		FROM orders o
		JOIN order_statuses s ON s.id = o.status_id
		JOIN order_items i ON i.order_id = o.id
		JOIN order_products p ON p.id = i.product_id
		WHERE s.name = ?`

	rows, err := r.db.QueryContext(ctx, query, statusName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []profit.Line{}
	for rows.Next() {
		var line profit.Line
		if err := rows.Scan(&line.CreatedDate, &line.Quantity, &line.UnitCost, &line.UnitPrice); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

// InsertOrder persists the order and all of its items in one transaction.
// Either everything commits or nothing does.
func (r *OrderRepository) InsertOrder(ctx context.Context, order *entity.Order) error {
	if len(order.Items) == 0 {
		return errors.New("order requires at least one item")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// seq is filled by the store (AUTO_INCREMENT on MySQL, an insert
	// trigger on SQLite) so concurrent creations never contend on it.
	orderQuery := `
		INSERT INTO orders (id, reseller_id, customer_id, status_id, created_date)
		VALUES (?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, orderQuery,
		order.ID[:], order.ResellerID[:], order.CustomerID[:], order.StatusID[:], order.CreatedDate)
	if err != nil {
		tx.Rollback()
		return err
	}

	// Insert items with a single batch statement
	itemQuery := `INSERT INTO order_items (id, order_id, product_id, service_id, quantity, seq) VALUES `
	var values []interface{}
	for n, item := range order.Items {
		item := item // the [:] slices below must not alias the loop variable
		itemQuery += "(?, ?, ?, ?, ?, ?),"
		values = append(values, item.ID[:], order.ID[:], item.ProductID[:], item.ServiceID[:], item.Quantity, n)
	}
	itemQuery = itemQuery[:len(itemQuery)-1]

	_, err = tx.ExecContext(ctx, itemQuery, values...)
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// UpdateOrderStatus changes nothing but the status column.
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, statusID uuid.UUID) error {
	query := `UPDATE orders SET status_id = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, statusID[:], orderID[:])
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrOrderNotFound
	}

	return nil
}

func scanOrderLine(rows *sql.Rows) (*entity.OrderLine, error) {
	line := &entity.OrderLine{}
	var id, orderID, productID, serviceID []byte
	err := rows.Scan(&id, &orderID, &productID, &line.ProductName, &serviceID, &line.ServiceName,
		&line.Quantity, &line.UnitCost, &line.UnitPrice)
	if err != nil {
		return nil, err
	}
	if err := assignUUIDs(map[*uuid.UUID][]byte{
		&line.ID:        id,
		&line.OrderID:   orderID,
		&line.ProductID: productID,
		&line.ServiceID: serviceID,
	}); err != nil {
		return nil, err
	}
	line.TotalCost, line.TotalPrice = profit.LineTotals(line.UnitCost, line.UnitPrice, line.Quantity)
	return line, nil
}

func assignUUIDs(fields map[*uuid.UUID][]byte) error {
	for dst, raw := range fields {
		id, err := uuid.FromBytes(raw)
		if err != nil {
			return err
		}
		*dst = id
	}
	return nil
}
