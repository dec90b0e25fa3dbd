package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"order-service/internal/entity"
	"order-service/migrations"
)

func newTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, migrations.AutoMigrate(0, "sqlite", db))
	t.Cleanup(func() { db.Close() })
	return db
}

func seedStatus(t *testing.T, db *sql.DB, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Exec(`INSERT INTO order_statuses (id, name) VALUES (?, ?)`, id[:], name)
	require.NoError(t, err)
	return id
}

func seedService(t *testing.T, db *sql.DB, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Exec(`INSERT INTO order_services (id, name) VALUES (?, ?)`, id[:], name)
	require.NoError(t, err)
	return id
}

func seedProduct(t *testing.T, db *sql.DB, name string, cost, price float64, serviceID uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Exec(`INSERT INTO order_products (id, name, unit_cost, unit_price, service_id) VALUES (?, ?, ?, ?, ?)`,
		id[:], name, cost, price, serviceID[:])
	require.NoError(t, err)
	return id
}

func newOrder(statusID, productID, serviceID uuid.UUID, quantity int, created time.Time) *entity.Order {
	order := &entity.Order{
		ID:          uuid.New(),
		ResellerID:  uuid.New(),
		CustomerID:  uuid.New(),
		StatusID:    statusID,
		CreatedDate: created,
	}
	order.Items = append(order.Items, entity.OrderItem{
		ID:        uuid.New(),
		OrderID:   order.ID,
		ProductID: productID,
		ServiceID: serviceID,
		Quantity:  quantity,
	})
	return order
}

func TestInsertOrderAndGetByID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createdID := seedStatus(t, db, "Created")
	serviceID := seedService(t, db, "Broadband")
	productID := seedProduct(t, db, "Fibre 100", 10, 15, serviceID)

	repo := NewOrderRepository(db)
	order := newOrder(createdID, productID, serviceID, 2, time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, repo.InsertOrder(ctx, order))

	detail, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, detail.ID)
	assert.Equal(t, order.ResellerID, detail.ResellerID)
	assert.Equal(t, order.CustomerID, detail.CustomerID)
	assert.Equal(t, "Created", detail.StatusName)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "Fibre 100", detail.Items[0].ProductName)
	assert.Equal(t, "Broadband", detail.Items[0].ServiceName)
	assert.Equal(t, 2, detail.Items[0].Quantity)
	assert.Equal(t, 20.0, detail.TotalCost)
	assert.Equal(t, 30.0, detail.TotalPrice)
}

func TestInsertOrderRejectsEmptyItems(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)

	err := repo.InsertOrder(context.Background(), &entity.Order{ID: uuid.New()})
	require.Error(t, err)

	orders, err := repo.GetOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestGetOrderByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)

	_, err := repo.GetOrderByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, entity.ErrOrderNotFound)
}

func TestGetOrdersNewestFirstWithStableTies(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createdID := seedStatus(t, db, "Created")
	serviceID := seedService(t, db, "Mobile")
	productID := seedProduct(t, db, "SIM", 1, 2, serviceID)

	repo := NewOrderRepository(db)
	older := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	first := newOrder(createdID, productID, serviceID, 1, newer)
	second := newOrder(createdID, productID, serviceID, 1, newer)
	third := newOrder(createdID, productID, serviceID, 1, older)
	for _, o := range []*entity.Order{first, second, third} {
		require.NoError(t, repo.InsertOrder(ctx, o))
	}

	orders, err := repo.GetOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	// Ties on created_date keep insertion order.
	assert.Equal(t, first.ID, orders[0].ID)
	assert.Equal(t, second.ID, orders[1].ID)
	assert.Equal(t, third.ID, orders[2].ID)
}

func TestInsertOrderAssignsSequence(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createdID := seedStatus(t, db, "Created")
	serviceID := seedService(t, db, "Mobile")
	productID := seedProduct(t, db, "SIM", 1, 2, serviceID)

	repo := NewOrderRepository(db)
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.InsertOrder(ctx, newOrder(createdID, productID, serviceID, 1, now)))
	}

	// The store assigns seq itself; inserts never compute it.
	rows, err := db.Query(`SELECT seq FROM orders ORDER BY seq ASC`)
	require.NoError(t, err)
	defer rows.Close()

	var seqs []int64
	for rows.Next() {
		var seq sql.NullInt64
		require.NoError(t, rows.Scan(&seq))
		require.True(t, seq.Valid)
		seqs = append(seqs, seq.Int64)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []int64{1, 2, 3}, seqs)
}

func TestGetOrdersByStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createdID := seedStatus(t, db, "Created")
	completedID := seedStatus(t, db, "Completed")
	serviceID := seedService(t, db, "Mobile")
	productID := seedProduct(t, db, "SIM", 1, 2, serviceID)

	repo := NewOrderRepository(db)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	created := newOrder(createdID, productID, serviceID, 1, now)
	completed := newOrder(completedID, productID, serviceID, 3, now)
	require.NoError(t, repo.InsertOrder(ctx, created))
	require.NoError(t, repo.InsertOrder(ctx, completed))

	orders, err := repo.GetOrdersByStatus(ctx, "Completed")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, completed.ID, orders[0].ID)
	assert.Equal(t, 1, orders[0].ItemCount)
	assert.Equal(t, 3.0, orders[0].TotalCost)
	assert.Equal(t, 6.0, orders[0].TotalPrice)

	none, err := repo.GetOrdersByStatus(ctx, "Nonexistent")
	require.NoError(t, err)
	assert.Empty(t, none)

	// The filter is case-sensitive.
	lower, err := repo.GetOrdersByStatus(ctx, "completed")
	require.NoError(t, err)
	assert.Empty(t, lower)
}

func TestUpdateOrderStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createdID := seedStatus(t, db, "Created")
	completedID := seedStatus(t, db, "Completed")
	serviceID := seedService(t, db, "TV")
	productID := seedProduct(t, db, "Box", 5, 8, serviceID)

	repo := NewOrderRepository(db)
	order := newOrder(createdID, productID, serviceID, 1, time.Now().UTC())
	require.NoError(t, repo.InsertOrder(ctx, order))

	require.NoError(t, repo.UpdateOrderStatus(ctx, order.ID, completedID))

	detail, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Completed", detail.StatusName)
	assert.Len(t, detail.Items, 1)
}

func TestUpdateOrderStatusToCurrentStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createdID := seedStatus(t, db, "Created")
	serviceID := seedService(t, db, "TV")
	productID := seedProduct(t, db, "Box", 5, 8, serviceID)

	repo := NewOrderRepository(db)
	order := newOrder(createdID, productID, serviceID, 1, time.Now().UTC())
	require.NoError(t, repo.InsertOrder(ctx, order))

	// A no-op transition still matches the row and must succeed.
	require.NoError(t, repo.UpdateOrderStatus(ctx, order.ID, createdID))

	detail, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Created", detail.StatusName)
}

func TestUpdateOrderStatusUnknownOrder(t *testing.T) {
	db := newTestDB(t)
	completedID := seedStatus(t, db, "Completed")

	repo := NewOrderRepository(db)
	err := repo.UpdateOrderStatus(context.Background(), uuid.New(), completedID)
	assert.ErrorIs(t, err, entity.ErrOrderNotFound)
}

func TestGetProfitLinesFiltersByStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createdID := seedStatus(t, db, "Created")
	completedID := seedStatus(t, db, "Completed")
	serviceID := seedService(t, db, "Mobile")
	productID := seedProduct(t, db, "SIM", 10, 15, serviceID)

	repo := NewOrderRepository(db)
	when := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.InsertOrder(ctx, newOrder(completedID, productID, serviceID, 2, when)))
	require.NoError(t, repo.InsertOrder(ctx, newOrder(createdID, productID, serviceID, 7, when)))

	lines, err := repo.GetProfitLines(ctx, "Completed")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 10.0, lines[0].UnitCost)
	assert.Equal(t, 15.0, lines[0].UnitPrice)
	assert.Equal(t, 2024, lines[0].CreatedDate.UTC().Year())
	assert.Equal(t, time.March, lines[0].CreatedDate.UTC().Month())
}

func TestGetProductLines(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createdID := seedStatus(t, db, "Created")
	serviceID := seedService(t, db, "Broadband")
	fibre := seedProduct(t, db, "Fibre 100", 10, 15, serviceID)
	copper := seedProduct(t, db, "ADSL", 4, 6, serviceID)

	repo := NewOrderRepository(db)
	now := time.Now().UTC()
	first := newOrder(createdID, fibre, serviceID, 2, now)
	second := newOrder(createdID, copper, serviceID, 1, now)
	require.NoError(t, repo.InsertOrder(ctx, first))
	require.NoError(t, repo.InsertOrder(ctx, second))

	lines, err := repo.GetProductLines(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Fibre 100", lines[0].ProductName)
	assert.Equal(t, first.ID, lines[0].OrderID)
	assert.Equal(t, 20.0, lines[0].TotalCost)
	assert.Equal(t, 30.0, lines[0].TotalPrice)
	assert.Equal(t, "ADSL", lines[1].ProductName)
	assert.Equal(t, second.ID, lines[1].OrderID)
}

func TestCatalogAndStatusLookups(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	serviceID := seedService(t, db, "Broadband")
	productID := seedProduct(t, db, "Fibre 100", 10, 15, serviceID)
	statusID := seedStatus(t, db, "Created")

	catalog := NewCatalogRepository(db)
	product, err := catalog.GetProductByID(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, "Fibre 100", product.Name)
	assert.Equal(t, "Broadband", product.ServiceName)
	assert.Equal(t, serviceID, product.ServiceID)

	_, err = catalog.GetProductByID(ctx, uuid.New())
	assert.ErrorIs(t, err, entity.ErrProductNotFound)

	statuses := NewStatusRepository(db)
	status, err := statuses.GetStatusByName(ctx, "Created")
	require.NoError(t, err)
	assert.Equal(t, statusID, status.ID)

	_, err = statuses.GetStatusByName(ctx, "created")
	assert.ErrorIs(t, err, entity.ErrStatusNotFound)
}
