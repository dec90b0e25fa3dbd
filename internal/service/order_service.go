package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"order-service/internal/entity"
	"order-service/internal/profit"
	"order-service/internal/repository"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const (
	statusCreated   = "Created"
	statusCompleted = "Completed"
)

// ValidationError is a recoverable request failure. Its message goes back to
// the caller verbatim; nothing is persisted when one is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// OrderService provides order-related operations over the order store, the
// product catalog and the status registry. The kafka writer and redis client
// are optional; when nil, event publishing and the idempotency guard are
// skipped.
type OrderService struct {
	orders      *repository.OrderRepository
	catalog     *repository.CatalogRepository
	statuses    *repository.StatusRepository
	kafkaWriter *kafka.Writer
	rdb         *redis.Client
}

func NewOrderService(orders *repository.OrderRepository, catalog *repository.CatalogRepository, statuses *repository.StatusRepository, kafkaWriter *kafka.Writer, rdb *redis.Client) *OrderService {
	return &OrderService{
		orders:      orders,
		catalog:     catalog,
		statuses:    statuses,
		kafkaWriter: kafkaWriter,
		rdb:         rdb,
	}
}

// CreateOrder validates the request, resolves each referenced product
// against the catalog, and persists the order with all of its items as one
// transaction. Validation failures come back as *ValidationError before any
// write happens. idempotentKey is optional; a repeated key is rejected.
func (s *OrderService) CreateOrder(ctx context.Context, req *entity.CreateOrderRequest, idempotentKey string) (*entity.OrderDetail, error) {
	if req == nil {
		return nil, &ValidationError{Message: "Body required."}
	}
	if len(req.Items) == 0 {
		return nil, &ValidationError{Message: "At least one item is required."}
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &ValidationError{Message: "Quantity must be positive."}
		}
	}

	// Resolve the distinct set of referenced products before touching the
	// store.
	products := map[uuid.UUID]*entity.Product{}
	for _, item := range req.Items {
		if _, ok := products[item.ProductID]; ok {
			continue
		}
		product, err := s.catalog.GetProductByID(ctx, item.ProductID)
		if errors.Is(err, entity.ErrProductNotFound) {
			return nil, &ValidationError{Message: "One or more products not found."}
		}
		if err != nil {
			return nil, err
		}
		products[item.ProductID] = product
	}

	createdStatus, err := s.statuses.GetStatusByName(ctx, statusCreated)
	if errors.Is(err, entity.ErrStatusNotFound) {
		return nil, &ValidationError{Message: "Status 'Created' is not configured."}
	}
	if err != nil {
		return nil, err
	}

	// Arm the idempotency key only once the request is known to be valid;
	// a rejected request must stay retryable with the same key.
	if idempotentKey != "" {
		fresh, err := s.validateIdempotentKey(ctx, idempotentKey)
		if err != nil {
			return nil, err
		}
		if !fresh {
			return nil, &ValidationError{Message: "Idempotent key already used."}
		}
	}

	order := &entity.Order{
		ID:          uuid.New(),
		ResellerID:  req.ResellerID,
		CustomerID:  req.CustomerID,
		StatusID:    createdStatus.ID,
		CreatedDate: time.Now().UTC(),
	}
	for _, item := range req.Items {
		product := products[item.ProductID]
		order.Items = append(order.Items, entity.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: product.ID,
			ServiceID: product.ServiceID,
			Quantity:  item.Quantity,
		})
	}

	if err := s.orders.InsertOrder(ctx, order); err != nil {
		logger.Error().Err(err).Msg("Error creating order")
		return nil, err
	}

	detail := &entity.OrderDetail{
		ID:          order.ID,
		ResellerID:  order.ResellerID,
		CustomerID:  order.CustomerID,
		StatusID:    createdStatus.ID,
		StatusName:  createdStatus.Name,
		CreatedDate: order.CreatedDate,
	}
	for _, item := range order.Items {
		product := products[item.ProductID]
		totalCost, totalPrice := profit.LineTotals(product.UnitCost, product.UnitPrice, item.Quantity)
		detail.Items = append(detail.Items, entity.OrderLine{
			ID:          item.ID,
			OrderID:     order.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			ServiceID:   product.ServiceID,
			ServiceName: product.ServiceName,
			Quantity:    item.Quantity,
			UnitCost:    product.UnitCost,
			UnitPrice:   product.UnitPrice,
			TotalCost:   totalCost,
			TotalPrice:  totalPrice,
		})
		detail.TotalCost += totalCost
		detail.TotalPrice += totalPrice
	}

	// The order is durable at this point; a broker outage must not fail the
	// request.
	if err := s.publishOrderEvent(ctx, "created", order.ID, detail); err != nil {
		logger.Error().Err(err).Msgf("Error publishing created event for order %s", order.ID)
	}

	return detail, nil
}

// GetOrders lists every order, newest first.
func (s *OrderService) GetOrders(ctx context.Context) ([]entity.OrderSummary, error) {
	return s.orders.GetOrders(ctx)
}

// GetOrdersByStatus lists orders in the named status. An unknown name gives
// an empty list, not an error.
func (s *OrderService) GetOrdersByStatus(ctx context.Context, status string) ([]entity.OrderSummary, error) {
	return s.orders.GetOrdersByStatus(ctx, status)
}

func (s *OrderService) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*entity.OrderDetail, error) {
	return s.orders.GetOrderByID(ctx, orderID)
}

// GetProducts is the flat catalog-usage report across all orders.
func (s *OrderService) GetProducts(ctx context.Context) ([]entity.OrderLine, error) {
	return s.orders.GetProductLines(ctx)
}

// GetMonthlyProfit aggregates completed orders into profit per calendar
// month, most recent month first.
func (s *OrderService) GetMonthlyProfit(ctx context.Context) ([]entity.MonthlyProfit, error) {
	lines, err := s.orders.GetProfitLines(ctx, statusCompleted)
	if err != nil {
		return nil, err
	}
	return profit.ByMonth(lines), nil
}

// UpdateOrderStatus moves the order to the named status. Unknown names and
// unknown orders surface as entity.ErrStatusNotFound and
// entity.ErrOrderNotFound.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, statusName string) error {
	status, err := s.statuses.GetStatusByName(ctx, statusName)
	if err != nil {
		return err
	}

	if err := s.orders.UpdateOrderStatus(ctx, orderID, status.ID); err != nil {
		return err
	}

	payload := map[string]string{"order_id": orderID.String(), "status": status.Name}
	if err := s.publishOrderEvent(ctx, "status-changed", orderID, payload); err != nil {
		logger.Error().Err(err).Msgf("Error publishing status-changed event for order %s", orderID)
	}

	return nil
}

func (s *OrderService) publishOrderEvent(ctx context.Context, key string, orderID uuid.UUID, payload interface{}) error {
	if s.kafkaWriter == nil {
		return nil
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order-%s-%s", key, orderID)),
		Value: value,
	}

	return s.kafkaWriter.WriteMessages(ctx, msg)
}

func (s *OrderService) validateIdempotentKey(ctx context.Context, key string) (bool, error) {
	if s.rdb == nil {
		return true, nil
	}

	redisKey := fmt.Sprintf("idempotent-key:%s", key)
	val, err := s.rdb.Get(ctx, redisKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	if val != "" {
		return false, nil
	}

	if err := s.rdb.Set(ctx, redisKey, "exists", 24*time.Hour).Err(); err != nil {
		return false, err
	}

	return true, nil
}
