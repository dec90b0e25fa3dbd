package api

import (
	"errors"
	"io"
	"order-service/internal/entity"
	"order-service/internal/service"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// GetOrders lists all orders, or only those matching the status query
// parameter when one is given.
func (h *OrderHandler) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()

	status := c.QueryParam("status")
	if strings.TrimSpace(status) == "" {
		orders, err := h.orderService.GetOrders(ctx)
		if err != nil {
			return c.JSON(500, map[string]string{"error": err.Error()})
		}
		return c.JSON(200, orders)
	}

	orders, err := h.orderService.GetOrdersByStatus(ctx, status)
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, orders)
}

func (h *OrderHandler) GetOrderByID(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.NoContent(404)
	}

	order, err := h.orderService.GetOrderByID(c.Request().Context(), orderID)
	if errors.Is(err, entity.ErrOrderNotFound) {
		return c.NoContent(404)
	}
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, order)
}

// UpdateOrderStatus takes the new status name as the raw request body.
func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.NoContent(404)
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}
	status := strings.TrimSpace(string(body))
	if status == "" {
		return c.JSON(400, map[string]string{"error": "NewStatus is required."})
	}

	err = h.orderService.UpdateOrderStatus(c.Request().Context(), orderID, status)
	if errors.Is(err, entity.ErrStatusNotFound) {
		return c.JSON(400, map[string]string{"error": "Status not found."})
	}
	if errors.Is(err, entity.ErrOrderNotFound) {
		return c.NoContent(404)
	}
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.NoContent(200)
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	// Bind treats a zero-length body as success, so catch it here.
	if c.Request().ContentLength == 0 {
		return c.JSON(400, map[string]string{"error": "Body required."})
	}
	req := new(entity.CreateOrderRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(400, map[string]string{"error": "Body required."})
	}
	idempotentKey := c.Request().Header.Get("Idempotent-Key")

	order, err := h.orderService.CreateOrder(c.Request().Context(), req, idempotentKey)
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(400, map[string]string{"error": validationErr.Message})
	}
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	c.Response().Header().Set(echo.HeaderLocation, "/orders/"+order.ID.String())
	return c.JSON(201, order)
}

func (h *OrderHandler) GetMonthlyProfit(c echo.Context) error {
	profit, err := h.orderService.GetMonthlyProfit(c.Request().Context())
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, profit)
}

func (h *OrderHandler) GetProducts(c echo.Context) error {
	products, err := h.orderService.GetProducts(c.Request().Context())
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, products)
}
