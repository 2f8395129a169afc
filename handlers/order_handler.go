package handlers

import (
	"strconv"

	"github.com/Zephyr-r/Zephyrus/internal/order"
	"github.com/Zephyr-r/Zephyrus/models"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type OrderHandler struct {
	Engine *order.Engine
	Log    *zap.Logger
}

func NewOrderHandler(engine *order.Engine, log *zap.Logger) *OrderHandler {
	return &OrderHandler{Engine: engine, Log: log}
}

// CreateOrder - POST /api/orders
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req order.CreateInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	created, err := h.Engine.Create(c.UserContext(), userID, req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": created})
}

// ListOrders - GET /api/orders?role&status&page&limit
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	filter := order.Filter{
		Role:   c.Query("role"),
		Status: c.Query("status"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 10),
	}

	orders, total, err := h.Engine.List(c.UserContext(), userID, filter)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(fiber.Map{
		"data": orders,
		"meta": models.NewPaginationMeta(filter.Page, filter.Limit, total),
	})
}

// GetOrder - GET /api/orders/:id
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	orderID, err := strconv.Atoi(c.Params("id"))
	if err != nil || orderID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	o, err := h.Engine.Get(c.UserContext(), uint(orderID), userID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"data": o})
}

// UpdateStatusRequest carries the confirm/cancel action.
type UpdateStatusRequest struct {
	Action string `json:"action"` // complete, cancel
}

// UpdateOrderStatus - PUT /api/orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	orderID, err := strconv.Atoi(c.Params("id"))
	if err != nil || orderID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	var o *models.Order
	switch req.Action {
	case "complete":
		o, err = h.Engine.Confirm(c.UserContext(), uint(orderID), userID)
	case "cancel":
		o, err = h.Engine.Cancel(c.UserContext(), uint(orderID), userID)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid operation type"})
	}
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"data": o})
}
