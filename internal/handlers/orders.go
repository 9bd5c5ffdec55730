package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/salesapp/sales-management/internal/events"
	"github.com/salesapp/sales-management/internal/logging"
	"github.com/salesapp/sales-management/internal/order"
	"github.com/salesapp/sales-management/internal/repo"
	"github.com/salesapp/sales-management/internal/util"
)

type OrderHandler struct {
	Manager  *order.Manager
	Repo     *repo.GormRepo
	Producer *events.Producer
}

func (h *OrderHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Warn("event_publish_failed", "error", err)
	}
}

// orderError maps lifecycle errors onto status codes; stock and
// transition conflicts keep their specific, actionable message.
func orderError(c echo.Context, err error) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "orders")
	switch {
	case errors.Is(err, order.ErrValidation):
		l.Warn("order_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrCustomerNotFound),
		errors.Is(err, order.ErrProductNotFound),
		errors.Is(err, order.ErrOrderNotFound):
		l.Warn("order_error", "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrInsufficientStock),
		errors.Is(err, order.ErrInvalidTransition):
		l.Warn("order_error", "status", 409, "error", err)
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		l.Error("order_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (h *OrderHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order_create")

	var req order.CreateInput
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	created, err := h.Manager.Create(ctx, req)
	if err != nil {
		return orderError(c, err)
	}

	h.publish(c, fmt.Sprint(created.ID), map[string]any{
		"type":        "order_created",
		"order_id":    created.ID,
		"customer_id": created.CustomerID,
		"total":       created.TotalAmount,
	})

	return c.JSON(http.StatusCreated, created)
}

func (h *OrderHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	status := c.QueryParam("status")
	customerID := uint(parseIntDefault(c.QueryParam("customer_id"), 0))

	orders, total, err := h.Repo.ListOrders(ctx, status, customerID, offset, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"orders": orders,
		"total":  total,
	})
}

func (h *OrderHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	found, err := h.Repo.FindOrder(ctx, uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, found)
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Manager.Cancel(ctx, uint(id)); err != nil {
		return orderError(c, err)
	}

	h.publish(c, fmt.Sprint(id), map[string]any{
		"type":     "order_cancelled",
		"order_id": id,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "order cancelled"})
}

func (h *OrderHandler) SetStatus(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status is required")
	}

	if err := h.Manager.SetStatus(ctx, uint(id), req.Status); err != nil {
		return orderError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "status updated"})
}

func (h *OrderHandler) SetPayment(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status is required")
	}

	if err := h.Manager.SetPaymentStatus(ctx, uint(id), req.Status); err != nil {
		return orderError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "payment status updated"})
}
