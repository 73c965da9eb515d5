package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront-api/internal/apperr"
	"storefront-api/internal/dto"
	"storefront-api/internal/middleware"
	"storefront-api/internal/service"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	result, err := h.orderService.Create(ctx, middleware.UserID(c), &req)
	if err != nil {
		return err
	}

	return respond(c, http.StatusCreated, "order created", result)
}

func (h *OrderHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.orderService.ListForUser(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "orders fetched", orders)
}

func (h *OrderHandler) ListAll(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.orderService.ListAll(ctx)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "orders fetched", orders)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	orderID := c.Param("orderId")

	var req dto.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	if err := h.orderService.UpdateStatus(ctx, orderID, req.OrderStatus); err != nil {
		return err
	}

	return respond(c, http.StatusOK, "order status updated", nil)
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	orderID := c.Param("orderId")

	order, err := h.orderService.Cancel(ctx, orderID, middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "order cancelled", order)
}
