package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront-api/internal/apperr"
	"storefront-api/internal/service"
)

// SignatureHeader carries the gateway's HMAC over the raw request body.
const SignatureHeader = "X-Signature"

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// Webhook receives gateway notifications. The body must stay raw until the
// signature is verified.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apperr.Validation("unreadable request body")
	}

	signature := c.Request().Header.Get(SignatureHeader)
	gateway := c.Param("gateway")

	if err := h.paymentService.HandleWebhook(ctx, gateway, signature, body); err != nil {
		return err
	}

	return respond(c, http.StatusOK, "webhook processed", nil)
}
