package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"storefront-api/internal/apperr"
	"storefront-api/internal/dto"
	"storefront-api/internal/handler"
	"storefront-api/internal/middleware"
	"storefront-api/internal/service"
)

type Server struct {
	echo           *echo.Echo
	orderHandler   *handler.OrderHandler
	paymentHandler *handler.PaymentHandler
	catalogHandler *handler.CatalogHandler
}

func NewServer(
	logger *zap.Logger,
	jwtSecret string,
	orderService service.OrderService,
	paymentService service.PaymentService,
	catalogService service.CatalogService,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	e.HTTPErrorHandler = envelopeErrorHandler(logger)

	s := &Server{
		echo:           e,
		orderHandler:   handler.NewOrderHandler(orderService),
		paymentHandler: handler.NewPaymentHandler(paymentService),
		catalogHandler: handler.NewCatalogHandler(catalogService),
	}

	s.setupRoutes(jwtSecret)
	return s
}

func (s *Server) setupRoutes(jwtSecret string) {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- catalog --------
	api.GET("/products", s.catalogHandler.List)
	api.GET("/products/:productId", s.catalogHandler.Get)
	api.POST("/products/:productId/reviews", s.catalogHandler.AddReview, middleware.Auth(jwtSecret))

	// -------- orders --------
	orders := api.Group("/orders", middleware.Auth(jwtSecret))
	orders.POST("", s.orderHandler.Create)
	orders.GET("", s.orderHandler.List)
	orders.PATCH("/cancel/:orderId", s.orderHandler.Cancel)

	// -------- admin --------
	admin := api.Group("/admin", middleware.Auth(jwtSecret), middleware.RequireAdmin())
	admin.GET("/orders", s.orderHandler.ListAll)
	admin.PATCH("/orders/:orderId", s.orderHandler.UpdateStatus)
	admin.POST("/products", s.catalogHandler.Create)
	admin.PUT("/products/:productId", s.catalogHandler.Update)
	admin.DELETE("/products/:productId", s.catalogHandler.Delete)
	admin.PATCH("/products/:productId/stock", s.catalogHandler.SetStock)

	// -------- gateway webhooks --------
	api.POST("/payments/webhook/:gateway", s.paymentHandler.Webhook)
}

// envelopeErrorHandler renders every error through the uniform response
// envelope. Internal errors are logged with their cause but surfaced without
// it.
func envelopeErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"

		var appErr *apperr.Error
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			status = appErr.Status
			message = appErr.Message
		case errors.As(err, &httpErr):
			status = httpErr.Code
			if m, ok := httpErr.Message.(string); ok {
				message = m
			}
		}

		if status >= 500 {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
			)
		}

		_ = c.JSON(status, &dto.Envelope{
			StatusCode: status,
			Message:    message,
			Success:    false,
			Data:       nil,
		})
	}
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
