package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront-api/internal/apperr"
	"storefront-api/internal/model"
	"storefront-api/internal/repository"
)

const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

// GatewayEvent is the normalized webhook payload shared by both gateways.
type GatewayEvent struct {
	ID      string `json:"id"`
	Event   string `json:"event"`
	Payload struct {
		OrderID   string `json:"order_id"`
		PaymentID string `json:"payment_id"`
	} `json:"payload"`
}

type PaymentService interface {
	// HandleWebhook verifies the signature over the raw body, then applies
	// the event exactly once.
	HandleWebhook(ctx context.Context, gateway, signature string, body []byte) error
}

type paymentServiceImpl struct {
	db               *gorm.DB
	logger           *zap.Logger
	webhookSecrets   map[string]string // gateway name -> shared secret
	productRepo      repository.ProductRepository
	orderRepo        repository.OrderRepository
	webhookEventRepo repository.WebhookEventRepository
}

func NewPaymentService(
	db *gorm.DB,
	logger *zap.Logger,
	webhookSecrets map[string]string,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	webhookEventRepo repository.WebhookEventRepository,
) PaymentService {
	// A gateway without a configured secret would verify against an
	// empty-key HMAC anyone can compute, so it is not registered at all.
	secrets := make(map[string]string, len(webhookSecrets))
	for gateway, secret := range webhookSecrets {
		if secret == "" {
			logger.Warn("webhook secret not configured, gateway webhooks disabled",
				zap.String("gateway", gateway))
			continue
		}
		secrets[gateway] = secret
	}

	return &paymentServiceImpl{
		db:               db,
		logger:           logger,
		webhookSecrets:   secrets,
		productRepo:      productRepo,
		orderRepo:        orderRepo,
		webhookEventRepo: webhookEventRepo,
	}
}

// ComputeSignature returns the hex HMAC-SHA256 of body under secret. The
// gateway signs the raw bytes it sends; re-serialized JSON is not guaranteed
// to match them, so verification always runs on the unparsed body.
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, gateway, signature string, body []byte) error {
	secret, ok := s.webhookSecrets[gateway]
	if !ok {
		return apperr.Validation("unknown payment gateway %q", gateway)
	}

	if signature == "" || !hmac.Equal([]byte(ComputeSignature(secret, body)), []byte(signature)) {
		return apperr.InvalidSignature()
	}

	var event GatewayEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return apperr.Validation("malformed webhook payload").WithCause(err)
	}
	if event.ID == "" {
		return apperr.Validation("webhook event id is required")
	}

	processed, err := s.webhookEventRepo.Exists(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("check webhook event: %w", err)
	}
	if processed {
		s.logger.Debug("webhook event already processed",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Event),
		)
		return nil
	}

	switch event.Event {
	case EventPaymentCaptured:
		return s.handleCaptured(ctx, &event)
	case EventPaymentFailed:
		return s.handleFailed(ctx, &event)
	default:
		s.logger.Info("ignoring webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Event),
		)
		return nil
	}
}

func (s *paymentServiceImpl) handleCaptured(ctx context.Context, event *GatewayEvent) error {
	// COD orders carry an empty external_order_id; an empty lookup key must
	// never select one.
	if event.Payload.OrderID == "" {
		return apperr.Validation("webhook payload order_id is required")
	}

	order, err := s.orderRepo.FindByExternalOrderID(ctx, event.Payload.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("no order for gateway order %s", event.Payload.OrderID)
		}
		return fmt.Errorf("get order: %w", err)
	}

	// Second idempotency layer on top of the event ledger: a capture
	// delivered under a fresh event id still must not decrement twice.
	if order.PaymentStatus == model.PaymentPaid {
		s.logger.Info("order already paid, skipping capture",
			zap.String("order_id", order.ID),
			zap.String("event_id", event.ID),
		)
		return s.webhookEventRepo.MarkProcessed(ctx, s.db, event.ID, event.Event)
	}

	// A capture landing after the order reached a terminal state must not
	// resurrect it. Money has moved for a dead order, so this is an
	// operational incident; the event is swallowed so the gateway stops
	// retrying. The MarkPaid guard repeats this check inside the transaction
	// in case a cancellation commits after this read.
	if order.Status.Terminal() {
		s.logger.Error("capture arrived for order in terminal state",
			zap.String("order_id", order.ID),
			zap.String("status", string(order.Status)),
			zap.String("event_id", event.ID),
			zap.String("external_payment_id", event.Payload.PaymentID),
		)
		return s.webhookEventRepo.MarkProcessed(ctx, s.db, event.ID, event.Event)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			product, err := s.productRepo.FindForUpdate(ctx, tx, item.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFound("product %s not found", item.ProductID)
				}
				return fmt.Errorf("get product %s: %w", item.ProductID, err)
			}

			ok, err := s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock for %s: %w", item.ProductID, err)
			}
			if !ok {
				// Money has already moved: this is an operational incident,
				// not just a client error.
				s.logger.Error("stock exhausted after payment capture",
					zap.String("order_id", order.ID),
					zap.String("product_id", product.ID),
					zap.String("product_name", product.Name),
					zap.Int64("remaining", product.Stock),
					zap.Int64("requested", item.Quantity),
					zap.String("external_payment_id", event.Payload.PaymentID),
				)
				return apperr.OutOfStock(product.Name, product.Stock)
			}

			// Refresh the snapshot to what was actually sold.
			if err := s.orderRepo.UpdateItemSnapshot(ctx, tx, item.ID, product.Name, product.PriceCents); err != nil {
				return fmt.Errorf("refresh item snapshot: %w", err)
			}
		}

		if err := s.orderRepo.MarkPaid(ctx, tx, order.ID, event.Payload.PaymentID); err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}

		return s.webhookEventRepo.MarkProcessed(ctx, tx, event.ID, event.Event)
	})
	if err != nil {
		return err
	}

	s.logger.Info("payment captured",
		zap.String("order_id", order.ID),
		zap.String("external_payment_id", event.Payload.PaymentID),
	)
	return nil
}

func (s *paymentServiceImpl) handleFailed(ctx context.Context, event *GatewayEvent) error {
	if event.Payload.OrderID == "" {
		return apperr.Validation("webhook payload order_id is required")
	}

	order, err := s.orderRepo.FindByExternalOrderID(ctx, event.Payload.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("no order for gateway order %s", event.Payload.OrderID)
		}
		return fmt.Errorf("get order: %w", err)
	}

	var downgraded bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Gateways do not promise delivery order: a failed notice may arrive
		// after the capture it lost the race to, or after a cancellation.
		// The guard leaves resolved orders alone; the event is still marked
		// processed so it cannot be replayed.
		downgraded, err = s.orderRepo.MarkPaymentFailed(ctx, tx, order.ID)
		if err != nil {
			return fmt.Errorf("mark payment failed: %w", err)
		}
		return s.webhookEventRepo.MarkProcessed(ctx, tx, event.ID, event.Event)
	})
	if err != nil {
		return err
	}

	if !downgraded {
		s.logger.Info("ignoring stale payment failure for resolved order",
			zap.String("order_id", order.ID),
			zap.String("event_id", event.ID),
		)
		return nil
	}

	s.logger.Warn("payment failed, order kept retryable",
		zap.String("order_id", order.ID),
		zap.String("event_id", event.ID),
	)
	return nil
}
