package client

import (
	"context"
	"fmt"

	"github.com/braintree-go/braintree-go"
	"github.com/shopspring/decimal"

	"storefront-api/internal/config"
)

type braintreeClientImpl struct {
	gateway *braintree.Braintree
}

// NewBraintreeClient initializes the Braintree SDK gateway. Orders are opened
// as authorize-only transactions; settlement is reported by webhook like any
// other gateway.
func NewBraintreeClient(cfg *config.Braintree) PaymentGateway {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway: gateway,
	}
}

func (c *braintreeClientImpl) OpenOrder(ctx context.Context, orderReq *GatewayOrderRequest) (*GatewayOrder, error) {
	if orderReq.Nonce == "" {
		return nil, fmt.Errorf("braintree checkout requires a payment method nonce")
	}

	// Braintree expects NewDecimal(unscaled, scale): 50.00 -> (5000, 2).
	amount := decimal.New(orderReq.AmountCents, -2)
	btAmount := braintree.NewDecimal(amount.Shift(2).IntPart(), 2)

	req := &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             btAmount,
		PaymentMethodNonce: orderReq.Nonce,
		OrderId:            orderReq.Receipt,
	}

	tx, err := c.gateway.Transaction().Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("braintree transaction creation failed: %w", err)
	}

	if tx.Status == braintree.TransactionStatusProcessorDeclined {
		return nil, fmt.Errorf("transaction declined by processor: %s", tx.ProcessorResponseText)
	}

	return &GatewayOrder{
		OrderID: tx.Id,
	}, nil
}
