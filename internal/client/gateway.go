package client

import "context"

// GatewayOrderRequest carries what a gateway needs to open a payment order.
// Nonce is only used by gateways that tokenize the payment method client-side.
type GatewayOrderRequest struct {
	AmountCents int64
	Currency    string
	Receipt     string
	Nonce       string
}

type GatewayOrder struct {
	OrderID     string
	CheckoutURL string
}

// PaymentGateway opens an order with an external payment provider. Capture is
// always reported back asynchronously through the webhook endpoint, never
// through this interface.
type PaymentGateway interface {
	OpenOrder(ctx context.Context, req *GatewayOrderRequest) (*GatewayOrder, error)
}
