package dto

import "storefront-api/internal/model"

// Envelope is the uniform response body for every endpoint, success and
// failure alike.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
}

type OrderItemRequest struct {
	ProductID string `json:"product"`
	Quantity  int64  `json:"quantity"`
}

type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Postal  string `json:"postal"`
	Country string `json:"country"`
}

type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items"`
	ShippingAddress ShippingAddress    `json:"shippingAddress"`
	Payment         string             `json:"payment"`                // COD | RAZORPAY | BRAINTREE
	PaymentNonce    string             `json:"paymentNonce,omitempty"` // client-side token, braintree only
}

type CreateOrderResponse struct {
	Order           *model.Order `json:"order"`
	GatewayOrderID  string       `json:"gatewayOrderId,omitempty"`
	GatewayCheckout string       `json:"gatewayCheckoutUrl,omitempty"`
}

// OrderItemView is a stored line item decorated with the product's current
// catalog data for display. The stored snapshot is never rewritten by reads.
type OrderItemView struct {
	ProductID    string `json:"productId"`
	Name         string `json:"name"`
	PriceCents   int64  `json:"priceCents"`
	Quantity     int64  `json:"quantity"`
	CurrentName  string `json:"currentName,omitempty"`
	CurrentPrice *int64 `json:"currentPriceCents,omitempty"`
	CurrentStock *int64 `json:"currentStock,omitempty"`
	StillInStore bool   `json:"stillInStore"`
}

type OrderView struct {
	ID            string              `json:"id"`
	Status        model.OrderStatus   `json:"orderStatus"`
	PaymentMethod model.PaymentMethod `json:"paymentMethod"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
	TotalCents    int64               `json:"totalCents"`
	Items         []OrderItemView     `json:"items"`
	UserID        string              `json:"userId"`
	UserName      string              `json:"userName,omitempty"`
	UserEmail     string              `json:"userEmail,omitempty"`
}

type UpdateOrderStatusRequest struct {
	OrderStatus string `json:"orderStatus"`
}

type ProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
	Stock       int64  `json:"stock"`
	CategoryID  string `json:"categoryId"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}
