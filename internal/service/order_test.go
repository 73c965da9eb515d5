package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-api/internal/apperr"
	"storefront-api/internal/dto"
	"storefront-api/internal/model"
)

func codOrderRequest(items ...dto.OrderItemRequest) *dto.CreateOrderRequest {
	return &dto.CreateOrderRequest{
		Items:   items,
		Payment: string(model.MethodCOD),
		ShippingAddress: dto.ShippingAddress{
			Street:  "1 Main St",
			City:    "Springfield",
			Postal:  "12345",
			Country: "US",
		},
	}
}

func TestCreateCODOrderCommitsStock(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Coffee Beans", 1000, 5)

	result, err := env.orders.Create(context.Background(), "u1",
		codOrderRequest(dto.OrderItemRequest{ProductID: "p1", Quantity: 3}))
	require.NoError(t, err)

	assert.EqualValues(t, 2, env.productStock(t, "p1"))
	assert.EqualValues(t, 3000, result.Order.TotalCents)
	assert.Equal(t, model.OrderPending, result.Order.Status)
	assert.Equal(t, model.PaymentCOD, result.Order.PaymentStatus)
	assert.True(t, result.Order.StockCommitted)

	stored := env.reloadOrder(t, result.Order.ID)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Coffee Beans", stored.Items[0].Name)
	assert.EqualValues(t, 1000, stored.Items[0].PriceCents)
}

func TestCreateCODOrderAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Coffee Beans", 1000, 5)
	env.seedProduct(t, "p2", "Grinder", 5000, 1)

	_, err := env.orders.Create(context.Background(), "u1", codOrderRequest(
		dto.OrderItemRequest{ProductID: "p1", Quantity: 2},
		dto.OrderItemRequest{ProductID: "p2", Quantity: 3},
	))
	require.Error(t, err)

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Message, "Grinder")
	assert.Contains(t, appErr.Message, "1")

	// the successful decrement on p1 must not survive the rollback
	assert.EqualValues(t, 5, env.productStock(t, "p1"))
	assert.EqualValues(t, 1, env.productStock(t, "p2"))
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.orders.Create(context.Background(), "u1",
		codOrderRequest(dto.OrderItemRequest{ProductID: "ghost", Quantity: 1}))

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Coffee Beans", 1000, 5)

	cases := []struct {
		name string
		req  *dto.CreateOrderRequest
	}{
		{"empty items", codOrderRequest()},
		{"zero quantity", codOrderRequest(dto.OrderItemRequest{ProductID: "p1", Quantity: 0})},
		{"missing product id", codOrderRequest(dto.OrderItemRequest{Quantity: 1})},
		{"unknown payment method", &dto.CreateOrderRequest{
			Items:           []dto.OrderItemRequest{{ProductID: "p1", Quantity: 1}},
			Payment:         "WIRE",
			ShippingAddress: dto.ShippingAddress{Street: "1 Main St", City: "Springfield"},
		}},
		{"missing address", &dto.CreateOrderRequest{
			Items:   []dto.OrderItemRequest{{ProductID: "p1", Quantity: 1}},
			Payment: string(model.MethodCOD),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.orders.Create(context.Background(), "u1", tc.req)
			var appErr *apperr.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, http.StatusBadRequest, appErr.Status)
		})
	}

	assert.EqualValues(t, 5, env.productStock(t, "p1"))
}

func TestCreateGatewayOrderDefersStock(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Coffee Beans", 2000, 2)

	req := codOrderRequest(dto.OrderItemRequest{ProductID: "p1", Quantity: 2})
	req.Payment = string(model.MethodRazorpay)

	result, err := env.orders.Create(context.Background(), "u1", req)
	require.NoError(t, err)

	// stock is reserved only on confirmed payment
	assert.EqualValues(t, 2, env.productStock(t, "p1"))
	assert.Equal(t, "gw_order_1", result.Order.ExternalOrderID)
	assert.Equal(t, model.PaymentPending, result.Order.PaymentStatus)
	assert.False(t, result.Order.StockCommitted)

	require.Len(t, env.gateway.requests, 1)
	assert.EqualValues(t, 4000, env.gateway.requests[0].AmountCents)
	assert.Equal(t, result.Order.ID, env.gateway.requests[0].Receipt)
}

func TestCreateGatewayOrderFailure(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Coffee Beans", 2000, 2)
	env.gateway.err = errors.New("gateway unavailable")

	req := codOrderRequest(dto.OrderItemRequest{ProductID: "p1", Quantity: 1})
	req.Payment = string(model.MethodRazorpay)

	_, err := env.orders.Create(context.Background(), "u1", req)
	require.Error(t, err)

	var count int64
	require.NoError(t, env.db.Model(&model.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCancelCODOrderRestoresStock(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Coffee Beans", 1000, 5)

	result, err := env.orders.Create(context.Background(), "u1",
		codOrderRequest(dto.OrderItemRequest{ProductID: "p1", Quantity: 3}))
	require.NoError(t, err)
	require.EqualValues(t, 2, env.productStock(t, "p1"))

	cancelled, err := env.orders.Cancel(context.Background(), result.Order.ID, "u1", false)
	require.NoError(t, err)

	assert.Equal(t, model.OrderCancelled, cancelled.Status)
	assert.EqualValues(t, 5, env.productStock(t, "p1"))
	assert.Equal(t, model.OrderCancelled, env.reloadOrder(t, result.Order.ID).Status)
}

func TestCancelGatewayOrderBeforeCaptureLeavesStock(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Coffee Beans", 1000, 5)

	req := codOrderRequest(dto.OrderItemRequest{ProductID: "p1", Quantity: 3})
	req.Payment = string(model.MethodRazorpay)
	result, err := env.orders.Create(context.Background(), "u1", req)
	require.NoError(t, err)

	_, err = env.orders.Cancel(context.Background(), result.Order.ID, "u1", false)
	require.NoError(t, err)

	// the order never decremented stock, so cancellation must not credit it
	assert.EqualValues(t, 5, env.productStock(t, "p1"))
}

func TestCancelRejectsFinishedOrders(t *testing.T) {
	for _, status := range []model.OrderStatus{
		model.OrderShipped, model.OrderDelivered, model.OrderCancelled, model.OrderReturned,
	} {
		t.Run(string(status), func(t *testing.T) {
			env := newTestEnv(t)
			env.seedProduct(t, "p1", "Coffee Beans", 1000, 5)

			result, err := env.orders.Create(context.Background(), "u1",
				codOrderRequest(dto.OrderItemRequest{ProductID: "p1", Quantity: 3}))
			require.NoError(t, err)
			require.NoError(t, env.db.Model(&model.Order{}).
				Where("id = ?", result.Order.ID).
				Update("status", status).Error)

			_, err = env.orders.Cancel(context.Background(), result.Order.ID, "u1", false)
			var appErr *apperr.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, http.StatusBadRequest, appErr.Status)
			assert.Contains(t, appErr.Message, string(status))

			assert.EqualValues(t, 2, env.productStock(t, "p1"))
			assert.Equal(t, status, env.reloadOrder(t, result.Order.ID).Status)
		})
	}
}

func TestCancelSkipsDeletedProducts(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Coffee Beans", 1000, 5)
	env.seedProduct(t, "p2", "Grinder", 5000, 4)

	result, err := env.orders.Create(context.Background(), "u1", codOrderRequest(
		dto.OrderItemRequest{ProductID: "p1", Quantity: 1},
		dto.OrderItemRequest{ProductID: "p2", Quantity: 2},
	))
	require.NoError(t, err)
	require.NoError(t, env.db.Where("id = ?", "p2").Delete(&model.Product{}).Error)

	cancelled, err := env.orders.Cancel(context.Background(), result.Order.ID, "u1", false)
	require.NoError(t, err)

	assert.Equal(t, model.OrderCancelled, cancelled.Status)
	assert.EqualValues(t, 5, env.productStock(t, "p1"))
}

func TestCancelOwnership(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Coffee Beans", 1000, 5)

	result, err := env.orders.Create(context.Background(), "u1",
		codOrderRequest(dto.OrderItemRequest{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)

	_, err = env.orders.Cancel(context.Background(), result.Order.ID, "u2", false)
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusForbidden, appErr.Status)

	// admins may cancel any order
	_, err = env.orders.Cancel(context.Background(), result.Order.ID, "u2", true)
	require.NoError(t, err)
}

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Coffee Beans", 1000, 5)

	result, err := env.orders.Create(context.Background(), "u1",
		codOrderRequest(dto.OrderItemRequest{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)
	orderID := result.Order.ID

	err = env.orders.UpdateStatus(context.Background(), orderID, "teleported")
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.Status)

	// admin override may jump the lifecycle forward
	require.NoError(t, env.orders.UpdateStatus(context.Background(), orderID, "delivered"))
	assert.Equal(t, model.OrderDelivered, env.reloadOrder(t, orderID).Status)

	// but terminal orders stay terminal
	err = env.orders.UpdateStatus(context.Background(), orderID, "shipped")
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Message, "delivered")
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	env := newTestEnv(t)

	err := env.orders.UpdateStatus(context.Background(), "ghost", "shipped")
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestListForUserDecoratesWithCurrentCatalog(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Coffee Beans", 1000, 5)

	result, err := env.orders.Create(context.Background(), "u1",
		codOrderRequest(dto.OrderItemRequest{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)

	// catalog edit after the order was placed
	require.NoError(t, env.db.Model(&model.Product{}).Where("id = ?", "p1").
		Updates(map[string]interface{}{"name": "Dark Roast", "price_cents": 1500}).Error)

	views, err := env.orders.ListForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Len(t, views[0].Items, 1)

	item := views[0].Items[0]
	assert.Equal(t, "Coffee Beans", item.Name) // snapshot untouched
	assert.EqualValues(t, 1000, item.PriceCents)
	assert.Equal(t, "Dark Roast", item.CurrentName)
	require.NotNil(t, item.CurrentPrice)
	assert.EqualValues(t, 1500, *item.CurrentPrice)

	// snapshot stays frozen in storage too
	stored := env.reloadOrder(t, result.Order.ID)
	assert.Equal(t, "Coffee Beans", stored.Items[0].Name)

	other, err := env.orders.ListForUser(context.Background(), "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestListAllResolvesUsers(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", "Coffee Beans", 1000, 5)
	require.NoError(t, env.db.Create(&model.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: "user"}).Error)

	_, err := env.orders.Create(context.Background(), "u1",
		codOrderRequest(dto.OrderItemRequest{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)

	views, err := env.orders.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Ada", views[0].UserName)
	assert.Equal(t, "ada@example.com", views[0].UserEmail)
}
