package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"storefront-api/internal/client"
	"storefront-api/internal/model"
	"storefront-api/internal/repository"
)

// fakeGateway records open-order calls and hands back canned order ids.
type fakeGateway struct {
	requests []*client.GatewayOrderRequest
	orderID  string
	err      error
}

func (f *fakeGateway) OpenOrder(_ context.Context, req *client.GatewayOrderRequest) (*client.GatewayOrder, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	return &client.GatewayOrder{OrderID: f.orderID}, nil
}

type testEnv struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	eventRepo   repository.WebhookEventRepository
	gateway     *fakeGateway
	orders      OrderService
	payments    PaymentService
	catalog     CatalogService
}

const testWebhookSecret = "test-webhook-secret"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a :memory: database exists per connection
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Category{},
		&model.Product{},
		&model.Review{},
		&model.User{},
		&model.Order{},
		&model.OrderItem{},
		&model.WebhookEvent{},
	))

	env := &testEnv{
		db:          db,
		productRepo: repository.NewProductRepository(db),
		orderRepo:   repository.NewOrderRepository(db),
		userRepo:    repository.NewUserRepository(db),
		eventRepo:   repository.NewWebhookEventRepository(db),
		gateway:     &fakeGateway{orderID: "gw_order_1"},
	}

	logger := zap.NewNop()
	env.orders = NewOrderService(db, logger, env.productRepo, env.orderRepo, env.userRepo,
		map[model.PaymentMethod]client.PaymentGateway{
			model.MethodRazorpay:  env.gateway,
			model.MethodBraintree: env.gateway,
		})
	env.payments = NewPaymentService(db, logger, map[string]string{"razorpay": testWebhookSecret},
		env.productRepo, env.orderRepo, env.eventRepo)
	env.catalog = NewCatalogService(env.productRepo)

	return env
}

func (e *testEnv) seedProduct(t *testing.T, id, name string, priceCents, stock int64) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.Product{
		ID:         id,
		Name:       name,
		PriceCents: priceCents,
		Stock:      stock,
	}).Error)
}

func (e *testEnv) productStock(t *testing.T, id string) int64 {
	t.Helper()
	var product model.Product
	require.NoError(t, e.db.Where("id = ?", id).First(&product).Error)
	return product.Stock
}

func (e *testEnv) reloadOrder(t *testing.T, id string) *model.Order {
	t.Helper()
	order, err := e.orderRepo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return order
}
