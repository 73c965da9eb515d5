package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront-api/internal/apperr"
	"storefront-api/internal/client"
	"storefront-api/internal/dto"
	"storefront-api/internal/model"
	"storefront-api/internal/repository"
)

type OrderService interface {
	Create(ctx context.Context, userID string, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error)
	ListForUser(ctx context.Context, userID string) ([]*dto.OrderView, error)
	ListAll(ctx context.Context) ([]*dto.OrderView, error)
	UpdateStatus(ctx context.Context, orderID string, newStatus string) error
	Cancel(ctx context.Context, orderID, callerID string, isAdmin bool) (*model.Order, error)
}

type orderServiceImpl struct {
	db          *gorm.DB
	logger      *zap.Logger
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	gateways    map[model.PaymentMethod]client.PaymentGateway
	currency    string
}

func NewOrderService(
	db *gorm.DB,
	logger *zap.Logger,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	gateways map[model.PaymentMethod]client.PaymentGateway,
) OrderService {
	return &orderServiceImpl{
		db:          db,
		logger:      logger,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		gateways:    gateways,
		currency:    "USD",
	}
}

func (s *orderServiceImpl) Create(ctx context.Context, userID string, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, apperr.Validation("order must contain at least one item")
	}
	if req.ShippingAddress.Street == "" || req.ShippingAddress.City == "" {
		return nil, apperr.Validation("shipping address is required")
	}

	method := model.PaymentMethod(req.Payment)
	switch method {
	case model.MethodCOD, model.MethodRazorpay, model.MethodBraintree:
	default:
		return nil, apperr.Validation("unknown payment method %q", req.Payment)
	}

	productIDs := make([]string, len(req.Items))
	quantityByProduct := make(map[string]int64)
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, apperr.Validation("item quantity must be positive")
		}
		if item.ProductID == "" {
			return nil, apperr.Validation("item product id is required")
		}
		productIDs[i] = item.ProductID
		quantityByProduct[item.ProductID] += item.Quantity
	}

	products, err := s.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	productByID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}
	for _, id := range productIDs {
		if _, ok := productByID[id]; !ok {
			return nil, apperr.NotFound("product %s not found", id)
		}
	}

	order := &model.Order{
		ID:            uuid.NewString(),
		UserID:        userID,
		Status:        model.OrderPending,
		PaymentMethod: method,
		ShipStreet:    req.ShippingAddress.Street,
		ShipCity:      req.ShippingAddress.City,
		ShipPostal:    req.ShippingAddress.Postal,
		ShipCountry:   req.ShippingAddress.Country,
	}

	items := make([]*model.OrderItem, 0, len(quantityByProduct))
	for productID, quantity := range quantityByProduct {
		product := productByID[productID]
		order.TotalCents += product.PriceCents * quantity
		items = append(items, &model.OrderItem{
			OrderID:    order.ID,
			ProductID:  product.ID,
			Name:       product.Name,
			PriceCents: product.PriceCents,
			Quantity:   quantity,
		})
	}

	if method == model.MethodCOD {
		return s.createCODOrder(ctx, order, items)
	}
	return s.createGatewayOrder(ctx, order, items, req.PaymentNonce)
}

// createCODOrder commits stock at creation time. The whole order runs in one
// transaction, so a failed decrement on any line item rolls back every
// earlier decrement.
func (s *orderServiceImpl) createCODOrder(ctx context.Context, order *model.Order, items []*model.OrderItem) (*dto.CreateOrderResponse, error) {
	order.PaymentStatus = model.PaymentCOD
	order.StockCommitted = true

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			ok, err := s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock for %s: %w", item.ProductID, err)
			}
			if !ok {
				product, err := s.productRepo.FindForUpdate(ctx, tx, item.ProductID)
				if err != nil {
					return apperr.NotFound("product %s not found", item.ProductID)
				}
				return apperr.OutOfStock(product.Name, product.Stock)
			}
		}

		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
			return fmt.Errorf("store order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.String("payment_method", string(order.PaymentMethod)),
		zap.Int64("total_cents", order.TotalCents),
	)

	order.Items = dereferenceItems(items)
	return &dto.CreateOrderResponse{Order: order}, nil
}

// createGatewayOrder defers stock commitment until the capture webhook
// arrives; only the gateway order is opened here.
func (s *orderServiceImpl) createGatewayOrder(ctx context.Context, order *model.Order, items []*model.OrderItem, nonce string) (*dto.CreateOrderResponse, error) {
	gateway, ok := s.gateways[order.PaymentMethod]
	if !ok {
		return nil, apperr.Validation("payment method %q is not configured", order.PaymentMethod)
	}

	gatewayOrder, err := gateway.OpenOrder(ctx, &client.GatewayOrderRequest{
		AmountCents: order.TotalCents,
		Currency:    s.currency,
		Receipt:     order.ID,
		Nonce:       nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("open gateway order: %w", err)
	}

	order.PaymentStatus = model.PaymentPending
	order.ExternalOrderID = gatewayOrder.OrderID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
			return fmt.Errorf("store order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.String("payment_method", string(order.PaymentMethod)),
		zap.String("gateway_order_id", gatewayOrder.OrderID),
		zap.Int64("total_cents", order.TotalCents),
	)

	order.Items = dereferenceItems(items)
	return &dto.CreateOrderResponse{
		Order:           order,
		GatewayOrderID:  gatewayOrder.OrderID,
		GatewayCheckout: gatewayOrder.CheckoutURL,
	}, nil
}

func (s *orderServiceImpl) ListForUser(ctx context.Context, userID string) ([]*dto.OrderView, error) {
	orders, err := s.orderRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get orders: %w", err)
	}

	return s.buildViews(ctx, orders, false)
}

func (s *orderServiceImpl) ListAll(ctx context.Context) ([]*dto.OrderView, error) {
	orders, err := s.orderRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all orders: %w", err)
	}

	return s.buildViews(ctx, orders, true)
}

// buildViews decorates stored line-item snapshots with current catalog data
// for display. Snapshots themselves are never rewritten by a read.
func (s *orderServiceImpl) buildViews(ctx context.Context, orders []*model.Order, resolveUsers bool) ([]*dto.OrderView, error) {
	productIDs := make([]string, 0)
	userIDs := make([]string, 0, len(orders))
	seenProducts := make(map[string]bool)
	for _, order := range orders {
		userIDs = append(userIDs, order.UserID)
		for _, item := range order.Items {
			if !seenProducts[item.ProductID] {
				seenProducts[item.ProductID] = true
				productIDs = append(productIDs, item.ProductID)
			}
		}
	}

	productByID := make(map[string]*model.Product)
	if len(productIDs) > 0 {
		products, err := s.productRepo.FindMany(ctx, productIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve products: %w", err)
		}
		for _, p := range products {
			productByID[p.ID] = p
		}
	}

	userByID := make(map[string]*model.User)
	if resolveUsers && len(userIDs) > 0 {
		users, err := s.userRepo.FindMany(ctx, userIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve users: %w", err)
		}
		for _, u := range users {
			userByID[u.ID] = u
		}
	}

	views := make([]*dto.OrderView, len(orders))
	for i, order := range orders {
		view := &dto.OrderView{
			ID:            order.ID,
			Status:        order.Status,
			PaymentMethod: order.PaymentMethod,
			PaymentStatus: order.PaymentStatus,
			TotalCents:    order.TotalCents,
			UserID:        order.UserID,
			Items:         make([]dto.OrderItemView, len(order.Items)),
		}
		if user, ok := userByID[order.UserID]; ok {
			view.UserName = user.Name
			view.UserEmail = user.Email
		}
		for j, item := range order.Items {
			itemView := dto.OrderItemView{
				ProductID:  item.ProductID,
				Name:       item.Name,
				PriceCents: item.PriceCents,
				Quantity:   item.Quantity,
			}
			if product, ok := productByID[item.ProductID]; ok {
				itemView.StillInStore = true
				itemView.CurrentName = product.Name
				price := product.PriceCents
				stock := product.Stock
				itemView.CurrentPrice = &price
				itemView.CurrentStock = &stock
			}
			view.Items[j] = itemView
		}
		views[i] = view
	}

	return views, nil
}

func (s *orderServiceImpl) UpdateStatus(ctx context.Context, orderID string, newStatus string) error {
	status := model.OrderStatus(newStatus)
	if !model.ValidOrderStatus(status) {
		return apperr.Validation("unknown order status %q", newStatus)
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("order %s not found", orderID)
		}
		return fmt.Errorf("get order: %w", err)
	}

	if status == order.Status {
		return nil
	}

	// Admins may jump the lifecycle forward (pending straight to delivered is
	// a legitimate manual override), but terminal orders stay terminal. The
	// guard lives in the UPDATE itself so a transition committed after the
	// read above cannot slip past it.
	updated, err := s.orderRepo.UpdateStatus(ctx, s.db, orderID, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if !updated {
		return apperr.InvalidTransition(string(order.Status))
	}

	s.logger.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(status)),
	)
	return nil
}

func (s *orderServiceImpl) Cancel(ctx context.Context, orderID, callerID string, isAdmin bool) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order %s not found", orderID)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if !isAdmin && order.UserID != callerID {
		return nil, apperr.Forbidden("order belongs to another user")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-read inside the transaction: a capture webhook may have committed
		// stock since the order was loaded.
		current, err := s.orderRepo.FindForUpdate(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}

		cancelled, err := s.orderRepo.Cancel(ctx, tx, orderID, []model.OrderStatus{model.OrderPending, model.OrderConfirmed})
		if err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}
		if !cancelled {
			return apperr.InvalidTransition(string(current.Status))
		}

		// Stock is credited back only when this order actually decremented it
		// (COD at creation, gateway at capture). Products deleted since the
		// order was placed are skipped.
		order.StockCommitted = current.StockCommitted
		if current.StockCommitted {
			for _, item := range order.Items {
				if _, err := s.productRepo.IncrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return fmt.Errorf("restore stock for %s: %w", item.ProductID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = model.OrderCancelled
	s.logger.Info("order cancelled",
		zap.String("order_id", orderID),
		zap.Bool("stock_restored", order.StockCommitted),
	)
	return order, nil
}

func dereferenceItems(items []*model.OrderItem) []model.OrderItem {
	out := make([]model.OrderItem, len(items))
	for i, item := range items {
		out[i] = *item
	}
	return out
}
