package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"storefront-api/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)

	// FindForUpdate reads the bare order row within the caller's transaction.
	FindForUpdate(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error)
	FindByExternalOrderID(ctx context.Context, externalOrderID string) (*model.Order, error)
	FindByUser(ctx context.Context, userID string) ([]*model.Order, error)
	FindAll(ctx context.Context) ([]*model.Order, error)
	GetOrderItems(ctx context.Context, tx *gorm.DB, orderID string) ([]*model.OrderItem, error)
	UpdateItemSnapshot(ctx context.Context, tx *gorm.DB, itemID uint, name string, priceCents int64) error

	// MarkPaid flips payment status to paid and the order to confirmed,
	// recording the gateway payment id and the stock commit. Guarded on the
	// order not already being paid (a redelivered capture cannot apply twice)
	// and not being in a terminal status (a late capture cannot resurrect a
	// cancelled order).
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID, externalPaymentID string) error

	// MarkPaymentFailed flips payment status to failed and resets the order
	// to pending so the buyer can retry. Guarded on the payment still being
	// pending and the order not being terminal; returns false when the guard
	// does not match, so a stale failure notice never downgrades a paid or
	// cancelled order.
	MarkPaymentFailed(ctx context.Context, tx *gorm.DB, orderID string) (bool, error)

	// UpdateStatus sets the order status (admin override), refusing to move
	// an order out of a terminal status. Returns false when the guard does
	// not match.
	UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, status model.OrderStatus) (bool, error)

	// Cancel transitions to cancelled only from the given statuses. Returns
	// false when the guard does not match.
	Cancel(ctx context.Context, tx *gorm.DB, orderID string, from []model.OrderStatus) (bool, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Omit("Items").Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindForUpdate(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error) {
	var order model.Order
	err := tx.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByExternalOrderID(ctx context.Context, externalOrderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("external_order_id = ?", externalOrderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByUser(ctx context.Context, userID string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) FindAll(ctx context.Context) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) GetOrderItems(ctx context.Context, tx *gorm.DB, orderID string) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := tx.WithContext(ctx).Where("order_id = ?", orderID).
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *orderRepoImpl) UpdateItemSnapshot(ctx context.Context, tx *gorm.DB, itemID uint, name string, priceCents int64) error {
	return tx.WithContext(ctx).Model(&model.OrderItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"name":        name,
			"price_cents": priceCents,
		}).Error
}

func (r *orderRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, orderID, externalPaymentID string) error {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status <> ? AND status NOT IN ?",
			orderID, model.PaymentPaid, model.TerminalOrderStatuses()).
		Updates(map[string]interface{}{
			"payment_status":      model.PaymentPaid,
			"external_payment_id": externalPaymentID,
			"status":              model.OrderConfirmed,
			"stock_committed":     true,
			"updated_at":          time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *orderRepoImpl) MarkPaymentFailed(ctx context.Context, tx *gorm.DB, orderID string) (bool, error) {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status = ? AND status NOT IN ?",
			orderID, model.PaymentPending, model.TerminalOrderStatuses()).
		Updates(map[string]interface{}{
			"payment_status": model.PaymentFailed,
			"status":         model.OrderPending,
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *orderRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, status model.OrderStatus) (bool, error) {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status NOT IN ?", orderID, model.TerminalOrderStatuses()).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *orderRepoImpl) Cancel(ctx context.Context, tx *gorm.DB, orderID string, from []model.OrderStatus) (bool, error) {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, from).
		Updates(map[string]interface{}{
			"status":     model.OrderCancelled,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
