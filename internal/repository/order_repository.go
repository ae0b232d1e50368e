package repository

import (
	"context"

	"storefront/internal/models"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	GetByPaymentReference(ctx context.Context, paymentReference string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts the order and its items in one transaction. Unique index
// violations come back as ErrDuplicateOrderNumber or
// ErrDuplicatePaymentReference.
func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	return translateError(r.db.WithContext(ctx).Create(order).Error)
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *orderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return r.first(ctx, "order_number = ?", orderNumber)
}

func (r *orderRepository) GetByPaymentReference(ctx context.Context, paymentReference string) (*models.Order, error) {
	return r.first(ctx, "payment_reference = ?", paymentReference)
}

func (r *orderRepository) first(ctx context.Context, query string, arg interface{}) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").Where(query, arg).First(&order).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, translateError(err)
}

func (r *orderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error
	return orders, translateError(err)
}

// UpdateStatus only applies when the stored status still equals from and the
// order is paid; otherwise it returns ErrStatusConflict.
func (r *orderRepository) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND payment_status = ?", id, from, models.PaymentPaid).
		Update("status", to)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}
