package repository

import (
	"context"

	"gorm.io/gorm"

	"shopcore/internal/model"
)

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID *uint
	Status *model.OrderStatus
	Limit  int
	Offset int
}

// OrderRepository defines order persistence operations.
type OrderRepository interface {
	CreateWithItems(ctx context.Context, order *model.Order) error
	Update(ctx context.Context, order *model.Order) error
	UpdateStatus(ctx context.Context, id uint, status model.OrderStatus) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	FindByIDWithItems(ctx context.Context, id uint) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
	CountByStatus(ctx context.Context, status model.OrderStatus) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// CreateWithItems persists the order and its items in one transaction.
func (r *orderRepository) CreateWithItems(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
}

// Update updates an existing order.
func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// UpdateStatus updates only the status column.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, status model.OrderStatus) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// FindByID finds an order by ID.
func (r *orderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDWithItems finds an order with its items and their products.
func (r *orderRepository) FindByIDWithItems(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns orders matching the filter plus the unpaginated total.
func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var orders []model.Order
	if err := q.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// CountByStatus counts orders in a given status.
func (r *orderRepository) CountByStatus(ctx context.Context, status model.OrderStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
