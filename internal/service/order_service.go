package service

import (
	"context"
	stderrors "errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopcore/internal/errors"
	"shopcore/internal/mail"
	"shopcore/internal/model"
	"shopcore/internal/repository"
)

// OrderItemRequest is one requested line of a new order.
type OrderItemRequest struct {
	ProductID uint
	Quantity  int
}

// OrderService handles order creation and lifecycle transitions.
type OrderService interface {
	CreateOrder(ctx context.Context, userID uint, items []OrderItemRequest, shipping, billing model.Address, shippingCost decimal.Decimal) (*model.Order, error)
	GetOrderForUser(ctx context.Context, orderID, userID uint) (*model.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]model.Order, int64, error)
	UpdateStatus(ctx context.Context, orderID uint, status model.OrderStatus) (*model.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	mailer      *mail.Dispatcher
	logger      *zap.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	mailer *mail.Dispatcher,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		mailer:      mailer,
		logger:      logger,
	}
}

// CreateOrder validates stock for every requested item before persisting
// anything, snapshots prices and addresses, and creates the order in status
// pending. Stock sufficiency is checked here and decremented after payment
// confirmation; the pair is not atomic across concurrent checkouts.
func (s *orderService) CreateOrder(ctx context.Context, userID uint, items []OrderItemRequest, shipping, billing model.Address, shippingCost decimal.Decimal) (*model.Order, error) {
	if len(items) == 0 {
		return nil, errors.ErrEmptyOrder
	}

	// billing defaults to the shipping snapshot
	if billing == (model.Address{}) {
		billing = shipping
	}

	orderItems := make([]model.OrderItem, 0, len(items))
	total := shippingCost
	for _, req := range items {
		product, err := s.productRepo.FindByID(ctx, req.ProductID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.ErrProductNotFound
			}
			return nil, err
		}
		if product.StockQuantity < req.Quantity {
			return nil, &errors.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.StockQuantity,
				Requested:   req.Quantity,
			}
		}

		price := product.EffectivePrice()
		orderItems = append(orderItems, model.OrderItem{
			ProductID: product.ID,
			Quantity:  req.Quantity,
			Price:     price,
		})
		total = total.Add(price.Mul(decimal.NewFromInt(int64(req.Quantity))))
	}

	order := &model.Order{
		UserID:          userID,
		Status:          model.OrderStatusPending,
		Total:           total,
		ShippingCost:    shippingCost,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		Items:           orderItems,
	}
	if err := s.orderRepo.CreateWithItems(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.Uint("order_id", order.ID),
		zap.Uint("user_id", userID),
		zap.String("total", total.StringFixed(2)))
	return order, nil
}

// GetOrderForUser returns the order only when it belongs to the user.
func (s *orderService) GetOrderForUser(ctx context.Context, orderID, userID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, errors.ErrOrderNotFound
	}
	return order, nil
}

// ListOrders returns orders matching the filter with the unpaginated total.
func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]model.Order, int64, error) {
	return s.orderRepo.List(ctx, filter)
}

// UpdateStatus is the privileged transition to any status in the valid
// set. The owner is notified best-effort.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uint, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, errors.ErrInvalidOrderStatus
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrOrderNotFound
		}
		return nil, err
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	order.Status = status

	if user, err := s.userRepo.FindByID(ctx, order.UserID); err == nil {
		s.mailer.Enqueue(mail.OrderStatusChanged(user.Email, order, user))
	} else {
		s.logger.Error("status mail skipped, owner lookup failed",
			zap.Uint("order_id", orderID), zap.Error(err))
	}

	return order, nil
}
