package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopcore/internal/cache"
	"shopcore/internal/errors"
	"shopcore/internal/mail"
	"shopcore/internal/model"
	"shopcore/internal/payment"
	"shopcore/internal/pdf"
	"shopcore/internal/repository"
	"shopcore/internal/sync"
)

// invoiceDueDelay is how long a customer has to settle an issued invoice.
// The invoices here are issued already paid, so the due date is informative.
const invoiceDueDelay = 30 * 24 * time.Hour

// webhookDedupTTL bounds how long a processed provider event ID is remembered.
const webhookDedupTTL = 24 * time.Hour

// SyncNotifier receives entity change notifications after relational writes.
type SyncNotifier interface {
	Notify(change sync.Change)
}

// PaymentService drives the payment pipeline: intent or hosted checkout
// creation, confirmation, and webhook handling.
type PaymentService interface {
	CreateIntent(ctx context.Context, orderID, userID uint) (*payment.Intent, error)
	CreateCheckoutSession(ctx context.Context, orderID, userID uint, successURL, cancelURL string) (*payment.CheckoutSession, error)
	ConfirmPayment(ctx context.Context, orderID, userID uint, intentID string) (*model.Invoice, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type paymentService struct {
	provider    payment.Provider
	orderRepo   repository.OrderRepository
	invoiceRepo repository.InvoiceRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	renderer    pdf.Renderer
	mailer      *mail.Dispatcher
	notifier    SyncNotifier
	cache       *cache.Client
	logger      *zap.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	provider payment.Provider,
	orderRepo repository.OrderRepository,
	invoiceRepo repository.InvoiceRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	renderer pdf.Renderer,
	mailer *mail.Dispatcher,
	notifier SyncNotifier,
	cacheClient *cache.Client,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		provider:    provider,
		orderRepo:   orderRepo,
		invoiceRepo: invoiceRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		renderer:    renderer,
		mailer:      mailer,
		notifier:    notifier,
		cache:       cacheClient,
		logger:      logger,
	}
}

// CreateIntent creates a payment intent for the amount of a pending order
// owned by the user and records the intent reference on the order.
func (s *paymentService) CreateIntent(ctx context.Context, orderID, userID uint) (*payment.Intent, error) {
	order, err := s.ownedPendingOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	intent, err := s.provider.CreateIntent(ctx, toCents(order.Total), "eur",
		strconv.FormatUint(uint64(order.ID), 10),
		strconv.FormatUint(uint64(userID), 10))
	if err != nil {
		return nil, err
	}

	order.PaymentRef = intent.ID
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}
	return intent, nil
}

// CreateCheckoutSession creates a hosted checkout session with one line per
// order item plus shipping.
func (s *paymentService) CreateCheckoutSession(ctx context.Context, orderID, userID uint, successURL, cancelURL string) (*payment.CheckoutSession, error) {
	order, err := s.ownedPendingOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.ErrUserNotFound
	}

	lines := make([]payment.LineItem, 0, len(order.Items)+1)
	for _, item := range order.Items {
		name := fmt.Sprintf("Article #%d", item.ProductID)
		if item.Product != nil {
			name = item.Product.Name
		}
		lines = append(lines, payment.LineItem{
			Name:       name,
			UnitAmount: toCents(item.Price),
			Quantity:   int64(item.Quantity),
		})
	}
	if order.ShippingCost.IsPositive() {
		lines = append(lines, payment.LineItem{
			Name:       "Frais de livraison",
			UnitAmount: toCents(order.ShippingCost),
			Quantity:   1,
		})
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payment.CheckoutParams{
		CustomerEmail: user.Email,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
		LineItems:     lines,
		OrderID:       strconv.FormatUint(uint64(order.ID), 10),
	})
	if err != nil {
		return nil, err
	}

	order.PaymentRef = session.ID
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}
	return session, nil
}

// ConfirmPayment is the client-driven confirmation path. The intent is
// re-fetched from the provider and must report succeeded before the order
// is confirmed.
func (s *paymentService) ConfirmPayment(ctx context.Context, orderID, userID uint, intentID string) (*model.Invoice, error) {
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

	intent, err := s.provider.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != payment.IntentSucceeded {
		return nil, errors.ErrPaymentNotSucceeded
	}

	return s.confirmOrder(ctx, order)
}

// HandleWebhook verifies and routes a provider callback. Event IDs are
// deduplicated so that provider retries do not replay side effects; a
// failed confirmation releases the event ID again so the provider's
// retry is reprocessed rather than swallowed. When the dedup store is
// unavailable confirmOrder is still safe to repeat.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}

	dedupKey := "stripe:event:" + event.ID
	first, _ := s.cache.SetNX(ctx, dedupKey, []byte("1"), webhookDedupTTL)
	if !first {
		s.logger.Info("webhook event already processed", zap.String("event_id", event.ID))
		return nil
	}

	if event.Type != payment.EventCheckoutCompleted {
		s.logger.Debug("webhook event ignored", zap.String("type", event.Type))
		return nil
	}

	orderID, err := strconv.ParseUint(event.OrderID, 10, 64)
	if err != nil {
		return fmt.Errorf("webhook order reference %q: %w", event.OrderID, err)
	}
	order, err := s.orderRepo.FindByIDWithItems(ctx, uint(orderID))
	if err != nil {
		_ = s.cache.Delete(ctx, dedupKey)
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrOrderNotFound
		}
		return err
	}

	if _, err := s.confirmOrder(ctx, order); err != nil {
		_ = s.cache.Delete(ctx, dedupKey)
		return err
	}
	return nil
}

// confirmOrder is the shared post-payment pipeline: the order moves to
// confirmed, an invoice is found or created for it, the PDF is rendered,
// the confirmation mail is queued, stock is decremented and the mirror is
// notified. Repeating the call for an already confirmed order returns the
// existing invoice and performs no further side effects.
func (s *paymentService) confirmOrder(ctx context.Context, order *model.Order) (*model.Invoice, error) {
	if order.Status != model.OrderStatusPending {
		invoice, err := s.invoiceRepo.FindByOrderID(ctx, order.ID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.ErrInvoiceNotFound
			}
			return nil, err
		}
		return invoice, nil
	}

	if err := s.orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusConfirmed); err != nil {
		return nil, err
	}
	order.Status = model.OrderStatusConfirmed

	invoice, err := s.findOrCreateInvoice(ctx, order)
	if err != nil {
		return nil, err
	}

	if path, err := s.renderer.RenderInvoice(invoice, order); err != nil {
		// A missing PDF must not fail the confirmation; it can be
		// regenerated from the stored invoice.
		s.logger.Error("invoice pdf render failed",
			zap.Uint("invoice_id", invoice.ID), zap.Error(err))
	} else if path != invoice.PDFPath {
		invoice.PDFPath = path
		if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
			s.logger.Error("invoice pdf path not persisted",
				zap.Uint("invoice_id", invoice.ID), zap.Error(err))
		}
	}

	if user, err := s.userRepo.FindByID(ctx, order.UserID); err == nil {
		s.mailer.Enqueue(mail.OrderConfirmation(user.Email, order, user, invoice.PDFPath))
	} else {
		s.logger.Error("confirmation mail skipped, owner lookup failed",
			zap.Uint("order_id", order.ID), zap.Error(err))
	}

	for _, item := range order.Items {
		if err := s.productRepo.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("stock decrement failed",
				zap.Uint("product_id", item.ProductID), zap.Error(err))
			continue
		}
		s.notifier.Notify(sync.Change{Kind: sync.ProductChanged, ID: item.ProductID})
	}

	s.logger.Info("order confirmed",
		zap.Uint("order_id", order.ID),
		zap.String("invoice_number", invoice.InvoiceNumber))
	return invoice, nil
}

// findOrCreateInvoice returns the order's invoice, creating it on first
// confirmation. The unique index on the order reference backs this up when
// two confirmations race.
func (s *paymentService) findOrCreateInvoice(ctx context.Context, order *model.Order) (*model.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByOrderID(ctx, order.ID)
	if err == nil {
		return invoice, nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Stored prices are TTC; the tax breakdown is decomposed per line so
	// that rounding matches the printed invoice.
	totalTTC := order.ShippingCost
	totalHT := model.HTFromTTC(order.ShippingCost)
	for _, item := range order.Items {
		lineTTC := item.LineTotal()
		totalTTC = totalTTC.Add(lineTTC)
		totalHT = totalHT.Add(model.HTFromTTC(lineTTC))
	}
	tva := totalTTC.Sub(totalHT)

	now := time.Now()
	due := now.Add(invoiceDueDelay)
	invoice = &model.Invoice{
		OrderID:       order.ID,
		UserID:        order.UserID,
		InvoiceNumber: fmt.Sprintf("INV-%d-%d", now.Unix(), order.ID),
		Amount:        totalTTC,
		TotalHT:       totalHT,
		TVA:           tva,
		TotalTTC:      totalTTC,
		Status:        model.InvoiceStatusPaid,
		IssuedAt:      &now,
		DueAt:         &due,
		PaidAt:        &now,
	}
	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		// Concurrent confirmation may have won the insert.
		if existing, findErr := s.invoiceRepo.FindByOrderID(ctx, order.ID); findErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return invoice, nil
}

func (s *paymentService) ownedPendingOrder(ctx context.Context, orderID, userID uint) (*model.Order, error) {
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
	if order.Status != model.OrderStatusPending {
		return nil, errors.ErrInvalidOrderStatus
	}
	return order, nil
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
