package service

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopcore/internal/cache"
	apperrors "shopcore/internal/errors"
	"shopcore/internal/model"
	"shopcore/internal/payment"
	"shopcore/internal/sync"
)

func pendingOrder() *model.Order {
	return &model.Order{
		ID:           42,
		UserID:       7,
		Status:       model.OrderStatusPending,
		Total:        decimal.RequireFromString("104.90"),
		ShippingCost: decimal.RequireFromString("5.00"),
		Items: []model.OrderItem{
			{ProductID: 1, Quantity: 2, Price: decimal.RequireFromString("49.95")},
		},
	}
}

type paymentFixture struct {
	provider    *MockPaymentProvider
	orderRepo   *MockOrderRepository
	invoiceRepo *MockInvoiceRepository
	productRepo *MockProductRepository
	userRepo    *MockUserRepository
	renderer    *MockRenderer
	notifier    *recordingNotifier
	svc         PaymentService
}

func newPaymentFixture() *paymentFixture {
	return newPaymentFixtureWithCache(nil)
}

func newPaymentFixtureWithCache(cacheClient *cache.Client) *paymentFixture {
	f := &paymentFixture{
		provider:    new(MockPaymentProvider),
		orderRepo:   new(MockOrderRepository),
		invoiceRepo: new(MockInvoiceRepository),
		productRepo: new(MockProductRepository),
		userRepo:    new(MockUserRepository),
		renderer:    new(MockRenderer),
		notifier:    &recordingNotifier{},
	}
	f.svc = NewPaymentService(f.provider, f.orderRepo, f.invoiceRepo, f.productRepo,
		f.userRepo, f.renderer, newTestDispatcher(), f.notifier, cacheClient, zap.NewNop())
	return f
}

// expectConfirmPipeline wires the happy-path expectations shared by the
// confirmation tests.
func (f *paymentFixture) expectConfirmPipeline(ctx context.Context) {
	f.orderRepo.On("UpdateStatus", ctx, uint(42), model.OrderStatusConfirmed).Return(nil)
	f.invoiceRepo.On("FindByOrderID", ctx, uint(42)).Return(nil, gorm.ErrRecordNotFound)
	f.invoiceRepo.On("Create", ctx, mock.AnythingOfType("*model.Invoice")).Return(nil)
	f.renderer.On("RenderInvoice", mock.Anything, mock.Anything).Return("invoices/facture-0.pdf", nil)
	f.invoiceRepo.On("Update", ctx, mock.AnythingOfType("*model.Invoice")).Return(nil)
	f.userRepo.On("FindByID", ctx, uint(7)).Return(&model.User{ID: 7, Email: "claire@example.com"}, nil)
	f.productRepo.On("DecrementStock", ctx, uint(1), 2).Return(nil)
}

func TestCreateIntent(t *testing.T) {
	ctx := context.Background()

	t.Run("creates intent for owned pending order", func(t *testing.T) {
		f := newPaymentFixture()
		f.orderRepo.On("FindByIDWithItems", ctx, uint(42)).Return(pendingOrder(), nil)
		f.provider.On("CreateIntent", ctx, int64(10490), "eur", "42", "7").
			Return(&payment.Intent{ID: "pi_123", ClientSecret: "secret", Status: "requires_payment_method"}, nil)
		f.orderRepo.On("Update", ctx, mock.AnythingOfType("*model.Order")).Return(nil)

		intent, err := f.svc.CreateIntent(ctx, 42, 7)
		assert.NoError(t, err)
		assert.Equal(t, "pi_123", intent.ID)
		f.provider.AssertExpectations(t)
	})

	t.Run("rejects non-pending order", func(t *testing.T) {
		f := newPaymentFixture()
		order := pendingOrder()
		order.Status = model.OrderStatusConfirmed
		f.orderRepo.On("FindByIDWithItems", ctx, uint(42)).Return(order, nil)

		_, err := f.svc.CreateIntent(ctx, 42, 7)
		assert.ErrorIs(t, err, apperrors.ErrInvalidOrderStatus)
	})

	t.Run("hides other users orders", func(t *testing.T) {
		f := newPaymentFixture()
		f.orderRepo.On("FindByIDWithItems", ctx, uint(42)).Return(pendingOrder(), nil)

		_, err := f.svc.CreateIntent(ctx, 42, 99)
		assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
	})
}

func TestConfirmPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects non-succeeded intent", func(t *testing.T) {
		f := newPaymentFixture()
		f.orderRepo.On("FindByIDWithItems", ctx, uint(42)).Return(pendingOrder(), nil)
		f.provider.On("RetrieveIntent", ctx, "pi_123").
			Return(&payment.Intent{ID: "pi_123", Status: "requires_payment_method"}, nil)

		_, err := f.svc.ConfirmPayment(ctx, 42, 7, "pi_123")
		assert.ErrorIs(t, err, apperrors.ErrPaymentNotSucceeded)
		f.orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("confirms order and runs the pipeline", func(t *testing.T) {
		f := newPaymentFixture()
		order := pendingOrder()
		f.orderRepo.On("FindByIDWithItems", ctx, uint(42)).Return(order, nil)
		f.provider.On("RetrieveIntent", ctx, "pi_123").
			Return(&payment.Intent{ID: "pi_123", Status: payment.IntentSucceeded}, nil)
		f.orderRepo.On("UpdateStatus", ctx, uint(42), model.OrderStatusConfirmed).Return(nil)
		f.invoiceRepo.On("FindByOrderID", ctx, uint(42)).Return(nil, gorm.ErrRecordNotFound)
		f.invoiceRepo.On("Create", ctx, mock.AnythingOfType("*model.Invoice")).Return(nil)
		f.renderer.On("RenderInvoice", mock.AnythingOfType("*model.Invoice"), order).
			Return("invoices/facture-0.pdf", nil)
		f.invoiceRepo.On("Update", ctx, mock.AnythingOfType("*model.Invoice")).Return(nil)
		f.userRepo.On("FindByID", ctx, uint(7)).Return(&model.User{ID: 7, Email: "claire@example.com"}, nil)
		f.productRepo.On("DecrementStock", ctx, uint(1), 2).Return(nil)

		invoice, err := f.svc.ConfirmPayment(ctx, 42, 7, "pi_123")
		assert.NoError(t, err)

		assert.True(t, strings.HasPrefix(invoice.InvoiceNumber, "INV-"))
		assert.True(t, strings.HasSuffix(invoice.InvoiceNumber, "-42"))
		assert.Equal(t, model.InvoiceStatusPaid, invoice.Status)
		assert.NotNil(t, invoice.IssuedAt)
		assert.NotNil(t, invoice.PaidAt)
		// per-line breakdown: 99.90 and 5.00 decomposed at 20% TVA
		assert.Equal(t, "104.90", invoice.TotalTTC.StringFixed(2))
		assert.Equal(t, "87.42", invoice.TotalHT.StringFixed(2))
		assert.Equal(t, "17.48", invoice.TVA.StringFixed(2))
		assert.Equal(t, "invoices/facture-0.pdf", invoice.PDFPath)

		f.productRepo.AssertCalled(t, "DecrementStock", ctx, uint(1), 2)
		assert.Equal(t, []sync.Change{{Kind: sync.ProductChanged, ID: 1}}, f.notifier.changes)
	})

	t.Run("retry returns the existing invoice without side effects", func(t *testing.T) {
		f := newPaymentFixture()
		order := pendingOrder()
		order.Status = model.OrderStatusConfirmed
		existing := &model.Invoice{ID: 5, OrderID: 42, InvoiceNumber: "INV-1700000000-42"}
		f.orderRepo.On("FindByIDWithItems", ctx, uint(42)).Return(order, nil)
		f.provider.On("RetrieveIntent", ctx, "pi_123").
			Return(&payment.Intent{ID: "pi_123", Status: payment.IntentSucceeded}, nil)
		f.invoiceRepo.On("FindByOrderID", ctx, uint(42)).Return(existing, nil)

		invoice, err := f.svc.ConfirmPayment(ctx, 42, 7, "pi_123")
		assert.NoError(t, err)
		assert.Equal(t, existing, invoice)
		f.orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		f.productRepo.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.notifier.changes)
	})

	t.Run("pdf failure does not fail confirmation", func(t *testing.T) {
		f := newPaymentFixture()
		order := pendingOrder()
		f.orderRepo.On("FindByIDWithItems", ctx, uint(42)).Return(order, nil)
		f.provider.On("RetrieveIntent", ctx, "pi_123").
			Return(&payment.Intent{ID: "pi_123", Status: payment.IntentSucceeded}, nil)
		f.orderRepo.On("UpdateStatus", ctx, uint(42), model.OrderStatusConfirmed).Return(nil)
		f.invoiceRepo.On("FindByOrderID", ctx, uint(42)).Return(nil, gorm.ErrRecordNotFound)
		f.invoiceRepo.On("Create", ctx, mock.AnythingOfType("*model.Invoice")).Return(nil)
		f.renderer.On("RenderInvoice", mock.Anything, mock.Anything).Return("", assert.AnError)
		f.userRepo.On("FindByID", ctx, uint(7)).Return(&model.User{ID: 7, Email: "claire@example.com"}, nil)
		f.productRepo.On("DecrementStock", ctx, uint(1), 2).Return(nil)

		invoice, err := f.svc.ConfirmPayment(ctx, 42, 7, "pi_123")
		assert.NoError(t, err)
		assert.Empty(t, invoice.PDFPath)
	})
}

func TestHandleWebhook(t *testing.T) {
	ctx := context.Background()
	payload := []byte(`{"id":"evt_1"}`)

	t.Run("signature failure yields no side effects", func(t *testing.T) {
		f := newPaymentFixture()
		f.provider.On("ParseWebhook", payload, "bad").Return(nil, apperrors.ErrInvalidWebhookSignature)

		err := f.svc.HandleWebhook(ctx, payload, "bad")
		assert.ErrorIs(t, err, apperrors.ErrInvalidWebhookSignature)
		f.orderRepo.AssertNotCalled(t, "FindByIDWithItems", mock.Anything, mock.Anything)
	})

	t.Run("ignores unrelated event types", func(t *testing.T) {
		f := newPaymentFixture()
		f.provider.On("ParseWebhook", payload, "sig").
			Return(&payment.WebhookEvent{ID: "evt_1", Type: "invoice.created"}, nil)

		err := f.svc.HandleWebhook(ctx, payload, "sig")
		assert.NoError(t, err)
		f.orderRepo.AssertNotCalled(t, "FindByIDWithItems", mock.Anything, mock.Anything)
	})

	t.Run("checkout completion confirms the order", func(t *testing.T) {
		f := newPaymentFixture()
		f.provider.On("ParseWebhook", payload, "sig").
			Return(&payment.WebhookEvent{ID: "evt_1", Type: payment.EventCheckoutCompleted, OrderID: "42"}, nil)
		f.orderRepo.On("FindByIDWithItems", ctx, uint(42)).Return(pendingOrder(), nil)
		f.expectConfirmPipeline(ctx)

		err := f.svc.HandleWebhook(ctx, payload, "sig")
		assert.NoError(t, err)
		f.orderRepo.AssertCalled(t, "UpdateStatus", ctx, uint(42), model.OrderStatusConfirmed)
	})

	t.Run("failed confirmation is reprocessed on provider retry", func(t *testing.T) {
		mr := miniredis.RunT(t)
		f := newPaymentFixtureWithCache(cache.New(mr.Addr(), "", 0))
		f.provider.On("ParseWebhook", payload, "sig").
			Return(&payment.WebhookEvent{ID: "evt_1", Type: payment.EventCheckoutCompleted, OrderID: "42"}, nil)
		f.orderRepo.On("FindByIDWithItems", ctx, uint(42)).Return(nil, assert.AnError).Once()

		// first delivery fails transiently, before any side effect
		err := f.svc.HandleWebhook(ctx, payload, "sig")
		assert.ErrorIs(t, err, assert.AnError)
		f.orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)

		// the retry of the same event ID must confirm the order
		f.orderRepo.On("FindByIDWithItems", ctx, uint(42)).Return(pendingOrder(), nil)
		f.expectConfirmPipeline(ctx)

		assert.NoError(t, f.svc.HandleWebhook(ctx, payload, "sig"))
		f.orderRepo.AssertCalled(t, "UpdateStatus", ctx, uint(42), model.OrderStatusConfirmed)
	})

	t.Run("processed event is not replayed", func(t *testing.T) {
		mr := miniredis.RunT(t)
		f := newPaymentFixtureWithCache(cache.New(mr.Addr(), "", 0))
		f.provider.On("ParseWebhook", payload, "sig").
			Return(&payment.WebhookEvent{ID: "evt_1", Type: payment.EventCheckoutCompleted, OrderID: "42"}, nil)
		f.orderRepo.On("FindByIDWithItems", ctx, uint(42)).Return(pendingOrder(), nil)
		f.expectConfirmPipeline(ctx)

		assert.NoError(t, f.svc.HandleWebhook(ctx, payload, "sig"))
		assert.NoError(t, f.svc.HandleWebhook(ctx, payload, "sig"))
		f.orderRepo.AssertNumberOfCalls(t, "FindByIDWithItems", 1)
	})
}
