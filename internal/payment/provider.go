package payment

import "context"

// Intent is the provider-agnostic view of a payment intent.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
}

// IntentSucceeded is the provider status for a completed payment.
const IntentSucceeded = "succeeded"

// EventCheckoutCompleted is the webhook event type that drives order confirmation.
const EventCheckoutCompleted = "checkout.session.completed"

// LineItem is one checkout line with its unit amount in cents.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// CheckoutParams describes a hosted checkout session.
type CheckoutParams struct {
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	LineItems     []LineItem
	OrderID       string
}

// CheckoutSession is the created hosted session.
type CheckoutSession struct {
	ID  string
	URL string
}

// WebhookEvent is a verified provider callback. OrderID is only set for
// checkout completion events.
type WebhookEvent struct {
	ID      string
	Type    string
	OrderID string
}

// Provider wraps the payment provider API. Set up as an interface so the
// pipeline can be exercised without network calls.
type Provider interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, orderID, userID string) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	// ParseWebhook verifies the payload signature before trusting anything
	// in it. A signature failure must yield ErrInvalidWebhookSignature and
	// no side effects.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
