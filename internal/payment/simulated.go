package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	apperrors "shopcore/internal/errors"
)

// SimulatedProvider stands in for Stripe in development. Every intent
// retrieves as succeeded and checkout sessions point straight at the
// frontend confirmation page.
type SimulatedProvider struct {
	frontendURL string
}

var _ Provider = (*SimulatedProvider)(nil)

// NewSimulatedProvider creates a provider that never leaves the process.
func NewSimulatedProvider(frontendURL string) *SimulatedProvider {
	return &SimulatedProvider{frontendURL: frontendURL}
}

func (p *SimulatedProvider) CreateIntent(ctx context.Context, amountCents int64, currency string, orderID, userID string) (*Intent, error) {
	id := "pi_simulation_" + uuid.NewString()
	return &Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_payment_method",
		Amount:       amountCents,
	}, nil
}

func (p *SimulatedProvider) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	return &Intent{ID: id, Status: IntentSucceeded}, nil
}

func (p *SimulatedProvider) CreateCheckoutSession(ctx context.Context, cp CheckoutParams) (*CheckoutSession, error) {
	id := "cs_simulation_" + uuid.NewString()
	url := fmt.Sprintf("%s/order-confirmation/%s?session_id=%s&payment_status=success",
		p.frontendURL, cp.OrderID, id)
	return &CheckoutSession{ID: id, URL: url}, nil
}

// ParseWebhook accepts an unsigned JSON body shaped like a provider event.
// Signature verification is intentionally skipped in simulation, but an
// unparseable payload still fails like a bad signature would.
func (p *SimulatedProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	var event struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				Metadata map[string]string `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidWebhookSignature, err)
	}
	return &WebhookEvent{
		ID:      event.ID,
		Type:    event.Type,
		OrderID: event.Data.Object.Metadata["orderId"],
	}, nil
}
