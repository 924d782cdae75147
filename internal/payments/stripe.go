// Package payments hands donations to Stripe Checkout and interprets the
// webhook events Stripe sends back.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"fundacion/pkg/types"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

// currencies Stripe charges without a minor unit
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true,
	"kmf": true, "krw": true, "mga": true, "pyg": true, "rwf": true,
	"ugx": true, "vnd": true, "vuv": true, "xaf": true, "xof": true, "xpf": true,
}

type SessionCreator interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error)
}

type Checkout struct {
	sessions SessionCreator
	currency string
	baseURL  string
}

func NewCheckout(secretKey, currency, baseURL string) *Checkout {
	client := stripe.NewClient(secretKey)
	return newCheckout(client.V1CheckoutSessions, currency, baseURL)
}

func newCheckout(sessions SessionCreator, currency, baseURL string) *Checkout {
	return &Checkout{
		sessions: sessions,
		currency: strings.ToLower(currency),
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

type Session struct {
	ID  string
	URL string
}

// CreateSession opens a Checkout session for a pending donation. The session
// id becomes the donation's payment reference.
func (c *Checkout) CreateSession(ctx context.Context, donation *types.Donation, description string) (*Session, error) {
	params, err := c.sessionParams(donation, description)
	if err != nil {
		return nil, err
	}

	session, err := c.sessions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session for donation %s: %w", donation.ID, err)
	}

	return &Session{ID: session.ID, URL: session.URL}, nil
}

func (c *Checkout) sessionParams(donation *types.Donation, description string) (*stripe.CheckoutSessionCreateParams, error) {
	unitAmount, err := MinorUnits(donation.Amount, c.currency)
	if err != nil {
		return nil, err
	}

	return &stripe.CheckoutSessionCreateParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(donation.ID),
		SuccessURL:        stripe.String(c.baseURL + "/dashboard/donations?notice=Gracias+por+tu+donaci%C3%B3n"),
		CancelURL:         stripe.String(c.baseURL + "/dashboard/donations?error=Donaci%C3%B3n+cancelada"),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String(c.currency),
					UnitAmount: stripe.Int64(unitAmount),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
			},
		},
	}, nil
}

// MinorUnits converts an amount into the integer unit Stripe charges in.
func MinorUnits(amount float64, currency string) (int64, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("%w: %v", types.ErrInvalidAmount, amount)
	}

	if zeroDecimalCurrencies[strings.ToLower(currency)] {
		return int64(math.Round(amount)), nil
	}
	return int64(math.Round(amount * 100)), nil
}

// WebhookResult is the donation status change carried by a webhook event.
// Handled is false for event types that do not affect donations.
type WebhookResult struct {
	EventType string
	Reference string
	Status    types.DonationStatus
	Handled   bool
}

func ParseWebhook(payload []byte, signature, secret string) (*WebhookResult, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify webhook: %w", err)
	}

	result := &WebhookResult{EventType: string(event.Type)}

	var status types.DonationStatus
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		status = types.DonationStatusApproved
	case stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		status = types.DonationStatusApproved
	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		status = types.DonationStatusFailed
	case stripe.EventTypeCheckoutSessionExpired:
		status = types.DonationStatusRejected
	default:
		return result, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	// completed but still unpaid means an async method; wait for the follow up
	if event.Type == stripe.EventTypeCheckoutSessionCompleted && session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return result, nil
	}

	result.Reference = session.ID
	result.Status = status
	result.Handled = true
	return result, nil
}
