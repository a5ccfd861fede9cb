package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	stripe "github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/paymentintent"

	"github.com/desertthunder/secondbrain/internal/shared"
)

// Payments creates hosted payment flows.
type Payments interface {
	CreateCheckoutSession(ctx context.Context, userID string) (*CheckoutSession, error)
	CreatePaymentIntent(ctx context.Context, userID string) (*PaymentIntent, error)
}

// CheckoutSession is the subset of a Stripe checkout session the site needs.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PaymentIntent is the subset of a Stripe payment intent the site needs.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// Product describes the single item sold.
type Product struct {
	Name       string
	UnitAmount int64
	Currency   string
	SuccessURL string
	CancelURL  string
}

// StripeClient creates checkout sessions and payment intents through the Stripe SDK.
type StripeClient struct {
	sessions *checkoutsession.Client
	intents  *paymentintent.Client
	product  Product
}

var _ Payments = (*StripeClient)(nil)

// NewStripeClient creates a client from the stripe config section.
// A non-empty BaseURL points the SDK backend at another host, such as stripe-mock.
func NewStripeClient(cfg shared.StripeConfig, client *http.Client, logger *log.Logger) (*StripeClient, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: stripe secret_key", shared.ErrMissingCredentials)
	}
	if client == nil {
		client = http.DefaultClient
	}

	backendConfig := &stripe.BackendConfig{
		HTTPClient:        client,
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.BaseURL != "" {
		backendConfig.URL = stripe.String(strings.TrimRight(cfg.BaseURL, "/"))
	}
	if logger != nil {
		backendConfig.LeveledLogger = shared.WithLogger(logger, "component", "stripe")
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig)

	return &StripeClient{
		sessions: &checkoutsession.Client{B: backend, Key: cfg.SecretKey},
		intents:  &paymentintent.Client{B: backend, Key: cfg.SecretKey},
		product: Product{
			Name:       cfg.PriceName,
			UnitAmount: cfg.UnitAmount,
			Currency:   cfg.Currency,
			SuccessURL: cfg.SuccessURL,
			CancelURL:  cfg.CancelURL,
		},
	}, nil
}

// CreateCheckoutSession creates a one-off card payment for the product tagged with userID.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, userID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(c.product.Currency),
				UnitAmount: stripe.Int64(c.product.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(c.product.Name),
				},
			},
		}},
		ClientReferenceID: stripe.String(userID),
		SuccessURL:        stripe.String(c.product.SuccessURL),
		CancelURL:         stripe.String(c.product.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata("user_id", userID)

	s, err := c.sessions.New(params)
	if err != nil {
		return nil, paymentError(err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// CreatePaymentIntent creates an intent for the product amount tagged with userID.
func (c *StripeClient) CreatePaymentIntent(ctx context.Context, userID string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(c.product.UnitAmount),
		Currency: stripe.String(c.product.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if userID != "" {
		params.AddMetadata("user_id", userID)
	}

	pi, err := c.intents.New(params)
	if err != nil {
		return nil, paymentError(err)
	}
	return &PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func paymentError(err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		return fmt.Errorf("%w: status %d: %s", shared.ErrPaymentFailed, serr.HTTPStatusCode, serr.Msg)
	}
	return fmt.Errorf("%w: %w", shared.ErrPaymentFailed, err)
}
