// Package payments talks to the card processor (Stripe).
package payments

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"easybuy/internal/domain"
)

type Stripe struct {
	api *client.API
}

type Options struct {
	Key     string
	Timeout time.Duration
	// URL overrides the API base URL; tests point it at an httptest server.
	URL string
}

func NewStripe(opts Options) (*Stripe, error) {
	if strings.TrimSpace(opts.Key) == "" {
		return nil, errors.New("stripe secret key is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	cfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: opts.Timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if opts.URL != "" {
		cfg.URL = stripe.String(opts.URL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, cfg)

	api := &client.API{}
	api.Init(opts.Key, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return &Stripe{api: api}, nil
}

// CreateIntent opens a card-only payment intent for amount minor units.
func (s *Stripe) CreateIntent(ctx context.Context, amount int64, currency string) (domain.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(strings.ToLower(currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return domain.Intent{}, &domain.UpstreamError{Op: "create intent", Err: err}
	}
	return toIntent(pi), nil
}

func (s *Stripe) GetIntent(ctx context.Context, id string) (domain.Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.Get(id, params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.HTTPStatusCode == http.StatusNotFound {
			return domain.Intent{}, domain.Invalidf("unknown transaction %s", id)
		}
		return domain.Intent{}, &domain.UpstreamError{Op: "get intent", Err: err}
	}
	return toIntent(pi), nil
}

func toIntent(pi *stripe.PaymentIntent) domain.Intent {
	return domain.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}
}
