package lib

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

// ErrHoldMissing is returned when the authority has no record of the hold a
// payment row references.
var ErrHoldMissing = errors.New("hold not found at authority")

// PaymentAuthority is the external service holding and moving funds. All
// three calls are safe to retry: the implementation re-queries the authority
// on ambiguous results instead of guessing.
type PaymentAuthority interface {
	CreateHold(ctx context.Context, amount int64, currency string, metadata map[string]string) (string, error)
	Capture(ctx context.Context, holdRef string) error
	Cancel(ctx context.Context, holdRef string) error
}

// StripeAuthority implements PaymentAuthority on Stripe PaymentIntents with
// manual capture. Constructed once at startup and injected where needed.
type StripeAuthority struct {
	client  *stripe.Client
	timeout time.Duration
}

func NewStripeAuthority(c *stripe.Client, timeout time.Duration) *StripeAuthority {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &StripeAuthority{client: c, timeout: timeout}
}

func (s *StripeAuthority) CreateHold(ctx context.Context, amount int64, currency string, metadata map[string]string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	params := &stripe.PaymentIntentCreateParams{
		Amount:        stripe.Int64(amount),
		Currency:      stripe.String(currency),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Metadata:      metadata,
	}
	pi, err := s.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return "", err
	}
	return pi.ID, nil
}

func (s *StripeAuthority) Capture(ctx context.Context, holdRef string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.client.V1PaymentIntents.Capture(ctx, holdRef, &stripe.PaymentIntentCaptureParams{})
	if err == nil {
		return nil
	}
	// The capture may have landed on a previous attempt. Ask the authority
	// for the intent's true state before reporting failure.
	pi, rerr := s.client.V1PaymentIntents.Retrieve(ctx, holdRef, nil)
	if rerr != nil {
		if isResourceMissing(rerr) {
			return ErrHoldMissing
		}
		return err
	}
	if pi.Status == stripe.PaymentIntentStatusSucceeded {
		return nil
	}
	return err
}

func (s *StripeAuthority) Cancel(ctx context.Context, holdRef string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.client.V1PaymentIntents.Cancel(ctx, holdRef, &stripe.PaymentIntentCancelParams{})
	if err == nil {
		return nil
	}
	pi, rerr := s.client.V1PaymentIntents.Retrieve(ctx, holdRef, nil)
	if rerr != nil {
		if isResourceMissing(rerr) {
			return ErrHoldMissing
		}
		return err
	}
	if pi.Status == stripe.PaymentIntentStatusCanceled {
		return nil
	}
	return err
}

func isResourceMissing(err error) bool {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		return serr.Code == stripe.ErrorCodeResourceMissing
	}
	return false
}
