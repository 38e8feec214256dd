package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stripe/stripe-go/v84"

	"github.com/pmorrison-au/teashop-backend/pkg/config"
	pkgerrors "github.com/pmorrison-au/teashop-backend/pkg/errors"
	"github.com/pmorrison-au/teashop-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"

	retryBaseDelay = 500 * time.Millisecond
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errSecretRequired   = errors.New("stripe webhook secret is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// Intent is the slice of a payment intent the checkout engine cares about.
type Intent struct {
	ID           string
	ClientSecret string
}

// Client wraps Stripe's API client plus env-specific metadata. Gateway
// calls run with a bounded per-call timeout and retry with backoff;
// Stripe-rejected requests (4xx) are not retried.
type Client struct {
	api           *stripe.Client
	environment   string
	signingSecret string
	timeout       time.Duration
	maxRetries    uint64
	logg          *logger.Logger
}

// NewClient initializes Stripe once with the configured secrets and env.
func NewClient(ctx context.Context, cfg config.StripeConfig, checkout config.CheckoutConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	signingSecret := strings.TrimSpace(cfg.Secret)
	if signingSecret == "" {
		return nil, errSecretRequired
	}

	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	}

	return &Client{
		api:           stripe.NewClient(apiKey),
		environment:   env,
		signingSecret: signingSecret,
		timeout:       checkout.GatewayTimeout,
		maxRetries:    checkout.GatewayRetries,
		logg:          logg,
	}, nil
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// CreateIntent opens a new payment intent sized to amountCents.
func (c *Client) CreateIntent(ctx context.Context, amountCents int64, currency string) (Intent, error) {
	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}

	var intent Intent
	err := c.withRetry(ctx, "create payment intent", func(ctx context.Context) error {
		pi, err := c.api.V1PaymentIntents.Create(ctx, params)
		if err != nil {
			return err
		}
		intent = Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}
		return nil
	})
	return intent, err
}

// UpdateIntentAmount re-prices an existing intent. The returned client
// secret must be propagated to the browser.
func (c *Client) UpdateIntentAmount(ctx context.Context, intentID string, amountCents int64) (Intent, error) {
	params := &stripe.PaymentIntentUpdateParams{
		Amount: stripe.Int64(amountCents),
	}

	var intent Intent
	err := c.withRetry(ctx, "update payment intent", func(ctx context.Context) error {
		pi, err := c.api.V1PaymentIntents.Update(ctx, intentID, params)
		if err != nil {
			return err
		}
		intent = Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}
		return nil
	})
	return intent, err
}

// CancelIntent voids an intent that will never be paid.
func (c *Client) CancelIntent(ctx context.Context, intentID string) error {
	return c.withRetry(ctx, "cancel payment intent", func(ctx context.Context) error {
		_, err := c.api.V1PaymentIntents.Cancel(ctx, intentID, &stripe.PaymentIntentCancelParams{})
		return err
	})
}

func (c *Client) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewFibonacci(retryBaseDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		if err := fn(callCtx); err != nil {
			if isRetryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		if c.logg != nil {
			c.logg.Error(ctx, fmt.Sprintf("stripe %s failed", op), err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
	}
	return nil
}

// isRetryable treats Stripe 4xx rejections as permanent and everything
// else (timeouts, 5xx, connection failures) as transient.
func isRetryable(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode >= 500
	}
	return true
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
