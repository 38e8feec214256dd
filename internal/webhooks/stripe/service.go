package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/pmorrison-au/teashop-backend/pkg/errors"
	"github.com/pmorrison-au/teashop-backend/pkg/logger"
)

// paymentReconciler is the slice of the checkout engine webhooks drive.
type paymentReconciler interface {
	HandlePaymentSucceeded(ctx context.Context, paymentIntentID string) error
	HandlePaymentCanceled(ctx context.Context, paymentIntentID string) error
}

// Service translates verified gateway events into checkout transitions.
type Service struct {
	checkout paymentReconciler
	logg     *logger.Logger
}

func NewService(checkout paymentReconciler, logg *logger.Logger) (*Service, error) {
	if checkout == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout reconciler required")
	}
	return &Service{checkout: checkout, logg: logg}, nil
}

// HandleEvent dispatches a signature-verified event. Event types the shop
// does not care about are acknowledged so the gateway stops retrying them.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		intent, err := decodeIntent(event)
		if err != nil {
			return err
		}
		return s.checkout.HandlePaymentSucceeded(ctx, intent.ID)
	case stripe.EventTypePaymentIntentCanceled:
		intent, err := decodeIntent(event)
		if err != nil {
			return err
		}
		return s.checkout.HandlePaymentCanceled(ctx, intent.ID)
	default:
		if s.logg != nil {
			s.logg.Info(ctx, fmt.Sprintf("ignoring stripe event type %s", event.Type))
		}
		return nil
	}
}

func decodeIntent(event *stripe.Event) (*stripe.PaymentIntent, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
	}
	if intent.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}
	return &intent, nil
}
