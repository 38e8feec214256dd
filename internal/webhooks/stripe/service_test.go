package stripewebhook

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/pmorrison-au/teashop-backend/pkg/errors"
)

type fakeReconciler struct {
	succeeded []string
	canceled  []string
}

func (f *fakeReconciler) HandlePaymentSucceeded(_ context.Context, id string) error {
	f.succeeded = append(f.succeeded, id)
	return nil
}

func (f *fakeReconciler) HandlePaymentCanceled(_ context.Context, id string) error {
	f.canceled = append(f.canceled, id)
	return nil
}

func intentEvent(t *testing.T, eventType stripe.EventType, intentID string) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"id": intentID})
	require.NoError(t, err)
	return &stripe.Event{
		ID:   "evt_1",
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEventPaymentSucceeded(t *testing.T) {
	reconciler := &fakeReconciler{}
	svc, err := NewService(reconciler, nil)
	require.NoError(t, err)

	err = svc.HandleEvent(context.Background(), intentEvent(t, stripe.EventTypePaymentIntentSucceeded, "pi_123"))
	require.NoError(t, err)
	assert.Equal(t, []string{"pi_123"}, reconciler.succeeded)
	assert.Empty(t, reconciler.canceled)
}

func TestHandleEventPaymentCanceled(t *testing.T) {
	reconciler := &fakeReconciler{}
	svc, err := NewService(reconciler, nil)
	require.NoError(t, err)

	err = svc.HandleEvent(context.Background(), intentEvent(t, stripe.EventTypePaymentIntentCanceled, "pi_456"))
	require.NoError(t, err)
	assert.Equal(t, []string{"pi_456"}, reconciler.canceled)
}

func TestHandleEventIgnoresUnknownTypes(t *testing.T) {
	reconciler := &fakeReconciler{}
	svc, err := NewService(reconciler, nil)
	require.NoError(t, err)

	err = svc.HandleEvent(context.Background(), intentEvent(t, "charge.refunded", "ch_1"))
	require.NoError(t, err, "unknown event types are acked, not errored")
	assert.Empty(t, reconciler.succeeded)
	assert.Empty(t, reconciler.canceled)
}

func TestHandleEventMissingIntentID(t *testing.T) {
	svc, err := NewService(&fakeReconciler{}, nil)
	require.NoError(t, err)

	event := &stripe.Event{
		ID:   "evt_2",
		Type: stripe.EventTypePaymentIntentSucceeded,
		Data: &stripe.EventData{Raw: []byte(`{}`)},
	}
	err = svc.HandleEvent(context.Background(), event)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

type fakeIdempotencyStore struct {
	keys map[string]bool
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "teashop:idempotency:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func TestIdempotencyGuard(t *testing.T) {
	store := &fakeIdempotencyStore{keys: map[string]bool{}}
	guard, err := NewIdempotencyGuard(store, time.Hour, "stripe-events")
	require.NoError(t, err)

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, seen, "first delivery processes")

	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.True(t, seen, "replay is dropped")

	require.NoError(t, guard.Delete(context.Background(), "evt_1"))
	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, seen, "failed handling re-opens the event")
}
