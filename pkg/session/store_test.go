package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

type fakeRedis struct {
	data map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = value.(string)
	return nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.data[key]
	return ok, nil
}

type fakeKeyer struct{}

func (fakeKeyer) SessionKey(token string) string { return "teashop:session:" + token }

func newTestStore() (*Store, *fakeRedis) {
	fr := newFakeRedis()
	return &Store{store: fr, keyer: fakeKeyer{}, ttl: time.Hour}, fr
}

func TestLoadUnknownTokenReturnsEmptyState(t *testing.T) {
	store, _ := newTestStore()

	state, err := store.Load(context.Background(), "fresh-token")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if state.CartID != nil || state.OrderID != nil || len(state.OrderHistory) != 0 {
		t.Fatalf("expected empty state, got %+v", state)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	cartID := uuid.New()
	orderID := uuid.New()
	state := &State{}
	state.SetCart(cartID)
	state.RememberOrder(orderID, 5)

	if err := store.Save(ctx, "tok", state); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "tok")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.CartID == nil || *loaded.CartID != cartID {
		t.Fatalf("cart id not round-tripped: %+v", loaded)
	}
	if loaded.OrderID == nil || *loaded.OrderID != orderID {
		t.Fatalf("order id not round-tripped: %+v", loaded)
	}
	if len(loaded.OrderHistory) != 1 || loaded.OrderHistory[0] != orderID {
		t.Fatalf("order history not round-tripped: %+v", loaded)
	}
}

func TestRememberOrderBoundsHistory(t *testing.T) {
	state := &State{}

	var ids []uuid.UUID
	for i := 0; i < 6; i++ {
		id := uuid.New()
		ids = append(ids, id)
		state.RememberOrder(id, 4)
	}

	if len(state.OrderHistory) != 4 {
		t.Fatalf("expected history bounded at 4, got %d", len(state.OrderHistory))
	}
	// oldest two dropped
	if state.OrderHistory[0] != ids[2] {
		t.Fatalf("expected oldest entries dropped first, got %v", state.OrderHistory)
	}
	if state.OrderHistory[3] != ids[5] {
		t.Fatalf("expected newest entry last, got %v", state.OrderHistory)
	}
}

func TestRememberOrderIsIdempotentPerID(t *testing.T) {
	state := &State{}
	id := uuid.New()
	state.RememberOrder(id, 4)
	state.RememberOrder(id, 4)
	if len(state.OrderHistory) != 1 {
		t.Fatalf("duplicate order id should not grow history: %v", state.OrderHistory)
	}
}

func TestAlive(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	alive, err := store.Alive(ctx, "ghost")
	if err != nil {
		t.Fatalf("alive failed: %v", err)
	}
	if alive {
		t.Fatal("unknown token should not be alive")
	}

	if err := store.Save(ctx, "real", &State{}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	alive, err = store.Alive(ctx, "real")
	if err != nil {
		t.Fatalf("alive failed: %v", err)
	}
	if !alive {
		t.Fatal("saved token should be alive")
	}
}

func TestCorruptStateIsDiscarded(t *testing.T) {
	store, fr := newTestStore()
	fr.data["teashop:session:bad"] = "{not json"

	state, err := store.Load(context.Background(), "bad")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if state.CartID != nil {
		t.Fatalf("expected empty state for corrupt entry, got %+v", state)
	}
}
