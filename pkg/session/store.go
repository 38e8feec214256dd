package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pmorrison-au/teashop-backend/pkg/config"
	redisclient "github.com/pmorrison-au/teashop-backend/pkg/redis"
	redislib "github.com/redis/go-redis/v9"
)

const tokenBytes = 32

var ErrInvalidToken = errors.New("invalid session token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
}

type sessionKeyer interface {
	SessionKey(token string) string
}

// State is the per-visitor mutable record the storefront keeps outside the
// database: the current cart, the order being checked out, and a bounded
// history of past order ids (oldest dropped first).
type State struct {
	CartID       *uuid.UUID  `json:"cart_id,omitempty"`
	OrderID      *uuid.UUID  `json:"order_id,omitempty"`
	OrderHistory []uuid.UUID `json:"order_history,omitempty"`
}

// SetCart remembers the visitor's live cart.
func (s *State) SetCart(id uuid.UUID) {
	s.CartID = &id
}

// ClearCart drops the cart reference (after merge, adoption, or deletion).
func (s *State) ClearCart() {
	s.CartID = nil
}

// RememberOrder records the active order and pushes it into the bounded
// history, dropping the oldest entry when max is exceeded.
func (s *State) RememberOrder(id uuid.UUID, max int) {
	s.OrderID = &id
	for _, existing := range s.OrderHistory {
		if existing == id {
			return
		}
	}
	s.OrderHistory = append(s.OrderHistory, id)
	if max > 0 && len(s.OrderHistory) > max {
		s.OrderHistory = s.OrderHistory[len(s.OrderHistory)-max:]
	}
}

// ForgetOrder clears the active order reference after confirmation.
func (s *State) ForgetOrder() {
	s.OrderID = nil
}

// Store persists visitor session state in Redis with a sliding TTL.
type Store struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// NewStore constructs a session store backed by Redis.
func NewStore(client *redisclient.Client, cfg config.SessionConfig) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Store{
		store: client,
		keyer: client,
		ttl:   cfg.TTL,
	}, nil
}

// NewToken mints an opaque visitor token for the session cookie.
func NewToken() (string, error) {
	bytes := make([]byte, tokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// Load returns the state stored for the token. Unknown tokens yield an
// empty state, not an error: a fresh cookie simply has no state yet.
func (s *Store) Load(ctx context.Context, token string) (*State, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}
	raw, err := s.store.Get(ctx, s.keyer.SessionKey(token))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		// corrupt entries are discarded rather than wedging the visitor
		return &State{}, nil
	}
	return &state, nil
}

// Save writes the state back and resets the sliding TTL.
func (s *Store) Save(ctx context.Context, token string, state *State) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidToken
	}
	if state == nil {
		state = &State{}
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.store.Set(ctx, s.keyer.SessionKey(token), string(raw), s.ttl)
}

// Delete removes all state for the token.
func (s *Store) Delete(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidToken
	}
	return s.store.Del(ctx, s.keyer.SessionKey(token))
}

// Alive reports whether the token still has live state in Redis. The
// orphaned-cart job uses this to decide if a session cart is abandoned.
func (s *Store) Alive(ctx context.Context, token string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, nil
	}
	return s.store.Exists(ctx, s.keyer.SessionKey(token))
}
