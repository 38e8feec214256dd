package cron

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pmorrison-au/teashop-backend/pkg/db/models"
	"github.com/pmorrison-au/teashop-backend/pkg/logger"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrphanRepo struct {
	carts   []models.Cart
	deleted []uuid.UUID
}

func (s *stubOrphanRepo) ListSessionCarts(_ context.Context, _ *gorm.DB, afterID *uuid.UUID, limit int) ([]models.Cart, error) {
	var out []models.Cart
	for _, row := range s.carts {
		if afterID != nil && row.ID.String() <= afterID.String() {
			continue
		}
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubOrphanRepo) DeleteCarts(_ context.Context, _ *gorm.DB, ids []uuid.UUID) (int64, error) {
	s.deleted = append(s.deleted, ids...)
	return int64(len(ids)), nil
}

type stubSessions struct {
	alive map[string]bool
}

func (s *stubSessions) Alive(_ context.Context, token string) (bool, error) {
	return s.alive[token], nil
}

func orderedCart(token string) models.Cart {
	t := token
	return models.Cart{ID: uuid.New(), SessionToken: &t}
}

func TestOrphanCartJobDeletesExpiredSessions(t *testing.T) {
	live := orderedCart("tok-live")
	dead := orderedCart("tok-dead")
	repo := &stubOrphanRepo{carts: []models.Cart{live, dead}}
	sessions := &stubSessions{alive: map[string]bool{"tok-live": true}}

	job, err := NewOrphanCartJob(OrphanCartJobParams{
		Logger:     logger.New(logger.Options{}),
		DB:         stubTxRunner{},
		Repository: repo,
		Sessions:   sessions,
		BatchSize:  10,
	})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []uuid.UUID{dead.ID}, repo.deleted, "only the expired session's cart goes")
}

func TestOrphanCartJobSkipsUserCarts(t *testing.T) {
	repo := &stubOrphanRepo{}
	job, err := NewOrphanCartJob(OrphanCartJobParams{
		Logger:     logger.New(logger.Options{}),
		DB:         stubTxRunner{},
		Repository: repo,
		Sessions:   &stubSessions{alive: map[string]bool{}},
	})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, repo.deleted)
}
