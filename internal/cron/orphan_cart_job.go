package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pmorrison-au/teashop-backend/pkg/db/models"
	"github.com/pmorrison-au/teashop-backend/pkg/logger"
	"github.com/pmorrison-au/teashop-backend/pkg/metrics"
)

const defaultOrphanBatchSize = 500

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orphanCartRepo interface {
	ListSessionCarts(ctx context.Context, tx *gorm.DB, afterID *uuid.UUID, limit int) ([]models.Cart, error)
	DeleteCarts(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (int64, error)
}

// sessionChecker reports whether a visitor session still exists in redis.
// session.Store satisfies it.
type sessionChecker interface {
	Alive(ctx context.Context, token string) (bool, error)
}

// OrphanCartJobParams configure the orphaned-cart cleanup job.
type OrphanCartJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository orphanCartRepo
	Sessions   sessionChecker
	Metrics    *metrics.CronJobMetrics
	BatchSize  int
}

// NewOrphanCartJob builds the job that deletes session-owned carts whose
// visitor session has expired. User-owned carts are never touched.
func NewOrphanCartJob(params OrphanCartJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session checker required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultOrphanBatchSize
	}
	return &orphanCartJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		sessions:  params.Sessions,
		metrics:   params.Metrics,
		batchSize: batchSize,
	}, nil
}

type orphanCartJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      orphanCartRepo
	sessions  sessionChecker
	metrics   *metrics.CronJobMetrics
	batchSize int
}

func (j *orphanCartJob) Name() string { return "orphan-cart-cleanup" }

func (j *orphanCartJob) Run(ctx context.Context) error {
	var (
		totalRemoved int64
		afterID      *uuid.UUID
	)
	for {
		var batch []models.Cart
		if err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			rows, err := j.repo.ListSessionCarts(ctx, tx, afterID, j.batchSize)
			if err != nil {
				return err
			}
			batch = rows
			return nil
		}); err != nil {
			return fmt.Errorf("list session carts: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		lastID := batch[len(batch)-1].ID
		afterID = &lastID

		var orphaned []uuid.UUID
		for _, row := range batch {
			if row.SessionToken == nil {
				continue
			}
			alive, err := j.sessions.Alive(ctx, *row.SessionToken)
			if err != nil {
				return fmt.Errorf("check session %s: %w", row.ID, err)
			}
			if !alive {
				orphaned = append(orphaned, row.ID)
			}
		}
		if len(orphaned) == 0 {
			continue
		}

		if err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			removed, err := j.repo.DeleteCarts(ctx, tx, orphaned)
			if err != nil {
				return err
			}
			totalRemoved += removed
			return nil
		}); err != nil {
			return fmt.Errorf("delete orphaned carts: %w", err)
		}
	}

	if j.metrics != nil {
		j.metrics.AddRemoved(j.Name(), int(totalRemoved))
	}
	logCtx := j.logg.WithField(ctx, "rows_deleted", totalRemoved)
	j.logg.Info(logCtx, "orphaned cart cleanup complete")
	return nil
}
