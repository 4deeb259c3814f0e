package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/ajnabicam-profile/internal/domain/profile"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/logging"
)

const (
	defaultSweepWorkers   = 4
	defaultSweepBatchSize = 200
	maxSweepBatches       = 50
)

type PremiumSweepResult struct {
	Scanned int
	Cleared int
	Failed  int
}

// PremiumSweepService clears expired premium grants in bulk. Reads clear them
// lazily as well; the sweep only keeps idle records tidy.
type PremiumSweepService struct {
	profiles  profile.Repository
	premium   premiumInvalidator
	workers   int
	batchSize int
	logger    *logging.Logger
	now       func() time.Time
}

func NewPremiumSweepService(profiles profile.Repository, premium *PremiumService, workers int, logger *logging.Logger) *PremiumSweepService {
	invalidator := premiumInvalidator(noopPremiumInvalidator{})
	if premium != nil {
		invalidator = premium
	}
	if workers <= 0 {
		workers = defaultSweepWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PremiumSweepService{
		profiles:  profiles,
		premium:   invalidator,
		workers:   workers,
		batchSize: defaultSweepBatchSize,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *PremiumSweepService) Run(ctx context.Context) (PremiumSweepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PremiumSweepService.Run")
	defer span.End()

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return PremiumSweepResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var result PremiumSweepResult
	now := s.now().UTC()
	for batch := 0; batch < maxSweepBatches; batch++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		items, err := s.profiles.ListExpiredPremium(ctx, now, s.batchSize)
		if err != nil {
			return result, fmt.Errorf("list expired premium: %w", err)
		}
		if len(items) == 0 {
			break
		}

		cleared, failed, err := s.clearBatch(ctx, pool, items, now)
		result.Scanned += len(items)
		result.Cleared += cleared
		result.Failed += failed
		if err != nil {
			return result, err
		}
		// Nothing moved, so the next listing would return the same rows.
		if len(items) < s.batchSize || cleared == 0 {
			break
		}
	}

	s.logger.InfoContext(ctx, "premium sweep finished",
		"scanned", result.Scanned,
		"cleared", result.Cleared,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *PremiumSweepService) clearBatch(ctx context.Context, pool *ants.Pool, items []profile.Profile, now time.Time) (int, int, error) {
	var (
		cleared atomic.Int32
		failed  atomic.Int32
		workers sync.WaitGroup
	)

	for _, item := range items {
		userID := item.ID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			ok, err := s.profiles.ClearExpiredPremium(ctx, userID, now)
			if err != nil {
				failed.Add(1)
				s.logger.WarnContext(ctx, "sweep clear premium failed", "user_id", userID, "error", err)
				return
			}
			if ok {
				cleared.Add(1)
				s.premium.Forget(ctx, userID)
			}
		}); err != nil {
			workers.Done()
			workers.Wait()
			return int(cleared.Load()), int(failed.Load()), fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	return int(cleared.Load()), int(failed.Load()), nil
}
