package usecase

import (
	"context"
	"fmt"
	"time"
)

// ExpirePremiumJobPath is the internal endpoint that runs the premium sweep.
const ExpirePremiumJobPath = "/v1/internal/jobs/expire-premium"

// expirySweepSlack delays the scheduled sweep past the expiry instant so the
// grant is strictly expired when the job runs.
const expirySweepSlack = time.Minute

// JobQueue delivers a delayed POST to an internal job endpoint.
type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(context.Context, string, any, time.Duration, string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

// expiryDeduplicationID buckets expiries by minute so grants that end close
// together share one sweep.
func expiryDeduplicationID(expiresAt time.Time) string {
	return fmt.Sprintf("expire-premium-%d", expiresAt.UTC().Truncate(time.Minute).Unix())
}
