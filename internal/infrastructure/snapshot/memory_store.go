package snapshot

import (
	"context"
	"strings"
	"time"

	"github.com/riskibarqy/ajnabicam-profile/internal/domain/onboarding"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/cache"
)

// MemoryStore is the process-local snapshot store used without Redis.
type MemoryStore struct {
	store *cache.Store
}

func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	return &MemoryStore{store: cache.NewStore(ttl, cache.WithMaxEntries(maxEntries))}
}

func (s *MemoryStore) Save(ctx context.Context, item onboarding.Snapshot) error {
	userID := strings.TrimSpace(item.UserID)
	if userID == "" {
		return nil
	}
	s.store.Set(ctx, keyNamespace+userID, item)
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, userID string) (onboarding.Snapshot, bool, error) {
	v, ok := s.store.Get(ctx, keyNamespace+strings.TrimSpace(userID))
	if !ok {
		return onboarding.Snapshot{}, false, nil
	}
	item, ok := v.(onboarding.Snapshot)
	return item, ok, nil
}

var _ onboarding.SnapshotStore = (*MemoryStore)(nil)
