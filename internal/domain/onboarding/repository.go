package onboarding

import "context"

type SnapshotStore interface {
	Save(ctx context.Context, snapshot Snapshot) error
	Load(ctx context.Context, userID string) (Snapshot, bool, error)
}
