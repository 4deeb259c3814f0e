package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "same-key", loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_UsesCachedValueAfterFirstLoad(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return "cached", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("first GetOrLoad error: %v", err)
	}
	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("second GetOrLoad error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")

func TestStore_ExpiresEntriesAfterTTL(t *testing.T) {
	store := NewStore(time.Minute)
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "premium:u-1", "status")
	if _, ok := store.Get(context.Background(), "premium:u-1"); !ok {
		t.Fatalf("expected fresh entry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := store.Get(context.Background(), "premium:u-1"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestStore_MaxEntriesEvicts(t *testing.T) {
	store := NewStore(time.Minute, WithMaxEntries(2))

	store.Set(context.Background(), "a", 1)
	store.Set(context.Background(), "b", 2)
	store.Set(context.Background(), "c", 3)

	if got := store.Len(); got != 2 {
		t.Fatalf("expected 2 entries, got %d", got)
	}
	if _, ok := store.Get(context.Background(), "c"); !ok {
		t.Fatalf("expected newest entry to be kept")
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	store := NewStore(0)
	store.Set(context.Background(), "snapshot:u-1", 1)
	store.Set(context.Background(), "snapshot:u-2", 2)
	store.Set(context.Background(), "premium:u-1", 3)

	store.DeletePrefix(context.Background(), "snapshot:")

	if got := store.Len(); got != 1 {
		t.Fatalf("expected 1 entry left, got %d", got)
	}
}
