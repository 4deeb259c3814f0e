package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/ajnabicam-profile/internal/domain/profile"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/logging"
)

// PremiumListener observes premium state changes.
type PremiumListener func(active bool, expiry *time.Time)

// PremiumStatus is one user's premium state for the lifetime of a session.
// Construct one per session and pass it to whoever needs it.
type PremiumStatus struct {
	userID   string
	profiles profile.Repository
	logger   *logging.Logger
	now      func() time.Time

	mu        sync.RWMutex
	active    bool
	expiry    *time.Time
	listeners map[int]PremiumListener
	nextID    int
}

func NewPremiumStatus(userID string, profiles profile.Repository, logger *logging.Logger) *PremiumStatus {
	if logger == nil {
		logger = logging.Default()
	}
	return &PremiumStatus{
		userID:    userID,
		profiles:  profiles,
		logger:    logger,
		now:       time.Now,
		listeners: make(map[int]PremiumListener),
	}
}

func (p *PremiumStatus) UserID() string {
	return p.userID
}

func (p *PremiumStatus) IsPremium() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active
}

func (p *PremiumStatus) Expiry() *time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneTime(p.expiry)
}

// Load reads the record once. On failure the status is left inactive.
func (p *PremiumStatus) Load(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PremiumStatus.Load")
	defer span.End()

	if _, err := p.refresh(ctx); err != nil {
		p.update(false, nil)
		return err
	}
	return nil
}

// CheckPremiumStatus re-validates against the stored record and returns the
// current validity. When the record cannot be read it falls back to the last
// known expiry.
func (p *PremiumStatus) CheckPremiumStatus(ctx context.Context) bool {
	ctx, span := startUsecaseSpan(ctx, "usecase.PremiumStatus.CheckPremiumStatus")
	defer span.End()

	active, err := p.refresh(ctx)
	if err == nil {
		return active
	}

	p.logger.WarnContext(ctx, "premium check fell back to local expiry", "user_id", p.userID, "error", err)
	expiry := p.Expiry()
	if expiry != nil && expiry.After(p.now()) {
		return true
	}
	if expiry != nil {
		p.update(false, nil)
	}
	return false
}

// SetPremium writes through to the record first and only then updates the
// local state. Activating requires an expiry in the future.
func (p *PremiumStatus) SetPremium(ctx context.Context, active bool, expiry *time.Time) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PremiumStatus.SetPremium")
	defer span.End()

	var until *time.Time
	if active {
		if expiry == nil || !expiry.After(p.now()) {
			return fmt.Errorf("%w: premium expiry must be in the future", ErrInvalidInput)
		}
		t := expiry.UTC()
		until = &t
	}

	if err := p.profiles.Merge(ctx, p.userID, profile.NewPatch().SetPremiumUntil(until).SetUpdatedAt(p.now().UTC())); err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			return fmt.Errorf("%w: profile not found", ErrNotFound)
		}
		return fmt.Errorf("write premium status: %w", err)
	}
	p.update(active, until)
	return nil
}

// Subscribe registers fn for state changes and returns its cancel func.
func (p *PremiumStatus) Subscribe(fn PremiumListener) func() {
	if fn == nil {
		return func() {}
	}

	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *PremiumStatus) refresh(ctx context.Context) (bool, error) {
	item, exists, err := p.profiles.GetByID(ctx, p.userID)
	if err != nil {
		return false, fmt.Errorf("read premium status: %w", err)
	}
	if !exists || item.PremiumUntil == nil {
		p.update(false, nil)
		return false, nil
	}

	now := p.now()
	if item.PremiumActive(now) {
		p.update(true, item.PremiumUntil)
		return true, nil
	}

	if _, err := p.profiles.ClearExpiredPremium(ctx, p.userID, now); err != nil {
		p.logger.WarnContext(ctx, "clear expired premium failed", "user_id", p.userID, "error", err)
	}
	p.update(false, nil)
	return false, nil
}

func (p *PremiumStatus) update(active bool, expiry *time.Time) {
	p.mu.Lock()
	changed := p.active != active || !sameTime(p.expiry, expiry)
	p.active = active
	p.expiry = cloneTime(expiry)
	var notify []PremiumListener
	if changed {
		notify = make([]PremiumListener, 0, len(p.listeners))
		for _, fn := range p.listeners {
			notify = append(notify, fn)
		}
	}
	p.mu.Unlock()

	for _, fn := range notify {
		fn(active, cloneTime(expiry))
	}
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
