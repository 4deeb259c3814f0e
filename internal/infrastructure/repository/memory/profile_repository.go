package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/ajnabicam-profile/internal/domain/profile"
)

// ProfileRepository keeps profile documents in process memory. Every method
// holds the lock for its whole body, so ApplyReferral is atomic.
type ProfileRepository struct {
	mu    sync.RWMutex
	items map[string]profile.Profile
	codes map[string]string
}

func NewProfileRepository(items ...profile.Profile) *ProfileRepository {
	r := &ProfileRepository{
		items: make(map[string]profile.Profile, len(items)),
		codes: make(map[string]string, len(items)),
	}
	for _, item := range items {
		r.items[item.ID] = cloneProfile(item)
		if item.Present.Has(profile.FieldOwnReferralCode) && item.OwnReferralCode != "" {
			r.codes[item.OwnReferralCode] = item.ID
		}
	}
	return r
}

func (r *ProfileRepository) GetByID(_ context.Context, id string) (profile.Profile, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return profile.Profile{}, false, nil
	}
	return cloneProfile(item), true, nil
}

func (r *ProfileRepository) Create(_ context.Context, item profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; ok {
		return profile.ErrProfileExists
	}
	if item.OwnReferralCode != "" {
		if _, taken := r.codes[item.OwnReferralCode]; taken {
			return profile.ErrReferralCodeTaken
		}
		r.codes[item.OwnReferralCode] = item.ID
	}
	r.items[item.ID] = cloneProfile(item)
	return nil
}

func (r *ProfileRepository) Merge(_ context.Context, id string, patch *profile.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return profile.ErrProfileNotFound
	}
	if err := r.claimCodeLocked(id, item, patch); err != nil {
		return err
	}
	patch.Apply(&item)
	r.items[id] = item
	return nil
}

func (r *ProfileRepository) FindByReferralCode(_ context.Context, code string) (profile.Profile, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.codes[code]
	if !ok {
		return profile.Profile{}, false, nil
	}
	item, ok := r.items[id]
	if !ok {
		return profile.Profile{}, false, nil
	}
	return cloneProfile(item), true, nil
}

func (r *ProfileRepository) ApplyReferral(_ context.Context, grant profile.ReferralGrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if grant.UserID == grant.ReferrerID {
		return profile.ErrSelfReferral
	}
	caller, ok := r.items[grant.UserID]
	if !ok {
		return profile.ErrProfileNotFound
	}
	referrer, ok := r.items[grant.ReferrerID]
	if !ok {
		return profile.ErrInvalidReferralCode
	}
	if caller.IsReferred() {
		return profile.ErrAlreadyReferred
	}

	grant.Patch.Apply(&caller)
	referrer.ReferralCount++
	referrer.UpdatedAt = grant.At.UTC()
	referrer.Present |= profile.NewFieldSet(profile.FieldReferralCount, profile.FieldUpdatedAt)

	r.items[caller.ID] = caller
	r.items[referrer.ID] = referrer
	return nil
}

func (r *ProfileRepository) ListExpiredPremium(_ context.Context, now time.Time, limit int) ([]profile.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]profile.Profile, 0)
	for _, item := range r.items {
		if item.PremiumExpired(now) {
			out = append(out, cloneProfile(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PremiumUntil.Before(*out[j].PremiumUntil)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ProfileRepository) ClearExpiredPremium(_ context.Context, id string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok || !item.PremiumExpired(now) {
		return false, nil
	}
	item.PremiumUntil = nil
	item.UpdatedAt = now.UTC()
	item.Present |= profile.NewFieldSet(profile.FieldPremiumUntil, profile.FieldUpdatedAt)
	r.items[id] = item
	return true, nil
}

func (r *ProfileRepository) claimCodeLocked(id string, current profile.Profile, patch *profile.Patch) error {
	v, ok := patch.Value(profile.FieldOwnReferralCode)
	if !ok {
		return nil
	}
	code, _ := v.(string)
	if owner, taken := r.codes[code]; taken && owner != id {
		return profile.ErrReferralCodeTaken
	}
	if current.OwnReferralCode != "" && current.OwnReferralCode != code {
		delete(r.codes, current.OwnReferralCode)
	}
	if code != "" {
		r.codes[code] = id
	}
	return nil
}

func cloneProfile(in profile.Profile) profile.Profile {
	out := in
	out.Username = cloneString(in.Username)
	out.ReferredBy = cloneString(in.ReferredBy)
	out.ReferralCode = cloneString(in.ReferralCode)
	out.ReferredAt = cloneTime(in.ReferredAt)
	out.PremiumUntil = cloneTime(in.PremiumUntil)
	return out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
