package profile

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrSelfReferral        = errors.New("cannot redeem own referral code")
	ErrAlreadyReferred     = errors.New("referral already redeemed")
	ErrProfileExists       = errors.New("profile already exists")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrReferralCodeTaken   = errors.New("referral code already taken")
)

// ReferralGrant is the conditional update applied on a successful redemption.
// At stamps updatedAt on the referrer when its count is incremented.
type ReferralGrant struct {
	UserID     string
	ReferrerID string
	Patch      *Patch
	At         time.Time
}

// Repository is the narrow document-store surface used by the use cases.
type Repository interface {
	GetByID(ctx context.Context, id string) (Profile, bool, error)
	// Create fails with ErrProfileExists or ErrReferralCodeTaken.
	Create(ctx context.Context, item Profile) error
	// Merge writes only the patched fields. It fails with ErrProfileNotFound
	// for an unknown id and with ErrReferralCodeTaken when the patch assigns an
	// ownReferralCode held by another record.
	Merge(ctx context.Context, id string, patch *Patch) error
	FindByReferralCode(ctx context.Context, code string) (Profile, bool, error)
	// ApplyReferral merges grant.Patch into the caller only while the caller's
	// referredBy is absent or null, and increments the referrer's
	// referralCount by one in the same atomic step. It returns
	// ErrAlreadyReferred when the precondition no longer holds.
	ApplyReferral(ctx context.Context, grant ReferralGrant) error
	ListExpiredPremium(ctx context.Context, now time.Time, limit int) ([]Profile, error)
	// ClearExpiredPremium nulls premiumUntil only while it is still at or
	// before now, so a grant renewed in between is kept.
	ClearExpiredPremium(ctx context.Context, id string, now time.Time) (bool, error)
}

// ReferralCodeGenerator issues candidate ownReferralCode values.
type ReferralCodeGenerator interface {
	NewReferralCode() (string, error)
}
