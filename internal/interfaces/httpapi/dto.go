package httpapi

import (
	"context"
	"time"

	"github.com/riskibarqy/ajnabicam-profile/internal/domain/onboarding"
	"github.com/riskibarqy/ajnabicam-profile/internal/domain/profile"
	"github.com/riskibarqy/ajnabicam-profile/internal/usecase"
)

type onboardingRequest struct {
	Name     string `json:"name" validate:"required,max=80"`
	Language string `json:"language" validate:"required,max=8"`
}

type skipOnboardingRequest struct {
	Language string `json:"language" validate:"omitempty,max=8"`
}

type genderSubmitRequest struct {
	Gender       string `json:"gender" validate:"required,max=16"`
	ReferralCode string `json:"referral_code" validate:"omitempty,max=10"`
}

type setPremiumRequest struct {
	Active bool       `json:"active"`
	Expiry *time.Time `json:"expiry" validate:"required_if=Active true"`
}

type sessionDTO struct {
	Token      string      `json:"token,omitempty"`
	UserID     string      `json:"user_id,omitempty"`
	ExpiresAt  string      `json:"expires_at,omitempty"`
	Route      string      `json:"route"`
	Created    bool        `json:"created"`
	Degraded   bool        `json:"degraded"`
	Backfilled []string    `json:"backfilled,omitempty"`
	Profile    *profileDTO `json:"profile,omitempty"`
}

type profileDTO struct {
	ID                 string  `json:"id"`
	Username           *string `json:"username"`
	Language           string  `json:"language"`
	Gender             *string `json:"gender"`
	OnboardingComplete bool    `json:"onboarding_complete"`
	OwnReferralCode    string  `json:"own_referral_code"`
	ReferredBy         *string `json:"referred_by"`
	ReferralCode       *string `json:"referral_code"`
	ReferredAt         *string `json:"referred_at"`
	ReferralCount      int64   `json:"referral_count"`
	PremiumUntil       *string `json:"premium_until"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

type onboardingResultDTO struct {
	Route    string                `json:"route"`
	Snapshot onboardingSnapshotDTO `json:"snapshot"`
}

type onboardingSnapshotDTO struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Language  string `json:"language"`
	UpdatedAt string `json:"updated_at"`
}

type routeDTO struct {
	Route string `json:"route"`
}

type referralResultDTO struct {
	Route        string  `json:"route"`
	Referred     bool    `json:"referred"`
	PremiumUntil *string `json:"premium_until,omitempty"`
}

type referralSummaryDTO struct {
	OwnReferralCode string  `json:"own_referral_code"`
	ReferralCount   int64   `json:"referral_count"`
	ReferredBy      *string `json:"referred_by"`
}

type premiumDTO struct {
	Active bool    `json:"active"`
	Expiry *string `json:"expiry"`
}

type premiumSweepDTO struct {
	Scanned int `json:"scanned"`
	Cleared int `json:"cleared"`
	Failed  int `json:"failed"`
}

func sessionToDTO(ctx context.Context, v usecase.SessionResult) sessionDTO {
	out := sessionDTO{
		Token:    v.Session.Token,
		UserID:   v.Session.Principal.UserID,
		Route:    string(v.Route),
		Created:  v.Created,
		Degraded: v.Degraded,
	}
	if !v.Session.ExpiresAt.IsZero() {
		out.ExpiresAt = v.Session.ExpiresAt.UTC().Format(time.RFC3339)
	}
	for _, field := range v.Backfilled {
		out.Backfilled = append(out.Backfilled, field.Key())
	}
	if v.Profile.ID != "" {
		item := profileToDTO(ctx, v.Profile)
		out.Profile = &item
	}
	return out
}

func profileToDTO(_ context.Context, v profile.Profile) profileDTO {
	out := profileDTO{
		ID:                 v.ID,
		Username:           v.Username,
		Language:           string(v.Language),
		OnboardingComplete: v.OnboardingComplete,
		OwnReferralCode:    v.OwnReferralCode,
		ReferredBy:         v.ReferredBy,
		ReferralCode:       v.ReferralCode,
		ReferredAt:         formatOptionalTime(v.ReferredAt),
		ReferralCount:      v.ReferralCount,
		PremiumUntil:       formatOptionalTime(v.PremiumUntil),
		CreatedAt:          v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          v.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if v.Gender != profile.GenderUnset {
		gender := string(v.Gender)
		out.Gender = &gender
	}
	return out
}

func onboardingResultToDTO(ctx context.Context, v usecase.OnboardingResult) onboardingResultDTO {
	return onboardingResultDTO{
		Route:    string(v.Route),
		Snapshot: snapshotToDTO(ctx, v.Snapshot),
	}
}

func snapshotToDTO(_ context.Context, v onboarding.Snapshot) onboardingSnapshotDTO {
	return onboardingSnapshotDTO{
		UserID:    v.UserID,
		Username:  v.Username,
		Language:  v.Language,
		UpdatedAt: v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func premiumToDTO(_ context.Context, v usecase.PremiumState) premiumDTO {
	return premiumDTO{
		Active: v.Active,
		Expiry: formatOptionalTime(v.Expiry),
	}
}

func formatOptionalTime(v *time.Time) *string {
	if v == nil {
		return nil
	}
	out := v.UTC().Format(time.RFC3339)
	return &out
}
