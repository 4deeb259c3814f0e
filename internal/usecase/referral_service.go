package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/ajnabicam-profile/internal/domain/profile"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/logging"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/resilience"
	"go.opentelemetry.io/otel/attribute"
)

type ReferralResult struct {
	Route        Route
	Referred     bool
	PremiumUntil *time.Time
}

type ReferralSummary struct {
	OwnReferralCode string
	ReferralCount   int64
	ReferredBy      *string
}

type ReferralService struct {
	profiles    profile.Repository
	premium     premiumInvalidator
	expiryQueue JobQueue
	inFlight    *resilience.InFlightGuard
	grantWindow time.Duration
	logger      *logging.Logger
	now         func() time.Time
}

type premiumInvalidator interface {
	Forget(ctx context.Context, userID string)
}

type noopPremiumInvalidator struct{}

func (noopPremiumInvalidator) Forget(context.Context, string) {}

func NewReferralService(profiles profile.Repository, premium *PremiumService, grantWindow time.Duration, logger *logging.Logger) *ReferralService {
	invalidator := premiumInvalidator(noopPremiumInvalidator{})
	if premium != nil {
		invalidator = premium
	}
	if grantWindow <= 0 {
		grantWindow = profile.PremiumGrant
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ReferralService{
		profiles:    profiles,
		premium:     invalidator,
		expiryQueue: NewNoopJobQueue(),
		inFlight:    resilience.NewInFlightGuard(),
		grantWindow: grantWindow,
		logger:      logger,
		now:         time.Now,
	}
}

// WithExpiryQueue schedules a premium sweep at the end of every grant so
// expired records are cleared without waiting for the next cron run.
func (s *ReferralService) WithExpiryQueue(queue JobQueue) *ReferralService {
	if queue != nil {
		s.expiryQueue = queue
	}
	return s
}

// Submit writes the selected gender, completes onboarding and, when the form
// carries a referral code, redeems it for a one-time premium grant. The form
// is moved to its resulting state; its inputs are never cleared on failure.
func (s *ReferralService) Submit(ctx context.Context, userID string, form *RedemptionForm) (ReferralResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReferralService.Submit")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ReferralResult{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if form == nil || !form.CanSubmit() {
		return ReferralResult{}, fmt.Errorf("%w: gender is required", ErrInvalidInput)
	}

	release, err := s.inFlight.TryAcquire(userID)
	if err != nil {
		return ReferralResult{}, fmt.Errorf("%w: referral", ErrSubmissionInFlight)
	}
	defer release()

	form.begin()
	result, err := s.submit(ctx, userID, form)
	if err != nil {
		form.fail(err)
		if IsReferralRejection(err) {
			s.logger.InfoContext(ctx, "referral rejected", "user_id", userID, "reason", err.Error())
		} else {
			s.logger.ErrorContext(ctx, "referral submit failed", "user_id", userID, "error", err)
		}
		return ReferralResult{}, err
	}
	form.succeed()
	span.SetAttributes(attribute.Bool("referral.redeemed", result.Referred))
	return result, nil
}

func (s *ReferralService) submit(ctx context.Context, userID string, form *RedemptionForm) (ReferralResult, error) {
	caller, exists, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return ReferralResult{}, fmt.Errorf("get profile: %w", err)
	}
	if !exists {
		return ReferralResult{}, fmt.Errorf("%w: profile not found", ErrNotFound)
	}

	now := s.now().UTC()
	patch := profile.NewPatch().
		SetGender(form.Gender).
		CompleteOnboarding().
		SetUpdatedAt(now)

	code := form.code()
	if code == "" {
		if err := s.profiles.Merge(ctx, userID, patch); err != nil {
			return ReferralResult{}, fmt.Errorf("save gender selection: %w", err)
		}
		return ReferralResult{Route: RouteHome}, nil
	}

	// A record that already redeemed is rejected whatever the code.
	if caller.IsReferred() {
		return ReferralResult{}, fmt.Errorf("%w: user %s", profile.ErrAlreadyReferred, userID)
	}
	owner, found, err := s.profiles.FindByReferralCode(ctx, code)
	if err != nil {
		return ReferralResult{}, fmt.Errorf("find referral code owner: %w", err)
	}
	if !found {
		return ReferralResult{}, fmt.Errorf("%w: %q", profile.ErrInvalidReferralCode, code)
	}
	if owner.ID == caller.ID {
		return ReferralResult{}, fmt.Errorf("%w: user %s", profile.ErrSelfReferral, userID)
	}

	premiumUntil := now.Add(s.grantWindow)
	referrerID := owner.ID
	patch.SetReferredBy(&referrerID).
		SetReferralCode(&code).
		SetReferredAt(&now).
		SetPremiumUntil(&premiumUntil)

	err = s.profiles.ApplyReferral(ctx, profile.ReferralGrant{
		UserID:     userID,
		ReferrerID: referrerID,
		Patch:      patch,
		At:         now,
	})
	if err != nil {
		if IsReferralRejection(err) {
			return ReferralResult{}, fmt.Errorf("apply referral: %w", err)
		}
		if errors.Is(err, profile.ErrProfileNotFound) {
			return ReferralResult{}, fmt.Errorf("%w: profile not found", ErrNotFound)
		}
		return ReferralResult{}, fmt.Errorf("apply referral: %w", err)
	}

	s.premium.Forget(ctx, userID)
	s.logger.InfoContext(ctx, "referral redeemed", "user_id", userID, "referrer_id", referrerID)
	s.scheduleExpiry(ctx, userID, premiumUntil)
	return ReferralResult{Route: RouteHome, Referred: true, PremiumUntil: &premiumUntil}, nil
}

// scheduleExpiry is best effort: the periodic sweep and the local expiry check
// still cover a grant whose job was never queued.
func (s *ReferralService) scheduleExpiry(ctx context.Context, userID string, premiumUntil time.Time) {
	delay := premiumUntil.Sub(s.now()) + expirySweepSlack
	dedupID := expiryDeduplicationID(premiumUntil)
	if err := s.expiryQueue.Enqueue(ctx, ExpirePremiumJobPath, nil, delay, dedupID); err != nil {
		s.logger.WarnContext(ctx, "schedule premium expiry failed",
			"user_id", userID,
			"premium_until", premiumUntil,
			"error", err,
		)
	}
}

// Status is the gender screen's mount check: users that finished onboarding
// with a concrete gender go home.
func (s *ReferralService) Status(ctx context.Context, userID string) (Route, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReferralService.Status")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	item, exists, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "check gender status failed", "user_id", userID, "error", err)
		return RouteGenderSelect, nil
	}
	if exists && item.OnboardingComplete && item.Gender != profile.GenderUnset && item.Gender != profile.GenderOther {
		return RouteHome, nil
	}
	return RouteGenderSelect, nil
}

func (s *ReferralService) Summary(ctx context.Context, userID string) (ReferralSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReferralService.Summary")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ReferralSummary{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	item, exists, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return ReferralSummary{}, fmt.Errorf("get profile: %w", err)
	}
	if !exists {
		return ReferralSummary{}, fmt.Errorf("%w: profile not found", ErrNotFound)
	}
	return ReferralSummary{
		OwnReferralCode: item.OwnReferralCode,
		ReferralCount:   item.ReferralCount,
		ReferredBy:      item.ReferredBy,
	}, nil
}
