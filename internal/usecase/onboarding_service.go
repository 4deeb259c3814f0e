package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/riskibarqy/ajnabicam-profile/internal/domain/onboarding"
	"github.com/riskibarqy/ajnabicam-profile/internal/domain/profile"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/logging"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/resilience"
)

const maxUsernameLength = 20

type OnboardingInput struct {
	UserID   string
	Name     string
	Language string
}

type OnboardingResult struct {
	Snapshot onboarding.Snapshot
	Route    Route
}

type OnboardingService struct {
	profiles  profile.Repository
	snapshots onboarding.SnapshotStore
	inFlight  *resilience.InFlightGuard
	logger    *logging.Logger
	now       func() time.Time
}

func NewOnboardingService(profiles profile.Repository, snapshots onboarding.SnapshotStore, logger *logging.Logger) *OnboardingService {
	if logger == nil {
		logger = logging.Default()
	}
	return &OnboardingService{
		profiles:  profiles,
		snapshots: snapshots,
		inFlight:  resilience.NewInFlightGuard(),
		logger:    logger,
		now:       time.Now,
	}
}

// Continue stores the chosen name and language.
func (s *OnboardingService) Continue(ctx context.Context, input OnboardingInput) (OnboardingResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OnboardingService.Continue")
	defer span.End()

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return OnboardingResult{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > maxUsernameLength {
		return OnboardingResult{}, fmt.Errorf("%w: name must be at most %d characters", ErrInvalidInput, maxUsernameLength)
	}

	return s.capture(ctx, input.UserID, name, input.Language)
}

// Skip stores the placeholder name with the chosen language.
func (s *OnboardingService) Skip(ctx context.Context, userID, language string) (OnboardingResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OnboardingService.Skip")
	defer span.End()

	return s.capture(ctx, userID, profile.DefaultUsername, language)
}

func (s *OnboardingService) Snapshot(ctx context.Context, userID string) (onboarding.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OnboardingService.Snapshot")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return onboarding.Snapshot{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	item, ok, err := s.snapshots.Load(ctx, userID)
	if err != nil {
		return onboarding.Snapshot{}, fmt.Errorf("%w: load onboarding snapshot: %v", ErrDependencyUnavailable, err)
	}
	if !ok {
		return onboarding.Snapshot{}, fmt.Errorf("%w: no onboarding snapshot", ErrNotFound)
	}
	return item, nil
}

func (s *OnboardingService) capture(ctx context.Context, userID, name, rawLanguage string) (OnboardingResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return OnboardingResult{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	language := profile.DefaultLanguage
	if strings.TrimSpace(rawLanguage) != "" {
		parsed, ok := profile.ParseLanguage(rawLanguage)
		if !ok {
			return OnboardingResult{}, fmt.Errorf("%w: unsupported language %q", ErrInvalidInput, rawLanguage)
		}
		language = parsed
	}

	release, err := s.inFlight.TryAcquire(userID)
	if err != nil {
		return OnboardingResult{}, fmt.Errorf("%w: onboarding", ErrSubmissionInFlight)
	}
	defer release()

	now := s.now().UTC()
	patch := profile.NewPatch().
		SetUsername(name).
		SetLanguage(language).
		SetUpdatedAt(now)
	if err := s.profiles.Merge(ctx, userID, patch); err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			return OnboardingResult{}, fmt.Errorf("%w: profile not found", ErrNotFound)
		}
		return OnboardingResult{}, fmt.Errorf("save onboarding: %w", err)
	}

	snap := onboarding.Snapshot{
		UserID:    userID,
		Username:  name,
		Language:  string(language),
		UpdatedAt: now,
	}
	if err := s.snapshots.Save(ctx, snap); err != nil {
		s.logger.WarnContext(ctx, "mirror onboarding snapshot failed", "user_id", userID, "error", err)
	}

	return OnboardingResult{Snapshot: snap, Route: RouteGenderSelect}, nil
}
