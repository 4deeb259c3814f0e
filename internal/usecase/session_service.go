package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/ajnabicam-profile/internal/domain/identity"
	"github.com/riskibarqy/ajnabicam-profile/internal/domain/profile"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const maxReferralCodeAttempts = 5

type SessionResult struct {
	Session identity.Session
	Profile profile.Profile
	Route   Route
	Created bool
	// Backfilled lists the fields supplied by the backfill write.
	Backfilled []profile.Field
	// Degraded is set when bootstrap fell back to onboarding after a failure.
	Degraded bool
}

type SessionService struct {
	identities identity.Provider
	profiles   profile.Repository
	codes      profile.ReferralCodeGenerator
	logger     *logging.Logger
	now        func() time.Time
}

func NewSessionService(identities identity.Provider, profiles profile.Repository, codes profile.ReferralCodeGenerator, logger *logging.Logger) *SessionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionService{
		identities: identities,
		profiles:   profiles,
		codes:      codes,
		logger:     logger,
		now:        time.Now,
	}
}

// Bootstrap resolves the caller's identity and makes sure its profile exists
// with every backfilled field present. It never returns an error: any
// identity or storage failure routes to onboarding.
func (s *SessionService) Bootstrap(ctx context.Context, token string) SessionResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.Bootstrap")
	defer span.End()

	session, err := s.resolveIdentity(ctx, token)
	if err != nil {
		s.logger.ErrorContext(ctx, "session bootstrap identity failed", "error", err)
		return SessionResult{Route: RouteOnboarding, Degraded: true}
	}
	span.SetAttributes(attribute.String("user.id", session.Principal.UserID))

	result, err := s.ensureProfile(ctx, session.Principal.UserID)
	result.Session = session
	if err != nil {
		s.logger.ErrorContext(ctx, "session bootstrap profile failed", "user_id", session.Principal.UserID, "error", err)
		return SessionResult{Session: session, Route: RouteOnboarding, Degraded: true}
	}
	return result
}

func (s *SessionService) resolveIdentity(ctx context.Context, token string) (identity.Session, error) {
	if token = strings.TrimSpace(token); token != "" {
		principal, err := s.identities.VerifyAccessToken(ctx, token)
		if err == nil {
			return identity.Session{Principal: principal, Token: token}, nil
		}
		s.logger.WarnContext(ctx, "presented token rejected, signing in anonymously", "error", err)
	}

	session, err := s.identities.SignInAnonymously(ctx)
	if err != nil {
		return identity.Session{}, fmt.Errorf("sign in anonymously: %w", err)
	}
	return session, nil
}

func (s *SessionService) ensureProfile(ctx context.Context, userID string) (SessionResult, error) {
	item, exists, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return SessionResult{}, fmt.Errorf("get profile: %w", err)
	}
	if !exists {
		created, err := s.createProfile(ctx, userID)
		if err == nil {
			return SessionResult{Profile: created, Route: RouteOnboarding, Created: true}, nil
		}
		if !errors.Is(err, profile.ErrProfileExists) {
			return SessionResult{}, err
		}
		// Lost a create race with another bootstrap of the same identity.
		item, exists, err = s.profiles.GetByID(ctx, userID)
		if err != nil {
			return SessionResult{}, fmt.Errorf("get profile after create race: %w", err)
		}
		if !exists {
			return SessionResult{}, fmt.Errorf("%w: profile vanished after create race", ErrNotFound)
		}
	}

	backfilled, err := s.backfill(ctx, &item)
	if err != nil {
		return SessionResult{}, err
	}

	route := RouteHome
	if !item.OnboardingComplete {
		route = RouteOnboarding
	}
	return SessionResult{Profile: item, Route: route, Backfilled: backfilled}, nil
}

func (s *SessionService) createProfile(ctx context.Context, userID string) (profile.Profile, error) {
	now := s.now().UTC()
	for attempt := 1; ; attempt++ {
		code, err := s.codes.NewReferralCode()
		if err != nil {
			return profile.Profile{}, fmt.Errorf("generate referral code: %w", err)
		}

		item := profile.New(userID, code, now)
		err = s.profiles.Create(ctx, item)
		if err == nil {
			s.logger.InfoContext(ctx, "profile created", "user_id", userID)
			return item, nil
		}
		if errors.Is(err, profile.ErrReferralCodeTaken) && attempt < maxReferralCodeAttempts {
			continue
		}
		if errors.Is(err, profile.ErrProfileExists) {
			return profile.Profile{}, err
		}
		return profile.Profile{}, fmt.Errorf("create profile: %w", err)
	}
}

// backfill issues one merge-write carrying only the fields the stored record
// lacks. Present fields, null or not, are left alone.
func (s *SessionService) backfill(ctx context.Context, item *profile.Profile) ([]profile.Field, error) {
	missing := item.Present.Missing(profile.BackfillFields)
	if len(missing) == 0 {
		return nil, nil
	}

	now := s.now().UTC()
	for attempt := 1; ; attempt++ {
		patch := profile.NewPatch()
		for _, f := range missing {
			switch f {
			case profile.FieldOwnReferralCode:
				code, err := s.codes.NewReferralCode()
				if err != nil {
					return nil, fmt.Errorf("generate referral code: %w", err)
				}
				patch.SetOwnReferralCode(code)
			case profile.FieldReferralCount:
				patch.SetReferralCount(0)
			case profile.FieldReferredBy:
				patch.SetReferredBy(nil)
			case profile.FieldReferralCode:
				patch.SetReferralCode(nil)
			case profile.FieldPremiumUntil:
				patch.SetPremiumUntil(nil)
			case profile.FieldCreatedAt:
				patch.SetCreatedAt(now)
			}
		}
		patch.SetUpdatedAt(now)

		err := s.profiles.Merge(ctx, item.ID, patch)
		if err == nil {
			patch.Apply(item)
			s.logger.InfoContext(ctx, "profile backfilled", "user_id", item.ID, "fields", fieldKeys(missing))
			return missing, nil
		}
		if errors.Is(err, profile.ErrReferralCodeTaken) && attempt < maxReferralCodeAttempts {
			continue
		}
		return nil, fmt.Errorf("backfill profile: %w", err)
	}
}

// Profile reads the caller's stored record.
func (s *SessionService) Profile(ctx context.Context, userID string) (profile.Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.Profile")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return profile.Profile{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	item, exists, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	if !exists {
		return profile.Profile{}, fmt.Errorf("%w: profile not found", ErrNotFound)
	}
	return item, nil
}

func fieldKeys(fields []profile.Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Key())
	}
	return out
}
