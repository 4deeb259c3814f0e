package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/ajnabicam-profile/internal/domain/profile"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/cache"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/logging"
)

const premiumSessionPrefix = "premium:"

type PremiumState struct {
	Active bool
	Expiry *time.Time
}

// PremiumService hands out one PremiumStatus per user session.
type PremiumService struct {
	profiles profile.Repository
	sessions *cache.Store
	logger   *logging.Logger
	now      func() time.Time
}

func NewPremiumService(profiles profile.Repository, sessionTTL time.Duration, maxSessions int, logger *logging.Logger) *PremiumService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PremiumService{
		profiles: profiles,
		sessions: cache.NewStore(sessionTTL, cache.WithMaxEntries(maxSessions)),
		logger:   logger,
		now:      time.Now,
	}
}

// Session returns the cached status for userID, loading it on first use.
func (s *PremiumService) Session(ctx context.Context, userID string) (*PremiumStatus, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	v, err := s.sessions.GetOrLoad(ctx, premiumSessionPrefix+userID, func(ctx context.Context) (any, error) {
		status := NewPremiumStatus(userID, s.profiles, s.logger)
		status.now = s.now
		status.Subscribe(func(active bool, expiry *time.Time) {
			s.logger.Info("premium status changed", "user_id", userID, "active", active, "expiry", expiry)
		})
		if err := status.Load(ctx); err != nil {
			s.logger.ErrorContext(ctx, "load premium status failed", "user_id", userID, "error", err)
		}
		return status, nil
	})
	if err != nil {
		return nil, err
	}

	status, ok := v.(*PremiumStatus)
	if !ok {
		return nil, fmt.Errorf("unexpected premium session type %T", v)
	}
	return status, nil
}

func (s *PremiumService) Check(ctx context.Context, userID string) (PremiumState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PremiumService.Check")
	defer span.End()

	status, err := s.Session(ctx, userID)
	if err != nil {
		return PremiumState{}, err
	}
	active := status.CheckPremiumStatus(ctx)
	state := PremiumState{Active: active}
	if active {
		state.Expiry = status.Expiry()
	}
	return state, nil
}

func (s *PremiumService) Set(ctx context.Context, userID string, active bool, expiry *time.Time) (PremiumState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PremiumService.Set")
	defer span.End()

	status, err := s.Session(ctx, userID)
	if err != nil {
		return PremiumState{}, err
	}
	if err := status.SetPremium(ctx, active, expiry); err != nil {
		return PremiumState{}, err
	}
	return PremiumState{Active: status.IsPremium(), Expiry: status.Expiry()}, nil
}

// Forget drops the cached session so the next call reloads from storage.
func (s *PremiumService) Forget(ctx context.Context, userID string) {
	s.sessions.Delete(ctx, premiumSessionPrefix+strings.TrimSpace(userID))
}
