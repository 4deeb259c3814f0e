package snapshot

import (
	"context"
	"errors"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/ajnabicam-profile/internal/domain/onboarding"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/logging"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/resilience"
)

const keyNamespace = "onboarding:snapshot:"

var errRedisTransient = crerr.New("redis transient failure")

// RedisStore keeps the last onboarding payload per user in Redis.
type RedisStore struct {
	client  redis.UniversalClient
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	logger  *logging.Logger
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration, breaker resilience.CircuitBreakerConfig, logger *logging.Logger) *RedisStore {
	if logger == nil {
		logger = logging.Default()
	}
	breaker.Name = "snapshot-redis"
	breaker.OnStateChange = logBreakerTransition(logger)
	return &RedisStore{
		client:  client,
		ttl:     ttl,
		breaker: resilience.NewCircuitBreakerFromConfig(breaker),
		logger:  logger,
	}
}

func (s *RedisStore) Save(ctx context.Context, item onboarding.Snapshot) error {
	userID := strings.TrimSpace(item.UserID)
	if userID == "" {
		return crerr.New("snapshot user id is required")
	}

	payload, err := sonic.Marshal(item)
	if err != nil {
		return crerr.Wrap(err, "marshal onboarding snapshot")
	}

	err = s.breaker.Execute(func() error {
		if err := s.client.Set(ctx, keyNamespace+userID, payload, s.ttl).Err(); err != nil {
			return crerr.Mark(crerr.Wrap(err, "redis set onboarding snapshot"), errRedisTransient)
		}
		return nil
	}, isTransient)
	if err != nil {
		s.logger.WarnContext(ctx, "save onboarding snapshot failed", "user_id", userID, "error", err)
		return err
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, userID string) (onboarding.Snapshot, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return onboarding.Snapshot{}, false, nil
	}

	var raw []byte
	err := s.breaker.Execute(func() error {
		out, err := s.client.Get(ctx, keyNamespace+userID).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return crerr.Mark(crerr.Wrap(err, "redis get onboarding snapshot"), errRedisTransient)
		}
		raw = out
		return nil
	}, isTransient)
	if err != nil {
		return onboarding.Snapshot{}, false, err
	}
	if raw == nil {
		return onboarding.Snapshot{}, false, nil
	}

	var item onboarding.Snapshot
	if err := sonic.Unmarshal(raw, &item); err != nil {
		return onboarding.Snapshot{}, false, crerr.Wrapf(err, "unmarshal onboarding snapshot for %s", userID)
	}
	return item, true, nil
}

func isTransient(err error) bool {
	return crerr.Is(err, errRedisTransient)
}

var _ onboarding.SnapshotStore = (*RedisStore)(nil)

func logBreakerTransition(logger *logging.Logger) func(string, resilience.CircuitState, resilience.CircuitState) {
	return func(name string, from, to resilience.CircuitState) {
		if to == resilience.CircuitStateOpen {
			logger.Warn("circuit breaker opened, skipping snapshot cache", "breaker", name, "from", from)
			return
		}
		logger.Info("circuit breaker state changed", "breaker", name, "from", from, "to", to)
	}
}
