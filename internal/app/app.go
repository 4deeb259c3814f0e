package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/riskibarqy/ajnabicam-profile/internal/config"
	"github.com/riskibarqy/ajnabicam-profile/internal/domain/onboarding"
	"github.com/riskibarqy/ajnabicam-profile/internal/domain/profile"
	"github.com/riskibarqy/ajnabicam-profile/internal/infrastructure/account/jwtauth"
	"github.com/riskibarqy/ajnabicam-profile/internal/infrastructure/jobqueue"
	"github.com/riskibarqy/ajnabicam-profile/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/ajnabicam-profile/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/ajnabicam-profile/internal/infrastructure/snapshot"
	"github.com/riskibarqy/ajnabicam-profile/internal/interfaces/httpapi"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/id"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/logging"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/resilience"
	"github.com/riskibarqy/ajnabicam-profile/internal/usecase"
)

const dependencyPingTimeout = 5 * time.Second

// NewHTTPServer wires storage, identity and services into an HTTP server.
// The returned cleanup closes the database and cache clients.
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*http.Server, func(), error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("close dependency failed", "error", err)
			}
		}
	}

	profiles, closeProfiles, err := newProfileRepository(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if closeProfiles != nil {
		closers = append(closers, closeProfiles)
	}

	snapshots, closeSnapshots := newSnapshotStore(ctx, cfg, logger)
	if closeSnapshots != nil {
		closers = append(closers, closeSnapshots)
	}

	identities, err := jwtauth.NewAnonymousProvider(jwtauth.Config{
		SigningKey:      cfg.IdentitySigningKey,
		Issuer:          cfg.IdentityIssuer,
		Audience:        cfg.IdentityAudience,
		TokenTTL:        cfg.IdentityTokenTTL,
		CacheTTL:        cfg.IdentityCacheTTL,
		CacheMaxEntries: cfg.IdentityCacheMaxEntries,
	}, id.NewULIDGenerator(), logger)
	if err != nil {
		cleanup()
		return nil, nil, crerr.Wrap(err, "build identity provider")
	}

	expiryQueue, err := newExpiryQueue(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	premiumSvc := usecase.NewPremiumService(profiles, cfg.PremiumSessionTTL, cfg.PremiumMaxSessions, logger)
	sessionSvc := usecase.NewSessionService(identities, profiles, id.NewReferralCodeGenerator(cfg.ReferralCodeLength), logger)
	onboardingSvc := usecase.NewOnboardingService(profiles, snapshots, logger)
	referralSvc := usecase.NewReferralService(profiles, premiumSvc, cfg.PremiumGrantDuration, logger).WithExpiryQueue(expiryQueue)
	sweepSvc := usecase.NewPremiumSweepService(profiles, premiumSvc, cfg.SweepWorkers, logger)

	handler := httpapi.NewHandler(sessionSvc, onboardingSvc, referralSvc, premiumSvc, sweepSvc, logger)
	router := httpapi.NewRouter(handler, identities, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, cleanup, nil
}

func newProfileRepository(ctx context.Context, cfg config.Config, logger *logging.Logger) (profile.Repository, func() error, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("using in-memory profile storage, data is lost on restart")
		return memory.NewProfileRepository(), nil, nil
	}

	db, err := openPostgres(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to postgres", "db_name", dbNameFromURL(cfg.DBURL), "max_open_conns", cfg.DBMaxOpenConns)

	return postgres.NewProfileRepository(db), db.Close, nil
}

func openPostgres(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres", normalizeDBURL(cfg.DBURL, cfg.ServiceName),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, crerr.Wrap(err, "open postgres")
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxOpenConns / 2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, dependencyPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, crerr.Wrap(err, "ping postgres")
	}

	return db, nil
}

// newSnapshotStore never fails: an unreachable redis degrades to a store whose
// breaker opens after repeated errors, and onboarding keeps working without
// snapshots.
func newSnapshotStore(ctx context.Context, cfg config.Config, logger *logging.Logger) (onboarding.SnapshotStore, func() error) {
	if cfg.SnapshotDriver != config.SnapshotDriverRedis {
		return snapshot.NewMemoryStore(cfg.SnapshotTTL, cfg.SnapshotMaxEntries), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dependencyPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis ping failed, snapshot writes may be skipped", "addr", cfg.RedisAddr, "error", err)
	}

	store := snapshot.NewRedisStore(client, cfg.SnapshotTTL, resilience.CircuitBreakerConfig{
		Enabled:          cfg.RedisCircuitEnabled,
		FailureThreshold: cfg.RedisCircuitFailureCount,
		OpenTimeout:      cfg.RedisCircuitOpenTimeout,
		HalfOpenMaxReq:   cfg.RedisCircuitHalfOpenMaxReq,
	}, logger)

	return store, client.Close
}

func newExpiryQueue(cfg config.Config, logger *logging.Logger) (usecase.JobQueue, error) {
	if !cfg.QStashEnabled {
		return usecase.NewNoopJobQueue(), nil
	}

	publisher, err := jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
		BaseURL:          cfg.QStashBaseURL,
		Token:            cfg.QStashToken,
		TargetBaseURL:    cfg.QStashTargetBaseURL,
		Retries:          cfg.QStashRetries,
		InternalJobToken: cfg.InternalJobToken,
		Timeout:          cfg.QStashTimeout,
		CircuitBreaker:   resilience.DefaultCircuitBreakerConfig(),
	}, logger)
	if err != nil {
		return nil, crerr.Wrap(err, "build qstash publisher")
	}
	logger.Info("premium expiry scheduling enabled", "target_base_url", cfg.QStashTargetBaseURL)
	return publisher, nil
}
