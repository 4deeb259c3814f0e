package config

import (
	"testing"
	"time"

	"github.com/riskibarqy/ajnabicam-profile/internal/platform/logging"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("IDENTITY_SIGNING_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.StorageDriver != StorageDriverPostgres {
		t.Fatalf("unexpected storage driver: %q", cfg.StorageDriver)
	}
	if cfg.SnapshotDriver != SnapshotDriverMemory {
		t.Fatalf("unexpected snapshot driver: %q", cfg.SnapshotDriver)
	}
	if cfg.PremiumGrantDuration != 24*time.Hour {
		t.Fatalf("unexpected premium grant duration: %s", cfg.PremiumGrantDuration)
	}
	if cfg.ReferralCodeLength != 8 {
		t.Fatalf("unexpected referral code length: %d", cfg.ReferralCodeLength)
	}
	if cfg.IdentitySigningKey != devIdentitySigningKey {
		t.Fatalf("expected dev signing key in dev")
	}
	if cfg.ServiceName != "ajnabicam-profile-api" {
		t.Fatalf("unexpected service name: %q", cfg.ServiceName)
	}
}

func TestLoad_SigningKeyRequiredOutsideDev(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("missing", func(t *testing.T) {
		t.Setenv("IDENTITY_SIGNING_KEY", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error without IDENTITY_SIGNING_KEY in prod")
		}
	})

	t.Run("too short", func(t *testing.T) {
		t.Setenv("IDENTITY_SIGNING_KEY", "short")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for short IDENTITY_SIGNING_KEY")
		}
	})

	t.Run("valid", func(t *testing.T) {
		t.Setenv("IDENTITY_SIGNING_KEY", "0123456789abcdef0123456789abcdef")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.IdentitySigningKey != "0123456789abcdef0123456789abcdef" {
			t.Fatalf("unexpected signing key")
		}
	})
}

func TestLoad_DriverValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("unknown storage driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "mongo")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for unknown STORAGE_DRIVER")
		}
	})

	t.Run("unknown snapshot driver", func(t *testing.T) {
		t.Setenv("SNAPSHOT_DRIVER", "disk")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for unknown SNAPSHOT_DRIVER")
		}
	})

	t.Run("drivers are case insensitive", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "Memory")
		t.Setenv("SNAPSHOT_DRIVER", " REDIS ")
		t.Setenv("REDIS_ADDR", "cache:6379")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.StorageDriver != StorageDriverMemory || cfg.SnapshotDriver != SnapshotDriverRedis {
			t.Fatalf("unexpected drivers: %q %q", cfg.StorageDriver, cfg.SnapshotDriver)
		}
		if cfg.RedisAddr != "cache:6379" {
			t.Fatalf("unexpected redis addr: %q", cfg.RedisAddr)
		}
	})
}

func TestLoad_ReferralAndPremiumParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("code length out of range", func(t *testing.T) {
		t.Setenv("REFERRAL_CODE_LENGTH", "4")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for REFERRAL_CODE_LENGTH=4")
		}
	})

	t.Run("non positive grant", func(t *testing.T) {
		t.Setenv("PREMIUM_GRANT_DURATION", "0s")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for PREMIUM_GRANT_DURATION=0s")
		}
	})

	t.Run("custom values", func(t *testing.T) {
		t.Setenv("REFERRAL_CODE_LENGTH", "6")
		t.Setenv("PREMIUM_GRANT_DURATION", "48h")
		t.Setenv("PREMIUM_SESSION_TTL", "5m")
		t.Setenv("SWEEP_WORKERS", "8")
		t.Setenv("INTERNAL_JOB_TOKEN", " job-token ")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.ReferralCodeLength != 6 {
			t.Fatalf("unexpected referral code length: %d", cfg.ReferralCodeLength)
		}
		if cfg.PremiumGrantDuration != 48*time.Hour {
			t.Fatalf("unexpected grant duration: %s", cfg.PremiumGrantDuration)
		}
		if cfg.PremiumSessionTTL != 5*time.Minute {
			t.Fatalf("unexpected session ttl: %s", cfg.PremiumSessionTTL)
		}
		if cfg.SweepWorkers != 8 {
			t.Fatalf("unexpected sweep workers: %d", cfg.SweepWorkers)
		}
		if cfg.InternalJobToken != "job-token" {
			t.Fatalf("unexpected internal job token: %q", cfg.InternalJobToken)
		}
	})
}

func TestLoad_RedisCircuitValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("REDIS_CIRCUIT_FAILURE_COUNT", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for REDIS_CIRCUIT_FAILURE_COUNT=0")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", `foo=bar, uptrace-dsn="https://token@api.uptrace.dev?grpc=4317"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected uptrace dsn: %q", cfg.UptraceDSN)
	}
}

func TestLoad_PprofDefaultsAddr(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_SERVICE_NAME", "ajnabicam-profile-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "ajnabicam-profile-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
			t.Fatalf("unexpected second CORS origin: %s", cfg.CORSAllowedOrigins[1])
		}
	})
}

func TestLoad_DBMaxOpenConnsValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default", func(t *testing.T) {
		t.Setenv("DB_MAX_OPEN_CONNS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.DBMaxOpenConns != 20 {
			t.Fatalf("unexpected DBMaxOpenConns: %d", cfg.DBMaxOpenConns)
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("DB_MAX_OPEN_CONNS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for DB_MAX_OPEN_CONNS=0")
		}
	})
}

func TestLoad_BetterStackRequiresEndpointWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("BETTERSTACK_ENABLED", "true")

	t.Run("missing endpoint", func(t *testing.T) {
		t.Setenv("BETTERSTACK_ENDPOINT", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when BETTERSTACK_ENABLED=true without BETTERSTACK_ENDPOINT")
		}
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("BETTERSTACK_ENDPOINT", "in.logs.betterstack.com")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.BetterStackMinLevel != logging.LevelWarn {
			t.Fatalf("unexpected min level: %s", cfg.BetterStackMinLevel)
		}
		if cfg.BetterStackBatchSize != 50 {
			t.Fatalf("unexpected batch size: %d", cfg.BetterStackBatchSize)
		}
	})
}

func TestLoad_QStashValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("QSTASH_ENABLED", "true")

	t.Run("missing token", func(t *testing.T) {
		t.Setenv("QSTASH_TOKEN", "")
		t.Setenv("QSTASH_TARGET_BASE_URL", "https://profile.example.com")
		t.Setenv("INTERNAL_JOB_TOKEN", "job-token")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when QSTASH_TOKEN is missing")
		}
	})

	t.Run("missing job token", func(t *testing.T) {
		t.Setenv("QSTASH_TOKEN", "qstash-token")
		t.Setenv("QSTASH_TARGET_BASE_URL", "https://profile.example.com")
		t.Setenv("INTERNAL_JOB_TOKEN", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when INTERNAL_JOB_TOKEN is missing")
		}
	})

	t.Run("valid", func(t *testing.T) {
		t.Setenv("QSTASH_TOKEN", "qstash-token")
		t.Setenv("QSTASH_TARGET_BASE_URL", "https://profile.example.com")
		t.Setenv("INTERNAL_JOB_TOKEN", "job-token")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.QStashBaseURL != "https://qstash.upstash.io" {
			t.Fatalf("unexpected qstash base url: %q", cfg.QStashBaseURL)
		}
		if cfg.QStashRetries != 3 {
			t.Fatalf("unexpected qstash retries: %d", cfg.QStashRetries)
		}
	})
}

func TestLoad_IdentityCacheMaxEntries(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default is independent of snapshot size", func(t *testing.T) {
		t.Setenv("IDENTITY_CACHE_MAX_ENTRIES", "")
		t.Setenv("SNAPSHOT_MAX_ENTRIES", "10")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.IdentityCacheMaxEntries != 50000 {
			t.Fatalf("unexpected IdentityCacheMaxEntries: %d", cfg.IdentityCacheMaxEntries)
		}
		if cfg.SnapshotMaxEntries != 10 {
			t.Fatalf("unexpected SnapshotMaxEntries: %d", cfg.SnapshotMaxEntries)
		}
	})

	t.Run("explicit value", func(t *testing.T) {
		t.Setenv("IDENTITY_CACHE_MAX_ENTRIES", "2500")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.IdentityCacheMaxEntries != 2500 {
			t.Fatalf("unexpected IdentityCacheMaxEntries: %d", cfg.IdentityCacheMaxEntries)
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("IDENTITY_CACHE_MAX_ENTRIES", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for IDENTITY_CACHE_MAX_ENTRIES=0")
		}
	})
}
