package jwtauth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/riskibarqy/ajnabicam-profile/internal/domain/identity"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/cache"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/id"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/logging"
)

const (
	defaultIssuer   = "ajnabicam-profile"
	defaultAudience = "ajnabicam-app"
	defaultTokenTTL = 30 * 24 * time.Hour
)

type Config struct {
	SigningKey string
	Issuer     string
	Audience   string
	TokenTTL   time.Duration
	// CacheTTL bounds how long a verified token skips signature checks.
	CacheTTL        time.Duration
	CacheMaxEntries int
}

type claims struct {
	UserID    string `json:"uid"`
	Anonymous bool   `json:"anon"`
	jwt.RegisteredClaims
}

// AnonymousProvider issues HS256 bearer tokens for anonymous identities and
// verifies them, remembering recent verifications by token hash.
type AnonymousProvider struct {
	key      []byte
	issuer   string
	audience string
	tokenTTL time.Duration
	ids      id.Generator
	verified *cache.Store
	parser   *jwt.Parser
	logger   *logging.Logger
	now      func() time.Time
}

func NewAnonymousProvider(cfg Config, ids id.Generator, logger *logging.Logger) (*AnonymousProvider, error) {
	key := strings.TrimSpace(cfg.SigningKey)
	if len(key) < 32 {
		return nil, crerr.New("identity signing key must be at least 32 bytes")
	}
	if ids == nil {
		ids = id.NewULIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = defaultIssuer
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = defaultAudience
	}
	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}

	p := &AnonymousProvider{
		key:      []byte(key),
		issuer:   issuer,
		audience: audience,
		tokenTTL: tokenTTL,
		ids:      ids,
		logger:   logger,
		now:      time.Now,
	}
	if cfg.CacheTTL > 0 {
		p.verified = cache.NewStore(cfg.CacheTTL, cache.WithMaxEntries(cfg.CacheMaxEntries))
	}
	p.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return p.now() }),
	)
	return p, nil
}

func (p *AnonymousProvider) SignInAnonymously(ctx context.Context) (identity.Session, error) {
	userID, err := p.ids.NewID()
	if err != nil {
		return identity.Session{}, crerr.Wrap(err, "generate anonymous user id")
	}

	now := p.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(p.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID:    userID,
		Anonymous: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(p.key)
	if err != nil {
		return identity.Session{}, crerr.Wrap(err, "sign anonymous token")
	}

	principal := identity.Principal{UserID: userID, Anonymous: true, IssuedAt: now}
	p.remember(ctx, signed, principal, expiresAt)
	p.logger.InfoContext(ctx, "anonymous identity issued", "user_id", userID)

	return identity.Session{
		Principal: principal,
		Token:     signed,
		ExpiresAt: expiresAt,
	}, nil
}

func (p *AnonymousProvider) VerifyAccessToken(ctx context.Context, token string) (identity.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return identity.Principal{}, crerr.Wrap(identity.ErrInvalidToken, "token is required")
	}

	key := hashToken(token)
	if p.verified != nil {
		if v, ok := p.verified.Get(ctx, key); ok {
			if cached, ok := v.(verifiedToken); ok && cached.expiresAt.After(p.now()) {
				return cached.principal, nil
			}
			p.verified.Delete(ctx, key)
		}
	}

	parsed := new(claims)
	if _, err := p.parser.ParseWithClaims(token, parsed, func(*jwt.Token) (any, error) {
		return p.key, nil
	}); err != nil {
		return identity.Principal{}, crerr.WithSecondaryError(crerr.Wrap(identity.ErrInvalidToken, "parse access token"), err)
	}
	if strings.TrimSpace(parsed.UserID) == "" || parsed.UserID != parsed.Subject {
		return identity.Principal{}, crerr.Wrap(identity.ErrInvalidToken, "token subject mismatch")
	}

	principal := identity.Principal{UserID: parsed.UserID, Anonymous: parsed.Anonymous}
	if parsed.IssuedAt != nil {
		principal.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	p.remember(ctx, token, principal, parsed.ExpiresAt.Time)

	return principal, nil
}

type verifiedToken struct {
	principal identity.Principal
	expiresAt time.Time
}

func (p *AnonymousProvider) remember(ctx context.Context, token string, principal identity.Principal, expiresAt time.Time) {
	if p.verified == nil {
		return
	}
	p.verified.Set(ctx, hashToken(token), verifiedToken{principal: principal, expiresAt: expiresAt})
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

var _ identity.Provider = (*AnonymousProvider)(nil)
