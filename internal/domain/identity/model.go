package identity

import (
	"context"
	"errors"
	"time"
)

// Principal is the identity attached to an authenticated request.
type Principal struct {
	UserID    string
	Anonymous bool
	IssuedAt  time.Time
}

// Session is an issued identity together with its bearer token.
type Session struct {
	Principal Principal
	Token     string
	ExpiresAt time.Time
}

// Provider issues and verifies anonymous identities.
type Provider interface {
	SignInAnonymously(ctx context.Context) (Session, error)
	VerifyAccessToken(ctx context.Context, token string) (Principal, error)
}

var ErrInvalidToken = errors.New("invalid access token")
