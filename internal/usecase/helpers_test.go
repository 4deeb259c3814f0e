package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/ajnabicam-profile/internal/domain/identity"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type sequenceCodes struct {
	mu    sync.Mutex
	codes []string
}

func newSequenceCodes(codes ...string) *sequenceCodes {
	return &sequenceCodes{codes: codes}
}

func (g *sequenceCodes) NewReferralCode() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.codes) == 0 {
		return "", errors.New("no more codes")
	}
	out := g.codes[0]
	g.codes = g.codes[1:]
	return out, nil
}

// sequenceIdentities signs in the given user ids in order and accepts tokens
// of the form "token-<id>".
type sequenceIdentities struct {
	mu  sync.Mutex
	ids []string
}

func (p *sequenceIdentities) SignInAnonymously(context.Context) (identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.ids) == 0 {
		return identity.Session{}, errors.New("identity provider unavailable")
	}
	userID := p.ids[0]
	p.ids = p.ids[1:]
	return identity.Session{
		Principal: identity.Principal{UserID: userID, Anonymous: true, IssuedAt: testNow},
		Token:     "token-" + userID,
		ExpiresAt: testNow.Add(time.Hour),
	}, nil
}

func (p *sequenceIdentities) VerifyAccessToken(_ context.Context, token string) (identity.Principal, error) {
	userID, ok := strings.CutPrefix(token, "token-")
	if !ok || userID == "" {
		return identity.Principal{}, identity.ErrInvalidToken
	}
	return identity.Principal{UserID: userID, Anonymous: true}, nil
}
