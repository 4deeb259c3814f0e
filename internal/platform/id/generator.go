package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

// ULIDGenerator issues lexicographically sortable identity ids.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

func (g *ULIDGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out, err := ulid.New(ulid.Timestamp(g.now()), g.entropy)
	if err != nil {
		return "", fmt.Errorf("generate ulid: %w", err)
	}
	return out.String(), nil
}

const referralAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const DefaultReferralCodeLength = 8

// ReferralCodeGenerator draws fixed-length uppercase alphanumeric codes.
type ReferralCodeGenerator struct {
	length int
}

func NewReferralCodeGenerator(length int) *ReferralCodeGenerator {
	if length < 4 {
		length = DefaultReferralCodeLength
	}
	return &ReferralCodeGenerator{length: length}
}

func (g *ReferralCodeGenerator) NewReferralCode() (string, error) {
	max := big.NewInt(int64(len(referralAlphabet)))

	var b strings.Builder
	b.Grow(g.length)
	for i := 0; i < g.length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random index: %w", err)
		}
		b.WriteByte(referralAlphabet[n.Int64()])
	}
	return b.String(), nil
}
