package id

import (
	"strings"
	"testing"
)

func TestReferralCodeGenerator_FixedLengthAlphanumeric(t *testing.T) {
	gen := NewReferralCodeGenerator(8)
	for i := 0; i < 50; i++ {
		code, err := gen.NewReferralCode()
		if err != nil {
			t.Fatalf("new referral code: %v", err)
		}
		if len(code) != 8 {
			t.Fatalf("expected length 8, got %d (%s)", len(code), code)
		}
		for _, r := range code {
			if !strings.ContainsRune(referralAlphabet, r) {
				t.Fatalf("unexpected rune %q in %s", r, code)
			}
		}
	}
}

func TestReferralCodeGenerator_FallsBackToDefaultLength(t *testing.T) {
	code, err := NewReferralCodeGenerator(0).NewReferralCode()
	if err != nil {
		t.Fatalf("new referral code: %v", err)
	}
	if len(code) != DefaultReferralCodeLength {
		t.Fatalf("expected default length %d, got %d", DefaultReferralCodeLength, len(code))
	}
}

func TestULIDGenerator_UniqueAndSorted(t *testing.T) {
	gen := NewULIDGenerator()
	prev := ""
	for i := 0; i < 20; i++ {
		next, err := gen.NewID()
		if err != nil {
			t.Fatalf("new id: %v", err)
		}
		if len(next) != 26 {
			t.Fatalf("expected 26 char ulid, got %q", next)
		}
		if next <= prev {
			t.Fatalf("expected monotonic ids, got %q after %q", next, prev)
		}
		prev = next
	}
}
