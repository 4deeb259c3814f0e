package profile

import (
	"strings"
	"time"
)

// Profile is the per-identity record holding onboarding, gender, referral and
// premium state. Present tracks which fields exist on the stored document so
// that records written by older clients can be backfilled.
type Profile struct {
	ID                 string
	Username           *string
	Language           Language
	Gender             Gender
	OnboardingComplete bool
	OwnReferralCode    string
	ReferredBy         *string
	ReferralCode       *string
	ReferredAt         *time.Time
	ReferralCount      int64
	PremiumUntil       *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Present            FieldSet
}

const (
	DefaultUsername = "User"
	PremiumGrant    = 24 * time.Hour
)

// New returns a record with every field present and set to its default.
func New(id, ownReferralCode string, now time.Time) Profile {
	return Profile{
		ID:              id,
		Language:        DefaultLanguage,
		OwnReferralCode: ownReferralCode,
		CreatedAt:       now,
		UpdatedAt:       now,
		Present:         AllFields,
	}
}

func (p Profile) IsReferred() bool {
	return p.ReferredBy != nil && strings.TrimSpace(*p.ReferredBy) != ""
}

// PremiumActive reports whether premiumUntil is set and still in the future.
func (p Profile) PremiumActive(now time.Time) bool {
	return p.PremiumUntil != nil && p.PremiumUntil.After(now)
}

// PremiumExpired reports whether premiumUntil is set but no longer in the future.
func (p Profile) PremiumExpired(now time.Time) bool {
	return p.PremiumUntil != nil && !p.PremiumUntil.After(now)
}

type Gender string

const (
	GenderUnset  Gender = ""
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
	GenderOther  Gender = "other"
)

func ParseGender(v string) (Gender, bool) {
	switch Gender(strings.ToLower(strings.TrimSpace(v))) {
	case GenderFemale:
		return GenderFemale, true
	case GenderMale:
		return GenderMale, true
	case GenderOther:
		return GenderOther, true
	default:
		return GenderUnset, false
	}
}

type Language string

const DefaultLanguage Language = "en"

// Languages is the fixed list offered by the onboarding screen.
var Languages = []Language{"en", "hi", "bn", "ur", "ta", "te", "mr", "es", "fr", "ar"}

func ParseLanguage(v string) (Language, bool) {
	code := Language(strings.ToLower(strings.TrimSpace(v)))
	for _, lang := range Languages {
		if lang == code {
			return lang, true
		}
	}
	return "", false
}
