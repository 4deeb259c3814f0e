package postgres

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/ajnabicam-profile/internal/domain/profile"
)

const profileTable = "user_profiles"

// documentAPI keeps integers as int64 when decoding stored documents.
var documentAPI = sonic.Config{UseInt64: true}.Froze()

type profileTableModel struct {
	ID  string `db:"id"`
	Doc []byte `db:"doc"`
}

type profileInsertModel struct {
	ID  string `db:"id"`
	Doc string `db:"doc,cast=jsonb"`
}

func encodePatch(patch *profile.Patch) (string, error) {
	raw, err := documentAPI.Marshal(patch.Document())
	if err != nil {
		return "", fmt.Errorf("encode profile document: %w", err)
	}
	return string(raw), nil
}

func profileFromRow(row profileTableModel) (profile.Profile, error) {
	var doc map[string]any
	if err := documentAPI.Unmarshal(row.Doc, &doc); err != nil {
		return profile.Profile{}, fmt.Errorf("decode profile document %s: %w", row.ID, err)
	}

	out := profile.Profile{ID: row.ID}
	for key, value := range doc {
		field, ok := profile.FieldByKey(key)
		if !ok {
			continue
		}
		if err := decodeField(&out, field, value); err != nil {
			return profile.Profile{}, fmt.Errorf("decode profile %s field %s: %w", row.ID, key, err)
		}
		out.Present |= profile.FieldSet(field)
	}
	return out, nil
}

func decodeField(out *profile.Profile, field profile.Field, value any) error {
	switch field {
	case profile.FieldUsername:
		out.Username = optionalDocString(value)
	case profile.FieldLanguage:
		if s, ok := value.(string); ok {
			out.Language = profile.Language(s)
		}
	case profile.FieldGender:
		if s, ok := value.(string); ok {
			out.Gender, _ = profile.ParseGender(s)
		}
	case profile.FieldOnboardingComplete:
		b, _ := value.(bool)
		out.OnboardingComplete = b
	case profile.FieldOwnReferralCode:
		s, _ := value.(string)
		out.OwnReferralCode = s
	case profile.FieldReferredBy:
		out.ReferredBy = optionalDocString(value)
	case profile.FieldReferralCode:
		out.ReferralCode = optionalDocString(value)
	case profile.FieldReferredAt:
		t, err := optionalDocTime(value)
		if err != nil {
			return err
		}
		out.ReferredAt = t
	case profile.FieldReferralCount:
		out.ReferralCount = docInt64(value)
	case profile.FieldPremiumUntil:
		t, err := optionalDocTime(value)
		if err != nil {
			return err
		}
		out.PremiumUntil = t
	case profile.FieldCreatedAt:
		t, err := optionalDocTime(value)
		if err != nil {
			return err
		}
		if t != nil {
			out.CreatedAt = *t
		}
	case profile.FieldUpdatedAt:
		t, err := optionalDocTime(value)
		if err != nil {
			return err
		}
		if t != nil {
			out.UpdatedAt = *t
		}
	}
	return nil
}

func optionalDocString(value any) *string {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	return &s
}

func optionalDocTime(value any) (*time.Time, error) {
	s, ok := value.(string)
	if !ok || s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func docInt64(value any) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// documentTime matches the timestamp encoding of profile.Patch documents.
func documentTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
