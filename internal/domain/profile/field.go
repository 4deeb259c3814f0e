package profile

// Field names one attribute of the stored profile document.
type Field uint16

const (
	FieldUsername Field = 1 << iota
	FieldLanguage
	FieldGender
	FieldOnboardingComplete
	FieldOwnReferralCode
	FieldReferredBy
	FieldReferralCode
	FieldReferredAt
	FieldReferralCount
	FieldPremiumUntil
	FieldCreatedAt
	FieldUpdatedAt
)

var fieldKeys = map[Field]string{
	FieldUsername:           "username",
	FieldLanguage:           "language",
	FieldGender:             "gender",
	FieldOnboardingComplete: "onboardingComplete",
	FieldOwnReferralCode:    "ownReferralCode",
	FieldReferredBy:         "referredBy",
	FieldReferralCode:       "referralCode",
	FieldReferredAt:         "referredAt",
	FieldReferralCount:      "referralCount",
	FieldPremiumUntil:       "premiumUntil",
	FieldCreatedAt:          "createdAt",
	FieldUpdatedAt:          "updatedAt",
}

// orderedFields fixes iteration order for documents and patches.
var orderedFields = []Field{
	FieldUsername,
	FieldLanguage,
	FieldGender,
	FieldOnboardingComplete,
	FieldOwnReferralCode,
	FieldReferredBy,
	FieldReferralCode,
	FieldReferredAt,
	FieldReferralCount,
	FieldPremiumUntil,
	FieldCreatedAt,
	FieldUpdatedAt,
}

// Key returns the document key of the field.
func (f Field) Key() string {
	return fieldKeys[f]
}

func (f Field) String() string {
	if key, ok := fieldKeys[f]; ok {
		return key
	}
	return "unknown"
}

func FieldByKey(key string) (Field, bool) {
	for _, f := range orderedFields {
		if fieldKeys[f] == key {
			return f, true
		}
	}
	return 0, false
}

// FieldSet is a bitmask of Field values.
type FieldSet uint16

const AllFields = FieldSet(FieldUsername | FieldLanguage | FieldGender | FieldOnboardingComplete |
	FieldOwnReferralCode | FieldReferredBy | FieldReferralCode | FieldReferredAt |
	FieldReferralCount | FieldPremiumUntil | FieldCreatedAt | FieldUpdatedAt)

// BackfillFields are the fields introduced by later schema versions.
const BackfillFields = FieldSet(FieldOwnReferralCode | FieldReferralCount | FieldReferredBy |
	FieldReferralCode | FieldPremiumUntil | FieldCreatedAt)

func NewFieldSet(fields ...Field) FieldSet {
	var s FieldSet
	for _, f := range fields {
		s |= FieldSet(f)
	}
	return s
}

func (s FieldSet) Has(f Field) bool {
	return s&FieldSet(f) != 0
}

func (s FieldSet) With(fields ...Field) FieldSet {
	return s | NewFieldSet(fields...)
}

// Missing returns the members of want that are absent from s.
func (s FieldSet) Missing(want FieldSet) []Field {
	out := make([]Field, 0, len(orderedFields))
	for _, f := range orderedFields {
		if want.Has(f) && !s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func (s FieldSet) Fields() []Field {
	out := make([]Field, 0, len(orderedFields))
	for _, f := range orderedFields {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}
