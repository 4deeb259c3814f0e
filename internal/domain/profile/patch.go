package profile

import "time"

// Patch is a partial update of a profile document. Fields not in the patch are
// left untouched by a merge-write; a field set to nil is written as null.
type Patch struct {
	values map[Field]any
}

func NewPatch() *Patch {
	return &Patch{values: make(map[Field]any)}
}

func (p *Patch) set(f Field, v any) *Patch {
	if p.values == nil {
		p.values = make(map[Field]any)
	}
	p.values[f] = v
	return p
}

func (p *Patch) SetUsername(v string) *Patch { return p.set(FieldUsername, v) }
func (p *Patch) SetLanguage(v Language) *Patch { return p.set(FieldLanguage, v) }
func (p *Patch) SetGender(v Gender) *Patch { return p.set(FieldGender, v) }
func (p *Patch) SetOwnReferralCode(v string) *Patch { return p.set(FieldOwnReferralCode, v) }
func (p *Patch) SetReferralCount(v int64) *Patch { return p.set(FieldReferralCount, v) }
func (p *Patch) SetCreatedAt(v time.Time) *Patch { return p.set(FieldCreatedAt, v) }
func (p *Patch) SetUpdatedAt(v time.Time) *Patch { return p.set(FieldUpdatedAt, v) }
func (p *Patch) SetReferredBy(v *string) *Patch { return p.set(FieldReferredBy, v) }
func (p *Patch) SetReferralCode(v *string) *Patch { return p.set(FieldReferralCode, v) }
func (p *Patch) SetReferredAt(v *time.Time) *Patch { return p.set(FieldReferredAt, v) }
func (p *Patch) SetPremiumUntil(v *time.Time) *Patch { return p.set(FieldPremiumUntil, v) }

// CompleteOnboarding only ever sets the flag to true.
func (p *Patch) CompleteOnboarding() *Patch {
	return p.set(FieldOnboardingComplete, true)
}

func (p *Patch) Len() int {
	if p == nil {
		return 0
	}
	return len(p.values)
}

func (p *Patch) Fields() FieldSet {
	var s FieldSet
	if p == nil {
		return s
	}
	for f := range p.values {
		s |= FieldSet(f)
	}
	return s
}

// Value returns the staged value of f; ok is false when f is not in the patch.
func (p *Patch) Value(f Field) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[f]
	return v, ok
}

// Document renders the patch as document keys, in stable field order.
func (p *Patch) Document() map[string]any {
	out := make(map[string]any, p.Len())
	for _, f := range p.Fields().Fields() {
		out[f.Key()] = documentValue(p.values[f])
	}
	return out
}

func documentValue(v any) any {
	switch value := v.(type) {
	case *string:
		if value == nil {
			return nil
		}
		return *value
	case *time.Time:
		if value == nil {
			return nil
		}
		return value.UTC().Format(time.RFC3339Nano)
	case time.Time:
		return value.UTC().Format(time.RFC3339Nano)
	case Language:
		return string(value)
	case Gender:
		if value == GenderUnset {
			return nil
		}
		return string(value)
	default:
		return v
	}
}

// PatchFrom returns a patch that writes every present field of p.
func PatchFrom(p Profile) *Patch {
	out := NewPatch()
	for _, f := range p.Present.Fields() {
		out.set(f, fieldValue(p, f))
	}
	return out
}

func fieldValue(p Profile, f Field) any {
	switch f {
	case FieldUsername:
		return cloneString(p.Username)
	case FieldLanguage:
		return p.Language
	case FieldGender:
		return p.Gender
	case FieldOnboardingComplete:
		return p.OnboardingComplete
	case FieldOwnReferralCode:
		return p.OwnReferralCode
	case FieldReferredBy:
		return cloneString(p.ReferredBy)
	case FieldReferralCode:
		return cloneString(p.ReferralCode)
	case FieldReferredAt:
		return cloneTime(p.ReferredAt)
	case FieldReferralCount:
		return p.ReferralCount
	case FieldPremiumUntil:
		return cloneTime(p.PremiumUntil)
	case FieldCreatedAt:
		return p.CreatedAt
	case FieldUpdatedAt:
		return p.UpdatedAt
	default:
		return nil
	}
}

// Apply merges the patch into p and marks the patched fields present.
func (p *Patch) Apply(target *Profile) {
	if p == nil || target == nil {
		return
	}
	for f, v := range p.values {
		switch f {
		case FieldUsername:
			switch name := v.(type) {
			case string:
				target.Username = &name
			case *string:
				target.Username = cloneString(name)
			}
		case FieldLanguage:
			target.Language = v.(Language)
		case FieldGender:
			target.Gender = v.(Gender)
		case FieldOnboardingComplete:
			target.OnboardingComplete = target.OnboardingComplete || v.(bool)
		case FieldOwnReferralCode:
			target.OwnReferralCode = v.(string)
		case FieldReferredBy:
			target.ReferredBy = cloneString(v.(*string))
		case FieldReferralCode:
			target.ReferralCode = cloneString(v.(*string))
		case FieldReferredAt:
			target.ReferredAt = cloneTime(v.(*time.Time))
		case FieldReferralCount:
			target.ReferralCount = v.(int64)
		case FieldPremiumUntil:
			target.PremiumUntil = cloneTime(v.(*time.Time))
		case FieldCreatedAt:
			target.CreatedAt = v.(time.Time)
		case FieldUpdatedAt:
			target.UpdatedAt = v.(time.Time)
		}
		target.Present |= FieldSet(f)
	}
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
