package usecase

import (
	"errors"
	"strings"

	"github.com/riskibarqy/ajnabicam-profile/internal/domain/profile"
)

type FormState string

const (
	FormSelectingGender FormState = "selecting-gender"
	FormIdle            FormState = "idle"
	FormSubmitting      FormState = "submitting"
	FormError           FormState = "error"
)

const (
	MessageInvalidReferralCode = "Invalid referral code"
	MessageSelfReferral        = "You cannot use your own referral code"
	MessageAlreadyReferred     = "You have already used a referral code"
	MessageRetry               = "Error saving gender selection. Please try again."
)

// RedemptionForm is the gender and referral capture form. Inputs survive a
// failed submission so the user can correct them and resubmit.
type RedemptionForm struct {
	State        FormState
	Gender       profile.Gender
	ReferralCode string
	Message      string
}

func NewRedemptionForm() *RedemptionForm {
	return &RedemptionForm{State: FormSelectingGender}
}

func (f *RedemptionForm) SelectGender(g profile.Gender) {
	if f.State == FormSubmitting {
		return
	}
	f.Gender = g
	if f.State == FormSelectingGender && g != profile.GenderUnset {
		f.State = FormIdle
	}
}

// EnterReferralCode replaces the code and clears any shown error.
func (f *RedemptionForm) EnterReferralCode(code string) {
	if f.State == FormSubmitting {
		return
	}
	f.ReferralCode = code
	if f.State == FormError {
		f.Message = ""
		f.State = f.restingState()
	}
}

func (f *RedemptionForm) CanSubmit() bool {
	if f.Gender == profile.GenderUnset {
		return false
	}
	return f.State == FormIdle || f.State == FormError
}

func (f *RedemptionForm) code() string {
	return strings.TrimSpace(f.ReferralCode)
}

func (f *RedemptionForm) begin() {
	f.State = FormSubmitting
	f.Message = ""
}

func (f *RedemptionForm) succeed() {
	f.State = FormIdle
	f.Message = ""
}

// fail moves the form to the error state with a message matching err.
func (f *RedemptionForm) fail(err error) {
	f.State = FormError
	switch {
	case errors.Is(err, profile.ErrInvalidReferralCode):
		f.Message = MessageInvalidReferralCode
	case errors.Is(err, profile.ErrSelfReferral):
		f.Message = MessageSelfReferral
	case errors.Is(err, profile.ErrAlreadyReferred):
		f.Message = MessageAlreadyReferred
	default:
		f.Message = MessageRetry
	}
}

func (f *RedemptionForm) restingState() FormState {
	if f.Gender == profile.GenderUnset {
		return FormSelectingGender
	}
	return FormIdle
}

// IsReferralRejection reports whether err is a user-correctable referral
// validation failure.
func IsReferralRejection(err error) bool {
	return errors.Is(err, profile.ErrInvalidReferralCode) ||
		errors.Is(err, profile.ErrSelfReferral) ||
		errors.Is(err, profile.ErrAlreadyReferred)
}
