package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/ajnabicam-profile/internal/domain/profile"
	"github.com/riskibarqy/ajnabicam-profile/internal/usecase"
)

func (h *Handler) SaveOnboarding(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SaveOnboarding")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req onboardingRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.onboardingService.Continue(ctx, usecase.OnboardingInput{
		UserID:   principal.UserID,
		Name:     req.Name,
		Language: req.Language,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "save onboarding failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, onboardingResultToDTO(ctx, result))
}

func (h *Handler) SkipOnboarding(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SkipOnboarding")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req skipOnboardingRequest
	if r.ContentLength != 0 {
		if err := h.decodeRequest(ctx, r, &req); err != nil {
			writeError(ctx, w, err)
			return
		}
	}

	result, err := h.onboardingService.Skip(ctx, principal.UserID, req.Language)
	if err != nil {
		h.logger.WarnContext(ctx, "skip onboarding failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, onboardingResultToDTO(ctx, result))
}

func (h *Handler) GetOnboardingSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetOnboardingSnapshot")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	snapshot, err := h.onboardingService.Snapshot(ctx, principal.UserID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, snapshotToDTO(ctx, snapshot))
}

func (h *Handler) GetGenderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGenderStatus")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	route, err := h.referralService.Status(ctx, principal.UserID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, routeDTO{Route: string(route)})
}

// SubmitGender saves the gender selection and redeems an optional referral
// code. Referral rejections carry the message the form should show.
func (h *Handler) SubmitGender(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitGender")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req genderSubmitRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	gender, ok := profile.ParseGender(req.Gender)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: unsupported gender %q", usecase.ErrInvalidInput, req.Gender))
		return
	}

	form := usecase.NewRedemptionForm()
	form.SelectGender(gender)
	form.EnterReferralCode(req.ReferralCode)

	result, err := h.referralService.Submit(ctx, principal.UserID, form)
	if err != nil {
		if form.State == usecase.FormError {
			writeErrorMessage(ctx, w, err, form.Message)
			return
		}
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, referralResultDTO{
		Route:        string(result.Route),
		Referred:     result.Referred,
		PremiumUntil: formatOptionalTime(result.PremiumUntil),
	})
}

func (h *Handler) GetMyReferrals(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMyReferrals")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	summary, err := h.referralService.Summary(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "get referral summary failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, referralSummaryDTO{
		OwnReferralCode: summary.OwnReferralCode,
		ReferralCount:   summary.ReferralCount,
		ReferredBy:      summary.ReferredBy,
	})
}
