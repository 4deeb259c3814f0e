package httpapi

import (
	"net/http"
)

func (h *Handler) GetPremium(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPremium")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := h.premiumService.Check(ctx, principal.UserID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, premiumToDTO(ctx, state))
}

func (h *Handler) SetPremium(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetPremium")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req setPremiumRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := h.premiumService.Set(ctx, principal.UserID, req.Active, req.Expiry)
	if err != nil {
		h.logger.WarnContext(ctx, "set premium failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, premiumToDTO(ctx, state))
}

func (h *Handler) RunExpirePremiumJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunExpirePremiumJob")
	defer span.End()

	result, err := h.sweepService.Run(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "premium sweep failed",
			"scanned", result.Scanned,
			"cleared", result.Cleared,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, premiumSweepDTO{
		Scanned: result.Scanned,
		Cleared: result.Cleared,
		Failed:  result.Failed,
	})
}
