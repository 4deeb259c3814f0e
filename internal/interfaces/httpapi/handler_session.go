package httpapi

import (
	"net/http"
)

// BootstrapSession resolves or issues an anonymous identity and returns the
// screen the client should open. Failures degrade to onboarding.
func (h *Handler) BootstrapSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BootstrapSession")
	defer span.End()

	token, _ := bearerToken(r)
	result := h.sessionService.Bootstrap(ctx, token)
	if result.Degraded {
		h.logger.WarnContext(ctx, "session bootstrap degraded", "user_id", result.Session.Principal.UserID)
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(ctx, result))
}

func (h *Handler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMyProfile")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.sessionService.Profile(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "get profile failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(ctx, item))
}
