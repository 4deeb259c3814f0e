package httpapi

import (
	"net/http"

	"github.com/riskibarqy/ajnabicam-profile/internal/usecase"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerSessionRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	// Bootstrap takes an optional token and never requires auth.
	mux.HandleFunc("POST /v1/session", handler.BootstrapSession)
	mux.Handle("GET /v1/profile/me", RequireAuth(verifier, http.HandlerFunc(handler.GetMyProfile)))
	mux.Handle("GET /v1/referrals/me", RequireAuth(verifier, http.HandlerFunc(handler.GetMyReferrals)))
}

func registerAuthorizedOnboardingRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("PUT /v1/onboarding", RequireAuth(verifier, http.HandlerFunc(handler.SaveOnboarding)))
	mux.Handle("POST /v1/onboarding/skip", RequireAuth(verifier, http.HandlerFunc(handler.SkipOnboarding)))
	mux.Handle("GET /v1/onboarding/snapshot", RequireAuth(verifier, http.HandlerFunc(handler.GetOnboardingSnapshot)))
	mux.Handle("GET /v1/onboarding/gender", RequireAuth(verifier, http.HandlerFunc(handler.GetGenderStatus)))
	mux.Handle("POST /v1/onboarding/gender", RequireAuth(verifier, http.HandlerFunc(handler.SubmitGender)))
}

func registerAuthorizedPremiumRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/premium", RequireAuth(verifier, http.HandlerFunc(handler.GetPremium)))
	mux.Handle("PUT /v1/premium", RequireAuth(verifier, http.HandlerFunc(handler.SetPremium)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST "+usecase.ExpirePremiumJobPath, RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunExpirePremiumJob)))
}
