package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/ajnabicam-profile/internal/domain/identity"
	"github.com/riskibarqy/ajnabicam-profile/internal/domain/profile"
	"github.com/riskibarqy/ajnabicam-profile/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "ajnabicam-profile"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	ctx, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	ctx, span := startSpan(ctx, "httpapi.writeSuccess")
	defer span.End()

	writeJSON(ctx, w, status, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Data:       data,
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	writeErrorMessage(ctx, w, err, err.Error())
}

// writeErrorMessage maps err to a status but shows message to the client.
func writeErrorMessage(ctx context.Context, w http.ResponseWriter, err error, message string) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	if message == "" {
		message = err.Error()
	}
	mapped := mapError(ctx, err)
	writeJSON(ctx, w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: message,
			Status:  mapped.Status,
			Errors: []googleErrorItem{
				{
					Domain:  errorDomain,
					Reason:  mapped.Reason,
					Message: err.Error(),
				},
			},
		},
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	const msg = "internal server error"
	writeErrorMessage(ctx, w, errInternal, msg)
}

var errInternal = errors.New("internal server error")

// errorMappings is checked in order; the first matching sentinel wins.
var errorMappings = []struct {
	targets []error
	mapped  mappedError
}{
	{[]error{usecase.ErrInvalidInput}, mappedError{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"}},
	{[]error{usecase.ErrNotFound}, mappedError{http.StatusNotFound, "notFound", "NOT_FOUND"}},
	{[]error{usecase.ErrUnauthorized, identity.ErrInvalidToken}, mappedError{http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"}},
	{[]error{usecase.ErrSubmissionInFlight}, mappedError{http.StatusConflict, "submissionInFlight", "ABORTED"}},
	{[]error{profile.ErrInvalidReferralCode}, mappedError{http.StatusUnprocessableEntity, "invalidReferralCode", "FAILED_PRECONDITION"}},
	{[]error{profile.ErrSelfReferral}, mappedError{http.StatusUnprocessableEntity, "selfReferral", "FAILED_PRECONDITION"}},
	{[]error{profile.ErrAlreadyReferred}, mappedError{http.StatusUnprocessableEntity, "alreadyReferred", "FAILED_PRECONDITION"}},
	{[]error{usecase.ErrDependencyUnavailable}, mappedError{http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"}},
}

var internalMapping = mappedError{http.StatusInternalServerError, "internalError", "INTERNAL"}

func mapError(ctx context.Context, err error) mappedError {
	_, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	for _, m := range errorMappings {
		for _, target := range m.targets {
			if errors.Is(err, target) {
				return m.mapped
			}
		}
	}
	return internalMapping
}
