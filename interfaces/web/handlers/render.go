package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"spwebhooks/domain/contracts"
	"spwebhooks/logging"
)

// errorResponse is the JSON body for failed requests.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// RespondJSON writes a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Default().Error("Failed to encode response", "error", err)
	}
}

// RespondError maps a service error to a status code and writes it as JSON.
// Missing parameters and unknown subscriptions are the caller's fault;
// authentication and request failures surface as bad gateway because
// SharePoint, not this service, rejected the call.
func RespondError(w http.ResponseWriter, err error) {
	var authErr *azidentity.AuthenticationFailedError

	switch {
	case errors.Is(err, contracts.ErrMissingParameter):
		RespondJSON(w, http.StatusBadRequest, errorResponse{Error: "missing_parameter", Detail: err.Error()})
	case errors.Is(err, contracts.ErrSubscriptionNotFound):
		RespondJSON(w, http.StatusNotFound, errorResponse{Error: "subscription_not_found", Detail: err.Error()})
	case errors.As(err, &authErr):
		RespondJSON(w, http.StatusBadGateway, errorResponse{Error: "authentication_failed", Detail: err.Error()})
	default:
		RespondJSON(w, http.StatusBadGateway, errorResponse{Error: "upstream_request_failed", Detail: err.Error()})
	}
}

// RequireDebugKey guards debug endpoints behind a shared key presented in the
// X-Debug-Key header. The comparison is constant time.
func RequireDebugKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("X-Debug-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				RespondJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
