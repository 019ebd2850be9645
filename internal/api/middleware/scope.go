package middleware

import (
	"context"
	"net/http"
	"strings"

	apiContext "patvault/internal/api/context"
	"patvault/internal/engine/authz"
	"patvault/internal/engine/scopes"
	"patvault/internal/pkg/errors"
)

// PATMiddleware guards resource endpoints with personal access tokens: it
// runs the authorization pipeline and exposes the result to handlers.
type PATMiddleware struct {
	pipeline *authz.Pipeline
}

func NewPATMiddleware(pipeline *authz.Pipeline) *PATMiddleware {
	return &PATMiddleware{pipeline: pipeline}
}

// RequireScope authorizes the request's bearer credential against one
// required scope and rejects with the pipeline's denial reason otherwise.
func (m *PATMiddleware) RequireScope(required scopes.Scope) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid authorization header", nil)
				return
			}
			credential := strings.TrimPrefix(authHeader, "Bearer ")

			result, err := m.pipeline.Authorize(r.Context(), credential, ClientIP(r), r.Method, r.URL.Path, required)
			if err != nil {
				if err == authz.ErrMalformedCredential {
					errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, authz.ReasonInvalidToken, nil)
					return
				}
				errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Authorization lookup failed", nil)
				return
			}

			if !result.Granted {
				code := errors.ErrCodeUnauthorized
				if result.StatusCode == http.StatusForbidden {
					code = errors.ErrCodeForbidden
				}
				details := map[string]interface{}{}
				if result.DenialReason == authz.ReasonInsufficientScope {
					details["required_scope"] = required.String()
					details["your_scopes"] = result.Scopes
				}
				errors.WriteError(w, result.StatusCode, code, result.DenialReason, details)
				return
			}

			ctx := context.WithValue(r.Context(), apiContext.Authz, result)
			next(w, r.WithContext(ctx))
		}
	}
}

// AuthzResult pulls the pipeline result a RequireScope middleware stored.
func AuthzResult(r *http.Request) *authz.Result {
	result, _ := r.Context().Value(apiContext.Authz).(*authz.Result)
	return result
}
