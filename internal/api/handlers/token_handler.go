package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	apiContext "patvault/internal/api/context"
	"patvault/internal/engine/tokens"
	"patvault/internal/pkg/errors"
	"patvault/internal/platform/audit"
	"patvault/internal/platform/auth"
	"patvault/internal/platform/models"
)

type TokenHandler struct {
	tokenSvc *tokens.Service
	recorder *audit.Recorder
}

func NewTokenHandler(tokenSvc *tokens.Service, recorder *audit.Recorder) *TokenHandler {
	return &TokenHandler{
		tokenSvc: tokenSvc,
		recorder: recorder,
	}
}

func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(apiContext.Claims).(*auth.Claims)
	return claims
}

func paramFrom(r *http.Request, name string) string {
	params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	return params.ByName(name)
}

type CreateTokenRequest struct {
	Name          string   `json:"name"`
	Scopes        []string `json:"scopes"`
	ExpiresInDays int      `json:"expires_in_days"`
	AllowedIPs    []string `json:"allowed_ips,omitempty"`
}

type CreatedTokenResponse struct {
	Token *models.Token `json:"token"`
	// Secret is returned exactly once, at creation or regeneration.
	Secret string `json:"secret"`
}

func (h *TokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var req CreateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	token, secret, err := h.tokenSvc.Create(r.Context(), claims.UserID, req.Name, req.Scopes, req.ExpiresInDays, req.AllowedIPs)
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	errors.WriteSuccess(w, http.StatusCreated, CreatedTokenResponse{Token: token, Secret: secret})
}

func (h *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	list, err := h.tokenSvc.List(r.Context(), claims.UserID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	errors.WriteSuccess(w, http.StatusOK, list)
}

func (h *TokenHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	token, err := h.tokenSvc.Get(r.Context(), claims.UserID, paramFrom(r, "token_id"))
	if err != nil {
		writeTokenError(w, err)
		return
	}

	errors.WriteSuccess(w, http.StatusOK, token)
}

func (h *TokenHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	token, err := h.tokenSvc.Revoke(r.Context(), claims.UserID, paramFrom(r, "token_id"))
	if err == tokens.ErrAlreadyRevoked {
		// Second revoke is a no-op worth reporting, not a failure.
		errors.WriteSuccess(w, http.StatusOK, map[string]interface{}{
			"token":  token,
			"notice": tokens.ErrAlreadyRevoked.Error(),
		})
		return
	}
	if err != nil {
		writeTokenError(w, err)
		return
	}

	errors.WriteSuccess(w, http.StatusOK, map[string]interface{}{"token": token})
}

type RegenerateTokenRequest struct {
	ExpiresInDays int `json:"expires_in_days,omitempty"`
}

func (h *TokenHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var req RegenerateTokenRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
			return
		}
	}

	token, secret, err := h.tokenSvc.Regenerate(r.Context(), claims.UserID, paramFrom(r, "token_id"), req.ExpiresInDays)
	if err != nil {
		writeTokenError(w, err)
		return
	}

	errors.WriteSuccess(w, http.StatusOK, CreatedTokenResponse{Token: token, Secret: secret})
}

type UpdateAllowedIPsRequest struct {
	AllowedIPs []string `json:"allowed_ips"`
}

func (h *TokenHandler) UpdateAllowedIPs(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var req UpdateAllowedIPsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	token, err := h.tokenSvc.UpdateAllowedIPs(r.Context(), claims.UserID, paramFrom(r, "token_id"), req.AllowedIPs)
	if err != nil {
		writeTokenError(w, err)
		return
	}

	errors.WriteSuccess(w, http.StatusOK, token)
}

func (h *TokenHandler) Logs(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	// Ownership check first: foreign token ids surface as not found.
	token, err := h.tokenSvc.Get(r.Context(), claims.UserID, paramFrom(r, "token_id"))
	if err != nil {
		writeTokenError(w, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, total, err := h.recorder.ListByToken(r.Context(), token.ID, limit, offset)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	errors.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"token_id": token.ID,
		"total":    total,
		"entries":  entries,
	})
}

func writeTokenError(w http.ResponseWriter, err error) {
	switch err {
	case tokens.ErrNotFound:
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Token not found", nil)
	case tokens.ErrRevoked:
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
	case tokens.ErrInvalidExpiry, tokens.ErrNoScopes, tokens.ErrNameRequired:
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
	default:
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
	}
}
