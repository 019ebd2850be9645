package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"patvault/internal/api/middleware"
	"patvault/internal/pkg/errors"
	"patvault/internal/platform/repositories"
)

// UserHandler serves the PAT-protected user surface.
type UserHandler struct {
	userRepo *repositories.UserRepository
}

func NewUserHandler(userRepo *repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	result := middleware.AuthzResult(r)

	user, err := h.userRepo.GetByID(result.UserID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "User not found", nil)
		return
	}

	errors.WriteSuccess(w, http.StatusOK, user)
}

type UpdateMeRequest struct {
	FullName string `json:"full_name"`
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	result := middleware.AuthzResult(r)

	var req UpdateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.FullName == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "full_name is required", nil)
		return
	}

	user, err := h.userRepo.GetByID(result.UserID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "User not found", nil)
		return
	}

	user.FullName = req.FullName
	user.UpdatedAt = time.Now().Unix()
	if err := h.userRepo.Update(user); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	errors.WriteSuccess(w, http.StatusOK, user)
}
