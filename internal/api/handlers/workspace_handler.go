package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"patvault/internal/api/middleware"
	"patvault/internal/pkg/errors"
)

// WorkspaceHandler is a demonstration resource surface. Workspaces live
// in memory only; the point of these endpoints is to exercise the scope
// hierarchy (admin > delete > write > read) end to end.
type WorkspaceHandler struct{}

func NewWorkspaceHandler() *WorkspaceHandler {
	return &WorkspaceHandler{}
}

type Workspace struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"owner_id"`
	CreatedAt int64  `json:"created_at"`
}

func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	result := middleware.AuthzResult(r)

	workspaces := []Workspace{
		{ID: "ws_" + uuid.NewString(), Name: "Default Workspace", OwnerID: result.UserID, CreatedAt: time.Now().Unix()},
	}
	errors.WriteSuccess(w, http.StatusOK, map[string]any{
		"workspaces": workspaces,
		"total":      len(workspaces),
	})
}

type CreateWorkspaceRequest struct {
	Name string `json:"name"`
}

func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	result := middleware.AuthzResult(r)

	var req CreateWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "name is required", nil)
		return
	}

	ws := Workspace{
		ID:        "ws_" + uuid.NewString(),
		Name:      req.Name,
		OwnerID:   result.UserID,
		CreatedAt: time.Now().Unix(),
	}
	errors.WriteSuccess(w, http.StatusCreated, ws)
}

func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := paramFrom(r, "workspace_id")
	errors.WriteSuccess(w, http.StatusOK, map[string]any{
		"deleted": true,
		"id":      id,
	})
}

type WorkspaceSettingsRequest struct {
	Settings map[string]any `json:"settings"`
}

func (h *WorkspaceHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	id := paramFrom(r, "workspace_id")

	var req WorkspaceSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	errors.WriteSuccess(w, http.StatusOK, map[string]any{
		"id":       id,
		"settings": req.Settings,
	})
}
