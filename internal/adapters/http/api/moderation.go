// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ModerationHandler handles message screening and flagging requests.
type ModerationHandler struct {
	deps ModerationDependencies
}

// NewModerationHandler creates a new moderation handler.
func NewModerationHandler(deps ModerationDependencies) *ModerationHandler {
	return &ModerationHandler{deps: deps}
}

// screenTextRequest mirrors the OpenAPI schema for POST /moderation/text.
type screenTextRequest struct {
	SenderID string `json:"sender_id" validate:"required,max=128"`
	Text     string `json:"text"`
}

type allowedResponse struct {
	Allowed bool `json:"allowed"`
}

type flagResponse struct {
	UserID    string `json:"user_id"`
	Count     int    `json:"count"`
	Dangerous bool   `json:"dangerous"`
}

// HandleScreenText handles POST /moderation/text requests. A rejected
// message is a normal outcome and reports allowed=false with 200.
func (h *ModerationHandler) HandleScreenText(w http.ResponseWriter, r *http.Request) {
	const op = "api.screen_text"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req screenTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	allowed, err := h.deps.ModerateText(r.Context(), req.SenderID, req.Text)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, allowedResponse{Allowed: allowed})
}

// HandleFlagUser handles POST /moderation/flags/{id} requests.
func (h *ModerationHandler) HandleFlagUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/moderation/flags/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	count, dangerous := h.deps.FlagUser(r.Context(), id)
	writeJSON(w, http.StatusOK, flagResponse{UserID: id, Count: count, Dangerous: dangerous})
}

// HandleDangerous handles GET /moderation/dangerous requests.
func (h *ModerationHandler) HandleDangerous(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.DangerousUsers(r.Context()))
}
