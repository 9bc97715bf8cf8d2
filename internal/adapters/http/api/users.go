// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okabe/omiai/internal/domain/model"
)

// UsersHandler handles user directory requests.
type UsersHandler struct {
	deps UserDependencies
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(deps UserDependencies) *UsersHandler {
	return &UsersHandler{deps: deps}
}

// createUserRequest mirrors the OpenAPI schema for POST /users.
type createUserRequest struct {
	ID        string              `json:"id" validate:"omitempty,max=128"`
	Name      string              `json:"name" validate:"required,max=256"`
	Location  *coordinatesPayload `json:"location"`
	Interests []string            `json:"interests" validate:"omitempty,dive,max=128"`
	Traits    []string            `json:"traits" validate:"omitempty,dive,max=128"`
}

type savedResponse struct {
	Saved bool `json:"saved"`
}

type consentRequest struct {
	Granted bool `json:"granted"`
}

type interestsRequest struct {
	Interests []string `json:"interests" validate:"omitempty,dive,max=128"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// HandleUsers handles POST /users requests.
func (h *UsersHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_user"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	record := model.UserRecord{
		ID:        req.ID,
		Name:      req.Name,
		Interests: req.Interests,
		Traits:    req.Traits,
	}
	if req.Location != nil {
		loc := req.Location.toDomain()
		record.Location = &loc
	}

	created, err := h.deps.CreateUser(r.Context(), record)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, userFromDomain(created))
}

// HandleUserByID routes GET /users/{id} and the location, consent,
// interests and preferences subresources.
func (h *UsersHandler) HandleUserByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/users/")
	parts := strings.Split(rest, "/")
	if parts[0] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	id := parts[0]

	switch {
	case len(parts) == 1:
		h.handleGet(w, r, id)
	case len(parts) == 2 && parts[1] == "location":
		h.handleLocation(w, r, id)
	case len(parts) == 2 && parts[1] == "consent":
		h.handleConsent(w, r, id)
	case len(parts) == 2 && parts[1] == "interests":
		h.handleInterests(w, r, id)
	case len(parts) == 2 && parts[1] == "preferences":
		h.handlePreferences(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *UsersHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.get_user"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	record, err := h.deps.GetUser(r.Context(), id)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, userFromDomain(record))
}

func (h *UsersHandler) handleLocation(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.save_location"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req coordinatesPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	saved, err := h.deps.SaveLocation(r.Context(), id, req.toDomain())
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	// A consent denial is a normal outcome, not an error.
	writeJSON(w, http.StatusOK, savedResponse{Saved: saved})
}

func (h *UsersHandler) handleConsent(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.consent"
	switch r.Method {
	case http.MethodGet:
		granted := h.deps.Consent(r.Context(), id)
		writeJSON(w, http.StatusOK, model.ConsentStatus{UserID: id, Granted: granted})
	case http.MethodPut:
		var req consentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		h.deps.SetConsent(r.Context(), id, req.Granted)
		writeJSON(w, http.StatusOK, model.ConsentStatus{UserID: id, Granted: req.Granted})
	default:
		http.NotFound(w, r)
	}
}

func (h *UsersHandler) handleInterests(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.set_interests"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req interestsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.SetInterests(r.Context(), id, req.Interests); err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "updated"})
}

func (h *UsersHandler) handlePreferences(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.set_preferences"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req preferencesPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.SetPreferences(r.Context(), id, req.toDomain()); err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "updated"})
}
