// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// MatchesHandler handles compatibility scoring and matchmaking requests.
type MatchesHandler struct {
	deps MatchDependencies
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps MatchDependencies) *MatchesHandler {
	return &MatchesHandler{deps: deps}
}

// matchRequest mirrors the OpenAPI schema for POST /matches.
type matchRequest struct {
	A string `json:"a" validate:"required,max=128"`
	B string `json:"b" validate:"required,max=128"`
}

// HandleGetCompatibility handles GET /compatibility?a={id}&b={id} requests.
func (h *MatchesHandler) HandleGetCompatibility(w http.ResponseWriter, r *http.Request) {
	const op = "api.compatibility"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	a := r.URL.Query().Get("a")
	b := r.URL.Query().Get("b")
	if a == "" || b == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	result, err := h.deps.Compatibility(r.Context(), a, b)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandlePostMatch handles POST /matches requests. Both decision outcomes
// are reported with 200: a declined pair is not an error.
func (h *MatchesHandler) HandlePostMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.match"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	decision, err := h.deps.ScheduleMeeting(r.Context(), req.A, req.B)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

// HandleGetNearby handles GET /nearby?user={id}&radius={km} requests.
// When radius is absent the configured default is used.
func (h *MatchesHandler) HandleGetNearby(w http.ResponseWriter, r *http.Request) {
	const op = "api.nearby"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := r.URL.Query().Get("user")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	radiusKm := h.deps.DefaultRadiusKm()
	if raw := r.URL.Query().Get("radius"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		radiusKm = parsed
	}

	nearby, err := h.deps.Nearby(r.Context(), userID, radiusKm)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, nearby)
}
