// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okabe/omiai/internal/domain/model"
)

// MeetingsHandler handles meeting lifecycle requests.
type MeetingsHandler struct {
	deps MeetingDependencies
}

// NewMeetingsHandler creates a new meetings handler.
func NewMeetingsHandler(deps MeetingDependencies) *MeetingsHandler {
	return &MeetingsHandler{deps: deps}
}

// meetingRequest mirrors the OpenAPI schema for POST /meetings.
type meetingRequest struct {
	Participants []string `json:"participants" validate:"omitempty,dive,max=128"`
}

type participantRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`
}

// HandleMeetings handles POST /meetings requests.
func (h *MeetingsHandler) HandleMeetings(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_meeting"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	meeting, err := h.deps.CreateMeeting(r.Context(), req.Participants)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, meetingFromDomain(meeting))
}

// HandleMeetingByID routes GET and DELETE /meetings/{id} as well as the
// join and leave subresources.
func (h *MeetingsHandler) HandleMeetingByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/meetings/")
	parts := strings.Split(rest, "/")
	if parts[0] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	id := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleGet(w, r, id)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.handleEnd(w, r, id)
	case len(parts) == 2 && parts[1] == "join":
		h.handleMembership(w, r, id, h.deps.JoinMeeting, "api.join_meeting")
	case len(parts) == 2 && parts[1] == "leave":
		h.handleMembership(w, r, id, h.deps.LeaveMeeting, "api.leave_meeting")
	default:
		http.NotFound(w, r)
	}
}

func (h *MeetingsHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.get_meeting"
	meeting, err := h.deps.GetMeeting(r.Context(), id)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, meetingFromDomain(meeting))
}

func (h *MeetingsHandler) handleEnd(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.end_meeting"
	if err := h.deps.EndMeeting(r.Context(), id); err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ended"})
}

type membershipFunc func(ctx context.Context, meetingID, userID string) (model.Meeting, error)

func (h *MeetingsHandler) handleMembership(w http.ResponseWriter, r *http.Request, id string, apply membershipFunc, op string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req participantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	meeting, err := apply(r.Context(), id, req.UserID)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, meetingFromDomain(meeting))
}
