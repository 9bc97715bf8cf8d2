// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/okabe/omiai/internal/adapters/repository"
	"github.com/okabe/omiai/internal/adapters/roster"
	service "github.com/okabe/omiai/internal/app"
	"github.com/okabe/omiai/internal/domain/geo"
	"github.com/okabe/omiai/internal/domain/model"
	"github.com/okabe/omiai/internal/domain/moderation"
	"github.com/okabe/omiai/internal/domain/types"
)

// UserDependencies covers directory and consent operations.
type UserDependencies interface {
	CreateUser(ctx context.Context, record model.UserRecord) (model.UserRecord, error)
	GetUser(ctx context.Context, id string) (model.UserRecord, error)
	SaveLocation(ctx context.Context, id string, location geo.Coordinates) (bool, error)
	Consent(ctx context.Context, id string) bool
	SetConsent(ctx context.Context, id string, granted bool)
	SetInterests(ctx context.Context, id string, interests []string) error
	SetPreferences(ctx context.Context, id string, prefs model.Preferences) error
}

// MatchDependencies covers pairwise scoring and the nearby finder.
type MatchDependencies interface {
	Compatibility(ctx context.Context, aID, bID string) (model.CompatibilityResult, error)
	ScheduleMeeting(ctx context.Context, aID, bID string) (model.MeetingDecision, error)
	Nearby(ctx context.Context, userID string, radiusKm float64) ([]types.NearbyUser, error)
	DefaultRadiusKm() float64
}

// MeetingDependencies covers roster bookkeeping.
type MeetingDependencies interface {
	CreateMeeting(ctx context.Context, participants []string) (model.Meeting, error)
	GetMeeting(ctx context.Context, id string) (model.Meeting, error)
	JoinMeeting(ctx context.Context, id, userID string) (model.Meeting, error)
	LeaveMeeting(ctx context.Context, id, userID string) (model.Meeting, error)
	EndMeeting(ctx context.Context, id string) error
}

// ModerationDependencies covers screening and flagging.
type ModerationDependencies interface {
	ModerateText(ctx context.Context, senderID, text string) (bool, error)
	FlagUser(ctx context.Context, userID string) (int, bool)
	DangerousUsers(ctx context.Context) []string
}

// BlockDependencies covers blocklist inspection.
type BlockDependencies interface {
	BlockEntry(ctx context.Context, userID string) (model.BlockEntry, error)
	Unblock(ctx context.Context, userID string) error
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	UserDependencies
	MatchDependencies
	MeetingDependencies
	ModerationDependencies
	BlockDependencies
}

// NearbyUser mirrors the read shape returned by nearby queries.
type NearbyUser = types.NearbyUser

// validate checks request payloads against their struct tag constraints.
var validate = validator.New()

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	usersHandler      *UsersHandler
	matchesHandler    *MatchesHandler
	meetingsHandler   *MeetingsHandler
	moderationHandler *ModerationHandler
	blocksHandler     *BlocksHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		usersHandler:      NewUsersHandler(deps),
		matchesHandler:    NewMatchesHandler(deps),
		meetingsHandler:   NewMeetingsHandler(deps),
		moderationHandler: NewModerationHandler(deps),
		blocksHandler:     NewBlocksHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.HandleMetrics())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/users", MetricsMiddleware(s.usersHandler.HandleUsers, "users"))
	mux.HandleFunc("/users/", MetricsMiddleware(s.usersHandler.HandleUserByID, "users"))
	mux.HandleFunc("/compatibility", MetricsMiddleware(s.matchesHandler.HandleGetCompatibility, "compatibility"))
	mux.HandleFunc("/matches", MetricsMiddleware(s.matchesHandler.HandlePostMatch, "matches"))
	mux.HandleFunc("/nearby", MetricsMiddleware(s.matchesHandler.HandleGetNearby, "nearby"))
	mux.HandleFunc("/meetings", MetricsMiddleware(s.meetingsHandler.HandleMeetings, "meetings"))
	mux.HandleFunc("/meetings/", MetricsMiddleware(s.meetingsHandler.HandleMeetingByID, "meetings"))
	mux.HandleFunc("/moderation/text", MetricsMiddleware(s.moderationHandler.HandleScreenText, "moderation_text"))
	mux.HandleFunc("/moderation/flags/", MetricsMiddleware(s.moderationHandler.HandleFlagUser, "moderation_flags"))
	mux.HandleFunc("/moderation/dangerous", MetricsMiddleware(s.moderationHandler.HandleDangerous, "moderation_dangerous"))
	mux.HandleFunc("/blocks/", MetricsMiddleware(s.blocksHandler.HandleBlockByID, "blocks"))
}

// coordinatesPayload mirrors the OpenAPI schema for a location.
type coordinatesPayload struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

func (c coordinatesPayload) toDomain() geo.Coordinates {
	return geo.Coordinates{Lat: c.Lat, Lon: c.Lon}
}

// preferencesPayload mirrors the OpenAPI schema for user preferences.
// Weekdays follow Go's numbering: 0 is Sunday through 6 is Saturday.
type preferencesPayload struct {
	Games             []string `json:"games" validate:"omitempty,dive,max=128"`
	SpeedDatingDays   []int    `json:"speed_dating_days" validate:"omitempty,dive,gte=0,lte=6"`
	BlindMatchingDays []int    `json:"blind_matching_days" validate:"omitempty,dive,gte=0,lte=6"`
}

func (p preferencesPayload) toDomain() model.Preferences {
	return model.Preferences{
		Games:             p.Games,
		SpeedDatingDays:   toWeekdays(p.SpeedDatingDays),
		BlindMatchingDays: toWeekdays(p.BlindMatchingDays),
	}
}

func preferencesFromDomain(p model.Preferences) preferencesPayload {
	return preferencesPayload{
		Games:             p.Games,
		SpeedDatingDays:   fromWeekdays(p.SpeedDatingDays),
		BlindMatchingDays: fromWeekdays(p.BlindMatchingDays),
	}
}

// userResponse mirrors the read shape of a directory record.
type userResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Location    *coordinatesPayload `json:"location,omitempty"`
	Interests   []string            `json:"interests"`
	Traits      []string            `json:"traits"`
	Preferences preferencesPayload  `json:"preferences"`
}

func userFromDomain(record model.UserRecord) userResponse {
	out := userResponse{
		ID:          record.ID,
		Name:        record.Name,
		Interests:   record.Interests,
		Traits:      record.Traits,
		Preferences: preferencesFromDomain(record.Preferences),
	}
	if record.Location != nil {
		out.Location = &coordinatesPayload{Lat: record.Location.Lat, Lon: record.Location.Lon}
	}
	return out
}

// meetingResponse mirrors the read shape of a roster meeting.
type meetingResponse struct {
	MeetingID    string   `json:"meeting_id"`
	Participants []string `json:"participants"`
	CreatedAt    string   `json:"created_at"`
}

func meetingFromDomain(meeting model.Meeting) meetingResponse {
	return meetingResponse{
		MeetingID:    meeting.ID,
		Participants: meeting.Participants,
		CreatedAt:    meeting.CreatedAt.UTC().Format(timeFormat),
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, repository.ErrNotBlocked) ||
		errors.Is(err, roster.ErrNotFound) ||
		errors.Is(err, roster.ErrNotParticipant)
}

// isConflict translates duplicate-state errors to 409.
func isConflict(err error) bool {
	return errors.Is(err, repository.ErrAlreadyExists) ||
		errors.Is(err, roster.ErrAlreadyJoined)
}

// isValidation translates malformed-input errors to 400.
func isValidation(err error) bool {
	return errors.Is(err, geo.ErrInvalidCoordinates) ||
		errors.Is(err, moderation.ErrInvalidContent) ||
		errors.Is(err, service.ErrInvalidRadius)
}

// writeDomainError maps a service error onto the HTTP taxonomy.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case isConflict(err):
		writeError(w, http.StatusConflict, "conflict", Wrap(op, err))
	case isValidation(err):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
