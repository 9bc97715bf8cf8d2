// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/okabe/omiai/internal/adapters/consent"
	"github.com/okabe/omiai/internal/adapters/repository"
	"github.com/okabe/omiai/internal/adapters/roster"
	"github.com/okabe/omiai/internal/domain/geo"
	"github.com/okabe/omiai/internal/domain/match"
	"github.com/okabe/omiai/internal/domain/model"
	"github.com/okabe/omiai/internal/domain/moderation"
	"github.com/okabe/omiai/internal/domain/traits"
	"github.com/okabe/omiai/internal/domain/types"
	"github.com/okabe/omiai/pkg/logger"
	"github.com/okabe/omiai/pkg/metrics"
)

// ErrInvalidRadius is returned for nearby queries with a non-positive
// radius or a radius above the configured cap.
var ErrInvalidRadius = errors.New("invalid nearby radius")

// Service implements the API dependencies for the matchmaking system.
type Service struct {
	mu sync.RWMutex

	// Core components
	directory repository.Directory
	blocklist repository.Blocklist
	meetings  roster.Roster
	consents  consent.Registry
	engine    *match.Engine
	screener  *moderation.KeywordScreener
	flags     moderation.FlagTracker

	// Configuration
	weights         match.Weights
	nearRadiusKm    float64
	farScore        float64
	threshold       float64
	defaultRadiusKm float64
	maxRadiusKm     float64
	dangerThreshold int
	blockWords      []string
	traitProvider   traits.Provider
	prompter        consent.Prompter

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWeights sets the compatibility component weights. Invalid weights
// are ignored in favor of the defaults.
func WithWeights(w match.Weights) Option {
	return func(s *Service) {
		if w.Validate() == nil {
			s.weights = w
		}
	}
}

// WithNearRadius sets the distance at which two users count as near.
func WithNearRadius(km float64) Option {
	return func(s *Service) {
		if km > 0 {
			s.nearRadiusKm = km
		}
	}
}

// WithFarScore sets the proximity score for users beyond the near radius.
func WithFarScore(score float64) Option {
	return func(s *Service) {
		if score >= 0 && score <= 1 {
			s.farScore = score
		}
	}
}

// WithScheduleThreshold sets the minimum total score that schedules a
// meeting.
func WithScheduleThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold >= 0 && threshold <= 1 {
			s.threshold = threshold
		}
	}
}

// WithDefaultRadius sets the radius for nearby queries that omit one.
func WithDefaultRadius(km float64) Option {
	return func(s *Service) {
		if km > 0 {
			s.defaultRadiusKm = km
		}
	}
}

// WithMaxRadius caps the radius a nearby query may ask for.
func WithMaxRadius(km float64) Option {
	return func(s *Service) {
		if km > 0 {
			s.maxRadiusKm = km
		}
	}
}

// WithDangerThreshold sets the flag count at which a user counts as
// dangerous.
func WithDangerThreshold(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.dangerThreshold = count
		}
	}
}

// WithBlocklist overrides the built-in screening word list.
func WithBlocklist(words []string) Option {
	return func(s *Service) {
		if len(words) > 0 {
			s.blockWords = words
		}
	}
}

// WithTraitProvider sets the provider used for the trait component.
func WithTraitProvider(p traits.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.traitProvider = p
		}
	}
}

// WithPrompter sets the prompter used for consent requests.
func WithPrompter(p consent.Prompter) Option {
	return func(s *Service) {
		if p != nil {
			s.prompter = p
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		weights:         match.DefaultWeights(),
		nearRadiusKm:    10,
		farScore:        0.1,
		threshold:       0.7,
		defaultRadiusKm: 10,
		maxRadiusKm:     500,
		dangerThreshold: 3,
		traitProvider:   traits.NewLabelProvider(),
		prompter:        consent.StaticPrompter{},
		logger:          nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting matchmaking service...")

	// Initialize components
	s.directory = repository.NewMemoryDirectory()
	s.blocklist = repository.NewMemoryBlocklist()
	s.meetings = roster.NewMemoryRoster()
	s.consents = consent.NewMemoryRegistry(
		consent.WithPrompter(s.prompter),
	)
	s.engine = match.NewEngine(
		match.WithWeights(s.weights),
		match.WithNearRadius(s.nearRadiusKm),
		match.WithFarScore(s.farScore),
		match.WithThreshold(s.threshold),
		match.WithTraitProvider(s.traitProvider),
	)
	screenerOpts := []moderation.ScreenerOption{
		moderation.WithBlocker(s.blocklist),
	}
	if len(s.blockWords) > 0 {
		screenerOpts = append(screenerOpts, moderation.WithBlocklist(s.blockWords))
	}
	s.screener = moderation.NewKeywordScreener(screenerOpts...)
	s.flags = moderation.NewFlagTracker(
		moderation.WithDangerThreshold(s.dangerThreshold),
	)

	s.started = true
	s.logger.Info(ctx, "matchmaking service started",
		logger.Float64("nearRadiusKm", s.nearRadiusKm),
		logger.Float64("scheduleThreshold", s.threshold),
		logger.Int("dangerThreshold", s.dangerThreshold),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping matchmaking service...")
	s.started = false
	s.logger.Info(context.Background(), "matchmaking service stopped")
}

// CreateUser registers a user record. An empty id is replaced with a
// generated uuid; a carried location must hold valid coordinates.
func (s *Service) CreateUser(ctx context.Context, record model.UserRecord) (model.UserRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Location != nil {
		if err := record.Location.Validate(); err != nil {
			return model.UserRecord{}, err
		}
	}

	if err := s.directory.Create(ctx, record); err != nil {
		s.logger.Warn(ctx, "user creation rejected",
			logger.String("userID", record.ID),
			logger.Error(err),
		)
		return model.UserRecord{}, err
	}

	s.logger.Debug(ctx, "user created", logger.String("userID", record.ID))
	return record, nil
}

// GetUser returns a snapshot of the user record.
func (s *Service) GetUser(ctx context.Context, id string) (model.UserRecord, error) {
	return s.directory.Get(ctx, id)
}

// SaveLocation stores a user's location after the consent gate. A denial
// is a normal outcome: the location is not saved and no error is returned.
func (s *Service) SaveLocation(ctx context.Context, id string, location geo.Coordinates) (bool, error) {
	if err := location.Validate(); err != nil {
		return false, err
	}
	if _, err := s.directory.Get(ctx, id); err != nil {
		return false, err
	}

	if !s.consents.Get(ctx, id) {
		if !s.consents.Request(ctx, id) {
			s.logger.Warn(ctx, "location not saved without consent",
				logger.String("userID", id),
			)
			return false, nil
		}
	}

	if err := s.directory.SetLocation(ctx, id, location); err != nil {
		return false, err
	}
	return true, nil
}

// Consent returns the user's geolocation consent, recording the denied
// default for users that were never asked.
func (s *Service) Consent(ctx context.Context, id string) bool {
	return s.consents.Get(ctx, id)
}

// SetConsent records an explicit consent decision.
func (s *Service) SetConsent(ctx context.Context, id string, granted bool) {
	s.consents.Set(ctx, id, granted)
}

// SetInterests replaces the user's interest set.
func (s *Service) SetInterests(ctx context.Context, id string, interests []string) error {
	return s.directory.SetInterests(ctx, id, interests)
}

// SetPreferences replaces the user's game preferences and schedules.
func (s *Service) SetPreferences(ctx context.Context, id string, prefs model.Preferences) error {
	return s.directory.SetPreferences(ctx, id, prefs)
}

// Compatibility computes the component breakdown for a pair. A missing
// record yields the all-zero result alongside the lookup error.
func (s *Service) Compatibility(ctx context.Context, aID, bID string) (model.CompatibilityResult, error) {
	a, err := s.directory.Get(ctx, aID)
	if err != nil {
		return model.CompatibilityResult{}, err
	}
	b, err := s.directory.Get(ctx, bID)
	if err != nil {
		return model.CompatibilityResult{}, err
	}

	result := s.engine.Score(ctx, a, b)
	metrics.RecordCompatibilityCheck(result.Total)

	s.logger.Debug(ctx, "compatibility computed",
		logger.String("a", aID),
		logger.String("b", bID),
		logger.Float64("total", result.Total),
	)
	return result, nil
}

// ScheduleMeeting scores a pair and opens a roster meeting when the
// decision passes the threshold.
func (s *Service) ScheduleMeeting(ctx context.Context, aID, bID string) (model.MeetingDecision, error) {
	a, err := s.directory.Get(ctx, aID)
	if err != nil {
		return model.MeetingDecision{}, err
	}
	b, err := s.directory.Get(ctx, bID)
	if err != nil {
		return model.MeetingDecision{}, err
	}

	decision := s.engine.Decide(ctx, a, b)
	metrics.RecordCompatibilityCheck(decision.Score)

	if !decision.Scheduled {
		metrics.RecordMeetingDeclined()
		s.logger.Info(ctx, "meeting not scheduled",
			logger.String("a", aID),
			logger.String("b", bID),
			logger.Float64("score", decision.Score),
		)
		return decision, nil
	}

	meeting, err := s.meetings.Create(ctx, []string{a.ID, b.ID})
	if err != nil {
		return model.MeetingDecision{}, fmt.Errorf("schedule meeting: %w", err)
	}
	decision.MeetingID = meeting.ID
	metrics.RecordMeetingScheduled()

	s.logger.Info(ctx, "meeting scheduled",
		logger.String("a", aID),
		logger.String("b", bID),
		logger.Float64("score", decision.Score),
		logger.String("meetingID", meeting.ID),
	)
	return decision, nil
}

// Nearby lists registered users within radiusKm of the target, in
// registration order. A target without a location yields an empty list.
func (s *Service) Nearby(ctx context.Context, userID string, radiusKm float64) ([]types.NearbyUser, error) {
	if radiusKm <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRadius, radiusKm)
	}
	if radiusKm > s.maxRadiusKm {
		return nil, fmt.Errorf("%w: %v exceeds cap %v", ErrInvalidRadius, radiusKm, s.maxRadiusKm)
	}

	target, err := s.directory.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	found := s.engine.Nearby(target, s.directory.List(ctx), radiusKm)
	metrics.RecordNearbyQuery()

	s.logger.Debug(ctx, "nearby query served",
		logger.String("userID", userID),
		logger.Float64("radiusKm", radiusKm),
		logger.Int("found", len(found)),
	)
	return found, nil
}

// DefaultRadiusKm returns the radius used when a nearby query omits one.
func (s *Service) DefaultRadiusKm() float64 {
	return s.defaultRadiusKm
}

// CreateMeeting opens a meeting with the given participants.
func (s *Service) CreateMeeting(ctx context.Context, participants []string) (model.Meeting, error) {
	return s.meetings.Create(ctx, participants)
}

// GetMeeting returns the meeting for id.
func (s *Service) GetMeeting(ctx context.Context, id string) (model.Meeting, error) {
	return s.meetings.Get(ctx, id)
}

// JoinMeeting adds a user to a meeting.
func (s *Service) JoinMeeting(ctx context.Context, id, userID string) (model.Meeting, error) {
	return s.meetings.Join(ctx, id, userID)
}

// LeaveMeeting removes a user from a meeting.
func (s *Service) LeaveMeeting(ctx context.Context, id, userID string) (model.Meeting, error) {
	return s.meetings.Leave(ctx, id, userID)
}

// EndMeeting removes a meeting from the roster.
func (s *Service) EndMeeting(ctx context.Context, id string) error {
	return s.meetings.End(ctx, id)
}

// ModerateText screens a message. Blocklisted content blocks the sender
// as a side effect and reports the message as rejected.
func (s *Service) ModerateText(ctx context.Context, senderID, text string) (bool, error) {
	allowed, err := s.screener.ScreenText(ctx, senderID, text)
	metrics.RecordMessageScreened()
	if err != nil {
		return false, err
	}
	if !allowed {
		metrics.RecordMessageBlocked()
		s.logger.Info(ctx, "message rejected",
			logger.String("senderID", senderID),
		)
	}
	return allowed, nil
}

// FlagUser adds one flag to the user and reports whether they crossed
// the danger threshold.
func (s *Service) FlagUser(ctx context.Context, userID string) (int, bool) {
	count, dangerous := s.flags.Flag(ctx, userID)
	metrics.RecordUserFlagged()
	metrics.UpdateDangerousUsers(len(s.flags.Dangerous(ctx)))

	s.logger.Info(ctx, "user flagged",
		logger.String("userID", userID),
		logger.Int("count", count),
		logger.Bool("dangerous", dangerous),
	)
	return count, dangerous
}

// DangerousUsers lists users at or above the danger threshold, in
// first-flag order.
func (s *Service) DangerousUsers(ctx context.Context) []string {
	return s.flags.Dangerous(ctx)
}

// BlockEntry returns the block record for a user.
func (s *Service) BlockEntry(ctx context.Context, userID string) (model.BlockEntry, error) {
	return s.blocklist.Entry(ctx, userID)
}

// Unblock removes a user from the blocklist.
func (s *Service) Unblock(ctx context.Context, userID string) error {
	if err := s.blocklist.Unblock(ctx, userID); err != nil {
		s.logger.Warn(ctx, "unblock rejected",
			logger.String("userID", userID),
			logger.Error(err),
		)
		return err
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":           s.started,
		"scheduleThreshold": s.threshold,
		"dangerThreshold":   s.dangerThreshold,
	}

	if s.started {
		users := s.directory.Count(ctx)
		meetings := s.meetings.Count(ctx)
		blocked := s.blocklist.Count(ctx)
		dangerous := len(s.flags.Dangerous(ctx))

		stats["users"] = users
		stats["meetings"] = meetings
		stats["blocked"] = blocked
		stats["dangerous"] = dangerous
		stats["flagged"] = s.flags.Size()
		stats["consents"] = s.consents.Count(ctx)
		stats["consentsGranted"] = s.consents.Granted(ctx)

		// Update metrics
		metrics.UpdateRegisteredUsers(users)
		metrics.UpdateActiveMeetings(meetings)
		metrics.UpdateBlockedUsers(blocked)
		metrics.UpdateDangerousUsers(dangerous)
	}

	return stats
}
