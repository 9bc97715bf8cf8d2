// Package roster keeps the in-memory meeting roster.
package roster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okabe/omiai/internal/domain/model"
	"github.com/okabe/omiai/pkg/metrics"
)

// Roster manages meetings and their ordered participant lists. Reads return
// copies; mutating a returned meeting never touches the roster.
type Roster interface {
	// Create opens a meeting with the given participants, in order.
	Create(ctx context.Context, participants []string) (model.Meeting, error)

	// Get returns the meeting for id.
	// Returns ErrNotFound when the meeting is unknown.
	Get(ctx context.Context, id string) (model.Meeting, error)

	// Join appends userID to the meeting's participants.
	// Returns ErrAlreadyJoined when the user is already in the meeting.
	Join(ctx context.Context, id, userID string) (model.Meeting, error)

	// Leave removes userID from the meeting's participants.
	// Returns ErrNotParticipant when the user is not in the meeting.
	Leave(ctx context.Context, id, userID string) (model.Meeting, error)

	// End removes the whole meeting.
	End(ctx context.Context, id string) error

	// List returns all meetings in creation order.
	List(ctx context.Context) []model.Meeting

	// Count returns the number of open meetings.
	Count(ctx context.Context) int
}

// MemoryRoster implements Roster with a mutex-guarded map. Meeting ids are
// uuids, so ids stay unique across the lifetime of the roster no matter how
// many meetings end.
type MemoryRoster struct {
	mu    sync.RWMutex
	byID  map[string]model.Meeting
	order []string
	now   func() time.Time
}

// NewMemoryRoster constructs an empty in-memory roster.
func NewMemoryRoster() *MemoryRoster {
	return &MemoryRoster{
		byID: make(map[string]model.Meeting),
		now:  time.Now,
	}
}

// Create opens a meeting with the given participants.
func (r *MemoryRoster) Create(_ context.Context, participants []string) (model.Meeting, error) {
	meeting := model.Meeting{
		ID:           uuid.NewString(),
		Participants: append([]string(nil), participants...),
		CreatedAt:    r.now(),
	}

	r.mu.Lock()
	r.byID[meeting.ID] = meeting
	r.order = append(r.order, meeting.ID)
	count := len(r.byID)
	r.mu.Unlock()

	metrics.UpdateActiveMeetings(count)
	return cloneMeeting(meeting), nil
}

// Get returns a copy of the meeting for id.
func (r *MemoryRoster) Get(_ context.Context, id string) (model.Meeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meeting, ok := r.byID[id]
	if !ok {
		return model.Meeting{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return cloneMeeting(meeting), nil
}

// Join appends userID to the meeting's participants.
func (r *MemoryRoster) Join(_ context.Context, id, userID string) (model.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	meeting, ok := r.byID[id]
	if !ok {
		return model.Meeting{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	for _, participant := range meeting.Participants {
		if participant == userID {
			return model.Meeting{}, fmt.Errorf("%w: %q in meeting %q", ErrAlreadyJoined, userID, id)
		}
	}

	meeting.Participants = append(append([]string(nil), meeting.Participants...), userID)
	r.byID[id] = meeting
	return cloneMeeting(meeting), nil
}

// Leave removes userID from the meeting's participants.
func (r *MemoryRoster) Leave(_ context.Context, id, userID string) (model.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	meeting, ok := r.byID[id]
	if !ok {
		return model.Meeting{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	remaining := make([]string, 0, len(meeting.Participants))
	found := false
	for _, participant := range meeting.Participants {
		if participant == userID && !found {
			found = true
			continue
		}
		remaining = append(remaining, participant)
	}
	if !found {
		return model.Meeting{}, fmt.Errorf("%w: %q in meeting %q", ErrNotParticipant, userID, id)
	}

	meeting.Participants = remaining
	r.byID[id] = meeting
	return cloneMeeting(meeting), nil
}

// End removes the whole meeting.
func (r *MemoryRoster) End(_ context.Context, id string) error {
	r.mu.Lock()
	if _, ok := r.byID[id]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(r.byID, id)
	for i, meetingID := range r.order {
		if meetingID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	count := len(r.byID)
	r.mu.Unlock()

	metrics.UpdateActiveMeetings(count)
	return nil
}

// List returns copies of all meetings in creation order.
func (r *MemoryRoster) List(_ context.Context) []model.Meeting {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Meeting, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, cloneMeeting(r.byID[id]))
	}
	return out
}

// Count returns the number of open meetings.
func (r *MemoryRoster) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func cloneMeeting(m model.Meeting) model.Meeting {
	out := m
	out.Participants = append([]string(nil), m.Participants...)
	return out
}
