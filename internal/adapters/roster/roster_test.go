package roster

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryRoster(t *testing.T) {
	Convey("Given an empty in-memory roster", t, func() {
		ctx := context.Background()
		r := NewMemoryRoster()

		Convey("When creating a meeting with two participants", func() {
			meeting, err := r.Create(ctx, []string{"user-1", "user-2"})

			Convey("Then the meeting should have a unique id and ordered participants", func() {
				So(err, ShouldBeNil)
				So(meeting.ID, ShouldNotBeEmpty)
				So(meeting.Participants, ShouldResemble, []string{"user-1", "user-2"})
				So(meeting.CreatedAt.IsZero(), ShouldBeFalse)
				So(r.Count(ctx), ShouldEqual, 1)
			})

			Convey("And a second meeting should get a different id", func() {
				other, cerr := r.Create(ctx, []string{"user-3"})
				So(cerr, ShouldBeNil)
				So(other.ID, ShouldNotEqual, meeting.ID)
				So(r.Count(ctx), ShouldEqual, 2)
			})

			Convey("And mutating the returned participants should not touch the roster", func() {
				meeting.Participants[0] = "intruder"
				stored, gerr := r.Get(ctx, meeting.ID)
				So(gerr, ShouldBeNil)
				So(stored.Participants, ShouldResemble, []string{"user-1", "user-2"})
			})
		})

		Convey("When creating a meeting with no participants", func() {
			meeting, err := r.Create(ctx, nil)

			Convey("Then the meeting should open empty", func() {
				So(err, ShouldBeNil)
				So(meeting.Participants, ShouldBeEmpty)
			})
		})

		Convey("When getting an unknown meeting", func() {
			_, err := r.Get(ctx, "missing")

			Convey("Then it should report ErrNotFound", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a user joins a meeting", func() {
			meeting, _ := r.Create(ctx, []string{"user-1", "user-2"})
			joined, err := r.Join(ctx, meeting.ID, "user-3")

			Convey("Then the user should be appended in order", func() {
				So(err, ShouldBeNil)
				So(joined.Participants, ShouldResemble, []string{"user-1", "user-2", "user-3"})
			})

			Convey("And joining the same meeting again should be rejected", func() {
				_, jerr := r.Join(ctx, meeting.ID, "user-3")
				So(jerr, ShouldNotBeNil)
				So(errors.Is(jerr, ErrAlreadyJoined), ShouldBeTrue)

				stored, _ := r.Get(ctx, meeting.ID)
				So(stored.Participants, ShouldResemble, []string{"user-1", "user-2", "user-3"})
			})

			Convey("And joining an unknown meeting should report ErrNotFound", func() {
				_, jerr := r.Join(ctx, "missing", "user-3")
				So(errors.Is(jerr, ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a user leaves a meeting", func() {
			meeting, _ := r.Create(ctx, []string{"user-1", "user-2", "user-3"})
			left, err := r.Leave(ctx, meeting.ID, "user-2")

			Convey("Then the remaining participants should keep their order", func() {
				So(err, ShouldBeNil)
				So(left.Participants, ShouldResemble, []string{"user-1", "user-3"})
				So(r.Count(ctx), ShouldEqual, 1)
			})

			Convey("And leaving twice should report ErrNotParticipant", func() {
				_, lerr := r.Leave(ctx, meeting.ID, "user-2")
				So(lerr, ShouldNotBeNil)
				So(errors.Is(lerr, ErrNotParticipant), ShouldBeTrue)
			})

			Convey("And an outsider leaving should report ErrNotParticipant", func() {
				_, lerr := r.Leave(ctx, meeting.ID, "stranger")
				So(errors.Is(lerr, ErrNotParticipant), ShouldBeTrue)
			})

			Convey("And leaving an unknown meeting should report ErrNotFound", func() {
				_, lerr := r.Leave(ctx, "missing", "user-1")
				So(errors.Is(lerr, ErrNotFound), ShouldBeTrue)
			})

			Convey("And the meeting should stay open even when everyone leaves", func() {
				_, _ = r.Leave(ctx, meeting.ID, "user-1")
				_, _ = r.Leave(ctx, meeting.ID, "user-3")

				stored, gerr := r.Get(ctx, meeting.ID)
				So(gerr, ShouldBeNil)
				So(stored.Participants, ShouldBeEmpty)
			})
		})

		Convey("When ending a meeting", func() {
			meeting, _ := r.Create(ctx, []string{"user-1", "user-2"})
			err := r.End(ctx, meeting.ID)

			Convey("Then the meeting should be gone", func() {
				So(err, ShouldBeNil)
				So(r.Count(ctx), ShouldEqual, 0)

				_, gerr := r.Get(ctx, meeting.ID)
				So(errors.Is(gerr, ErrNotFound), ShouldBeTrue)
			})

			Convey("And ending it again should report ErrNotFound", func() {
				So(errors.Is(r.End(ctx, meeting.ID), ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When several meetings are created and one ends", func() {
			first, _ := r.Create(ctx, []string{"a"})
			second, _ := r.Create(ctx, []string{"b"})
			third, _ := r.Create(ctx, []string{"c"})
			So(r.End(ctx, second.ID), ShouldBeNil)

			Convey("Then List should keep creation order for the survivors", func() {
				meetings := r.List(ctx)
				So(meetings, ShouldHaveLength, 2)
				So(meetings[0].ID, ShouldEqual, first.ID)
				So(meetings[1].ID, ShouldEqual, third.ID)
			})
		})

		Convey("When many goroutines create and join meetings concurrently", func() {
			const workers = 20
			meeting, _ := r.Create(ctx, nil)

			var wg sync.WaitGroup
			wg.Add(workers)
			for i := 0; i < workers; i++ {
				go func(n int) {
					defer wg.Done()
					_, _ = r.Create(ctx, []string{fmt.Sprintf("solo-%d", n)})
					_, _ = r.Join(ctx, meeting.ID, fmt.Sprintf("user-%d", n))
				}(i)
			}
			wg.Wait()

			Convey("Then every create and join should have landed", func() {
				So(r.Count(ctx), ShouldEqual, workers+1)

				stored, err := r.Get(ctx, meeting.ID)
				So(err, ShouldBeNil)
				So(stored.Participants, ShouldHaveLength, workers)
			})
		})
	})
}
