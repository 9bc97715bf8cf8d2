package consent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type recordingPrompter struct {
	mu     sync.Mutex
	asked  []string
	answer bool
	err    error
}

func (p *recordingPrompter) Ask(_ context.Context, userID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked = append(p.asked, userID)
	return p.answer, p.err
}

func TestMemoryRegistry(t *testing.T) {
	Convey("Given a fresh consent registry", t, func() {
		ctx := context.Background()
		r := NewMemoryRegistry()

		Convey("When checking a user that was never asked", func() {
			granted := r.Get(ctx, "user-1")

			Convey("Then consent should default to denied and be recorded", func() {
				So(granted, ShouldBeFalse)
				So(r.Count(ctx), ShouldEqual, 1)

				status, ok := r.Status(ctx, "user-1")
				So(ok, ShouldBeTrue)
				So(status.Granted, ShouldBeFalse)
			})
		})

		Convey("When setting consent explicitly", func() {
			r.Set(ctx, "user-1", true)

			Convey("Then Get should return the grant", func() {
				So(r.Get(ctx, "user-1"), ShouldBeTrue)
				So(r.Granted(ctx), ShouldEqual, 1)
			})

			Convey("And revoking should flip it back", func() {
				r.Set(ctx, "user-1", false)
				So(r.Get(ctx, "user-1"), ShouldBeFalse)
				So(r.Granted(ctx), ShouldEqual, 0)
			})
		})

		Convey("When checking status without a recorded decision", func() {
			_, ok := r.Status(ctx, "ghost")

			Convey("Then no decision should be materialized", func() {
				So(ok, ShouldBeFalse)
				So(r.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When many goroutines check the same user", func() {
			const workers = 30
			var wg sync.WaitGroup
			wg.Add(workers)
			for i := 0; i < workers; i++ {
				go func() {
					defer wg.Done()
					_ = r.Get(ctx, "user-1")
				}()
			}
			wg.Wait()

			Convey("Then exactly one denial should be recorded", func() {
				So(r.Count(ctx), ShouldEqual, 1)
				So(r.Get(ctx, "user-1"), ShouldBeFalse)
			})
		})
	})
}

func TestRequest(t *testing.T) {
	Convey("Given a registry with a recording prompter", t, func() {
		ctx := context.Background()

		Convey("When the user answers yes", func() {
			prompter := &recordingPrompter{answer: true}
			r := NewMemoryRegistry(WithPrompter(prompter))
			granted := r.Request(ctx, "user-1")

			Convey("Then the grant should be recorded", func() {
				So(granted, ShouldBeTrue)
				So(r.Get(ctx, "user-1"), ShouldBeTrue)
				So(prompter.asked, ShouldResemble, []string{"user-1"})
			})
		})

		Convey("When the user answers no", func() {
			prompter := &recordingPrompter{answer: false}
			r := NewMemoryRegistry(WithPrompter(prompter))
			granted := r.Request(ctx, "user-1")

			Convey("Then the denial should be recorded", func() {
				So(granted, ShouldBeFalse)
				So(r.Get(ctx, "user-1"), ShouldBeFalse)
			})
		})

		Convey("When the prompt fails", func() {
			prompter := &recordingPrompter{answer: true, err: errors.New("terminal gone")}
			r := NewMemoryRegistry(WithPrompter(prompter))
			granted := r.Request(ctx, "user-1")

			Convey("Then the failure should count as a denial, not an error", func() {
				So(granted, ShouldBeFalse)
				So(r.Get(ctx, "user-1"), ShouldBeFalse)
			})
		})

		Convey("When a func prompter is used", func() {
			r := NewMemoryRegistry(WithPrompter(PrompterFunc(
				func(_ context.Context, userID string) (bool, error) {
					return userID == "vip", nil
				},
			)))

			Convey("Then the answer should follow the function", func() {
				So(r.Request(ctx, "vip"), ShouldBeTrue)
				So(r.Request(ctx, "user-1"), ShouldBeFalse)
			})
		})

		Convey("When no prompter is configured", func() {
			r := NewMemoryRegistry()
			granted := r.Request(ctx, "user-1")

			Convey("Then the default prompter should deny", func() {
				So(granted, ShouldBeFalse)
				So(r.Get(ctx, "user-1"), ShouldBeFalse)
			})
		})

		Convey("When a nil prompter option is applied", func() {
			r := NewMemoryRegistry(WithPrompter(nil))

			Convey("Then the default prompter should survive", func() {
				So(r.Request(ctx, "user-1"), ShouldBeFalse)
			})
		})

		Convey("When several users are prompted", func() {
			prompter := &recordingPrompter{answer: true}
			r := NewMemoryRegistry(WithPrompter(prompter))
			for i := 0; i < 3; i++ {
				_ = r.Request(ctx, fmt.Sprintf("user-%d", i))
			}

			Convey("Then every decision should be recorded", func() {
				So(r.Count(ctx), ShouldEqual, 3)
				So(r.Granted(ctx), ShouldEqual, 3)
			})
		})
	})
}
