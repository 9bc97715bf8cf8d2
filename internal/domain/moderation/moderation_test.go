package moderation_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	moderation "github.com/okabe/omiai/internal/domain/moderation"
	. "github.com/smartystreets/goconvey/convey"
)

// recordingBlocker captures block calls for assertions.
type recordingBlocker struct {
	mu      sync.Mutex
	calls   []string
	reasons []string
	err     error
}

func (b *recordingBlocker) Block(_ context.Context, userID, reason string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.calls = append(b.calls, userID)
	b.reasons = append(b.reasons, reason)
	return nil
}

func TestKeywordScreenerText(t *testing.T) {
	Convey("Given a keyword screener with a blocker", t, func() {
		blocker := &recordingBlocker{}
		screener := moderation.NewKeywordScreener(
			moderation.WithBlocklist([]string{"spam", "scam"}),
			moderation.WithBlocker(blocker),
		)
		ctx := context.Background()

		Convey("When the message is clean", func() {
			allowed, err := screener.ScreenText(ctx, "user-1", "fancy meeting you here")

			Convey("Then it should be allowed", func() {
				So(err, ShouldBeNil)
				So(allowed, ShouldBeTrue)
				So(blocker.calls, ShouldBeEmpty)
			})
		})

		Convey("When the message contains a blocklisted term", func() {
			allowed, err := screener.ScreenText(ctx, "user-2", "this is spam content")

			Convey("Then it should be rejected", func() {
				So(err, ShouldBeNil)
				So(allowed, ShouldBeFalse)
			})

			Convey("And the sender should be blocked once with the standard reason", func() {
				So(blocker.calls, ShouldResemble, []string{"user-2"})
				So(blocker.reasons[0], ShouldEqual, moderation.DefaultBlockReason)
			})
		})

		Convey("When the message matches in a different case", func() {
			allowed, err := screener.ScreenText(ctx, "user-3", "Total SCAM, avoid")

			Convey("Then matching should be case-insensitive", func() {
				So(err, ShouldBeNil)
				So(allowed, ShouldBeFalse)
				So(blocker.calls, ShouldResemble, []string{"user-3"})
			})
		})

		Convey("When the term is embedded inside a longer word", func() {
			allowed, err := screener.ScreenText(ctx, "user-4", "antispammer tooling")

			Convey("Then substring matching should still hit", func() {
				So(err, ShouldBeNil)
				So(allowed, ShouldBeFalse)
			})
		})

		Convey("When the message contains several blocklisted terms", func() {
			allowed, err := screener.ScreenText(ctx, "user-5", "spam and scam together")

			Convey("Then the sender should be blocked exactly once", func() {
				So(err, ShouldBeNil)
				So(allowed, ShouldBeFalse)
				So(blocker.calls, ShouldHaveLength, 1)
			})
		})

		Convey("When the message is empty or blank", func() {
			for _, text := range []string{"", "   ", "\n\t"} {
				allowed, err := screener.ScreenText(ctx, "user-6", text)
				So(err, ShouldBeNil)
				So(allowed, ShouldBeTrue)
			}

			Convey("Then nobody should be blocked", func() {
				So(blocker.calls, ShouldBeEmpty)
			})
		})

		Convey("When the message is not valid UTF-8", func() {
			allowed, err := screener.ScreenText(ctx, "user-7", string([]byte{0xff, 0xfe, 0xfd}))

			Convey("Then it should fail validation", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, moderation.ErrInvalidContent), ShouldBeTrue)
				So(allowed, ShouldBeFalse)
			})

			Convey("And nobody should be blocked", func() {
				So(blocker.calls, ShouldBeEmpty)
			})
		})

		Convey("When the blocker fails", func() {
			failing := &recordingBlocker{err: errors.New("store unavailable")}
			fragile := moderation.NewKeywordScreener(
				moderation.WithBlocklist([]string{"spam"}),
				moderation.WithBlocker(failing),
			)

			allowed, err := fragile.ScreenText(ctx, "user-8", "spam again")

			Convey("Then the message should stay rejected and the error surface", func() {
				So(err, ShouldNotBeNil)
				So(allowed, ShouldBeFalse)
			})
		})
	})

	Convey("Given a keyword screener without a blocker", t, func() {
		screener := moderation.NewKeywordScreener(
			moderation.WithBlocklist([]string{"spam"}),
		)

		Convey("When a blocklisted message arrives", func() {
			allowed, err := screener.ScreenText(context.Background(), "user-9", "spam")

			Convey("Then it should still be rejected without error", func() {
				So(err, ShouldBeNil)
				So(allowed, ShouldBeFalse)
			})
		})
	})

	Convey("Given the default blocklist", t, func() {
		screener := moderation.NewKeywordScreener()

		Convey("When a placeholder term appears", func() {
			allowed, err := screener.ScreenText(context.Background(), "user-10", "contains badword1 here")

			Convey("Then it should be rejected", func() {
				So(err, ShouldBeNil)
				So(allowed, ShouldBeFalse)
			})
		})
	})
}

func TestKeywordScreenerMedia(t *testing.T) {
	Convey("Given a keyword screener", t, func() {
		screener := moderation.NewKeywordScreener()

		Convey("When screening any media upload", func() {
			allowed, err := screener.ScreenMedia(context.Background(), "user-1", []byte{0x89, 0x50, 0x4e, 0x47})

			Convey("Then it should be allowed", func() {
				So(err, ShouldBeNil)
				So(allowed, ShouldBeTrue)
			})
		})

		Convey("When screening empty media", func() {
			allowed, err := screener.ScreenMedia(context.Background(), "user-2", nil)

			Convey("Then it should be allowed", func() {
				So(err, ShouldBeNil)
				So(allowed, ShouldBeTrue)
			})
		})
	})
}

func TestFlagTracker(t *testing.T) {
	Convey("Given a new flag tracker", t, func() {
		tracker := moderation.NewFlagTracker()
		ctx := context.Background()

		Convey("When no one has been flagged", func() {
			Convey("Then it should be empty", func() {
				So(tracker.Size(), ShouldEqual, 0)
				So(tracker.Dangerous(ctx), ShouldBeEmpty)
				So(tracker.Count(ctx, "user-1"), ShouldEqual, 0)
			})
		})

		Convey("When a user is flagged below the threshold", func() {
			count, dangerous := tracker.Flag(ctx, "user-1")

			Convey("Then the user should not be dangerous yet", func() {
				So(count, ShouldEqual, 1)
				So(dangerous, ShouldBeFalse)
				So(tracker.Dangerous(ctx), ShouldBeEmpty)
			})
		})

		Convey("When a user reaches the threshold", func() {
			tracker.Flag(ctx, "user-1")
			tracker.Flag(ctx, "user-1")
			count, dangerous := tracker.Flag(ctx, "user-1")

			Convey("Then the third flag should mark them dangerous", func() {
				So(count, ShouldEqual, 3)
				So(dangerous, ShouldBeTrue)
				So(tracker.Dangerous(ctx), ShouldResemble, []string{"user-1"})
			})

			Convey("And further flags should keep them dangerous", func() {
				count, dangerous := tracker.Flag(ctx, "user-1")
				So(count, ShouldEqual, 4)
				So(dangerous, ShouldBeTrue)
			})
		})

		Convey("When several users cross the threshold", func() {
			for i := 0; i < 3; i++ {
				tracker.Flag(ctx, "user-b")
			}
			for i := 0; i < 3; i++ {
				tracker.Flag(ctx, "user-a")
			}
			tracker.Flag(ctx, "user-c")

			Convey("Then the listing should keep first-flag order", func() {
				So(tracker.Dangerous(ctx), ShouldResemble, []string{"user-b", "user-a"})
			})

			Convey("And the size should count every flagged user", func() {
				So(tracker.Size(), ShouldEqual, 3)
			})
		})
	})

	Convey("Given a tracker with a custom threshold", t, func() {
		tracker := moderation.NewFlagTracker(moderation.WithDangerThreshold(1))
		ctx := context.Background()

		Convey("When a user is flagged once", func() {
			_, dangerous := tracker.Flag(ctx, "user-1")

			Convey("Then they should be dangerous immediately", func() {
				So(dangerous, ShouldBeTrue)
			})
		})
	})

	Convey("Given a tracker flagged concurrently", t, func() {
		tracker := moderation.NewFlagTracker()
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					tracker.Flag(ctx, "user-hot")
				}
			}()
		}
		wg.Wait()

		Convey("When all goroutines finish", func() {
			Convey("Then every flag should be counted", func() {
				So(tracker.Count(ctx, "user-hot"), ShouldEqual, 100)
				So(tracker.Dangerous(ctx), ShouldResemble, []string{"user-hot"})
			})
		})
	})
}
