package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/lodge/internal/adapters/source"
	service "github.com/okian/lodge/internal/app"
	"github.com/okian/lodge/internal/content"
	"github.com/okian/lodge/internal/domain/fallback"
	"github.com/okian/lodge/internal/domain/model"
	"github.com/okian/lodge/internal/domain/transform"
	"github.com/okian/lodge/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestService_New(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(source.NewRegistry())

		Convey("Then the state is idle and empty", func() {
			st := svc.State()
			So(st.Outcome, ShouldEqual, service.OutcomeIdle)
			So(st.Loading, ShouldBeFalse)
			So(st.Error, ShouldBeNil)
			So(st.Events, ShouldBeEmpty)
		})

		Convey("Then empty lists encode as JSON arrays", func() {
			raw, err := json.Marshal(svc.State())
			So(err, ShouldBeNil)
			So(string(raw), ShouldContainSubstring, `"events":[]`)
			So(string(raw), ShouldContainSubstring, `"gamemasters":[]`)
			So(string(raw), ShouldContainSubstring, `"news":[]`)
		})

		Convey("Then backoff doubles from one second", func() {
			So(svc.Backoff(1), ShouldEqual, time.Second)
			So(svc.Backoff(2), ShouldEqual, 2*time.Second)
			So(svc.Backoff(3), ShouldEqual, 4*time.Second)
		})
	})
}

func TestService_LoadSeedContent(t *testing.T) {
	Convey("Given the embedded seed content", t, func() {
		svc := service.New(source.NewFS(content.FS()),
			service.WithLogger(logger.Get()),
			service.WithClock(clock),
		)

		Convey("When loading content", func() {
			svc.LoadContent(context.Background())
			st := svc.State()

			Convey("Then the cycle succeeds without placeholders", func() {
				So(st.Outcome, ShouldEqual, service.OutcomeSuccess)
				So(st.Error, ShouldBeNil)
				So(st.Loading, ShouldBeFalse)
				So(st.HasPartialData, ShouldBeFalse)
				So(st.Generation, ShouldEqual, 1)
				So(st.CycleID, ShouldNotBeEmpty)
				So(st.LoadedAt, ShouldEqual, fixedNow)
				So(fallback.IsFallbackContent(st.Events), ShouldBeFalse)
				So(fallback.IsFallbackContent(st.GameMasters), ShouldBeFalse)
				So(fallback.IsFallbackContent(st.News), ShouldBeFalse)
			})

			Convey("Then events are ascending and recurring ones are expanded", func() {
				for i := 1; i < len(st.Events); i++ {
					So(st.Events[i-1].Date.After(st.Events[i].Date), ShouldBeFalse)
				}
				So(st.Events[0].ID, ShouldEqual, "sfs-weekly-20261022")
				weekly := 0
				for _, ev := range st.Events {
					if strings.HasPrefix(ev.ID, "sfs-weekly-") {
						weekly++
						So(ev.GameType, ShouldEqual, model.GameStarfinder)
					}
				}
				So(weekly, ShouldEqual, 12)
			})

			Convey("Then news is newest first and game masters are by name", func() {
				So(st.News[0].ID, ShouldEqual, "season-launch")
				for i := 1; i < len(st.News); i++ {
					So(st.News[i-1].Date.Before(st.News[i].Date), ShouldBeFalse)
				}
				So(st.GameMasters[0].Name, ShouldEqual, "Mira Okafor")
				So(st.GameMasters[len(st.GameMasters)-1].Name, ShouldEqual, "Theo Lindqvist")
			})

			Convey("Then game types are inferred from content", func() {
				ev, ok := svc.Event("gm-workshop-2026")
				So(ok, ShouldBeTrue)
				So(ev.GameType, ShouldEqual, model.GamePathfinder)
			})
		})
	})
}

func TestService_PartialFailure(t *testing.T) {
	Convey("Given a source where every news record fails to transform", t, func() {
		provider := fallback.NewStatic(fallback.WithClock(clock))
		svc := service.New(fullRegistry(),
			service.WithClock(clock),
			service.WithFallbackProvider(provider),
			service.WithTransformer(panickyNews{transform.New()}),
		)

		Convey("When loading content", func() {
			svc.LoadContent(context.Background())
			st := svc.State()

			Convey("Then the failed category is exactly the placeholder set", func() {
				want, _ := provider.News()
				So(st.News, ShouldResemble, want)
				So(fallback.IsFallbackContent(st.News), ShouldBeTrue)
			})

			Convey("Then the state reports partial data with a distinct error", func() {
				So(st.Outcome, ShouldEqual, service.OutcomePartial)
				So(st.HasPartialData, ShouldBeTrue)
				So(st.Error, ShouldNotBeNil)
				So(st.Error.Kind, ShouldEqual, service.ErrorPartial)
				So(st.Error.Message, ShouldContainSubstring, "Some content could not be loaded")
			})

			Convey("Then the other categories keep their real records", func() {
				So(len(st.Events), ShouldEqual, 2)
				So(len(st.GameMasters), ShouldEqual, 2)
				So(fallback.IsFallbackContent(st.Events), ShouldBeFalse)
				So(st.GameMasters[0].Name, ShouldEqual, "Amy")
			})
		})
	})
}

func TestService_TotalFailure(t *testing.T) {
	Convey("Given an offline source", t, func() {
		reg := fullRegistry()
		reg.SetOffline(true)
		provider := fallback.NewStatic(fallback.WithClock(clock))
		svc := service.New(reg,
			service.WithClock(clock),
			service.WithFallbackProvider(provider),
			service.WithConnectivityProbe(reg.Online),
		)

		Convey("When loading content", func() {
			svc.LoadContent(context.Background())
			st := svc.State()

			Convey("Then every category falls back and the UI still has content", func() {
				So(st.Outcome, ShouldEqual, service.OutcomeFallback)
				So(st.Error.Kind, ShouldEqual, service.ErrorFallback)
				So(st.Error.Message, ShouldContainSubstring, "Showing cached information")
				So(st.IsOffline, ShouldBeTrue)
				So(st.HasPartialData, ShouldBeFalse)
				So(st.Events, ShouldNotBeEmpty)
				So(st.GameMasters, ShouldNotBeEmpty)
				So(st.News, ShouldNotBeEmpty)
				So(fallback.IsFallbackContent(st.Events), ShouldBeTrue)
			})
		})
	})

	Convey("Given a source that fails and placeholders that fail too", t, func() {
		reg := fullRegistry()
		reg.SetOffline(true)
		svc := service.New(reg, service.WithFallbackProvider(brokenProvider{}))

		svc.LoadContent(context.Background())
		st := svc.State()

		Convey("Then the failure is critical", func() {
			So(st.Outcome, ShouldEqual, service.OutcomeCritical)
			So(st.Error.Kind, ShouldEqual, service.ErrorCritical)
			So(st.Loading, ShouldBeFalse)
		})
	})
}

func TestService_Empty(t *testing.T) {
	Convey("Given a source with no records at all", t, func() {
		svc := service.New(source.NewRegistry(), service.WithClock(clock))
		svc.LoadContent(context.Background())
		st := svc.State()

		Convey("Then placeholders fill every category without an error", func() {
			So(st.Outcome, ShouldEqual, service.OutcomeSuccess)
			So(st.Error, ShouldBeNil)
			So(fallback.IsFallbackContent(st.Events), ShouldBeTrue)
			So(fallback.IsFallbackContent(st.GameMasters), ShouldBeTrue)
			So(fallback.IsFallbackContent(st.News), ShouldBeTrue)
		})
	})

	Convey("Given a category with a single real record", t, func() {
		reg := fullRegistry()
		reg.Remove(model.CategoryNews, "news/old.md")
		svc := service.New(reg, service.WithClock(clock))
		svc.LoadContent(context.Background())
		st := svc.State()

		Convey("Then placeholders are merged in next to it", func() {
			So(st.News[0].ID, ShouldEqual, "fallback-news-welcome")
			So(len(st.News), ShouldEqual, 2)
			ids := []string{st.News[0].ID, st.News[1].ID}
			So(ids, ShouldContain, "new")
		})

		Convey("Then a lower threshold disables merging", func() {
			svc := service.New(reg, service.WithClock(clock), service.WithMinRealRecords(1))
			svc.LoadContent(context.Background())
			So(fallback.IsFallbackContent(svc.State().News), ShouldBeFalse)
		})
	})
}

func TestService_RetryLoad(t *testing.T) {
	Convey("Given a service whose loads keep failing", t, func() {
		reg := fullRegistry()
		reg.SetOffline(true)
		src := &countingSource{next: reg}
		sleeper := &sleepRecorder{}
		svc := service.New(src, service.WithSleeper(sleeper.Sleep), service.WithClock(clock))
		ctx := context.Background()
		svc.LoadContent(ctx)

		Convey("When retrying three times", func() {
			svc.RetryLoad(ctx)
			svc.RetryLoad(ctx)
			svc.RetryLoad(ctx)

			Convey("Then each retry waits 1s, 2s, then 4s", func() {
				So(sleeper.Delays(), ShouldResemble, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second})
				So(svc.State().RetryCount, ShouldEqual, 3)
				So(svc.State().Error.Kind, ShouldEqual, service.ErrorFallback)
			})

			Convey("And a fourth retry is refused without fetching", func() {
				before := src.total.Load()
				svc.RetryLoad(ctx)
				st := svc.State()
				So(st.RetryCount, ShouldEqual, 3)
				So(st.Error.Kind, ShouldEqual, service.ErrorMaxRetries)
				So(src.total.Load(), ShouldEqual, before)
				So(len(sleeper.Delays()), ShouldEqual, 3)
			})

			Convey("And a refresh resets the counter", func() {
				reg.SetOffline(false)
				svc.RefreshContent(ctx)
				st := svc.State()
				So(st.RetryCount, ShouldEqual, 0)
				So(st.Outcome, ShouldEqual, service.OutcomeSuccess)
				So(st.Error, ShouldBeNil)
			})
		})

		Convey("When the source recovers before a retry", func() {
			reg.SetOffline(false)
			svc.RetryLoad(ctx)

			Convey("Then the successful load resets the counter", func() {
				st := svc.State()
				So(st.Outcome, ShouldEqual, service.OutcomeSuccess)
				So(st.RetryCount, ShouldEqual, 0)
			})
		})

		Convey("When the backoff wait is cancelled", func() {
			sleeper.err = context.Canceled
			gen := svc.State().Generation
			svc.RetryLoad(ctx)

			Convey("Then no load runs and loading is cleared", func() {
				st := svc.State()
				So(st.Loading, ShouldBeFalse)
				So(st.RetryCount, ShouldEqual, 1)
				So(st.Generation, ShouldEqual, gen+1)
				So(st.Outcome, ShouldEqual, service.OutcomeFallback)
			})
		})
	})

	Convey("Given a retry limit of zero", t, func() {
		svc := service.New(source.NewRegistry(), service.WithMaxRetries(0))
		svc.RetryLoad(context.Background())
		So(svc.State().Error.Kind, ShouldEqual, service.ErrorMaxRetries)
	})
}

func TestService_RefreshClearsCache(t *testing.T) {
	Convey("Given loaded content", t, func() {
		reg := fullRegistry()
		svc := service.New(reg, service.WithClock(clock))
		ctx := context.Background()
		svc.LoadContent(ctx)

		reg.Put(model.CategoryNews, article("fresh.md", "Fresh", "2026-10-10"))

		Convey("When loading again within the TTL", func() {
			svc.LoadContent(ctx)
			Convey("Then cached news is served", func() {
				So(len(svc.State().News), ShouldEqual, 2)
			})
		})

		Convey("When refreshing", func() {
			svc.RefreshContent(ctx)
			Convey("Then the new article appears first", func() {
				st := svc.State()
				So(len(st.News), ShouldEqual, 3)
				So(st.News[0].ID, ShouldEqual, "fresh")
			})
		})
	})
}

func TestService_StaleCycleDiscarded(t *testing.T) {
	Convey("Given a first cycle that stalls on events", t, func() {
		reg := fullRegistry()
		entered := make(chan struct{})
		release := make(chan struct{})
		var calls atomic.Int32
		src := source.Func(func(ctx context.Context, c model.Category) ([]model.RawRecord, error) {
			if c == model.CategoryEvents && calls.Add(1) == 1 {
				close(entered)
				<-release
				return []model.RawRecord{event("stale.md", "Stale", "2026-11-01"), event("stale2.md", "Stale 2", "2026-11-02")}, nil
			}
			return reg.Fetch(ctx, c)
		})
		svc := service.New(src, service.WithClock(clock))
		ctx := context.Background()

		done := make(chan struct{})
		go func() {
			defer close(done)
			svc.LoadContent(ctx)
		}()
		<-entered

		Convey("When a newer cycle commits first", func() {
			svc.LoadContent(ctx)
			close(release)
			<-done
			st := svc.State()

			Convey("Then the late stale result is discarded", func() {
				So(st.Generation, ShouldEqual, 2)
				So(st.Loading, ShouldBeFalse)
				for _, ev := range st.Events {
					So(ev.ID, ShouldNotStartWith, "stale")
				}
			})
		})
	})
}

func TestService_StaleCycleNotCached(t *testing.T) {
	Convey("Given a first cycle that stalls on events", t, func() {
		reg := fullRegistry()
		entered := make(chan struct{})
		release := make(chan struct{})
		var calls atomic.Int32
		src := source.Func(func(ctx context.Context, c model.Category) ([]model.RawRecord, error) {
			if c == model.CategoryEvents && calls.Add(1) == 1 {
				close(entered)
				<-release
				return []model.RawRecord{event("stale.md", "Stale", "2026-11-01"), event("stale2.md", "Stale 2", "2026-11-02")}, nil
			}
			return reg.Fetch(ctx, c)
		})
		sleeper := &sleepRecorder{}
		svc := service.New(src, service.WithSleeper(sleeper.Sleep), service.WithClock(clock))
		ctx := context.Background()

		done := make(chan struct{})
		go func() {
			defer close(done)
			svc.LoadContent(ctx)
		}()
		<-entered

		Convey("When a refresh commits before the stale cycle finishes", func() {
			svc.RefreshContent(ctx)
			So(svc.State().Events[0].ID, ShouldEqual, "a")
			close(release)
			<-done

			Convey("Then a later load within the TTL still serves the refreshed events", func() {
				svc.LoadContent(ctx)
				st := svc.State()
				So(st.Generation, ShouldEqual, 3)
				So(len(st.Events), ShouldEqual, 2)
				for _, ev := range st.Events {
					So(ev.ID, ShouldNotStartWith, "stale")
				}
			})

			Convey("Then a retry serves the refreshed events too", func() {
				svc.RetryLoad(ctx)
				for _, ev := range svc.State().Events {
					So(ev.ID, ShouldNotStartWith, "stale")
				}
			})
		})

		Convey("When a plain load commits before the stale cycle finishes", func() {
			svc.LoadContent(ctx)
			close(release)
			<-done
			svc.LoadContent(ctx)

			Convey("Then the stale events never reach the cache", func() {
				for _, ev := range svc.State().Events {
					So(ev.ID, ShouldNotStartWith, "stale")
				}
			})
		})
	})
}

func TestService_Selection(t *testing.T) {
	Convey("Given loaded content", t, func() {
		svc := service.New(fullRegistry(), service.WithClock(clock))
		svc.LoadContent(context.Background())

		Convey("Then events can be selected and cleared", func() {
			So(svc.SelectEvent("a"), ShouldBeTrue)
			So(svc.State().SelectedEvent.Title, ShouldEqual, "Pathfinder Night")
			So(svc.SelectEvent("nope"), ShouldBeFalse)
			So(svc.State().SelectedEvent.ID, ShouldEqual, "a")
			So(svc.SelectEvent(""), ShouldBeTrue)
			So(svc.State().SelectedEvent, ShouldBeNil)
		})

		Convey("Then game masters can be selected and survive a refresh", func() {
			So(svc.SelectGameMaster("zed"), ShouldBeTrue)
			svc.RefreshContent(context.Background())
			So(svc.State().SelectedGameMaster.Name, ShouldEqual, "Zed")
			_, ok := svc.GameMaster("amy")
			So(ok, ShouldBeTrue)
		})

		Convey("Then mutating a snapshot does not leak into the service", func() {
			st := svc.State()
			st.Events[0].Title = "changed"
			So(svc.State().Events[0].Title, ShouldNotEqual, "changed")
		})
	})
}

func TestService_ClearError(t *testing.T) {
	Convey("Given a state with an error", t, func() {
		reg := fullRegistry()
		reg.Fail(model.CategoryEvents, errors.New("bucket unreachable"))
		svc := service.New(reg, service.WithClock(clock))
		svc.LoadContent(context.Background())
		So(svc.State().Error, ShouldNotBeNil)

		Convey("When clearing it", func() {
			svc.ClearError()
			st := svc.State()
			Convey("Then only the error is removed", func() {
				So(st.Error, ShouldBeNil)
				So(st.HasPartialData, ShouldBeTrue)
				So(st.Events, ShouldNotBeEmpty)
			})
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a service with a refresh schedule", t, func() {
		svc := service.New(fullRegistry(), service.WithRefreshSchedule("@every 1h"))

		Convey("When started and stopped", func() {
			err := svc.Start(context.Background())
			So(err, ShouldBeNil)
			So(svc.State().Outcome, ShouldEqual, service.OutcomeSuccess)
			So(svc.Start(context.Background()), ShouldBeNil)
			So(func() { svc.Stop() }, ShouldNotPanic)
			So(func() { svc.Stop() }, ShouldNotPanic)
		})
	})

	Convey("Given an invalid schedule", t, func() {
		svc := service.New(fullRegistry(), service.WithRefreshSchedule("every tuesday"))
		err := svc.Start(context.Background())
		So(errors.Is(err, service.ErrInvalidSchedule), ShouldBeTrue)
	})
}
