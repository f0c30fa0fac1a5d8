package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/sgengine/internal/adapters/identity"
	"github.com/okian/sgengine/internal/adapters/repository"
	service "github.com/okian/sgengine/internal/app"
	"github.com/okian/sgengine/internal/domain/baseline"
	"github.com/okian/sgengine/internal/domain/leaderboard"
	"github.com/okian/sgengine/internal/domain/model"
	"github.com/okian/sgengine/internal/domain/shots"
	"github.com/okian/sgengine/internal/domain/types"
	"github.com/okian/sgengine/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func f(v float64) *float64 { return &v }

// parHole is a par-4 played tee 400y, fairway 100y, green 10ft, holed:
// 3.99 - 3 strokes = +0.99 against the bundled tour model.
func parHole(hole int) []model.RawShot {
	return []model.RawShot{
		{Hole: hole, StartLie: "Tee", StartYards: f(400), EndLie: "Fairway", EndYards: f(100)},
		{Hole: hole, StartLie: "Fairway", StartYards: f(100), EndLie: "Green", EndFeet: f(10)},
		{Hole: hole, StartLie: "Green", StartFeet: f(10), EndLie: "Hole", IsPutt: true},
	}
}

// bogeyHole adds a three-putt from 10ft: 3.99 - 5 = -1.01.
func bogeyHole(hole int) []model.RawShot {
	return []model.RawShot{
		{Hole: hole, StartLie: "Tee", StartYards: f(400), EndLie: "Fairway", EndYards: f(100)},
		{Hole: hole, StartLie: "Fairway", StartYards: f(100), EndLie: "Green", EndFeet: f(10)},
		{Hole: hole, StartLie: "Green", StartFeet: f(10), EndLie: "Green", EndFeet: f(4), IsPutt: true},
		{Hole: hole, StartLie: "Green", StartFeet: f(4), EndLie: "Green", EndFeet: f(1), IsPutt: true},
		{Hole: hole, StartLie: "Green", StartFeet: f(1), EndLie: "Hole", IsPutt: true},
	}
}

func startService(ctx context.Context, store repository.Store, opts ...service.Option) *service.Service {
	opts = append([]service.Option{
		service.WithStore("memory", store),
		service.WithWorkerCount(4),
		service.WithRetryBackoff(time.Millisecond),
	}, opts...)
	svc := service.New(opts...)
	So(svc.Start(ctx), ShouldBeNil)
	return svc
}

func seedRound(ctx context.Context, store repository.Store, id, player, team string, played time.Time) {
	_, err := store.SaveRound(ctx, model.Round{
		ID: id, PlayerID: player, TeamID: team, RoundType: types.Tournament,
		PlayedOn: played, Par: 72, Strokes: 72,
	})
	So(err, ShouldBeNil)
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()

		Convey("Then operations fail before Start", func() {
			_, err := svc.SubmitShots(context.Background(), service.Submission{RoundID: "r"})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("When started", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			defer svc.Stop()

			Convey("Then the bundled models are loaded", func() {
				models, err := svc.Models(context.Background())
				So(err, ShouldBeNil)
				So(models, ShouldContain, "tour")
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["backend"], ShouldEqual, "memory")
			})

			Convey("Then starting again is a no-op", func() {
				So(svc.Start(context.Background()), ShouldBeNil)
			})
		})
	})
}

func TestSubmitShots(t *testing.T) {
	Convey("Given a started service with a round", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := startService(ctx, store)
		defer svc.Stop()
		seedRound(ctx, store, "r1", "p1", "t1", time.Now())

		Convey("When a hole is submitted", func() {
			res, err := svc.SubmitShots(ctx, service.Submission{RoundID: "r1", Shots: parHole(1)})

			Convey("Then shots are normalized and strokes gained computed", func() {
				So(err, ShouldBeNil)
				So(res.Model, ShouldEqual, "tour")
				So(res.Holes, ShouldResemble, []int{1})
				So(res.Shots, ShouldHaveLength, 3)
				So(res.Shots[2].Sequence, ShouldEqual, 3)
				So(res.SG.Total, ShouldAlmostEqual, 0.99, 1e-9)
				So(res.Results[2].Category, ShouldEqual, types.Putting)

				stored, err := store.FetchShots(ctx, "r1")
				So(err, ShouldBeNil)
				So(stored, ShouldHaveLength, 3)
			})
		})

		Convey("When the same submission id is sent twice", func() {
			first, err := svc.SubmitShots(ctx, service.Submission{RoundID: "r1", SubmissionID: "s-1", Shots: parHole(1)})
			So(err, ShouldBeNil)
			second, err := svc.SubmitShots(ctx, service.Submission{RoundID: "r1", SubmissionID: "s-1", Shots: bogeyHole(1)})

			Convey("Then the retry is acknowledged without writing", func() {
				So(err, ShouldBeNil)
				So(first.Duplicate, ShouldBeFalse)
				So(second.Duplicate, ShouldBeTrue)
				stored, _ := store.FetchShots(ctx, "r1")
				So(stored, ShouldHaveLength, 3)
			})
		})

		Convey("When a shot is invalid", func() {
			bad := parHole(2)
			bad[1].EndYards = f(12)
			bad[1].EndFeet = nil
			_, err := svc.SubmitShots(ctx, service.Submission{RoundID: "r1", Shots: bad})

			Convey("Then a validation error names the hole and field and nothing is written", func() {
				var ve *shots.ValidationError
				So(errors.As(err, &ve), ShouldBeTrue)
				So(ve.Hole, ShouldEqual, 2)
				So(ve.Field, ShouldEqual, "end_yards")
				stored, _ := store.FetchShots(ctx, "r1")
				So(stored, ShouldBeEmpty)
			})
		})

		Convey("When the model is unknown", func() {
			_, err := svc.SubmitShots(ctx, service.Submission{RoundID: "r1", Model: "nope", Shots: parHole(1)})

			Convey("Then ModelNotFound is returned and nothing is written", func() {
				So(errors.Is(err, baseline.ErrModelNotFound), ShouldBeTrue)
				stored, _ := store.FetchShots(ctx, "r1")
				So(stored, ShouldBeEmpty)
			})
		})

		Convey("When the round does not exist", func() {
			_, err := svc.SubmitShots(ctx, service.Submission{RoundID: "r9", SubmissionID: "s-9", Shots: parHole(1)})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			Convey("Then the submission id can be retried once the round exists", func() {
				seedRound(ctx, store, "r9", "p1", "t1", time.Now())
				res, err := svc.SubmitShots(ctx, service.Submission{RoundID: "r9", SubmissionID: "s-9", Shots: parHole(1)})
				So(err, ShouldBeNil)
				So(res.Duplicate, ShouldBeFalse)
			})
		})
	})
}

func TestRoundStrokesGained(t *testing.T) {
	Convey("Given a round with two holes and a scorecard", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := startService(ctx, store)
		defer svc.Stop()
		seedRound(ctx, store, "r1", "p1", "t1", time.Now())
		_, err := svc.SubmitShots(ctx, service.Submission{RoundID: "r1", Shots: append(parHole(1), bogeyHole(2)...)})
		So(err, ShouldBeNil)
		hit := true
		So(svc.SaveHoleScores(ctx, "r1", []model.HoleScore{
			{Hole: 1, Par: 4, Strokes: 4, Putts: 1, FairwayHit: &hit, GreenInRegulation: true},
			{Hole: 2, Par: 4, Strokes: 5, Putts: 3, FairwayHit: &hit, GreenInRegulation: true},
		}), ShouldBeNil)

		Convey("When the round report is requested", func() {
			rep, err := svc.RoundStrokesGained(ctx, "r1", "")

			Convey("Then hole and round totals are combined", func() {
				So(err, ShouldBeNil)
				So(rep.Model, ShouldEqual, "tour")
				So(rep.Results, ShouldHaveLength, 8)
				So(rep.Totals.Holes, ShouldHaveLength, 2)
				So(rep.Totals.Holes[0].SG.Total, ShouldAlmostEqual, 0.99, 1e-9)
				So(rep.Totals.Holes[1].SG.Total, ShouldAlmostEqual, -1.01, 1e-9)
				So(rep.Totals.SG.Total, ShouldAlmostEqual, -0.02, 1e-9)
				So(rep.Totals.ToPar, ShouldEqual, 1)
				So(rep.Totals.FairwaysHit, ShouldEqual, 2)
			})
		})

		Convey("When an unknown round is requested", func() {
			_, err := svc.RoundStrokesGained(ctx, "missing", "tour")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a hole score is out of range", func() {
			err := svc.SaveHoleScores(ctx, "r1", []model.HoleScore{{Hole: 19, Par: 4}})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})
	})
}

func TestRolling(t *testing.T) {
	Convey("Given a player with three rounds", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := startService(ctx, store, service.WithMaxRollingWindow(10))
		defer svc.Stop()

		day := func(d int) time.Time { return time.Date(2026, 3, d, 10, 0, 0, 0, time.UTC) }
		seedRound(ctx, store, "old", "p1", "t1", day(1))
		seedRound(ctx, store, "mid", "p1", "t1", day(2))
		seedRound(ctx, store, "new", "p1", "t1", day(3))
		_, err := svc.SubmitShots(ctx, service.Submission{RoundID: "mid", Shots: bogeyHole(1)})
		So(err, ShouldBeNil)
		_, err = svc.SubmitShots(ctx, service.Submission{RoundID: "new", Shots: parHole(1)})
		So(err, ShouldBeNil)

		Convey("When the window covers the two most recent rounds", func() {
			avg, err := svc.Rolling(ctx, service.RollingQuery{PlayerID: "p1", Window: 2})

			Convey("Then only those rounds are averaged", func() {
				So(err, ShouldBeNil)
				So(avg.RoundsPlayed, ShouldEqual, 2)
				So(avg.RoundIDs, ShouldResemble, []string{"new", "mid"})
				So(avg.RoundsWithSG, ShouldEqual, 2)
				So(avg.AvgSG.Total, ShouldAlmostEqual, -0.01, 1e-9)
			})
		})

		Convey("When no window is given", func() {
			avg, err := svc.Rolling(ctx, service.RollingQuery{PlayerID: "p1"})

			Convey("Then rounds without shots count toward to-par but not SG", func() {
				So(err, ShouldBeNil)
				So(avg.RoundsPlayed, ShouldEqual, 3)
				So(avg.RoundsWithSG, ShouldEqual, 2)
				So(*avg.AvgToPar, ShouldEqual, 0)
			})
		})

		Convey("When the window is out of range", func() {
			_, err := svc.Rolling(ctx, service.RollingQuery{PlayerID: "p1", Window: 11})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			_, err = svc.Rolling(ctx, service.RollingQuery{PlayerID: " "})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})
	})
}

func TestLeaderboard(t *testing.T) {
	Convey("Given two players on different teams", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := startService(ctx, store, service.WithIdentity(identity.Static{"coach": {"t1"}}))
		defer svc.Stop()

		So(store.SavePlayer(ctx, model.Player{ID: "ann", Name: "Ann", TeamID: "t1"}), ShouldBeNil)
		So(store.SavePlayer(ctx, model.Player{ID: "bo", Name: "Bo", TeamID: "t2"}), ShouldBeNil)
		seedRound(ctx, store, "a1", "ann", "t1", time.Now())
		seedRound(ctx, store, "b1", "bo", "t2", time.Now())
		seedRound(ctx, store, "b2", "bo", "t2", time.Now())
		_, err := svc.SubmitShots(ctx, service.Submission{RoundID: "a1", Shots: bogeyHole(1)})
		So(err, ShouldBeNil)
		_, err = svc.SubmitShots(ctx, service.Submission{RoundID: "b1", Shots: parHole(1)})
		So(err, ShouldBeNil)

		Convey("When ranking everyone", func() {
			rows, err := svc.Leaderboard(ctx, "", leaderboard.Query{Scope: leaderboard.ScopeAll})

			Convey("Then the better strokes gained leads and null SG rounds do not count", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 2)
				So(rows[0].PlayerID, ShouldEqual, "bo")
				So(rows[0].Position, ShouldEqual, 1)
				So(rows[0].RoundsPlayed, ShouldEqual, 2)
				So(*rows[0].AvgSGTotal, ShouldAlmostEqual, 0.99, 1e-9)
				So(rows[1].PlayerName, ShouldEqual, "Ann")
				So(*rows[1].AvgSGTotal, ShouldAlmostEqual, -1.01, 1e-9)
			})
		})

		Convey("When ranking the caller's team", func() {
			rows, err := svc.Leaderboard(ctx, "coach", leaderboard.Query{Scope: leaderboard.ScopeTeam})
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 1)
			So(rows[0].PlayerID, ShouldEqual, "ann")
		})

		Convey("When the caller has no team", func() {
			rows, err := svc.Leaderboard(ctx, "stranger", leaderboard.Query{Scope: leaderboard.ScopeTeam})
			So(err, ShouldBeNil)
			So(rows, ShouldNotBeNil)
			So(rows, ShouldBeEmpty)
		})

		Convey("When the model is unknown", func() {
			rows, err := svc.Leaderboard(ctx, "", leaderboard.Query{Model: "nope"})
			So(errors.Is(err, baseline.ErrModelNotFound), ShouldBeTrue)
			So(rows, ShouldBeNil)
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			rows, err := svc.Leaderboard(cctx, "", leaderboard.Query{})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(rows, ShouldBeNil)
		})

		Convey("When the date window is inverted", func() {
			_, err := svc.Leaderboard(ctx, "", leaderboard.Query{
				From: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			})
			So(errors.Is(err, leaderboard.ErrInvalidQuery), ShouldBeTrue)
		})
	})
}

// flakyStore fails the first failures row fetches as unavailable.
type flakyStore struct {
	repository.Store
	failures int64
	calls    atomic.Int64
}

func (s *flakyStore) FetchRoundRows(ctx context.Context, f model.RowFilter) ([]model.RoundRow, error) {
	if s.calls.Add(1) <= s.failures {
		return nil, &repository.DataUnavailableError{Op: "fetch_round_rows", Err: context.DeadlineExceeded}
	}
	return s.Store.FetchRoundRows(ctx, f)
}

// gatedStore holds each ReplaceShots until release is signalled and fails
// the first one.
type gatedStore struct {
	repository.Store
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int64
}

var errDiskFull = errors.New("disk full")

func (s *gatedStore) ReplaceShots(ctx context.Context, roundID string, holes []int, shots []model.Shot) error {
	s.entered <- struct{}{}
	<-s.release
	if s.calls.Add(1) == 1 {
		return errDiskFull
	}
	return s.Store.ReplaceShots(ctx, roundID, holes, shots)
}

func TestSubmissionIDRecordedAfterWrite(t *testing.T) {
	Convey("Given a store whose first shot write fails slowly", t, func() {
		ctx := context.Background()
		store := &gatedStore{
			Store:   repository.NewMemoryStore(),
			entered: make(chan struct{}, 2),
			release: make(chan struct{}, 2),
		}
		seedRound(ctx, store, "r1", "p1", "t1", time.Now())
		svc := startService(ctx, store)
		defer svc.Stop()

		sub := service.Submission{RoundID: "r1", SubmissionID: "s-1", Shots: parHole(1)}
		type outcome struct {
			res service.SubmitResult
			err error
		}
		first := make(chan outcome, 1)
		go func() {
			res, err := svc.SubmitShots(ctx, sub)
			first <- outcome{res, err}
		}()
		<-store.entered

		Convey("When a retry with the same id arrives while the first is in flight", func() {
			second := make(chan outcome, 1)
			go func() {
				res, err := svc.SubmitShots(ctx, sub)
				second <- outcome{res, err}
			}()
			time.Sleep(20 * time.Millisecond)
			So(len(second), ShouldEqual, 0)
			So(len(store.entered), ShouldEqual, 0)

			store.release <- struct{}{}
			got1 := <-first
			<-store.entered
			store.release <- struct{}{}
			got2 := <-second

			Convey("Then the retry is applied once the first write has failed", func() {
				So(errors.Is(got1.err, errDiskFull), ShouldBeTrue)
				So(got2.err, ShouldBeNil)
				So(got2.res.Duplicate, ShouldBeFalse)
				stored, err := store.FetchShots(ctx, "r1")
				So(err, ShouldBeNil)
				So(stored, ShouldHaveLength, 3)
			})

			Convey("Then a later resubmission is a duplicate", func() {
				res, err := svc.SubmitShots(ctx, sub)
				So(err, ShouldBeNil)
				So(res.Duplicate, ShouldBeTrue)
				So(store.calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the retry's context ends while the first is in flight", func() {
			short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
			defer cancel()
			res, err := svc.SubmitShots(short, sub)
			store.release <- struct{}{}
			<-first

			Convey("Then it fails without being reported as a duplicate", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				So(res.Duplicate, ShouldBeFalse)
			})
		})
	})
}

func TestTeamMembershipAndModels(t *testing.T) {
	Convey("Given a service resolving teams from its store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := startService(ctx, store)
		defer svc.Stop()
		played := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
		seedRound(ctx, store, "r1", "ann", "t1", played)
		seedRound(ctx, store, "r2", "bo", "t2", played)

		Convey("When a user joins a team", func() {
			So(svc.AddTeamMember(ctx, " t1 ", "coach"), ShouldBeNil)
			rows, err := svc.Leaderboard(ctx, "coach", leaderboard.Query{Scope: leaderboard.ScopeTeam})

			Convey("Then the team leaderboard covers only that team", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
				So(rows[0].PlayerID, ShouldEqual, "ann")
			})
		})

		Convey("When the membership is incomplete", func() {
			err := svc.AddTeamMember(ctx, "t1", "")
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})

		Convey("When a model is looked up", func() {
			m, err := svc.Model(ctx, "")
			So(err, ShouldBeNil)
			So(m.Name(), ShouldEqual, "tour")
			_, err = svc.Model(ctx, "missing")
			So(errors.Is(err, baseline.ErrModelNotFound), ShouldBeTrue)
		})
	})
}

func TestFetchRetries(t *testing.T) {
	Convey("Given a store that times out twice", t, func() {
		ctx := context.Background()
		store := &flakyStore{Store: repository.NewMemoryStore(), failures: 2}
		seedRound(ctx, store, "r1", "p1", "t1", time.Now())

		Convey("When two retries are allowed", func() {
			svc := startService(ctx, store, service.WithFetchRetries(2))
			defer svc.Stop()
			rows, err := svc.Leaderboard(ctx, "", leaderboard.Query{})

			Convey("Then the query succeeds on the third attempt", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
				So(store.calls.Load(), ShouldEqual, 3)
			})
		})

		Convey("When only one retry is allowed", func() {
			svc := startService(ctx, store, service.WithFetchRetries(1))
			defer svc.Stop()
			rows, err := svc.Leaderboard(ctx, "", leaderboard.Query{})

			Convey("Then the query fails as data unavailable with no rows", func() {
				So(errors.Is(err, repository.ErrDataUnavailable), ShouldBeTrue)
				So(rows, ShouldBeNil)
				So(store.calls.Load(), ShouldEqual, 2)
			})
		})
	})
}

func TestScorecardToPar(t *testing.T) {
	Convey("Given a round scored hole by hole with no header total", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := startService(ctx, store)
		defer svc.Stop()

		_, err := svc.SaveRound(ctx, model.Round{ID: "card", PlayerID: "p1", RoundType: types.Tournament, Par: 72})
		So(err, ShouldBeNil)
		So(svc.SaveHoleScores(ctx, "card", []model.HoleScore{
			{Hole: 1, Par: 4, Strokes: 5}, {Hole: 2, Par: 3, Strokes: 4},
		}), ShouldBeNil)
		_, err = svc.SaveRound(ctx, model.Round{ID: "blank", PlayerID: "p1", RoundType: types.Tournament, Par: 72})
		So(err, ShouldBeNil)

		Convey("Then the leaderboard agrees with the round report", func() {
			rep, err := svc.RoundStrokesGained(ctx, "card", "")
			So(err, ShouldBeNil)
			So(rep.Totals.ToPar, ShouldEqual, 2)

			rows, err := svc.Leaderboard(ctx, "", leaderboard.Query{})
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 1)
			So(rows[0].RoundsPlayed, ShouldEqual, 1)
			So(rows[0].TotalToPar, ShouldEqual, rep.Totals.ToPar)
			So(rows[0].BestRoundToPar, ShouldEqual, 2)
		})

		Convey("Then the rolling average uses the same to-par", func() {
			avg, err := svc.Rolling(ctx, service.RollingQuery{PlayerID: "p1"})
			So(err, ShouldBeNil)
			So(avg.RoundsPlayed, ShouldEqual, 1)
			So(*avg.AvgToPar, ShouldEqual, 2)
		})
	})
}
