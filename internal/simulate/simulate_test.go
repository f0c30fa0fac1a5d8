package simulate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/sgengine/internal/adapters/http/api"
	"github.com/okian/sgengine/internal/adapters/repository"
	service "github.com/okian/sgengine/internal/app"
	"github.com/okian/sgengine/internal/domain/leaderboard"
	"github.com/okian/sgengine/internal/domain/shots"
	"github.com/okian/sgengine/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestGenerator(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		base := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
		gen := newGenerator(7, base)
		players := gen.players(5, 2)

		Convey("Then players are spread over teams with skills in range", func() {
			So(players, ShouldHaveLength, 5)
			So(players[0].TeamID, ShouldEqual, "sim-team-1")
			So(players[1].TeamID, ShouldEqual, "sim-team-2")
			So(players[2].TeamID, ShouldEqual, "sim-team-1")
			for _, p := range players {
				So(p.Skill, ShouldBeBetweenOrEqual, 0, 1)
			}
		})

		Convey("Then every generated round normalizes cleanly", func() {
			rounds := gen.rounds(players[0], 3)
			So(rounds, ShouldHaveLength, 3)
			So(rounds[1].PlayedOn, ShouldEqual, base.AddDate(0, 0, -1))
			for _, r := range rounds {
				batch, err := shots.Normalize(r.ID, r.Shots)
				So(err, ShouldBeNil)
				So(batch.Holes, ShouldHaveLength, 18)
				So(r.Strokes, ShouldEqual, len(r.Shots))
				So(r.Strokes, ShouldBeGreaterThanOrEqualTo, 18*2)
				So(r.Strokes, ShouldBeLessThanOrEqualTo, 18*maxHoleShots)
				last := map[int]string{}
				for _, s := range r.Shots {
					last[s.Hole] = s.EndLie
				}
				for _, lie := range last {
					So(lie, ShouldEqual, "Hole")
				}
			}
		})

		Convey("Then the same seed yields the same shots", func() {
			a := newGenerator(11, base).hole(1, 4, 0.5)
			b := newGenerator(11, base).hole(1, 4, 0.5)
			So(a, ShouldResemble, b)
		})
	})
}

func f(v float64) *float64 { return &v }

func TestVerifyLeaderboard(t *testing.T) {
	Convey("Given two players", t, func() {
		players := []Player{{ID: "a"}, {ID: "b"}}
		good := []leaderboard.Row{
			{Position: 1, PlayerID: "a", RoundsPlayed: 2, AvgSGTotal: f(1.5)},
			{Position: 2, PlayerID: "b", RoundsPlayed: 2, AvgSGTotal: f(-0.5)},
		}

		Convey("Then a consistent board passes", func() {
			So(verifyLeaderboard(good, players, 2), ShouldBeNil)
		})

		Convey("Then a misordered board fails", func() {
			bad := []leaderboard.Row{good[1], good[0]}
			bad[0].Position, bad[1].Position = 1, 2
			So(errors.Is(verifyLeaderboard(bad, players, 2), ErrInconsistent), ShouldBeTrue)
		})

		Convey("Then a wrong round count fails", func() {
			So(errors.Is(verifyLeaderboard(good, players, 3), ErrInconsistent), ShouldBeTrue)
		})

		Convey("Then a repeated player fails", func() {
			dup := []leaderboard.Row{good[0], good[0]}
			dup[1].Position = 2
			So(errors.Is(verifyLeaderboard(dup, players, 2), ErrInconsistent), ShouldBeTrue)
		})

		Convey("Then a missing row fails", func() {
			So(errors.Is(verifyLeaderboard(good[:1], players, 2), ErrInconsistent), ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithStore("memory", repository.NewMemoryStore()), service.WithWorkerCount(4))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When a simulation runs with resubmission", func() {
			cfg := Config{BaseURL: srv.URL, Players: 6, RoundsPerPlayer: 3, Teams: 2, Workers: 4, Seed: 3, Resubmit: true}
			report, err := Run(ctx, cfg)

			Convey("Then every round lands and the board verifies", func() {
				So(err, ShouldBeNil)
				So(report.Stats.Players, ShouldEqual, 6)
				So(report.Stats.Rounds, ShouldEqual, 18)
				So(report.Stats.Duplicates, ShouldEqual, 18)
				So(report.Stats.Failed, ShouldEqual, 0)
				So(report.Stats.ShotsSubmitted, ShouldBeGreaterThan, 18*18)
				So(report.Leaderboard, ShouldHaveLength, 6)
			})
		})

		Convey("When the model does not exist", func() {
			_, err := Run(ctx, Config{BaseURL: srv.URL, Players: 1, RoundsPerPlayer: 1, Workers: 1, Model: "missing"})
			So(errors.Is(err, ErrStatus), ShouldBeTrue)
		})
	})

	Convey("Given no server", t, func() {
		_, err := Run(context.Background(), Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
		So(err, ShouldNotBeNil)
	})
}
