package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/sgengine/internal/adapters/repository"
	"github.com/okian/sgengine/internal/config"
	"github.com/okian/sgengine/internal/domain/baseline"
	"github.com/okian/sgengine/internal/domain/leaderboard"
	"github.com/okian/sgengine/internal/domain/types"
	"github.com/okian/sgengine/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const clubModel = `models:
  - name: club
    short_game_yards: 25
    proxy_lie: Fairway
    putting:
      - {feet: 3, expected: 1.1}
      - {feet: 20, expected: 2.0}
    off_green:
      Fairway:
        - {yards: 100, expected: 2.9}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func sqliteConfig(t *testing.T) *config.Config {
	c := config.New()
	c.StorageBackend = config.BackendSQLite
	c.DatabaseDSN = filepath.Join(t.TempDir(), "sg.db")
	return c
}

func TestOpenStore(t *testing.T) {
	convey.Convey("Given configured backends", t, func() {
		ctx := context.Background()

		convey.Convey("Then memory opens an in-process store", func() {
			s, err := openStore(ctx, config.New())
			convey.So(err, convey.ShouldBeNil)
			_, ok := s.(*repository.MemoryStore)
			convey.So(ok, convey.ShouldBeTrue)
		})

		convey.Convey("Then sqlite opens a SQL store", func() {
			s, err := openStore(ctx, sqliteConfig(t))
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = s.Close() }()
			_, ok := s.(*repository.SQLStore)
			convey.So(ok, convey.ShouldBeTrue)
		})

		convey.Convey("Then an unknown backend is rejected", func() {
			c := config.New()
			c.StorageBackend = "cassandra"
			_, err := openStore(ctx, c)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestImportBaselines(t *testing.T) {
	convey.Convey("Given a baseline file", t, func() {
		ctx := context.Background()
		path := writeFile(t, "club.yaml", clubModel)

		convey.Convey("When it is imported into sqlite", func() {
			c := sqliteConfig(t)
			n, err := importBaselines(ctx, c, path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(n, convey.ShouldEqual, 1)

			convey.Convey("Then a service on the same database loads it", func() {
				svc, err := newService(ctx, c)
				convey.So(err, convey.ShouldBeNil)
				defer svc.Stop()

				m, err := svc.Model(ctx, "club")
				convey.So(err, convey.ShouldBeNil)
				convey.So(m.Params(), convey.ShouldResemble, baseline.Params{ShortGameYards: 25, ProxyLie: types.LieFairway})
				convey.So(m.Points(baseline.KindPutting), convey.ShouldHaveLength, 2)
			})
		})

		convey.Convey("When the backend is memory", func() {
			_, err := importBaselines(ctx, config.New(), path)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the file is missing", func() {
			_, err := importBaselines(ctx, sqliteConfig(t), filepath.Join(t.TempDir(), "none.yaml"))
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestRootCommand(t *testing.T) {
	convey.Convey("Given a config file selecting sqlite", t, func() {
		dsn := filepath.Join(t.TempDir(), "cli.db")
		configFile = writeFile(t, "sgengine.yaml", "storage_backend: sqlite\ndatabase_dsn: "+dsn+"\n")
		defer func() { configFile = "" }()

		run := func(args ...string) (string, error) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetArgs(append([]string{"--config", configFile}, args...))
			err := rootCmd.ExecuteContext(context.Background())
			return out.String(), err
		}

		convey.Convey("When models are listed", func() {
			out, err := run("baseline", "list")

			convey.Convey("Then the bundled models are printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "tour")
				convey.So(out, convey.ShouldContainSubstring, "scratch")
				convey.So(cfg.StorageBackend, convey.ShouldEqual, config.BackendSQLite)
			})
		})

		convey.Convey("When a team member is added", func() {
			out, err := run("team", "add", "t1", "coach")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "coach added to t1")

			store, err := repository.NewSQLStore(context.Background(), repository.DialectSQLite, dsn)
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = store.Close() }()
			teams, err := store.TeamsForUser(context.Background(), "coach")
			convey.So(err, convey.ShouldBeNil)
			convey.So(teams, convey.ShouldResemble, []string{"t1"})
		})

		convey.Convey("When an empty leaderboard is printed", func() {
			_, err := run("leaderboard", "--scope", "all")
			convey.So(err, convey.ShouldBeNil)
		})
	})
}

func TestLeaderboardQuery(t *testing.T) {
	convey.Convey("Given leaderboard flags", t, func() {
		defer func() { lbFlags.scope, lbFlags.roundType, lbFlags.from, lbFlags.to = "all", "", "", "" }()

		convey.Convey("Then valid flags build a query", func() {
			lbFlags.scope, lbFlags.roundType, lbFlags.from, lbFlags.to = "team", "practice", "2026-04-01", "2026-04-30"
			q, err := leaderboardQuery()
			convey.So(err, convey.ShouldBeNil)
			convey.So(q.Scope, convey.ShouldEqual, leaderboard.ScopeTeam)
			convey.So(q.RoundType, convey.ShouldEqual, types.Practice)
			convey.So(q.To, convey.ShouldEqual, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC))
		})

		convey.Convey("Then bad flags are rejected", func() {
			lbFlags.scope = "club"
			_, err := leaderboardQuery()
			convey.So(errors.Is(err, leaderboard.ErrUnknownScope), convey.ShouldBeTrue)

			lbFlags.scope, lbFlags.from, lbFlags.to = "all", "2026-05-01", "2026-04-01"
			_, err = leaderboardQuery()
			convey.So(errors.Is(err, leaderboard.ErrInvalidQuery), convey.ShouldBeTrue)
		})
	})
}

func TestPrintLeaderboard(t *testing.T) {
	convey.Convey("Given leaderboard rows", t, func() {
		sg := 1.234
		rows := []leaderboard.Row{
			{Position: 1, PlayerID: "p1", PlayerName: "Ann", TeamID: "t1", RoundsPlayed: 2, AvgToPar: -1.5, BestRoundToPar: -3, AvgSGTotal: &sg},
			{Position: 2, PlayerID: "p2", RoundsPlayed: 1, AvgToPar: 2, BestRoundToPar: 2},
		}
		var buf bytes.Buffer
		convey.So(printLeaderboard(&buf, rows), convey.ShouldBeNil)

		convey.Convey("Then every row is rendered", func() {
			out := buf.String()
			convey.So(out, convey.ShouldContainSubstring, "Ann")
			convey.So(out, convey.ShouldContainSubstring, "p2")
			convey.So(out, convey.ShouldContainSubstring, "1.23")
			convey.So(out, convey.ShouldContainSubstring, "+2")
			convey.So(out, convey.ShouldContainSubstring, "-3")
		})
	})

	convey.Convey("Given to-par values", t, func() {
		convey.So(fmtToPar(0), convey.ShouldEqual, "E")
		convey.So(fmtToPar(4), convey.ShouldEqual, "+4")
		convey.So(fmtToPar(-2), convey.ShouldEqual, "-2")
		convey.So(fmtSG(nil), convey.ShouldEqual, "-")
	})
}

func TestMux(t *testing.T) {
	convey.Convey("Given the served mux", t, func() {
		ctx := context.Background()
		svc, err := newService(ctx, config.New())
		convey.So(err, convey.ShouldBeNil)
		defer svc.Stop()
		mux := newMux(ctx, svc)

		for _, path := range []string{"/", "/openapi.yaml", "/api-docs", "/healthz", "/stats", "/baselines"} {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		}
	})

	convey.Convey("Given system metrics", t, func() {
		convey.So(updateSystemMetrics, convey.ShouldNotPanic)
	})
}
