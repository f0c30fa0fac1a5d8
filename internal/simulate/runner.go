package simulate

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/okian/sgengine/internal/adapters/worker"
	"github.com/okian/sgengine/internal/domain/leaderboard"
	"github.com/okian/sgengine/pkg/logger"
)

// Report is the outcome of a run.
type Report struct {
	Stats       Stats
	Leaderboard []leaderboard.Row
}

type playerBody struct {
	Name   string `json:"name"`
	TeamID string `json:"team_id"`
}

type roundBody struct {
	PlayerID  string `json:"player_id"`
	TeamID    string `json:"team_id"`
	Course    string `json:"course"`
	RoundType string `json:"round_type"`
	PlayedOn  string `json:"played_on"`
	Par       int    `json:"par"`
	Strokes   int    `json:"strokes"`
}

type shotsBody struct {
	SubmissionID string `json:"submission_id"`
	Model        string `json:"model,omitempty"`
	Shots        any    `json:"shots"`
}

type submitAck struct {
	Duplicate bool `json:"duplicate"`
	Shots     []struct {
		Hole int `json:"hole"`
	} `json:"shots"`
}

type leaderboardBody struct {
	Rows []leaderboard.Row `json:"rows"`
}

// Run seeds players and rounds through the API, submits every round's shots,
// then fetches the leaderboard and verifies it.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	cfg.normalize()
	log := logger.Get().Named("simulate")
	stats := Stats{StartTime: time.Now()}

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("players", cfg.Players),
		logger.Int("roundsPerPlayer", cfg.RoundsPerPlayer),
		logger.Int("workers", cfg.Workers))

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := c.get(ctx, "/healthz", nil, nil); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	gen := newGenerator(cfg.Seed, time.Now().UTC().Truncate(24*time.Hour))
	players := gen.players(cfg.Players, cfg.Teams)
	var rounds []Round
	for _, p := range players {
		rounds = append(rounds, gen.rounds(p, cfg.RoundsPerPlayer)...)
	}
	stats.Players = len(players)
	stats.Rounds = len(rounds)

	pool := worker.NewPool(cfg.Workers, worker.WithName("simulate"), worker.WithLogger(log))

	err := pool.Run(ctx, len(players), func(ctx context.Context, i int) error {
		p := players[i]
		return c.put(ctx, "/players/"+url.PathEscape(p.ID), playerBody{Name: p.Name, TeamID: p.TeamID}, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("seed players: %w", err)
	}

	var failed atomic.Int64
	outcomes, err := worker.Map(ctx, pool, rounds, func(ctx context.Context, r Round) (submitOutcome, error) {
		out, err := submitRound(ctx, c, cfg, r)
		if err != nil {
			failed.Add(1)
		}
		return out, err
	})
	stats.Failed = int(failed.Load())
	if err != nil {
		return nil, fmt.Errorf("submit rounds: %w", err)
	}
	for _, o := range outcomes {
		stats.ShotsSubmitted += o.shots
		if o.duplicate {
			stats.Duplicates++
		}
	}

	q := url.Values{"scope": {"all"}}
	if cfg.Model != "" {
		q.Set("model", cfg.Model)
	}
	var board leaderboardBody
	if err := c.get(ctx, "/leaderboard", q, &board); err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	stats.LeaderboardRows = len(board.Rows)

	if err := verifyLeaderboard(board.Rows, players, cfg.RoundsPerPlayer); err != nil {
		return nil, err
	}
	if cfg.Resubmit && stats.Duplicates != len(rounds) {
		return nil, fmt.Errorf("%w: %d of %d resubmissions acknowledged as duplicates", ErrInconsistent, stats.Duplicates, len(rounds))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	log.Info(ctx, "simulation completed",
		logger.Int("rounds", stats.Rounds),
		logger.Int("shots", stats.ShotsSubmitted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("leaderboardRows", stats.LeaderboardRows),
		logger.Duration("duration", stats.Duration))

	return &Report{Stats: stats, Leaderboard: board.Rows}, nil
}

type submitOutcome struct {
	shots     int
	duplicate bool // resubmission was acknowledged as a duplicate
}

// submitRound stores r's header and shots, then resubmits the shots when
// cfg.Resubmit is set.
func submitRound(ctx context.Context, c *client, cfg Config, r Round) (submitOutcome, error) {
	path := "/rounds/" + url.PathEscape(r.ID)
	meta := roundBody{
		PlayerID:  r.PlayerID,
		TeamID:    r.TeamID,
		Course:    courseName,
		RoundType: r.RoundType.String(),
		PlayedOn:  r.PlayedOn.Format(time.DateOnly),
		Par:       coursePar,
		Strokes:   r.Strokes,
	}
	if err := c.put(ctx, path, meta, nil); err != nil {
		return submitOutcome{}, err
	}

	body := shotsBody{SubmissionID: r.SubmissionID, Model: cfg.Model, Shots: r.Shots}
	var ack submitAck
	if err := c.put(ctx, path+"/shots", body, &ack); err != nil {
		return submitOutcome{}, err
	}
	out := submitOutcome{shots: len(ack.Shots)}

	if cfg.Resubmit {
		var again submitAck
		if err := c.put(ctx, path+"/shots", body, &again); err != nil {
			return submitOutcome{}, err
		}
		out.duplicate = again.Duplicate
	}
	return out, nil
}
