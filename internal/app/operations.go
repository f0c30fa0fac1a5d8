package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/okian/sgengine/internal/domain/aggregate"
	"github.com/okian/sgengine/internal/domain/baseline"
	"github.com/okian/sgengine/internal/domain/dedupe"
	"github.com/okian/sgengine/internal/domain/leaderboard"
	"github.com/okian/sgengine/internal/domain/model"
	"github.com/okian/sgengine/internal/domain/shots"
	"github.com/okian/sgengine/internal/domain/strokesgained"
	"github.com/okian/sgengine/internal/domain/types"
	"github.com/okian/sgengine/pkg/logger"
	"github.com/okian/sgengine/pkg/metrics"
)

// Submission is one batch of raw shots for a round. SubmissionID is an
// optional client token; a repeated token is acknowledged without writing.
type Submission struct {
	RoundID      string
	SubmissionID string
	Model        string
	Shots        []model.RawShot
}

// SubmitResult is the normalized batch and its strokes gained.
type SubmitResult struct {
	RoundID   string                 `json:"round_id"`
	Duplicate bool                   `json:"duplicate"`
	Model     string                 `json:"model,omitempty"`
	Holes     []int                  `json:"holes,omitempty"`
	Shots     []model.Shot           `json:"shots,omitempty"`
	Results   []strokesgained.Result `json:"results,omitempty"`
	SG        *aggregate.SGTotals    `json:"sg,omitempty"`
}

// SubmitShots validates sub, computes its strokes gained and replaces the
// round's shots on the holes it covers. Nothing is written when validation
// or the baseline lookup fails. A submission id is recorded only once the
// write succeeds; a concurrent submission with the same id waits for the
// first to finish.
func (s *Service) SubmitShots(ctx context.Context, sub Submission) (SubmitResult, error) {
	if err := s.ready(); err != nil {
		return SubmitResult{}, err
	}

	batch, err := shots.Normalize(sub.RoundID, sub.Shots)
	if err != nil {
		var ve *shots.ValidationError
		if errors.As(err, &ve) {
			metrics.RecordShotRejected(ve.Field)
		}
		return SubmitResult{}, err
	}

	modelName := s.modelOrDefault(sub.Model)
	results, err := s.calc.CalculateAll(ctx, modelName, batch.Shots)
	if err != nil {
		recordBaselineError(err)
		return SubmitResult{}, fmt.Errorf("round %s: %w", batch.RoundID, err)
	}

	finish := func(bool) {}
	if id := strings.TrimSpace(sub.SubmissionID); id != "" {
		dup, claimed, err := s.deduper.Begin(ctx, dedupe.Key(batch.RoundID, id))
		if err != nil {
			return SubmitResult{}, fmt.Errorf("round %s: %w", batch.RoundID, err)
		}
		if dup {
			metrics.RecordSubmissionDuplicate()
			s.logger.Debug(ctx, "duplicate submission, skipping",
				logger.String("round_id", batch.RoundID),
				logger.String("submission_id", id),
			)
			return SubmitResult{RoundID: batch.RoundID, Duplicate: true}, nil
		}
		finish = claimed
	}

	start := time.Now()
	err = s.retry(ctx, "replace_shots", func(ctx context.Context) error {
		return s.store.ReplaceShots(ctx, batch.RoundID, batch.Holes, batch.Shots)
	})
	metrics.RecordShotReplaceLatency(metrics.Since(start))
	finish(err == nil)
	if err != nil {
		metrics.RecordErrorByComponent("service", "replace_shots")
		return SubmitResult{}, fmt.Errorf("round %s: %w", batch.RoundID, err)
	}
	metrics.RecordShotsSubmitted(len(batch.Shots))

	sg := aggregate.Sum(results)
	s.logger.Debug(ctx, "shots replaced",
		logger.String("round_id", batch.RoundID),
		logger.Any("holes", batch.Holes),
		logger.Int("shots", len(batch.Shots)),
		logger.Float64("sg_total", sg.Total),
	)
	return SubmitResult{
		RoundID: batch.RoundID,
		Model:   modelName,
		Holes:   batch.Holes,
		Shots:   batch.Shots,
		Results: results,
		SG:      &sg,
	}, nil
}

// RoundReport is a round with its per-shot results and hole/round totals.
type RoundReport struct {
	Round   model.Round            `json:"round"`
	Model   string                 `json:"model"`
	Totals  aggregate.RoundTotals  `json:"totals"`
	Results []strokesgained.Result `json:"results"`
}

// RoundStrokesGained computes a round's strokes gained against modelName.
func (s *Service) RoundStrokesGained(ctx context.Context, roundID, modelName string) (RoundReport, error) {
	if err := s.ready(); err != nil {
		return RoundReport{}, err
	}
	modelName = s.modelOrDefault(modelName)

	round, err := fetch(ctx, s, "fetch_round", func(ctx context.Context) (model.Round, error) {
		return s.store.FetchRound(ctx, roundID)
	})
	if err != nil {
		return RoundReport{}, err
	}
	roundShots, err := fetch(ctx, s, "fetch_shots", func(ctx context.Context) ([]model.Shot, error) {
		return s.store.FetchShots(ctx, roundID)
	})
	if err != nil {
		return RoundReport{}, err
	}
	scores, err := fetch(ctx, s, "fetch_hole_scores", func(ctx context.Context) ([]model.HoleScore, error) {
		return s.store.FetchHoleScores(ctx, roundID)
	})
	if err != nil {
		return RoundReport{}, err
	}

	results, err := s.calc.CalculateAll(ctx, modelName, roundShots)
	if err != nil {
		recordBaselineError(err)
		return RoundReport{}, fmt.Errorf("round %s: %w", roundID, err)
	}
	if results == nil {
		results = []strokesgained.Result{}
	}
	return RoundReport{
		Round:   round,
		Model:   modelName,
		Totals:  aggregate.Round(roundID, results, scores),
		Results: results,
	}, nil
}

// RollingQuery selects the rounds of a rolling average. Window 0 means the
// configured maximum.
type RollingQuery struct {
	PlayerID  string
	Window    int
	RoundType types.RoundType
	From      time.Time
	To        time.Time
	Model     string
}

// Rolling averages a player's most recent qualifying rounds.
func (s *Service) Rolling(ctx context.Context, q RollingQuery) (aggregate.RollingAverage, error) {
	if err := s.ready(); err != nil {
		return aggregate.RollingAverage{}, err
	}
	q.PlayerID = strings.TrimSpace(q.PlayerID)
	if q.PlayerID == "" {
		return aggregate.RollingAverage{}, fmt.Errorf("%w: player id must not be empty", ErrInvalidRequest)
	}
	if q.Window < 0 || q.Window > s.maxRollingWindow {
		return aggregate.RollingAverage{}, fmt.Errorf("%w: window must be between 1 and %d", ErrInvalidRequest, s.maxRollingWindow)
	}
	if q.Window == 0 {
		q.Window = s.maxRollingWindow
	}
	modelName := s.modelOrDefault(q.Model)
	metrics.RecordRollingQuery()

	if _, err := s.baselines.Model(ctx, modelName); err != nil {
		recordBaselineError(err)
		return aggregate.RollingAverage{}, err
	}

	filter := model.RowFilter{PlayerID: q.PlayerID, RoundType: q.RoundType, From: q.From, To: q.To}
	rows, err := fetch(ctx, s, "fetch_round_rows", func(ctx context.Context) ([]model.RoundRow, error) {
		return s.store.FetchRoundRows(ctx, filter)
	})
	if err != nil {
		return aggregate.RollingAverage{}, err
	}

	// Only the window's rounds need strokes gained.
	slices.SortStableFunc(rows, func(a, b model.RoundRow) int {
		if c := b.PlayedOn.Compare(a.PlayedOn); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(rows) > q.Window {
		rows = rows[:q.Window]
	}
	if err := s.enrich(ctx, modelName, rows); err != nil {
		return aggregate.RollingAverage{}, err
	}

	summaries := make([]aggregate.RoundSummary, len(rows))
	for i, row := range rows {
		summaries[i] = aggregate.SummaryFromRow(row)
	}
	return aggregate.Rolling(q.PlayerID, q.Window, summaries), nil
}

// Leaderboard ranks the rounds selected by q. Team scope resolves userID's
// teams first; a user with no teams gets an empty board. A failed query
// returns an error and no rows.
func (s *Service) Leaderboard(ctx context.Context, userID string, q leaderboard.Query) ([]leaderboard.Row, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.RecordLeaderboardLatency(metrics.Since(start)) }()

	if q.Scope == "" {
		q.Scope = leaderboard.ScopeAll
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	q.Model = s.modelOrDefault(q.Model)
	metrics.RecordLeaderboardQuery(string(q.Scope))

	if q.Scope == leaderboard.ScopeTeam {
		teams, err := s.teams.Teams(ctx, userID)
		if err != nil {
			return nil, err
		}
		q.TeamIDs = teams
	}
	if _, err := s.baselines.Model(ctx, q.Model); err != nil {
		recordBaselineError(err)
		return nil, err
	}

	filter := q.Filter()
	rows, err := fetch(ctx, s, "fetch_round_rows", func(ctx context.Context) ([]model.RoundRow, error) {
		return s.store.FetchRoundRows(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	if err := s.enrich(ctx, q.Model, rows); err != nil {
		return nil, err
	}

	ranked, err := s.ranker.Rank(ctx, filter, rows)
	if err != nil {
		return nil, err
	}
	metrics.UpdateLeaderboardRows(len(ranked))
	return ranked, nil
}

// enrich fills the SG fields of every row with shot detail, one round per
// pool job. Any failure fails the whole call.
func (s *Service) enrich(ctx context.Context, modelName string, rows []model.RoundRow) error {
	idx := make([]int, 0, len(rows))
	for i, row := range rows {
		if row.ShotCount > 0 {
			idx = append(idx, i)
		}
	}
	err := s.pool.Run(ctx, len(idx), func(ctx context.Context, i int) error {
		row := &rows[idx[i]]
		roundShots, err := fetch(ctx, s, "fetch_shots", func(ctx context.Context) ([]model.Shot, error) {
			return s.store.FetchShots(ctx, row.RoundID)
		})
		if err != nil {
			return err
		}
		results, err := s.calc.CalculateAll(ctx, modelName, roundShots)
		if err != nil {
			return fmt.Errorf("round %s: %w", row.RoundID, err)
		}
		row.SetSG(aggregate.Sum(results).ByCategory())
		return nil
	})
	if err != nil {
		recordBaselineError(err)
	}
	return err
}

func recordBaselineError(err error) {
	switch {
	case errors.Is(err, baseline.ErrModelNotFound):
		metrics.RecordBaselineError("model_not_found")
	case errors.Is(err, baseline.ErrIncompleteModel):
		metrics.RecordBaselineError("incomplete_model")
	}
}

// Models lists the loaded baseline models.
func (s *Service) Models(ctx context.Context) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.baselines.Models(ctx), nil
}

// Model returns one loaded baseline model.
func (s *Service) Model(ctx context.Context, name string) (*baseline.Model, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.baselines.Model(ctx, s.modelOrDefault(name))
}

// ReplaceCurve bulk-replaces one curve of a baseline model.
func (s *Service) ReplaceCurve(ctx context.Context, modelName string, kind baseline.Kind, points []baseline.Point) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.baselines.ReplaceCurve(ctx, modelName, kind, points); err != nil {
		return err
	}
	s.logger.Info(ctx, "baseline curve replaced",
		logger.String("model", modelName),
		logger.String("kind", string(kind)),
		logger.Int("points", len(points)),
	)
	return nil
}

// SetParams updates the tuning values of a baseline model.
func (s *Service) SetParams(ctx context.Context, modelName string, p baseline.Params) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.baselines.SetParams(ctx, modelName, p)
}

// SavePlayer upserts a roster entry.
func (s *Service) SavePlayer(ctx context.Context, p model.Player) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.store.SavePlayer(ctx, p)
}

// SaveRound upserts a round, assigning an id when missing.
func (s *Service) SaveRound(ctx context.Context, r model.Round) (model.Round, error) {
	if err := s.ready(); err != nil {
		return model.Round{}, err
	}
	return s.store.SaveRound(ctx, r)
}

// SaveHoleScores upserts scorecard lines for a round.
func (s *Service) SaveHoleScores(ctx context.Context, roundID string, scores []model.HoleScore) error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, hs := range scores {
		if hs.Hole < shots.MinHole || hs.Hole > shots.MaxHole {
			return fmt.Errorf("%w: hole %d out of range", ErrInvalidRequest, hs.Hole)
		}
	}
	return s.store.SaveHoleScores(ctx, roundID, scores)
}

// AddTeamMember grants userID visibility of teamID's rounds on team-scoped
// leaderboards.
func (s *Service) AddTeamMember(ctx context.Context, teamID, userID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	teamID, userID = strings.TrimSpace(teamID), strings.TrimSpace(userID)
	if teamID == "" || userID == "" {
		return fmt.Errorf("%w: team and user must not be empty", ErrInvalidRequest)
	}
	return s.store.AddTeamMember(ctx, teamID, userID)
}
