// Package leaderboard ranks players from per-round reporting rows.
package leaderboard

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/okian/sgengine/internal/domain/model"
	"github.com/okian/sgengine/internal/domain/types"
)

// Scope selects whose rounds are ranked.
type Scope string

// Scopes.
const (
	ScopeTeam Scope = "team"
	ScopeAll  Scope = "all"
)

// ParseScope accepts "team" or "all"; empty means all.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ScopeAll, nil
	case "team":
		return ScopeTeam, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScope, s)
}

// Query describes one leaderboard request. TeamIDs are the caller's teams,
// already resolved, and only consulted for ScopeTeam.
type Query struct {
	Scope     Scope
	TeamIDs   []string
	RoundType types.RoundType
	From      time.Time
	To        time.Time
	Model     string
}

// Validate checks the date window.
func (q Query) Validate() error {
	if !q.From.IsZero() && !q.To.IsZero() && model.EndOfDay(q.To).Before(q.From) {
		return fmt.Errorf("%w: from is after to", ErrInvalidQuery)
	}
	return nil
}

// Filter converts q into the row filter used to fetch qualifying rounds.
func (q Query) Filter() model.RowFilter {
	f := model.RowFilter{RoundType: q.RoundType, From: q.From, To: q.To}
	if q.Scope == ScopeTeam {
		f.RestrictTeams = true
		f.TeamIDs = slices.Clone(q.TeamIDs)
	}
	return f
}

// Row is one ranked player. SG averages are nil when none of the player's
// qualifying rounds carried that value.
type Row struct {
	Position       int       `json:"position"`
	PlayerID       string    `json:"player_id"`
	PlayerName     string    `json:"player_name,omitempty"`
	TeamID         string    `json:"team_id,omitempty"`
	RoundsPlayed   int       `json:"rounds_played"`
	TotalToPar     int       `json:"total_to_par"`
	AvgToPar       float64   `json:"avg_to_par"`
	AvgSGTotal     *float64  `json:"avg_sg_total"`
	AvgSGOTT       *float64  `json:"avg_sg_ott"`
	AvgSGApp       *float64  `json:"avg_sg_app"`
	AvgSGArg       *float64  `json:"avg_sg_arg"`
	AvgSGPutt      *float64  `json:"avg_sg_putt"`
	BestRoundToPar int       `json:"best_round_to_par"`
	LastPlayed     time.Time `json:"last_played"`
}

// mean is a running sum and count of non-null values.
type mean struct {
	sum   float64
	count int
}

func (m *mean) add(v *float64) {
	if v != nil {
		m.sum += *v
		m.count++
	}
}

func (m mean) value() *float64 {
	if m.count == 0 {
		return nil
	}
	v := m.sum / float64(m.count)
	return &v
}

type accumulator struct {
	row                      Row
	latest                   time.Time
	scored                   int
	total, ott, app, arg, pt mean
}

// ctxCheckEvery bounds how many rows are folded between cancellation checks.
const ctxCheckEvery = 256

// Ranker groups rows by player and orders them. It holds no state.
type Ranker struct{}

// NewRanker creates a Ranker.
func NewRanker() *Ranker { return &Ranker{} }

// Rank aggregates the rows matching filter and returns them ordered by
// avg_sg_total desc (null last), rounds_played desc, avg_to_par asc.
// Positions are 1..n in that order; ties are not collapsed. To-par figures
// cover scored rounds only. A cancelled context yields its error and no rows.
func (r *Ranker) Rank(ctx context.Context, filter model.RowFilter, rows []model.RoundRow) ([]Row, error) {
	byPlayer := map[string]*accumulator{}
	order := make([]string, 0)

	for i, rr := range rows {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if !filter.Matches(rr) {
			continue
		}
		acc, ok := byPlayer[rr.PlayerID]
		if !ok {
			acc = &accumulator{row: Row{PlayerID: rr.PlayerID}}
			byPlayer[rr.PlayerID] = acc
			order = append(order, rr.PlayerID)
		}
		acc.fold(rr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]Row, 0, len(order))
	for _, id := range order {
		out = append(out, byPlayer[id].finish())
	}
	slices.SortStableFunc(out, Compare)
	for i := range out {
		out[i].Position = i + 1
	}
	return out, nil
}

func (a *accumulator) fold(rr model.RoundRow) {
	a.row.RoundsPlayed++
	if !rr.Unscored {
		if a.scored == 0 || rr.ToPar < a.row.BestRoundToPar {
			a.row.BestRoundToPar = rr.ToPar
		}
		a.scored++
		a.row.TotalToPar += rr.ToPar
	}
	if !rr.CreatedAt.Before(a.latest) {
		a.latest = rr.CreatedAt
		a.row.LastPlayed = rr.CreatedAt
		a.row.PlayerName = rr.PlayerName
		a.row.TeamID = rr.TeamID
	}
	a.total.add(rr.SGTotal)
	a.ott.add(rr.SGOTT)
	a.app.add(rr.SGApp)
	a.arg.add(rr.SGArg)
	a.pt.add(rr.SGPutt)
}

func (a *accumulator) finish() Row {
	row := a.row
	if a.scored > 0 {
		row.AvgToPar = float64(row.TotalToPar) / float64(a.scored)
	}
	row.AvgSGTotal = a.total.value()
	row.AvgSGOTT = a.ott.value()
	row.AvgSGApp = a.app.value()
	row.AvgSGArg = a.arg.value()
	row.AvgSGPutt = a.pt.value()
	return row
}

// Compare orders two rows for display: negative when a ranks before b.
func Compare(a, b Row) int {
	switch {
	case a.AvgSGTotal != nil && b.AvgSGTotal == nil:
		return -1
	case a.AvgSGTotal == nil && b.AvgSGTotal != nil:
		return 1
	case a.AvgSGTotal != nil && *a.AvgSGTotal != *b.AvgSGTotal:
		return -cmp.Compare(*a.AvgSGTotal, *b.AvgSGTotal)
	}
	if a.RoundsPlayed != b.RoundsPlayed {
		return -cmp.Compare(a.RoundsPlayed, b.RoundsPlayed)
	}
	return cmp.Compare(a.AvgToPar, b.AvgToPar)
}
