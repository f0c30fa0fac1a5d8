// Package aggregate rolls strokes-gained results up into hole, round and
// rolling per-player totals. Everything here is a pure function of its inputs.
package aggregate

import (
	"cmp"
	"slices"
	"time"

	"github.com/okian/sgengine/internal/domain/model"
	"github.com/okian/sgengine/internal/domain/strokesgained"
	"github.com/okian/sgengine/internal/domain/types"
)

// SGTotals holds strokes gained per category and overall.
type SGTotals struct {
	OffTheTee   float64 `json:"off_the_tee"`
	Approach    float64 `json:"approach"`
	AroundGreen float64 `json:"around_green"`
	Putting     float64 `json:"putting"`
	Total       float64 `json:"total"`
}

// Add credits v to category c and the total.
func (t *SGTotals) Add(c types.Category, v float64) {
	switch c {
	case types.OffTheTee:
		t.OffTheTee += v
	case types.Approach:
		t.Approach += v
	case types.AroundGreen:
		t.AroundGreen += v
	case types.Putting:
		t.Putting += v
	}
	t.Total += v
}

// ByCategory returns the category sums keyed by category.
func (t SGTotals) ByCategory() map[types.Category]float64 {
	return map[types.Category]float64{
		types.OffTheTee:   t.OffTheTee,
		types.Approach:    t.Approach,
		types.AroundGreen: t.AroundGreen,
		types.Putting:     t.Putting,
	}
}

func (t SGTotals) scale(f float64) SGTotals {
	return SGTotals{
		OffTheTee:   t.OffTheTee * f,
		Approach:    t.Approach * f,
		AroundGreen: t.AroundGreen * f,
		Putting:     t.Putting * f,
		Total:       t.Total * f,
	}
}

func (t SGTotals) plus(o SGTotals) SGTotals {
	return SGTotals{
		OffTheTee:   t.OffTheTee + o.OffTheTee,
		Approach:    t.Approach + o.Approach,
		AroundGreen: t.AroundGreen + o.AroundGreen,
		Putting:     t.Putting + o.Putting,
		Total:       t.Total + o.Total,
	}
}

// Sum totals a set of results.
func Sum(results []strokesgained.Result) SGTotals {
	var t SGTotals
	for _, r := range results {
		t.Add(r.Category, r.Value)
	}
	return t
}

// HoleTotals is one hole's scorecard line plus its strokes gained.
type HoleTotals struct {
	Hole              int      `json:"hole"`
	Par               int      `json:"par,omitempty"`
	Strokes           int      `json:"strokes,omitempty"`
	ToPar             int      `json:"to_par"`
	Putts             int      `json:"putts"`
	Penalties         int      `json:"penalties"`
	FairwayHit        *bool    `json:"fairway_hit,omitempty"`
	GreenInRegulation bool     `json:"gir"`
	HasScore          bool     `json:"has_score"`
	Shots             int      `json:"shots"`
	SG                SGTotals `json:"sg"`
}

// RoundTotals is the per-hole breakdown and round summary.
type RoundTotals struct {
	RoundID            string       `json:"round_id"`
	Holes              []HoleTotals `json:"holes"`
	HolesPlayed        int          `json:"holes_played"`
	Par                int          `json:"par"`
	Strokes            int          `json:"strokes"`
	ToPar              int          `json:"to_par"`
	Putts              int          `json:"putts"`
	Penalties          int          `json:"penalties"`
	FairwaysHit        int          `json:"fairways_hit"`
	FairwayChances     int          `json:"fairway_chances"`
	GreensInRegulation int          `json:"greens_in_regulation"`
	Shots              int          `json:"shots"`
	SG                 SGTotals     `json:"sg"`
}

// Round sums results per hole and per round and folds in the scorecard
// counts from scores. Holes appear when they have either shots or a score.
func Round(roundID string, results []strokesgained.Result, scores []model.HoleScore) RoundTotals {
	byHole := map[int]*HoleTotals{}
	hole := func(n int) *HoleTotals {
		h, ok := byHole[n]
		if !ok {
			h = &HoleTotals{Hole: n}
			byHole[n] = h
		}
		return h
	}

	for _, r := range results {
		h := hole(r.Hole)
		h.Shots++
		h.SG.Add(r.Category, r.Value)
	}
	for _, s := range scores {
		h := hole(s.Hole)
		h.HasScore = true
		h.Par = s.Par
		h.Strokes = s.Strokes
		h.ToPar = s.ToPar()
		h.Putts = s.Putts
		h.Penalties = s.Penalties
		h.FairwayHit = s.FairwayHit
		h.GreenInRegulation = s.GreenInRegulation
	}

	out := RoundTotals{RoundID: roundID, Holes: make([]HoleTotals, 0, len(byHole))}
	for _, h := range byHole {
		out.Holes = append(out.Holes, *h)
	}
	slices.SortFunc(out.Holes, func(a, b HoleTotals) int { return cmp.Compare(a.Hole, b.Hole) })

	for _, h := range out.Holes {
		out.Shots += h.Shots
		out.SG = out.SG.plus(h.SG)
		if !h.HasScore {
			continue
		}
		out.HolesPlayed++
		out.Par += h.Par
		out.Strokes += h.Strokes
		out.Putts += h.Putts
		out.Penalties += h.Penalties
		if h.FairwayHit != nil {
			out.FairwayChances++
			if *h.FairwayHit {
				out.FairwaysHit++
			}
		}
		if h.GreenInRegulation {
			out.GreensInRegulation++
		}
	}
	out.ToPar = out.Strokes - out.Par
	return out
}

// RoundSummary is one qualifying round as seen by the rolling average.
// SG is nil when the round has no shot-level detail.
type RoundSummary struct {
	RoundID   string
	PlayedOn  time.Time
	CreatedAt time.Time
	ToPar     int
	Unscored  bool
	SG        *SGTotals
}

// SummaryFromRow converts a reporting row.
func SummaryFromRow(row model.RoundRow) RoundSummary {
	s := RoundSummary{RoundID: row.RoundID, PlayedOn: row.PlayedOn, CreatedAt: row.CreatedAt, ToPar: row.ToPar, Unscored: row.Unscored}
	if row.SGTotal != nil {
		s.SG = &SGTotals{Total: *row.SGTotal}
		if row.SGOTT != nil {
			s.SG.OffTheTee = *row.SGOTT
		}
		if row.SGApp != nil {
			s.SG.Approach = *row.SGApp
		}
		if row.SGArg != nil {
			s.SG.AroundGreen = *row.SGArg
		}
		if row.SGPutt != nil {
			s.SG.Putting = *row.SGPutt
		}
	}
	return s
}

// RollingAverage is a player's mean over their most recent rounds.
type RollingAverage struct {
	PlayerID     string    `json:"player_id"`
	Window       int       `json:"window"`
	RoundsPlayed int       `json:"rounds_played"`
	RoundsWithSG int       `json:"rounds_with_sg"`
	AvgToPar     *float64  `json:"avg_to_par"`
	AvgSG        *SGTotals `json:"avg_sg"`
	RoundIDs     []string  `json:"round_ids"`
}

// Rolling averages the window most recent rounds (all when window <= 0).
// Rounds without SG data count toward RoundsPlayed and to-par but are left
// out of the SG means; unscored rounds are likewise left out of the to-par
// mean, which is nil when no round in the window has a score.
func Rolling(playerID string, window int, rounds []RoundSummary) RollingAverage {
	recent := slices.Clone(rounds)
	slices.SortStableFunc(recent, func(a, b RoundSummary) int {
		if c := b.PlayedOn.Compare(a.PlayedOn); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if window > 0 && len(recent) > window {
		recent = recent[:window]
	}

	avg := RollingAverage{PlayerID: playerID, Window: window, RoundsPlayed: len(recent), RoundIDs: make([]string, 0, len(recent))}
	if len(recent) == 0 {
		return avg
	}

	var toPar, scored int
	var sg SGTotals
	for _, r := range recent {
		avg.RoundIDs = append(avg.RoundIDs, r.RoundID)
		if !r.Unscored {
			toPar += r.ToPar
			scored++
		}
		if r.SG != nil {
			avg.RoundsWithSG++
			sg = sg.plus(*r.SG)
		}
	}
	if scored > 0 {
		mean := float64(toPar) / float64(scored)
		avg.AvgToPar = &mean
	}
	if avg.RoundsWithSG > 0 {
		m := sg.scale(1 / float64(avg.RoundsWithSG))
		avg.AvgSG = &m
	}
	return avg
}
