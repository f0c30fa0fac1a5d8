package model

import (
	"time"

	"github.com/okian/sgengine/internal/domain/types"
)

// Player is a roster entry.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	TeamID string `json:"team_id"`
}

// Round is one player's round at a course.
type Round struct {
	ID        string          `json:"id"`
	PlayerID  string          `json:"player_id"`
	TeamID    string          `json:"team_id"`
	Course    string          `json:"course"`
	RoundType types.RoundType `json:"round_type"`
	PlayedOn  time.Time       `json:"played_on"`
	CreatedAt time.Time       `json:"created_at"`
	Par       int             `json:"par"`
	Strokes   int             `json:"strokes"`
}

// ToPar is strokes minus par for the round.
func (r Round) ToPar() int { return r.Strokes - r.Par }

// RoundRow is the pre-joined reporting row consumed by the ranker:
// one row per player per round. SG fields are nil when the round carries
// no shot-level detail. ToPar sums the hole scores when the round has any
// and falls back to the round header otherwise; Unscored marks a round
// with shots but neither, whose ToPar is meaningless.
type RoundRow struct {
	RoundID    string          `json:"round_id"`
	PlayerID   string          `json:"player_id"`
	PlayerName string          `json:"player_name"`
	TeamID     string          `json:"team_id"`
	Course     string          `json:"course"`
	RoundType  types.RoundType `json:"round_type"`
	PlayedOn   time.Time       `json:"played_on"`
	CreatedAt  time.Time       `json:"created_at"`
	ToPar      int             `json:"to_par"`
	Unscored   bool            `json:"unscored,omitempty"`
	ShotCount  int             `json:"shot_count"`

	SGTotal *float64 `json:"sg_total,omitempty"`
	SGOTT   *float64 `json:"sg_ott,omitempty"`
	SGApp   *float64 `json:"sg_app,omitempty"`
	SGArg   *float64 `json:"sg_arg,omitempty"`
	SGPutt  *float64 `json:"sg_putt,omitempty"`
}

// SetSG fills the SG summary fields from per-category sums. Categories absent
// from byCategory are stored as zero, since the round has shot detail.
func (r *RoundRow) SetSG(byCategory map[types.Category]float64) {
	ptr := func(v float64) *float64 { return &v }
	var total float64
	for _, v := range byCategory {
		total += v
	}
	r.SGTotal = ptr(total)
	r.SGOTT = ptr(byCategory[types.OffTheTee])
	r.SGApp = ptr(byCategory[types.Approach])
	r.SGArg = ptr(byCategory[types.AroundGreen])
	r.SGPutt = ptr(byCategory[types.Putting])
}

// SG returns the summary value for c, or nil.
func (r RoundRow) SG(c types.Category) *float64 {
	switch c {
	case types.OffTheTee:
		return r.SGOTT
	case types.Approach:
		return r.SGApp
	case types.AroundGreen:
		return r.SGArg
	case types.Putting:
		return r.SGPutt
	}
	return nil
}
