// Package model contains domain records passed between layers.
package model

import "github.com/okian/sgengine/internal/domain/types"

// RawShot is a shot observation as submitted, before normalization.
// Exactly one of the feet/yards fields is expected per end of the shot,
// chosen by the lie.
type RawShot struct {
	Hole           int      `json:"hole"`
	Sequence       *int     `json:"sequence,omitempty"`
	Club           string   `json:"club,omitempty"`
	StartLie       string   `json:"start_lie"`
	StartFeet      *float64 `json:"start_feet,omitempty"`
	StartYards     *float64 `json:"start_yards,omitempty"`
	EndLie         string   `json:"end_lie"`
	EndFeet        *float64 `json:"end_feet,omitempty"`
	EndYards       *float64 `json:"end_yards,omitempty"`
	IsPutt         bool     `json:"is_putt"`
	PenaltyStrokes *int     `json:"penalty_strokes,omitempty"`
}

// Shot is a validated shot. StartDistance and EndDistance are in feet when the
// matching lie is Green or Hole and in yards otherwise.
type Shot struct {
	RoundID        string    `json:"round_id"`
	Hole           int       `json:"hole"`
	Sequence       int       `json:"sequence"`
	Club           string    `json:"club,omitempty"`
	StartLie       types.Lie `json:"start_lie"`
	StartDistance  float64   `json:"start_distance"`
	EndLie         types.Lie `json:"end_lie"`
	EndDistance    float64   `json:"end_distance"`
	IsPutt         bool      `json:"is_putt"`
	PenaltyStrokes int       `json:"penalty_strokes"`
	Penalty        bool      `json:"penalty"`
}

// HoleScore is the per-hole scorecard record kept alongside shots.
// FairwayHit is nil when the hole offers no fairway chance (par 3).
type HoleScore struct {
	RoundID           string `json:"round_id"`
	Hole              int    `json:"hole"`
	Par               int    `json:"par"`
	Strokes           int    `json:"strokes"`
	Putts             int    `json:"putts"`
	Penalties         int    `json:"penalties"`
	FairwayHit        *bool  `json:"fairway_hit,omitempty"`
	GreenInRegulation bool   `json:"gir"`
}

// ToPar is strokes minus par for the hole.
func (h HoleScore) ToPar() int { return h.Strokes - h.Par }
