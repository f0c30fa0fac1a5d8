// Package shots validates raw shot observations and turns them into the
// canonical model.Shot records every downstream component relies on.
package shots

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/okian/sgengine/internal/domain/model"
	"github.com/okian/sgengine/internal/domain/types"
)

// Hole number bounds.
const (
	MinHole = 1
	MaxHole = 18
)

// Batch is a normalized submission: shots ordered by (hole, sequence) and the
// sorted set of holes they cover. Persisting a batch replaces exactly Holes.
type Batch struct {
	RoundID string
	Shots   []model.Shot
	Holes   []int
}

// Normalize validates raw and returns the normalized batch. Any violation
// fails the whole batch with a *ValidationError.
func Normalize(roundID string, raw []model.RawShot) (Batch, error) {
	roundID = strings.TrimSpace(roundID)
	if roundID == "" {
		return Batch{}, &ValidationError{Field: "round_id", Reason: "must not be empty"}
	}
	if len(raw) == 0 {
		return Batch{}, &ValidationError{Field: "shots", Reason: "at least one shot is required"}
	}

	out := make([]model.Shot, 0, len(raw))
	processed := map[int]int{}
	used := map[int]map[int]bool{}

	for i, r := range raw {
		s, err := normalizeOne(i, r)
		if err != nil {
			return Batch{}, err
		}
		s.RoundID = roundID

		if r.Sequence != nil {
			if *r.Sequence < 1 {
				return Batch{}, &ValidationError{Index: i, Hole: s.Hole, Field: "sequence", Reason: "must be 1 or greater"}
			}
			s.Sequence = *r.Sequence
		} else {
			s.Sequence = processed[s.Hole] + 1
		}
		if used[s.Hole] == nil {
			used[s.Hole] = map[int]bool{}
		}
		if used[s.Hole][s.Sequence] {
			return Batch{}, &ValidationError{Index: i, Hole: s.Hole, Field: "sequence", Reason: "duplicate sequence number within hole"}
		}
		used[s.Hole][s.Sequence] = true
		processed[s.Hole]++

		out = append(out, s)
	}

	slices.SortStableFunc(out, func(a, b model.Shot) int {
		if c := cmp.Compare(a.Hole, b.Hole); c != 0 {
			return c
		}
		return cmp.Compare(a.Sequence, b.Sequence)
	})

	holes := make([]int, 0, len(processed))
	for h := range processed {
		holes = append(holes, h)
	}
	slices.Sort(holes)

	return Batch{RoundID: roundID, Shots: out, Holes: holes}, nil
}

func normalizeOne(i int, r model.RawShot) (model.Shot, error) {
	if r.Hole < MinHole || r.Hole > MaxHole {
		return model.Shot{}, &ValidationError{Index: i, Hole: 0, Field: "hole", Reason: "must be between 1 and 18"}
	}
	fail := func(field, reason string) (model.Shot, error) {
		return model.Shot{}, &ValidationError{Index: i, Hole: r.Hole, Field: field, Reason: reason}
	}

	startLie, err := types.ParseLie(r.StartLie)
	if err != nil {
		return fail("start_lie", "unrecognized lie "+strconv.Quote(r.StartLie))
	}
	if startLie == types.LieHole {
		return fail("start_lie", "Hole is only valid as an end lie")
	}
	endLie, err := types.ParseLie(r.EndLie)
	if err != nil {
		return fail("end_lie", "unrecognized lie "+strconv.Quote(r.EndLie))
	}

	startDist, field, reason := distance("start", startLie, r.StartFeet, r.StartYards)
	if reason != "" {
		return fail(field, reason)
	}
	var endDist float64
	if endLie != types.LieHole {
		endDist, field, reason = distance("end", endLie, r.EndFeet, r.EndYards)
		if reason != "" {
			return fail(field, reason)
		}
	}

	penalties := 0
	if r.PenaltyStrokes != nil {
		penalties = *r.PenaltyStrokes
	}
	if penalties < 0 {
		return fail("penalty_strokes", "must not be negative")
	}

	return model.Shot{
		Hole:           r.Hole,
		Club:           strings.TrimSpace(r.Club),
		StartLie:       startLie,
		StartDistance:  startDist,
		EndLie:         endLie,
		EndDistance:    endDist,
		IsPutt:         r.IsPutt,
		PenaltyStrokes: penalties,
		Penalty:        penalties > 0 || startLie == types.LiePenalty || endLie == types.LiePenalty,
	}, nil
}

// distance picks the value in the unit implied by lie. It returns the
// offending field and a reason when the unit is wrong, missing or negative.
func distance(prefix string, lie types.Lie, feet, yards *float64) (float64, string, string) {
	want, wantField, other, otherField := yards, prefix+"_yards", feet, prefix+"_feet"
	unit := "yards"
	if lie.InFeet() {
		want, wantField, other, otherField = feet, prefix+"_feet", yards, prefix+"_yards"
		unit = "feet"
	}
	switch {
	case other != nil:
		return 0, otherField, lie.String() + " distance must be given in " + unit
	case want == nil:
		return 0, wantField, "required for lie " + lie.String()
	case *want < 0:
		return 0, wantField, "must not be negative"
	}
	return *want, "", ""
}
