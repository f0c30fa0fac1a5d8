// Package types contains the enumerations shared across the engine.
package types

import (
	"fmt"
	"strings"
)

// Lie is the surface or situation a ball rests in.
type Lie string

// Canonical lies. Hole is terminal and only valid as an end lie.
const (
	LieTee      Lie = "Tee"
	LieFairway  Lie = "Fairway"
	LieRough    Lie = "Rough"
	LieSand     Lie = "Sand"
	LieRecovery Lie = "Recovery"
	LieGreen    Lie = "Green"
	LieHole     Lie = "Hole"
	LiePenalty  Lie = "Penalty"
	LieOther    Lie = "Other"
)

var lieAliases = map[string]Lie{
	"tee":      LieTee,
	"fairway":  LieFairway,
	"rough":    LieRough,
	"sand":     LieSand,
	"bunker":   LieSand,
	"recovery": LieRecovery,
	"green":    LieGreen,
	"hole":     LieHole,
	"holed":    LieHole,
	"cup":      LieHole,
	"penalty":  LiePenalty,
	"other":    LieOther,
}

// ParseLie maps free-form input ("  fair-way", "BUNKER") to a canonical Lie.
// Unknown values are rejected rather than defaulted.
func ParseLie(s string) (Lie, error) {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))

	if l, ok := lieAliases[key]; ok {
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLie, s)
}

// Valid reports whether l is one of the canonical lies.
func (l Lie) Valid() bool {
	switch l {
	case LieTee, LieFairway, LieRough, LieSand, LieRecovery, LieGreen, LieHole, LiePenalty, LieOther:
		return true
	}
	return false
}

// InFeet reports whether distances for l are recorded in feet.
func (l Lie) InFeet() bool {
	return l == LieGreen || l == LieHole
}

// HasCurve reports whether l has its own off-green baseline curve.
func (l Lie) HasCurve() bool {
	switch l {
	case LieTee, LieFairway, LieRough, LieSand, LieRecovery:
		return true
	}
	return false
}

// OffGreenLies lists the lies that carry an off-green curve, in display order.
func OffGreenLies() []Lie {
	return []Lie{LieTee, LieFairway, LieRough, LieSand, LieRecovery}
}

func (l Lie) String() string { return string(l) }

// Category classifies a shot for strokes-gained reporting.
type Category string

// Strokes-gained categories.
const (
	OffTheTee   Category = "OffTheTee"
	Approach    Category = "Approach"
	AroundGreen Category = "AroundGreen"
	Putting     Category = "Putting"
)

// Categories returns all categories in reporting order.
func Categories() []Category {
	return []Category{OffTheTee, Approach, AroundGreen, Putting}
}

func (c Category) String() string { return string(c) }

// RoundType is the competitive context of a round.
type RoundType string

// Round types.
const (
	Tournament RoundType = "Tournament"
	Qualifying RoundType = "Qualifying"
	Practice   RoundType = "Practice"
)

// ParseRoundType accepts any casing of a round type name.
func ParseRoundType(s string) (RoundType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tournament":
		return Tournament, nil
	case "qualifying":
		return Qualifying, nil
	case "practice":
		return Practice, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRoundType, s)
}

func (r RoundType) String() string { return string(r) }
