// Package baseline holds expected-strokes curves per named skill model and
// answers distance/lie lookups against them.
package baseline

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/okian/sgengine/internal/domain/types"
)

// Kind selects one of a model's two curves.
type Kind string

// Curve kinds.
const (
	KindPutting  Kind = "putting"
	KindOffGreen Kind = "offgreen"
)

// ParseKind accepts "putting", "offgreen", "off_green" or "off-green" in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s))) {
	case "putting":
		return KindPutting, nil
	case "offgreen":
		return KindOffGreen, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// CurveFor reports which curve a lookup from lie reads. Hole reads none.
func CurveFor(lie types.Lie) (Kind, bool) {
	switch lie {
	case types.LieHole:
		return "", false
	case types.LieGreen:
		return KindPutting, true
	}
	return KindOffGreen, true
}

// Point is one (key, expected_strokes) pair. Lie is empty for putting points.
// Distance is feet on the putting curve and yards off the green.
type Point struct {
	Lie      types.Lie `json:"lie,omitempty"`
	Distance float64   `json:"distance"`
	Expected float64   `json:"expected"`
}

// Params are the per-model tuning values.
type Params struct {
	// ShortGameYards separates Approach from AroundGreen for fairway, rough,
	// penalty and other starts.
	ShortGameYards float64 `json:"short_game_yards"`
	// ProxyLie is the off-green curve used for Penalty and Other lies.
	ProxyLie types.Lie `json:"proxy_lie"`
}

// Validate checks p and returns ErrInvalidParams on failure.
func (p Params) Validate() error {
	if p.ShortGameYards <= 0 {
		return fmt.Errorf("%w: short_game_yards must be positive", ErrInvalidParams)
	}
	if !p.ProxyLie.HasCurve() {
		return fmt.Errorf("%w: proxy_lie %q has no off-green curve", ErrInvalidParams, p.ProxyLie)
	}
	return nil
}

// curve is a slice of points sorted by strictly increasing distance.
type curve []Point

// at returns the expected strokes at d, interpolating linearly between the
// bracketing points and clamping outside the recorded range.
func (c curve) at(d float64) float64 {
	if d <= c[0].Distance {
		return c[0].Expected
	}
	last := c[len(c)-1]
	if d >= last.Distance {
		return last.Expected
	}
	i := sort.Search(len(c), func(i int) bool { return c[i].Distance >= d })
	hi := c[i]
	if hi.Distance == d {
		return hi.Expected
	}
	lo := c[i-1]
	frac := (d - lo.Distance) / (hi.Distance - lo.Distance)
	return lo.Expected + frac*(hi.Expected-lo.Expected)
}

// Model is an immutable snapshot of one named baseline. Stores replace
// models wholesale, so a *Model obtained from a Store never changes.
type Model struct {
	name     string
	params   Params
	putting  curve
	offGreen map[types.Lie]curve
}

func newModel(name string, params Params) *Model {
	return &Model{name: name, params: params, offGreen: map[types.Lie]curve{}}
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Params returns the model's tuning values.
func (m *Model) Params() Params { return m.params }

// ShortGameYards is shorthand for Params().ShortGameYards.
func (m *Model) ShortGameYards() float64 { return m.params.ShortGameYards }

// Lookup returns the expected strokes to hole out from lie at distance.
// Distance is feet for Green and yards for every off-green lie. Hole is 0.
// Penalty and Other use the curve of the model's proxy lie.
func (m *Model) Lookup(lie types.Lie, distance float64) (float64, error) {
	switch {
	case lie == types.LieHole:
		return 0, nil
	case lie == types.LieGreen:
		if len(m.putting) == 0 {
			return 0, &IncompleteModelError{Model: m.name, Lie: types.LieGreen}
		}
		return m.putting.at(distance), nil
	case lie == types.LiePenalty || lie == types.LieOther:
		lie = m.params.ProxyLie
	case !lie.HasCurve():
		return 0, fmt.Errorf("%w: %q", types.ErrUnknownLie, lie)
	}

	c := m.offGreen[lie]
	if len(c) == 0 {
		return 0, &IncompleteModelError{Model: m.name, Lie: lie}
	}
	return c.at(distance), nil
}

// Points returns a copy of the points of one curve; off-green points are
// ordered by lie then distance.
func (m *Model) Points(kind Kind) []Point {
	switch kind {
	case KindPutting:
		return slices.Clone(m.putting)
	case KindOffGreen:
		var out []Point
		for _, lie := range types.OffGreenLies() {
			out = append(out, m.offGreen[lie]...)
		}
		return out
	}
	return nil
}

// withCurve returns a copy of m with the curve of kind replaced.
func (m *Model) withCurve(kind Kind, points []Point) (*Model, error) {
	next := &Model{name: m.name, params: m.params, putting: m.putting, offGreen: m.offGreen}
	switch kind {
	case KindPutting:
		c, err := buildPutting(points)
		if err != nil {
			return nil, err
		}
		next.putting = c
	case KindOffGreen:
		byLie, err := buildOffGreen(points)
		if err != nil {
			return nil, err
		}
		next.offGreen = byLie
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return next, nil
}

func (m *Model) withParams(p Params) *Model {
	return &Model{name: m.name, params: p, putting: m.putting, offGreen: m.offGreen}
}

func buildPutting(points []Point) (curve, error) {
	for _, p := range points {
		if p.Lie != "" && p.Lie != types.LieGreen {
			return nil, fmt.Errorf("%w: putting point with lie %s", ErrInvalidCurve, p.Lie)
		}
	}
	c, err := sortedCurve(points)
	if err != nil {
		return nil, fmt.Errorf("putting: %w", err)
	}
	for i := range c {
		c[i].Lie = types.LieGreen
	}
	return c, nil
}

func buildOffGreen(points []Point) (map[types.Lie]curve, error) {
	grouped := map[types.Lie][]Point{}
	for _, p := range points {
		if !p.Lie.HasCurve() {
			return nil, fmt.Errorf("%w: off-green point with lie %q", ErrInvalidCurve, p.Lie)
		}
		grouped[p.Lie] = append(grouped[p.Lie], p)
	}
	out := make(map[types.Lie]curve, len(grouped))
	for lie, pts := range grouped {
		c, err := sortedCurve(pts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", lie, err)
		}
		out[lie] = c
	}
	return out, nil
}

// sortedCurve orders points by distance and rejects negative distances,
// non-positive expectations and repeated distances.
func sortedCurve(points []Point) (curve, error) {
	c := curve(slices.Clone(points))
	for _, p := range c {
		if p.Distance < 0 {
			return nil, fmt.Errorf("%w: negative distance %v", ErrInvalidCurve, p.Distance)
		}
		if p.Expected <= 0 {
			return nil, fmt.Errorf("%w: expected strokes must be positive at %v", ErrInvalidCurve, p.Distance)
		}
	}
	slices.SortFunc(c, func(a, b Point) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})
	for i := 1; i < len(c); i++ {
		if c[i].Distance == c[i-1].Distance {
			return nil, fmt.Errorf("%w: duplicate distance %v", ErrInvalidCurve, c[i].Distance)
		}
	}
	return c, nil
}
