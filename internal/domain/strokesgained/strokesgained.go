// Package strokesgained computes per-shot strokes-gained values against a
// named baseline model.
package strokesgained

import (
	"context"
	"fmt"

	"github.com/okian/sgengine/internal/domain/baseline"
	"github.com/okian/sgengine/internal/domain/model"
	"github.com/okian/sgengine/internal/domain/types"
)

// Result is the strokes-gained outcome of one shot.
type Result struct {
	Hole          int            `json:"hole"`
	Sequence      int            `json:"sequence"`
	Category      types.Category `json:"category"`
	ExpectedStart float64        `json:"expected_start"`
	ExpectedEnd   float64        `json:"expected_end"`
	Value         float64        `json:"sg"`
}

// Calculator derives strokes gained for shots. The model is always named by
// the caller; there is no implicit current model.
type Calculator interface {
	// Calculate computes one shot, honoring ctx for cancellation.
	Calculate(ctx context.Context, modelName string, s model.Shot) (Result, error)
	// CalculateAll computes every shot or none.
	CalculateAll(ctx context.Context, modelName string, shots []model.Shot) ([]Result, error)
}

// Option applies a configuration option to the BaselineCalculator.
type Option func(*BaselineCalculator)

// WithResultHook registers fn to observe every computed result.
func WithResultHook(fn func(Result)) Option {
	return func(c *BaselineCalculator) {
		c.onResult = fn
	}
}

// WithLookupHook registers fn to observe the curve read by every baseline
// lookup of a successfully computed shot.
func WithLookupHook(fn func(baseline.Kind)) Option {
	return func(c *BaselineCalculator) {
		c.onLookup = fn
	}
}

// BaselineCalculator implements Calculator on top of a baseline.Store.
type BaselineCalculator struct {
	store    baseline.Store
	onResult func(Result)
	onLookup func(baseline.Kind)
}

// New creates a calculator reading curves from store.
func New(store baseline.Store, opts ...Option) *BaselineCalculator {
	c := &BaselineCalculator{store: store}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate implements Calculator.
func (c *BaselineCalculator) Calculate(ctx context.Context, modelName string, s model.Shot) (Result, error) {
	m, err := c.store.Model(ctx, modelName)
	if err != nil {
		return Result{}, err
	}
	return c.calculate(m, s)
}

// CalculateAll implements Calculator. The model is resolved once; ctx is
// checked before every shot so an abandoned request stops promptly.
func (c *BaselineCalculator) CalculateAll(ctx context.Context, modelName string, shots []model.Shot) ([]Result, error) {
	m, err := c.store.Model(ctx, modelName)
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(shots))
	for _, s := range shots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := c.calculate(m, s)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (c *BaselineCalculator) calculate(m *baseline.Model, s model.Shot) (Result, error) {
	r, err := Compute(m, s)
	if err != nil {
		return Result{}, fmt.Errorf("hole %d shot %d: %w", s.Hole, s.Sequence, err)
	}
	if c.onLookup != nil {
		for _, lie := range [...]types.Lie{s.StartLie, s.EndLie} {
			if kind, ok := baseline.CurveFor(lie); ok {
				c.onLookup(kind)
			}
		}
	}
	if c.onResult != nil {
		c.onResult(r)
	}
	return r, nil
}

// Compute evaluates one shot against m:
//
//	sg = expected_start - expected_end - 1 - penalty_strokes
func Compute(m *baseline.Model, s model.Shot) (Result, error) {
	start, err := m.Lookup(s.StartLie, s.StartDistance)
	if err != nil {
		return Result{}, err
	}
	end, err := m.Lookup(s.EndLie, s.EndDistance)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Hole:          s.Hole,
		Sequence:      s.Sequence,
		Category:      Categorize(s, m.ShortGameYards()),
		ExpectedStart: start,
		ExpectedEnd:   end,
		Value:         start - end - 1 - float64(s.PenaltyStrokes),
	}, nil
}

// Categorize assigns the reporting category of a shot. Fairway, rough,
// penalty and other starts inside shortGameYards count as around the green.
func Categorize(s model.Shot, shortGameYards float64) types.Category {
	switch {
	case s.IsPutt || s.StartLie == types.LieGreen:
		return types.Putting
	case s.StartLie == types.LieTee:
		return types.OffTheTee
	case s.StartLie == types.LieSand || s.StartLie == types.LieRecovery:
		return types.AroundGreen
	case s.StartDistance < shortGameYards:
		return types.AroundGreen
	}
	return types.Approach
}
