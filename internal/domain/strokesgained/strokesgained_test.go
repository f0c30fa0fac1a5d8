package strokesgained_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/sgengine/internal/domain/baseline"
	"github.com/okian/sgengine/internal/domain/model"
	"github.com/okian/sgengine/internal/domain/strokesgained"
	"github.com/okian/sgengine/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func testStore(t *testing.T) baseline.Store {
	t.Helper()
	ctx := context.Background()
	s := baseline.NewMemoryStore()
	putting := []baseline.Point{
		{Distance: 1, Expected: 1.00},
		{Distance: 5, Expected: 1.25},
		{Distance: 10, Expected: 1.68},
	}
	offGreen := []baseline.Point{
		{Lie: types.LieTee, Distance: 400, Expected: 3.1},
		{Lie: types.LieFairway, Distance: 40, Expected: 2.0},
		{Lie: types.LieFairway, Distance: 70, Expected: 2.5},
		{Lie: types.LieFairway, Distance: 100, Expected: 3.0},
		{Lie: types.LieRough, Distance: 200, Expected: 2.9},
	}
	if err := s.ReplaceCurve(ctx, "m", baseline.KindPutting, putting); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceCurve(ctx, "m", baseline.KindOffGreen, offGreen); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSignConvention(t *testing.T) {
	Convey("Given a calculator over a small model", t, func() {
		ctx := context.Background()
		calc := strokesgained.New(testStore(t))

		Convey("When a shot moves from 3.0 to 2.0 expected strokes", func() {
			r, err := calc.Calculate(ctx, "m", model.Shot{Hole: 1, Sequence: 2, StartLie: types.LieFairway, StartDistance: 100, EndLie: types.LieFairway, EndDistance: 40})

			Convey("Then strokes gained is zero", func() {
				So(err, ShouldBeNil)
				So(r.ExpectedStart, ShouldEqual, 3.0)
				So(r.ExpectedEnd, ShouldEqual, 2.0)
				So(r.Value, ShouldAlmostEqual, 0.0, 1e-9)
				So(r.Category, ShouldEqual, types.Approach)
			})
		})

		Convey("When a shot moves from 3.0 to 2.5 expected strokes", func() {
			r, err := calc.Calculate(ctx, "m", model.Shot{Hole: 1, StartLie: types.LieFairway, StartDistance: 100, EndLie: types.LieFairway, EndDistance: 70})

			Convey("Then strokes gained is -0.5", func() {
				So(err, ShouldBeNil)
				So(r.Value, ShouldAlmostEqual, -0.5, 1e-9)
			})
		})

		Convey("When an 8 foot putt is holed", func() {
			r, err := calc.Calculate(ctx, "m", model.Shot{Hole: 4, StartLie: types.LieGreen, StartDistance: 8, EndLie: types.LieHole, IsPutt: true})

			Convey("Then the gain is the interpolated expectation minus one", func() {
				So(err, ShouldBeNil)
				So(r.ExpectedStart, ShouldAlmostEqual, 1.508, 1e-9)
				So(r.ExpectedEnd, ShouldEqual, 0)
				So(r.Value, ShouldAlmostEqual, r.ExpectedStart-1, 1e-12)
				So(r.Value, ShouldAlmostEqual, 0.508, 1e-9)
				So(r.Category, ShouldEqual, types.Putting)
			})
		})

		Convey("When a tee shot finds a penalty area", func() {
			r, err := calc.Calculate(ctx, "m", model.Shot{
				Hole: 7, StartLie: types.LieTee, StartDistance: 400,
				EndLie: types.LiePenalty, EndDistance: 200, PenaltyStrokes: 1, Penalty: true,
			})

			Convey("Then the penalty stroke is charged", func() {
				So(err, ShouldBeNil)
				So(r.ExpectedStart, ShouldEqual, 3.1)
				So(r.ExpectedEnd, ShouldEqual, 2.9)
				So(r.Value, ShouldAlmostEqual, -1.8, 1e-9)
				So(r.Category, ShouldEqual, types.OffTheTee)
			})
		})
	})
}

func TestCalculateAll(t *testing.T) {
	Convey("Given a calculator with result and lookup hooks", t, func() {
		ctx := context.Background()
		seen := 0
		lookups := map[baseline.Kind]int{}
		calc := strokesgained.New(testStore(t),
			strokesgained.WithResultHook(func(strokesgained.Result) { seen++ }),
			strokesgained.WithLookupHook(func(k baseline.Kind) { lookups[k]++ }),
		)
		batch := []model.Shot{
			{Hole: 1, Sequence: 1, StartLie: types.LieTee, StartDistance: 400, EndLie: types.LieFairway, EndDistance: 100},
			{Hole: 1, Sequence: 2, StartLie: types.LieFairway, StartDistance: 100, EndLie: types.LieGreen, EndDistance: 10},
			{Hole: 1, Sequence: 3, StartLie: types.LieGreen, StartDistance: 10, EndLie: types.LieHole, IsPutt: true},
		}

		Convey("When every shot can be evaluated", func() {
			rs, err := calc.CalculateAll(ctx, "m", batch)

			Convey("Then one result per shot is returned and the hook fires", func() {
				So(err, ShouldBeNil)
				So(len(rs), ShouldEqual, 3)
				So(seen, ShouldEqual, 3)
				So(lookups, ShouldResemble, map[baseline.Kind]int{baseline.KindOffGreen: 3, baseline.KindPutting: 2})
				// Values telescope to the opening expectation minus strokes taken.
				sum := rs[0].Value + rs[1].Value + rs[2].Value
				So(sum, ShouldAlmostEqual, 3.1-3, 1e-9)
			})
		})

		Convey("When the model does not exist", func() {
			rs, err := calc.CalculateAll(ctx, "missing", batch)

			Convey("Then the batch fails with ModelNotFoundError", func() {
				So(rs, ShouldBeNil)
				var nf *baseline.ModelNotFoundError
				So(errors.As(err, &nf), ShouldBeTrue)
				So(nf.Model, ShouldEqual, "missing")
			})
		})

		Convey("When a required lie has no curve", func() {
			withSand := append([]model.Shot{}, batch...)
			withSand = append(withSand, model.Shot{Hole: 2, StartLie: types.LieSand, StartDistance: 20, EndLie: types.LieHole})
			rs, err := calc.CalculateAll(ctx, "m", withSand)

			Convey("Then the batch fails naming the lie", func() {
				So(rs, ShouldBeNil)
				var inc *baseline.IncompleteModelError
				So(errors.As(err, &inc), ShouldBeTrue)
				So(inc.Lie, ShouldEqual, types.LieSand)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			rs, err := calc.CalculateAll(cctx, "m", batch)

			Convey("Then no partial results are returned", func() {
				So(rs, ShouldBeNil)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestCategorize(t *testing.T) {
	Convey("Given shots from every start lie", t, func() {
		cases := []struct {
			shot model.Shot
			want types.Category
		}{
			{model.Shot{StartLie: types.LieGreen, StartDistance: 30}, types.Putting},
			{model.Shot{StartLie: types.LieFairway, StartDistance: 5, IsPutt: true}, types.Putting},
			{model.Shot{StartLie: types.LieTee, StartDistance: 180}, types.OffTheTee},
			{model.Shot{StartLie: types.LieTee, StartDistance: 20}, types.OffTheTee},
			{model.Shot{StartLie: types.LieFairway, StartDistance: 30}, types.Approach},
			{model.Shot{StartLie: types.LieFairway, StartDistance: 29.9}, types.AroundGreen},
			{model.Shot{StartLie: types.LieRough, StartDistance: 150}, types.Approach},
			{model.Shot{StartLie: types.LieRough, StartDistance: 12}, types.AroundGreen},
			{model.Shot{StartLie: types.LieSand, StartDistance: 120}, types.AroundGreen},
			{model.Shot{StartLie: types.LieRecovery, StartDistance: 90}, types.AroundGreen},
			{model.Shot{StartLie: types.LiePenalty, StartDistance: 200}, types.Approach},
			{model.Shot{StartLie: types.LieOther, StartDistance: 10}, types.AroundGreen},
		}

		Convey("Then each lands in its category with a 30 yard threshold", func() {
			for _, tc := range cases {
				So(strokesgained.Categorize(tc.shot, 30), ShouldEqual, tc.want)
			}
		})

		Convey("Then the threshold is a parameter", func() {
			s := model.Shot{StartLie: types.LieFairway, StartDistance: 35}
			So(strokesgained.Categorize(s, 30), ShouldEqual, types.Approach)
			So(strokesgained.Categorize(s, 40), ShouldEqual, types.AroundGreen)
		})
	})
}
