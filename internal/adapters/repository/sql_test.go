package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/okian/sgengine/internal/domain/baseline"
	"github.com/okian/sgengine/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSQLStoreBaselines(t *testing.T) {
	Convey("Given a sqlite store used as a baseline persister", t, func() {
		ctx := context.Background()
		s, err := NewSQLStore(ctx, DialectSQLite, ":memory:")
		So(err, ShouldBeNil)
		Reset(func() { _ = s.Close() })

		models := baseline.NewMemoryStore(baseline.WithPersister(s))
		So(models.ReplaceCurve(ctx, "club", baseline.KindPutting, []baseline.Point{
			{Distance: 3, Expected: 1.04}, {Distance: 10, Expected: 1.6},
		}), ShouldBeNil)
		So(models.ReplaceCurve(ctx, "club", baseline.KindOffGreen, []baseline.Point{
			{Lie: types.LieFairway, Distance: 100, Expected: 2.8},
			{Lie: types.LieRough, Distance: 100, Expected: 3.0},
		}), ShouldBeNil)
		So(models.SetParams(ctx, "club", baseline.Params{ShortGameYards: 25, ProxyLie: types.LieFairway}), ShouldBeNil)

		Convey("When the models are loaded back into a fresh store", func() {
			loaded, err := s.LoadBaselines(ctx)
			So(err, ShouldBeNil)
			So(loaded, ShouldHaveLength, 1)
			So(loaded[0].Params.ShortGameYards, ShouldEqual, 25)

			fresh := baseline.NewMemoryStore()
			So(fresh.Load(ctx, loaded), ShouldBeNil)

			Convey("Then lookups match the original", func() {
				m, err := fresh.Model(ctx, "club")
				So(err, ShouldBeNil)
				v, err := m.Lookup(types.LieGreen, 3)
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 1.04)
				v, err = m.Lookup(types.LiePenalty, 100)
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 2.8)
			})
		})

		Convey("When a curve is replaced", func() {
			So(models.ReplaceCurve(ctx, "club", baseline.KindPutting, []baseline.Point{{Distance: 5, Expected: 1.2}}), ShouldBeNil)

			Convey("Then only the new points are stored", func() {
				loaded, err := s.LoadBaselines(ctx)
				So(err, ShouldBeNil)
				So(loaded[0].Putting, ShouldHaveLength, 1)
				So(loaded[0].OffGreen, ShouldHaveLength, 2)
			})
		})
	})
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassify(t *testing.T) {
	Convey("Given repository errors", t, func() {
		ctx := context.Background()

		Convey("Then timeouts and network failures are data unavailable", func() {
			err := classify(ctx, "fetch_shots", context.DeadlineExceeded)
			So(errors.Is(err, ErrDataUnavailable), ShouldBeTrue)
			var du *DataUnavailableError
			So(errors.As(err, &du), ShouldBeTrue)
			So(du.Op, ShouldEqual, "fetch_shots")

			err = classify(ctx, "fetch_round_rows", fmt.Errorf("read: %w", timeoutErr{}))
			So(errors.Is(err, ErrDataUnavailable), ShouldBeTrue)
		})

		Convey("Then caller cancellation passes through", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := classify(cctx, "fetch_shots", context.Canceled)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(errors.Is(err, ErrDataUnavailable), ShouldBeFalse)
		})

		Convey("Then other errors are wrapped with the operation", func() {
			err := classify(ctx, "save_round", errors.New("constraint failed"))
			So(err.Error(), ShouldEqual, "save_round: constraint failed")
			So(classify(ctx, "x", nil), ShouldBeNil)
		})
	})

	Convey("Given an unsupported dialect", t, func() {
		_, err := NewSQLStore(context.Background(), "oracle", "dsn")
		So(err, ShouldNotBeNil)
	})

	Convey("Given postgres placeholders", t, func() {
		s := &SQLStore{dialect: DialectPostgres}
		So(s.rebind("a = ? AND b IN (?, ?)"), ShouldEqual, "a = $1 AND b IN ($2, $3)")
		s.dialect = DialectSQLite
		So(s.rebind("a = ?"), ShouldEqual, "a = ?")
	})
}
