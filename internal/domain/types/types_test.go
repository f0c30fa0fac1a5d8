package types_test

import (
	"errors"
	"testing"

	types "github.com/okian/sgengine/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseLie(t *testing.T) {
	Convey("Given raw lie strings", t, func() {
		cases := map[string]types.Lie{
			"Tee":       types.LieTee,
			" fairway ": types.LieFairway,
			"ROUGH":     types.LieRough,
			"bunker":    types.LieSand,
			"Re-Covery": types.LieRecovery,
			"green":     types.LieGreen,
			"Holed":     types.LieHole,
			"cup":       types.LieHole,
			"penalty":   types.LiePenalty,
			"other":     types.LieOther,
			"fair_way":  types.LieFairway,
			"Fair Way":  types.LieFairway,
		}

		Convey("When they match a canonical lie or alias", func() {
			Convey("Then they normalize", func() {
				for in, want := range cases {
					got, err := types.ParseLie(in)
					So(err, ShouldBeNil)
					So(got, ShouldEqual, want)
				}
			})
		})

		Convey("When the lie is unknown", func() {
			_, err := types.ParseLie("waste area")

			Convey("Then it is rejected rather than defaulted", func() {
				So(errors.Is(err, types.ErrUnknownLie), ShouldBeTrue)
			})
		})

		Convey("When the lie is empty", func() {
			_, err := types.ParseLie("  ")
			So(errors.Is(err, types.ErrUnknownLie), ShouldBeTrue)
		})
	})
}

func TestLieProperties(t *testing.T) {
	Convey("Given the canonical lies", t, func() {
		Convey("Then only Green and Hole are measured in feet", func() {
			So(types.LieGreen.InFeet(), ShouldBeTrue)
			So(types.LieHole.InFeet(), ShouldBeTrue)
			So(types.LieFairway.InFeet(), ShouldBeFalse)
			So(types.LiePenalty.InFeet(), ShouldBeFalse)
		})

		Convey("Then only the five off-green lies carry curves", func() {
			for _, l := range types.OffGreenLies() {
				So(l.HasCurve(), ShouldBeTrue)
			}
			So(types.LieGreen.HasCurve(), ShouldBeFalse)
			So(types.LiePenalty.HasCurve(), ShouldBeFalse)
			So(types.LieOther.HasCurve(), ShouldBeFalse)
		})

		Convey("Then validity is limited to the enumeration", func() {
			So(types.LieOther.Valid(), ShouldBeTrue)
			So(types.Lie("Water").Valid(), ShouldBeFalse)
		})
	})
}

func TestParseRoundType(t *testing.T) {
	Convey("Given round type strings", t, func() {
		rt, err := types.ParseRoundType("tournament")
		So(err, ShouldBeNil)
		So(rt, ShouldEqual, types.Tournament)

		rt, err = types.ParseRoundType(" QUALIFYING")
		So(err, ShouldBeNil)
		So(rt, ShouldEqual, types.Qualifying)

		_, err = types.ParseRoundType("scramble")
		So(errors.Is(err, types.ErrUnknownRoundType), ShouldBeTrue)
	})
}

func TestCategories(t *testing.T) {
	Convey("Given the category list", t, func() {
		So(types.Categories(), ShouldResemble, []types.Category{
			types.OffTheTee, types.Approach, types.AroundGreen, types.Putting,
		})
	})
}
