package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/lodge/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestGameTypes(t *testing.T) {
	convey.Convey("Given game type names in any case", t, func() {
		g, ok := model.ParseGameType("  starFINDER ")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(g, convey.ShouldEqual, model.GameStarfinder)

		_, ok = model.ParseGameType("Chess")
		convey.So(ok, convey.ShouldBeFalse)
		convey.So(model.GameTypes(), convey.ShouldHaveLength, 3)
	})

	convey.Convey("Given a game master running two systems", t, func() {
		gm := model.GameMaster{Games: []model.GameType{model.GamePathfinder, model.GameLegacy}}
		convey.So(gm.Runs(model.GameLegacy), convey.ShouldBeTrue)
		convey.So(gm.Runs(model.GameStarfinder), convey.ShouldBeFalse)
	})
}

func TestCategories(t *testing.T) {
	convey.Convey("Given category aliases", t, func() {
		for in, want := range map[string]model.Category{
			"events":       model.CategoryEvents,
			"Game-Masters": model.CategoryGameMasters,
			"gms":          model.CategoryGameMasters,
			"articles":     model.CategoryNews,
		} {
			got, ok := model.ParseCategory(in)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(got, convey.ShouldEqual, want)
		}
		_, ok := model.ParseCategory("dragons")
		convey.So(ok, convey.ShouldBeFalse)
	})
}

func TestValue(t *testing.T) {
	convey.Convey("Given header values of every kind", t, func() {
		convey.Convey("Then strings coerce to numbers, ints and bools", func() {
			n, ok := model.StringValue(" 6 ").Int()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(n, convey.ShouldEqual, 6)

			_, ok = model.NumberValue(2.5).Int()
			convey.So(ok, convey.ShouldBeFalse)

			b, ok := model.StringValue("true").Bool()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(b, convey.ShouldBeTrue)
		})

		convey.Convey("Then lists split and join on commas", func() {
			convey.So(model.StringValue("Pathfinder, Starfinder,").List(), convey.ShouldResemble, []string{"Pathfinder", "Starfinder"})
			convey.So(model.ListValue([]string{"a", "b"}).String(), convey.ShouldEqual, "a, b")
			convey.So(model.Value{}.List(), convey.ShouldBeNil)
		})

		convey.Convey("Then times pass through and render as RFC3339", func() {
			at := time.Date(2026, 11, 7, 13, 0, 0, 0, time.UTC)
			v := model.TimeValue(at)
			got, ok := v.Time()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(got, convey.ShouldEqual, at)
			convey.So(v.String(), convey.ShouldEqual, "2026-11-07T13:00:00Z")
			_, ok = model.StringValue("2026-11-07").Time()
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Then the zero value is null", func() {
			convey.So(model.Value{}.IsNull(), convey.ShouldBeTrue)
			convey.So(model.Value{}.Kind().String(), convey.ShouldEqual, "null")
			convey.So(model.ValidDate(time.Time{}), convey.ShouldBeFalse)
		})

		convey.Convey("Then Equal compares kind and payload", func() {
			convey.So(model.ListValue([]string{"a"}).Equal(model.ListValue([]string{"a"})), convey.ShouldBeTrue)
			convey.So(model.StringValue("1").Equal(model.NumberValue(1)), convey.ShouldBeFalse)
		})
	})
}

func TestErrors(t *testing.T) {
	convey.Convey("Given wrapped content errors", t, func() {
		pe := &model.ParseError{File: "events/a.md", Err: errors.New("boom")}
		lf := &model.LoadFailure{Category: model.CategoryNews, Err: model.ErrNoValidRecords}

		convey.So(pe.Error(), convey.ShouldEqual, "parse events/a.md: boom")
		convey.So(errors.Is(lf, model.ErrNoValidRecords), convey.ShouldBeTrue)

		var target *model.LoadFailure
		convey.So(errors.As(error(lf), &target), convey.ShouldBeTrue)
		convey.So(target.Category, convey.ShouldEqual, model.CategoryNews)

		issue := model.Issue{File: "news/x.md", Field: "date", Message: "missing date", Severity: model.SeverityError}
		convey.So(issue.String(), convey.ShouldEqual, "news/x.md: date [error] missing date")
	})
}
