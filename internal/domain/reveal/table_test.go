package reveal_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/okian/delhihouse/internal/domain/reveal"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTable(t *testing.T) {
	Convey("Given the restaurant zoom table", t, func() {
		table := reveal.RestaurantZoom

		Convey("It clamps to the first value below the first key", func() {
			So(table.At(-1), ShouldEqual, 1.0)
			So(table.At(0), ShouldEqual, 1.0)
			So(table.At(0.3), ShouldEqual, 1.0)
		})

		Convey("It interpolates between breakpoints", func() {
			So(table.At(0.45), ShouldAlmostEqual, 1.1)
			So(table.At(0.7), ShouldAlmostEqual, 1.2)
		})

		Convey("It clamps to the last value beyond the last key", func() {
			So(table.At(1), ShouldAlmostEqual, 1.2)
			So(table.At(3), ShouldAlmostEqual, 1.2)
		})
	})

	Convey("Two tables on one progress signal are desynchronized", t, func() {
		So(reveal.RestaurantZoom.At(0.5), ShouldBeGreaterThan, 1.0)
		So(reveal.FoodZoom.At(0.5), ShouldEqual, 1.0)
		So(reveal.FoodZoom.At(0.65), ShouldAlmostEqual, 1.1)
	})

	Convey("Non-decreasing tables produce non-decreasing output", t, func() {
		tables := []reveal.Table{
			reveal.RestaurantZoom,
			reveal.FoodZoom,
			reveal.MustTable(reveal.Point{Progress: 0, Value: 0}, reveal.Point{Progress: 0.5, Value: 0.5}, reveal.Point{Progress: 0.5, Value: 0.9}, reveal.Point{Progress: 1, Value: 2}),
		}
		for _, table := range tables {
			prev := math.Inf(-1)
			for step := -10; step <= 110; step++ {
				v := table.At(float64(step) / 100)
				So(v, ShouldBeGreaterThanOrEqualTo, prev)
				prev = v
			}
		}
	})

	Convey("Repeated keys jump at that key", t, func() {
		table := reveal.MustTable(reveal.Point{Progress: 0, Value: 0}, reveal.Point{Progress: 0.5, Value: 0.5}, reveal.Point{Progress: 0.5, Value: 0.9}, reveal.Point{Progress: 1, Value: 1})
		So(table.At(0.4999), ShouldBeLessThan, 0.5)
		So(table.At(0.5), ShouldAlmostEqual, 0.9)
	})

	Convey("Invalid tables are rejected", t, func() {
		_, err := reveal.NewTable()
		So(err, ShouldEqual, reveal.ErrEmptyTable)

		_, err = reveal.NewTable(reveal.Point{Progress: 0.5, Value: 1}, reveal.Point{Progress: 0.2, Value: 1})
		So(errors.Is(err, reveal.ErrInvalidTable), ShouldBeTrue)

		_, err = reveal.NewTable(reveal.Point{Progress: math.NaN(), Value: 1})
		So(errors.Is(err, reveal.ErrInvalidTable), ShouldBeTrue)

		_, err = reveal.TableFrom([]float64{0, 1}, []float64{1})
		So(errors.Is(err, reveal.ErrInvalidTable), ShouldBeTrue)
	})

	Convey("Tables decode from JSON and validate", t, func() {
		var table reveal.Table
		So(json.Unmarshal([]byte(`[{"progress":0,"value":1},{"progress":1,"value":2}]`), &table), ShouldBeNil)
		So(table.At(0.5), ShouldAlmostEqual, 1.5)

		err := json.Unmarshal([]byte(`[{"progress":1,"value":1},{"progress":0,"value":2}]`), &table)
		So(errors.Is(err, reveal.ErrInvalidTable), ShouldBeTrue)
	})
}
