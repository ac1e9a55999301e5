package reveal

import (
	"encoding/json"
	"fmt"
	"math"
)

// Point is one (progress, value) breakpoint.
type Point struct {
	Progress float64 `json:"progress" yaml:"progress"`
	Value    float64 `json:"value" yaml:"value"`
}

// Table is a piecewise-linear breakpoint table.
type Table struct {
	points []Point
}

// NewTable validates that progress keys are finite and non-decreasing.
// Repeated keys are allowed and produce a jump at that key.
func NewTable(points ...Point) (Table, error) {
	if len(points) == 0 {
		return Table{}, ErrEmptyTable
	}
	for i, p := range points {
		if math.IsNaN(p.Progress) || math.IsInf(p.Progress, 0) || math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return Table{}, fmt.Errorf("%w: point %d is not finite", ErrInvalidTable, i)
		}
		if i > 0 && p.Progress < points[i-1].Progress {
			return Table{}, fmt.Errorf("%w: progress %.3f after %.3f", ErrInvalidTable, p.Progress, points[i-1].Progress)
		}
	}
	cp := make([]Point, len(points))
	copy(cp, points)
	return Table{points: cp}, nil
}

// MustTable is NewTable that panics; for package-level tables.
func MustTable(points ...Point) Table {
	t, err := NewTable(points...)
	if err != nil {
		panic(err)
	}
	return t
}

// TableFrom pairs keys with values.
func TableFrom(progress, values []float64) (Table, error) {
	if len(progress) != len(values) {
		return Table{}, fmt.Errorf("%w: %d keys for %d values", ErrInvalidTable, len(progress), len(values))
	}
	pts := make([]Point, len(progress))
	for i := range progress {
		pts[i] = Point{Progress: progress[i], Value: values[i]}
	}
	return NewTable(pts...)
}

// Points returns a copy of the breakpoints.
func (t Table) Points() []Point {
	out := make([]Point, len(t.points))
	copy(out, t.points)
	return out
}

// At interpolates the value for progress, clamping to the first value below
// the first key and to the last value beyond the last key.
func (t Table) At(progress float64) float64 {
	n := len(t.points)
	if n == 0 {
		return 0
	}
	if progress <= t.points[0].Progress {
		return t.points[0].Value
	}
	if progress >= t.points[n-1].Progress {
		return t.points[n-1].Value
	}
	for i := 0; i < n-1; i++ {
		a, b := t.points[i], t.points[i+1]
		if progress < a.Progress || progress >= b.Progress {
			continue
		}
		span := b.Progress - a.Progress
		if span == 0 {
			return b.Value
		}
		return a.Value + (b.Value-a.Value)*(progress-a.Progress)/span
	}
	return t.points[n-1].Value
}

// Zoom tables of the experience section. Both run off the same progress
// signal; the food image starts later than the restaurant image.
var (
	RestaurantZoom = MustTable(
		Point{0.3, 1.0}, Point{0.6, 1.2}, Point{0.8, 1.2}, Point{1.0, 1.2},
	)
	FoodZoom = MustTable(
		Point{0.5, 1.0}, Point{0.8, 1.2}, Point{1.0, 1.2}, Point{1.0, 1.2},
	)
)

// MarshalJSON encodes the table as its breakpoint list.
func (t Table) MarshalJSON() ([]byte, error) {
	if t.points == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.points)
}

// UnmarshalJSON decodes and validates a breakpoint list.
func (t *Table) UnmarshalJSON(data []byte) error {
	var pts []Point
	if err := json.Unmarshal(data, &pts); err != nil {
		return err
	}
	nt, err := NewTable(pts...)
	if err != nil {
		return err
	}
	*t = nt
	return nil
}
