// Package reveal computes scroll-driven reveal parameters.
//
// Data flows one way: a Sample of the scroll position becomes a progress
// value in [0,1] per tracked section, which is then mapped to per-unit text
// opacity, letter vanish state and image transform values. Every function in
// this package is pure except the Sampler, which owns registration and frame
// coalescing.
package reveal

import "math"

// Sample is an immutable snapshot of the scroll position taken once per frame.
type Sample struct {
	OffsetY        float64 `json:"offset_y"`
	ViewportHeight float64 `json:"viewport_height"`
}

// Rect is an element's bounding box relative to the viewport.
type Rect struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Bottom returns Top+Height.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Mode selects how a section turns a Sample into progress.
type Mode int

const (
	// LinearRamp ramps between two absolute scroll offsets.
	LinearRamp Mode = iota
	// SelfHeightRamp ramps over the section's own height minus the viewport.
	SelfHeightRamp
)

func (m Mode) String() string {
	switch m {
	case LinearRamp:
		return "linear"
	case SelfHeightRamp:
		return "self-height"
	default:
		return "unknown"
	}
}

// ParseMode parses the names produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "linear", "":
		return LinearRamp, nil
	case "self-height":
		return SelfHeightRamp, nil
	default:
		return 0, ErrUnknownMode
	}
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	if m != LinearRamp && m != SelfHeightRamp {
		return nil, ErrUnknownMode
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Landmarks are the scroll offsets bounding a LinearRamp.
type Landmarks struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ViewportLandmarks returns the landmarks of a section that starts animating
// when its top edge enters the bottom of the viewport and finishes when its
// bottom edge leaves the top.
func ViewportLandmarks(offsetTop, height, viewportHeight float64) Landmarks {
	return Landmarks{Start: offsetTop - viewportHeight, End: offsetTop + height}
}

// Section is a tracked element and its progress policy.
type Section struct {
	ID        string    `json:"id"`
	Mode      Mode      `json:"mode"`
	Landmarks Landmarks `json:"landmarks"`
}

// Progress computes the section progress for a sample and the element's
// current geometry. Rect is ignored by LinearRamp.
func (s Section) Progress(sample Sample, rect Rect) float64 {
	if s.Mode == SelfHeightRamp {
		return SelfHeightProgress(rect, sample.ViewportHeight)
	}
	return LinearProgress(sample.OffsetY, s.Landmarks.Start, s.Landmarks.End)
}

// Clamp01 clamps v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// LinearProgress ramps from 0 at start to 1 at end. When end <= start the
// ramp degenerates to a step at start.
func LinearProgress(offsetY, start, end float64) float64 {
	if end <= start {
		if offsetY >= start {
			return 1
		}
		return 0
	}
	return Clamp01((offsetY - start) / (end - start))
}

// SelfHeightProgress measures how far the viewport has scrolled through a
// section taller than itself. Sections that fit in the viewport are always
// fully revealed.
func SelfHeightProgress(rect Rect, viewportHeight float64) float64 {
	distance := rect.Height - viewportHeight
	if distance <= 0 {
		return 1
	}
	return Clamp01(-rect.Top / distance)
}

// VisibilityRatio is the fraction of rect inside a viewport of the given
// height. Zero-height elements report 0.
func VisibilityRatio(rect Rect, viewportHeight float64) float64 {
	if rect.Height <= 0 {
		return 0
	}
	visibleTop := math.Max(0, rect.Top)
	visibleBottom := math.Min(viewportHeight, rect.Bottom())
	visible := math.Max(0, visibleBottom-visibleTop)
	return Clamp01(visible / rect.Height)
}
