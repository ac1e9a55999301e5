package reveal

import "time"

// Defaults of the letter vanish effect.
const (
	DefaultVanishThreshold = 0.3
	DefaultStaggerDelay    = 50 * time.Millisecond
)

// Vanish configures the letter vanish effect of a heading leaving the viewport.
type Vanish struct {
	// Threshold is the visibility ratio below which letters start to vanish.
	Threshold float64 `json:"threshold" yaml:"threshold"`
	// StaggerDelay offsets each letter's transition; it never changes the target state.
	StaggerDelay time.Duration `json:"stagger_delay" yaml:"stagger_delay"`
}

// DefaultVanish returns the threshold 0.3 / 50ms stagger configuration.
func DefaultVanish() Vanish {
	return Vanish{Threshold: DefaultVanishThreshold, StaggerDelay: DefaultStaggerDelay}
}

// LetterState is the presentation state of one letter.
type LetterState struct {
	Vanishing bool          `json:"vanishing"`
	Delay     time.Duration `json:"delay"`
}

// Animating reports whether a section with the given visibility ratio is
// mid-vanish. At or above the threshold the effect is fully reset.
func (v Vanish) Animating(ratio float64) bool {
	return ratio > 0 && ratio < v.Threshold
}

// Progress is how far the vanish has advanced: 0 at the threshold, 1 when
// the element has left the viewport.
func (v Vanish) Progress(ratio float64) float64 {
	if v.Threshold <= 0 {
		return 0
	}
	return Clamp01(1 - ratio/v.Threshold)
}

// Letter returns the state of letter index of total for a visibility ratio.
// Letters vanish right to left: the last letters go first.
func (v Vanish) Letter(index, total int, ratio float64) LetterState {
	st := LetterState{Delay: time.Duration(index) * v.StaggerDelay}
	if total <= 0 || !v.Animating(ratio) {
		return st
	}
	letterProgress := float64(index) / float64(total)
	st.Vanishing = letterProgress >= 1-v.Progress(ratio)
	return st
}

// Letters returns the state of every letter.
func (v Vanish) Letters(total int, ratio float64) []LetterState {
	out := make([]LetterState, total)
	for i := range out {
		out[i] = v.Letter(i, total, ratio)
	}
	return out
}
