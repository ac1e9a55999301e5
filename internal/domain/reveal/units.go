package reveal

import (
	"math"
	"strings"
)

// Opacity bounds of a word reveal.
const (
	MinWordOpacity = 0.2
	MaxWordOpacity = 1.0
)

// Unit is a word or letter addressed by the reveal mappers.
type Unit struct {
	Index int    `json:"index"`
	Total int    `json:"total"`
	Text  string `json:"text"`
}

// Interval returns the half-open slice [i/n, (i+1)/n) of section progress
// owned by the unit.
func (u Unit) Interval() (start, end float64) {
	return UnitInterval(u.Index, u.Total)
}

// UnitInterval returns [i/n, (i+1)/n).
func UnitInterval(index, total int) (start, end float64) {
	if total <= 0 {
		return 0, 1
	}
	n := float64(total)
	return float64(index) / n, float64(index+1) / n
}

// SplitWords splits text on single spaces, matching how the markup is
// authored. Empty words from repeated spaces are dropped.
func SplitWords(text string) []Unit {
	raw := strings.Split(text, " ")
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		if w != "" {
			words = append(words, w)
		}
	}
	return toUnits(words)
}

// SplitLetters splits text into runes. Spaces are kept as units so the
// stagger delay stays aligned with reading order.
func SplitLetters(text string) []Unit {
	runes := []rune(text)
	letters := make([]string, len(runes))
	for i, r := range runes {
		letters[i] = string(r)
	}
	return toUnits(letters)
}

func toUnits(parts []string) []Unit {
	units := make([]Unit, len(parts))
	for i, p := range parts {
		units[i] = Unit{Index: i, Total: len(parts), Text: p}
	}
	return units
}

// LocalProgress maps section progress onto unit index of total. It equals
// clamp01((p - start)/(end - start)) for the unit's interval.
func LocalProgress(sectionProgress float64, index, total int) float64 {
	if total <= 0 {
		return Clamp01(sectionProgress)
	}
	return Clamp01(Clamp01(sectionProgress)*float64(total) - float64(index))
}

// WordOpacity maps local progress linearly onto [0.2, 1.0].
func WordOpacity(sectionProgress float64, index, total int) float64 {
	return MinWordOpacity + (MaxWordOpacity-MinWordOpacity)*LocalProgress(sectionProgress, index, total)
}

// WordOpacities returns the opacity of every word in a section.
func WordOpacities(sectionProgress float64, total int) []float64 {
	out := make([]float64, total)
	for i := range out {
		out[i] = WordOpacity(sectionProgress, i, total)
	}
	return out
}

// CountRevealed returns how many units have reached local progress 1.
func CountRevealed(sectionProgress float64, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(Clamp01(sectionProgress) * float64(total)))
}
