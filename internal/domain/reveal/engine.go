package reveal

import "sort"

// Binding ties a tracked section to the visual parameters derived from it.
type Binding struct {
	Section Section `json:"section"`
	// Words is the number of word units revealed by this section's progress.
	Words int `json:"words,omitempty"`
	// Letters is the number of letter units subject to Vanish.
	Letters int     `json:"letters,omitempty"`
	Vanish  *Vanish `json:"vanish,omitempty"`
	// Images maps an image key to the table driven by this section's progress.
	Images map[string]Table `json:"images,omitempty"`
}

// SectionFrame holds the visual parameters of one section for one sample.
type SectionFrame struct {
	ID          string             `json:"id"`
	Progress    float64            `json:"progress"`
	WordOpacity []float64          `json:"word_opacity,omitempty"`
	Revealed    int                `json:"revealed"`
	Visibility  float64            `json:"visibility"`
	Letters     []LetterState      `json:"letters,omitempty"`
	ImageValues map[string]float64 `json:"images,omitempty"`
	MissingGeom bool               `json:"missing_geometry,omitempty"`
}

// Frame is the output of one computation over all tracked sections.
type Frame struct {
	Sample   Sample         `json:"sample"`
	Sections []SectionFrame `json:"sections"`
}

// Section returns the frame of section id.
func (f Frame) Section(id string) (SectionFrame, bool) {
	for _, s := range f.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return SectionFrame{}, false
}

// Compute derives a frame from a sample, the bindings and each section's
// current geometry keyed by section id. Sections are reported in id order.
// A SelfHeightRamp or vanish section without geometry is reported with
// MissingGeom and zero progress.
func Compute(sample Sample, bindings []Binding, geometry map[string]Rect) Frame {
	frame := Frame{Sample: sample, Sections: make([]SectionFrame, 0, len(bindings))}
	for _, b := range bindings {
		frame.Sections = append(frame.Sections, computeSection(sample, b, geometry))
	}
	sort.Slice(frame.Sections, func(i, j int) bool { return frame.Sections[i].ID < frame.Sections[j].ID })
	return frame
}

func computeSection(sample Sample, b Binding, geometry map[string]Rect) SectionFrame {
	sf := SectionFrame{ID: b.Section.ID}
	rect, ok := geometry[b.Section.ID]
	needsRect := b.Section.Mode == SelfHeightRamp || b.Vanish != nil
	if needsRect && !ok {
		sf.MissingGeom = true
	}

	if !sf.MissingGeom || b.Section.Mode == LinearRamp {
		sf.Progress = b.Section.Progress(sample, rect)
	}
	if b.Words > 0 {
		sf.WordOpacity = WordOpacities(sf.Progress, b.Words)
		sf.Revealed = CountRevealed(sf.Progress, b.Words)
	}
	if ok {
		sf.Visibility = VisibilityRatio(rect, sample.ViewportHeight)
	}
	if b.Vanish != nil && b.Letters > 0 {
		sf.Letters = b.Vanish.Letters(b.Letters, sf.Visibility)
	}
	if len(b.Images) > 0 {
		sf.ImageValues = make(map[string]float64, len(b.Images))
		for key, table := range b.Images {
			sf.ImageValues[key] = table.At(sf.Progress)
		}
	}
	return sf
}
