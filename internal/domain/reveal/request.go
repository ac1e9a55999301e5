package reveal

// Request asks for the reveal state of a page at one scroll position.
type Request struct {
	Sample   Sample          `json:"sample"`
	Geometry map[string]Rect `json:"geometry"`
	// Landmarks replace the configured landmarks of linear sections, as
	// measured by the page.
	Landmarks map[string]Landmarks `json:"landmarks,omitempty"`
	// Sections limits the frame to these ids; empty means all.
	Sections []string `json:"sections,omitempty"`
}

// Select returns the bindings the request covers, with measured landmarks
// applied. It fails with ErrUnknownSection when a named section has no binding.
func (r Request) Select(bindings []Binding) ([]Binding, error) {
	want := make(map[string]bool, len(r.Sections))
	for _, id := range r.Sections {
		want[id] = true
	}
	out := make([]Binding, 0, len(bindings))
	for _, b := range bindings {
		if len(want) > 0 && !want[b.Section.ID] {
			continue
		}
		if lm, ok := r.Landmarks[b.Section.ID]; ok && b.Section.Mode == LinearRamp {
			b.Section.Landmarks = lm
		}
		out = append(out, b)
	}
	if len(want) > 0 && len(out) < len(want) {
		return nil, ErrUnknownSection
	}
	return out, nil
}
