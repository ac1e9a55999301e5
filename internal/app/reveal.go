package service

import (
	"github.com/okian/delhihouse/internal/domain/reveal"
	"github.com/okian/delhihouse/pkg/metrics"
)

// FrameRequest asks for the reveal state of a page at one scroll position.
type FrameRequest = reveal.Request

// RevealBindings returns the configured reveal bindings.
func (s *Service) RevealBindings() []reveal.Binding {
	out := make([]reveal.Binding, len(s.bindings))
	copy(out, s.bindings)
	return out
}

// RevealFrame computes the frame for one posted sample. Pages without the
// browser engine call it once per animation frame; coalescing happens there.
func (s *Service) RevealFrame(req FrameRequest) (reveal.Frame, error) {
	bindings, err := req.Select(s.bindings)
	if err != nil {
		return reveal.Frame{}, err
	}
	frame := reveal.Compute(req.Sample, bindings, req.Geometry)
	metrics.RecordRevealFrame()
	return frame, nil
}
