package reveal

import (
	"sort"
	"sync"
	"time"
)

// GeometryFunc reads a registered element's current bounding box. It reports
// false while the element has no layout.
type GeometryFunc func() (Rect, bool)

// SampleFunc reads the ambient scroll offset and viewport height.
type SampleFunc func() Sample

// Observer receives sampler events; used for metrics.
type Observer interface {
	FrameComputed(sections int, took time.Duration)
	SignalCoalesced()
}

// SamplerOption configures a Sampler.
type SamplerOption func(*Sampler)

// WithObserver sets the sampler observer.
func WithObserver(o Observer) SamplerOption {
	return func(s *Sampler) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithClock overrides the clock used to time computations.
func WithClock(now func() time.Time) SamplerOption {
	return func(s *Sampler) {
		if now != nil {
			s.now = now
		}
	}
}

type tracked struct {
	binding  Binding
	geometry GeometryFunc
}

// Sampler coalesces scroll and resize signals into at most one frame
// computation per animation frame. Sections register themselves on mount and
// unregister on unmount; nothing is discovered by querying the page.
type Sampler struct {
	read     SampleFunc
	observer Observer
	now      func() time.Time

	mu       sync.Mutex
	nextID   uint64
	sections map[uint64]tracked
	subs     map[uint64]func(Frame)
	pending  bool
	last     Frame
}

// NewSampler creates a sampler reading ambient geometry through read.
func NewSampler(read SampleFunc, opts ...SamplerOption) *Sampler {
	s := &Sampler{
		read:     read,
		observer: nopObserver{},
		now:      time.Now,
		sections: make(map[uint64]tracked),
		subs:     make(map[uint64]func(Frame)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register tracks a section until the returned func is called. The first
// registration marks a frame as pending so the section gets its initial state.
func (s *Sampler) Register(b Binding, geometry GeometryFunc) (unregister func()) {
	if geometry == nil {
		geometry = func() (Rect, bool) { return Rect{}, false }
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.sections[id] = tracked{binding: b, geometry: geometry}
	s.pending = true
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.sections, id)
			s.mu.Unlock()
		})
	}
}

// Subscribe delivers every computed frame to fn until cancel is called.
// fn runs on the goroutine calling Tick and must not call back into Tick.
func (s *Sampler) Subscribe(fn func(Frame)) (cancel func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Signal records a scroll or resize event. It returns true when the caller
// must request an animation frame; false when a frame is already pending or
// there is nothing to track.
func (s *Sampler) Signal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sections) == 0 {
		return false
	}
	if s.pending {
		s.observer.SignalCoalesced()
		return false
	}
	s.pending = true
	return true
}

// Pending reports whether a computation is waiting for the next frame.
func (s *Sampler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Tick runs the pending computation, if any, and publishes the frame to
// subscribers. The pending flag clears only after the frame was applied.
func (s *Sampler) Tick() (Frame, bool) {
	s.mu.Lock()
	if !s.pending || len(s.sections) == 0 {
		s.pending = false
		s.mu.Unlock()
		return Frame{}, false
	}
	ids := make([]uint64, 0, len(s.sections))
	for id := range s.sections {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	bindings := make([]Binding, 0, len(ids))
	geometry := make(map[string]Rect, len(ids))
	for _, id := range ids {
		t := s.sections[id]
		bindings = append(bindings, t.binding)
		if rect, ok := t.geometry(); ok {
			geometry[t.binding.Section.ID] = rect
		}
	}
	subs := make([]func(Frame), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	start := s.now()
	frame := Compute(s.read(), bindings, geometry)
	for _, fn := range subs {
		fn(frame)
	}
	s.observer.FrameComputed(len(frame.Sections), s.now().Sub(start))

	s.mu.Lock()
	s.last = frame
	s.pending = false
	s.mu.Unlock()
	return frame, true
}

// Last returns the most recently applied frame.
func (s *Sampler) Last() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

type nopObserver struct{}

func (nopObserver) FrameComputed(int, time.Duration) {}
func (nopObserver) SignalCoalesced()                 {}
