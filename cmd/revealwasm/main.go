//go:build js && wasm

// Command revealwasm runs the scroll reveal engine in the browser. Every
// [data-reveal-section] element on the page registers with one long-lived
// Sampler. Scroll and resize only signal it; a frame is computed at most once
// per animation frame and handed to window.delhiRevealApply as JSON.
//
// It also installs window.delhiReveal:
//
//	frame(requestJSON) string  computes a frame for a posted reveal request
//	stats() string             frames computed and signals coalesced, as JSON
//
// Build it with go generate in internal/adapters/http/site.
package main

import (
	"encoding/json"
	"sync/atomic"
	"syscall/js"
	"time"

	"github.com/okian/delhihouse/internal/content"
	"github.com/okian/delhihouse/internal/domain/reveal"
)

var (
	window   = js.Global()
	document = window.Get("document")
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func encode(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(errorResponse{Code: "internal", Message: err.Error()})
	}
	return string(data)
}

type counters struct {
	frames    atomic.Int64
	coalesced atomic.Int64
}

func (c *counters) FrameComputed(int, time.Duration) { c.frames.Add(1) }
func (c *counters) SignalCoalesced()                 { c.coalesced.Add(1) }

// page owns the sampler and the registrations of the mounted sections.
type page struct {
	bindings map[string]reveal.Binding
	sampler  *reveal.Sampler
	stats    *counters
	mounted  []func()
	tick     js.Func
}

func newPage(bindings []reveal.Binding) *page {
	p := &page{
		bindings: make(map[string]reveal.Binding, len(bindings)),
		stats:    &counters{},
	}
	for _, b := range bindings {
		p.bindings[b.Section.ID] = b
	}
	p.sampler = reveal.NewSampler(readSample, reveal.WithObserver(p.stats))
	p.sampler.Subscribe(publish)
	p.tick = js.FuncOf(func(js.Value, []js.Value) any {
		p.sampler.Tick()
		return nil
	})
	return p
}

func readSample() reveal.Sample {
	return reveal.Sample{
		OffsetY:        window.Get("scrollY").Float(),
		ViewportHeight: window.Get("innerHeight").Float(),
	}
}

func publish(f reveal.Frame) {
	apply := window.Get("delhiRevealApply")
	if apply.Type() == js.TypeFunction {
		apply.Invoke(encode(f))
	}
}

// geometryOf reads el's bounding box; detached or collapsed elements have none.
func geometryOf(el js.Value) reveal.GeometryFunc {
	return func() (reveal.Rect, bool) {
		if !el.Get("isConnected").Truthy() {
			return reveal.Rect{}, false
		}
		r := el.Call("getBoundingClientRect")
		if r.Get("width").Float() == 0 && r.Get("height").Float() == 0 {
			return reveal.Rect{}, false
		}
		return reveal.Rect{Top: r.Get("top").Float(), Height: r.Get("height").Float()}, true
	}
}

// mount registers every section element, replacing earlier registrations.
// Linear sections get landmarks measured from the current layout.
func (p *page) mount() {
	for _, unregister := range p.mounted {
		unregister()
	}
	p.mounted = p.mounted[:0]

	vh := window.Get("innerHeight").Float()
	scrollY := window.Get("scrollY").Float()
	nodes := document.Call("querySelectorAll", "[data-reveal-section]")
	for i := 0; i < nodes.Length(); i++ {
		el := nodes.Index(i)
		b, ok := p.bindings[el.Call("getAttribute", "data-reveal-section").String()]
		if !ok {
			continue
		}
		if b.Section.Mode == reveal.LinearRamp {
			top := el.Call("getBoundingClientRect").Get("top").Float() + scrollY
			b.Section.Landmarks = reveal.Landmarks{Start: top - vh, End: top + el.Get("offsetHeight").Float()}
		}
		p.mounted = append(p.mounted, p.sampler.Register(b, geometryOf(el)))
	}
}

func (p *page) requestFrame() {
	window.Call("requestAnimationFrame", p.tick)
}

func (p *page) onScroll(js.Value, []js.Value) any {
	if p.sampler.Signal() {
		p.requestFrame()
	}
	return nil
}

// onResize re-measures landmarks; registering marks a frame pending.
func (p *page) onResize(js.Value, []js.Value) any {
	wasPending := p.sampler.Pending()
	p.mount()
	if !wasPending && p.sampler.Pending() {
		p.requestFrame()
	}
	return nil
}

func (p *page) frame(_ js.Value, args []js.Value) any {
	if len(args) != 1 || args[0].Type() != js.TypeString {
		return encode(errorResponse{Code: "invalid_request", Message: "frame expects one JSON string"})
	}
	var req reveal.Request
	if err := json.Unmarshal([]byte(args[0].String()), &req); err != nil {
		return encode(errorResponse{Code: "invalid_json", Message: err.Error()})
	}
	if req.Sample.ViewportHeight <= 0 {
		return encode(errorResponse{Code: "invalid_sample", Message: "viewport_height must be positive"})
	}
	all := make([]reveal.Binding, 0, len(p.bindings))
	for _, b := range p.bindings {
		all = append(all, b)
	}
	selected, err := req.Select(all)
	if err != nil {
		return encode(errorResponse{Code: "unknown_section", Message: err.Error()})
	}
	return encode(reveal.Compute(req.Sample, selected, req.Geometry))
}

func (p *page) statsJSON(js.Value, []js.Value) any {
	return encode(map[string]int64{
		"frames":    p.stats.frames.Load(),
		"coalesced": p.stats.coalesced.Load(),
	})
}

func fail(err error) {
	window.Get("console").Call("error", "delhiReveal: "+err.Error())
}

func main() {
	c, err := content.Default()
	if err != nil {
		fail(err)
		return
	}
	bindings, err := c.Bindings()
	if err != nil {
		fail(err)
		return
	}

	p := newPage(bindings)
	api := window.Get("Object").New()
	api.Set("frame", js.FuncOf(p.frame))
	api.Set("stats", js.FuncOf(p.statsJSON))
	window.Set("delhiReveal", api)

	opts := window.Get("Object").New()
	opts.Set("passive", true)
	window.Call("addEventListener", "scroll", js.FuncOf(p.onScroll), opts)
	window.Call("addEventListener", "resize", js.FuncOf(p.onResize))

	p.mount()
	if p.sampler.Pending() {
		p.requestFrame()
	}

	// The callbacks above run on this program; keep it alive.
	select {}
}
