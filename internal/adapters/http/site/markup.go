package site

import (
	"encoding/json"
	"sort"
	"strconv"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/okian/delhihouse/internal/content"
	"github.com/okian/delhihouse/internal/domain/reveal"
)

// Reveal markup carries everything the browser runtime needs as data
// attributes: section ids and modes, per-word progress intervals, per-letter
// stagger and the image tables.

type bindings map[string]reveal.Binding

func (h *Handler) bindings() bindings {
	out := make(bindings)
	for _, b := range h.deps.RevealBindings() {
		out[b.Section.ID] = b
	}
	return out
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// wordCursor numbers the words of one section across its intro and blocks.
type wordCursor struct {
	next, total int
}

func (c *wordCursor) words(text string) Node {
	units := reveal.SplitWords(text)
	nodes := make([]Node, 0, 2*len(units))
	for _, u := range units {
		start, end := reveal.UnitInterval(c.next, c.total)
		nodes = append(nodes,
			Span(Class("reveal-word"),
				Data("reveal-word", strconv.Itoa(c.next)),
				Data("reveal-start", num(start)),
				Data("reveal-end", num(end)),
				Style("opacity: "+num(reveal.MinWordOpacity)),
				Text(u.Text)),
			Text(" "))
		c.next++
	}
	return Group(nodes)
}

func sectionAttrs(b reveal.Binding) Node {
	s := b.Section
	return Group{
		Data("reveal-section", s.ID),
		Data("reveal-mode", s.Mode.String()),
		If(s.Mode == reveal.LinearRamp, Group{
			Data("reveal-landmark-start", num(s.Landmarks.Start)),
			Data("reveal-landmark-end", num(s.Landmarks.End)),
		}),
	}
}

// vanishHeading splits text into letters that vanish right to left when the
// heading leaves the viewport.
func vanishHeading(b reveal.Binding, text string) Node {
	v := reveal.DefaultVanish()
	if b.Vanish != nil {
		v = *b.Vanish
	}
	letters := reveal.SplitLetters(text)
	return H3(Class("vanish"),
		Data("reveal-section", b.Section.ID),
		Data("vanish-threshold", num(v.Threshold)),
		Aria("label", text),
		Map(letters, func(u reveal.Unit) Node {
			delay := v.Letter(u.Index, u.Total, 1).Delay
			return Span(Class("letter"), Aria("hidden", "true"),
				Data("letter", strconv.Itoa(u.Index)),
				Style("transition-delay: "+strconv.FormatInt(delay.Milliseconds(), 10)+"ms"),
				Text(u.Text))
		}),
	)
}

func imageAttrs(key string, t reveal.Table) Node {
	raw, err := json.Marshal(t)
	if err != nil {
		return Group{}
	}
	return Group{
		Data("reveal-image", key),
		Data("reveal-table", string(raw)),
	}
}

// revealSection renders a content section: heading, intro and blocks with
// their images. Images not placed by a block are rendered as decorations.
func revealSection(sec content.Section, bs bindings) Node {
	b, ok := bs[sec.ID]
	if !ok {
		return Group{}
	}
	cur := &wordCursor{total: b.Words}
	placed := make(map[string]bool)
	blocks := make([]Node, 0, len(sec.Blocks))
	for _, blk := range sec.Blocks {
		if blk.ImageKey != "" {
			placed[blk.ImageKey] = true
		}
		blocks = append(blocks, revealBlock(blk, b, bs, cur))
	}
	intro := Group{}
	if sec.Intro != "" {
		intro = Group{P(Class("intro"), cur.words(sec.Intro))}
	}

	keys := make([]string, 0, len(b.Images))
	for k := range b.Images {
		if !placed[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	return Section(ID(sec.ID), Class("reveal "+sec.Mode), sectionAttrs(b),
		If(sec.Heading != "", H2(Text(sec.Heading))),
		intro,
		Group(blocks),
		Map(keys, func(k string) Node {
			return Div(Class("decoration "+k), imageAttrs(k, b.Images[k]))
		}),
	)
}

func revealBlock(blk content.Block, b reveal.Binding, bs bindings, cur *wordCursor) Node {
	heading := Group{}
	if blk.Heading != "" {
		if vb, ok := bs[blk.ID]; ok && blk.Vanish {
			heading = Group{vanishHeading(vb, blk.Heading)}
		} else {
			heading = Group{H3(Text(blk.Heading))}
		}
	}
	text := Div(Class("text"), heading, P(cur.words(blk.Text)))
	if blk.Image == "" {
		return Article(Class("block"), If(blk.ID != "", ID(blk.ID)), text)
	}
	img := Div(Class("image"),
		Img(Src(blk.Image), Alt(blk.Alt), Loading("lazy"),
			If(blk.ImageKey != "", imageAttrs(blk.ImageKey, b.Images[blk.ImageKey]))))
	class := "block with-image"
	if blk.ImageRight {
		return Article(Class(class+" image-right"), If(blk.ID != "", ID(blk.ID)), text, img)
	}
	return Article(Class(class), If(blk.ID != "", ID(blk.ID)), img, text)
}
