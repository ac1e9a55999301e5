package site

import (
	"bytes"
	"net/http"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/okian/delhihouse/internal/content"
)

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	c := h.deps.Content()
	bs := h.bindings()
	h.render(w, r, http.StatusOK, h.layout(r, "Home",
		Header(Class("hero"),
			If(c.Home.Hero.Video != "", El("video", Class("hero-video"), Src(c.Home.Hero.Video),
				Attr("autoplay"), Attr("muted"), Attr("loop"), Attr("playsinline"))),
			H1(Text(c.Home.Hero.Title)),
			P(Text(c.Site.Tagline)),
			A(Class("button"), Href("/reservations"), Text("Book a table")),
		),
		Map(c.Home.Sections, func(s content.Section) Node { return revealSection(s, bs) }),
		Section(Class("news"),
			H2(Text("NEWS & EVENTS")),
			Div(Class("cards"),
				Map(c.Home.News, func(n content.News) Node {
					return Article(Class("card"),
						Img(Src(n.Image), Alt(n.Title), Loading("lazy")),
						H3(Text(n.Title)),
						P(Text(n.Text)),
					)
				}),
			),
		),
	))
}

func (h *Handler) about(w http.ResponseWriter, r *http.Request) {
	c := h.deps.Content()
	bs := h.bindings()
	var story bytes.Buffer
	if err := h.md.Convert([]byte(c.About.Markdown), &story); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, h.layout(r, "About",
		Header(Class("hero about"),
			If(c.About.Image != "", Img(Class("hero-image"), Src(c.About.Image), Alt(c.About.Title))),
			H1(Text(c.About.Title)),
			P(Text(c.About.Subtitle)),
		),
		Map(c.About.Sections, func(s content.Section) Node { return revealSection(s, bs) }),
		If(story.Len() > 0, Section(Class("story"), Raw(story.String()))),
	))
}
