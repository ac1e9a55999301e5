package site

import (
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/okian/delhihouse/internal/adapters/auth"
	"github.com/okian/delhihouse/internal/content"
)

func (h *Handler) layout(r *http.Request, title string, body ...Node) Node {
	c := h.deps.Content()
	_, signedIn := auth.SessionFrom(r.Context())
	return Doctype(
		HTML(Lang("en-GB"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				TitleEl(Text(title+" | "+c.Site.Name)),
				Link(Rel("stylesheet"), Href("/static/css/site.css")),
				If(h.hasWasm, Script(Src(enginePrefix+engineLoader), Defer())),
				Script(Src("/static/js/reveal.js"), Defer()),
			),
			Body(
				If(h.hasWasm, Data("reveal-engine", enginePrefix+engineBinary)),
				navBar(r.URL.Path, signedIn, csrf.Token(r)),
				Main(Group(body)),
				footer(c),
			),
		),
	)
}

func navBar(path string, signedIn bool, token string) Node {
	link := func(href, label string) Node {
		active := href == path || (href != "/" && strings.HasPrefix(path, href))
		return Li(A(Href(href), If(active, Class("active")), Text(label)))
	}
	return Nav(Class("nav"),
		A(Class("brand"), Href("/"), Text("DELHI HOUSE")),
		Ul(
			link("/", "Home"),
			link("/about", "About"),
			link("/reservations", "Reservations"),
			link("/contact", "Contact"),
			If(signedIn, link("/dashboard", "Dashboard")),
		),
		If(signedIn, Form(Class("signout"), Method("post"), Action("/logout"),
			csrfInput(token),
			Button(Type("submit"), Text("Sign out")),
		)),
	)
}

// footer is the "visit us" block listing every venue.
func footer(c *content.Content) Node {
	return Footer(Class("visit"),
		H2(Text("VISIT US")),
		Div(Class("venues"),
			Map(c.Venues, func(v content.Venue) Node {
				return Div(Class("venue"),
					H3(Text(strings.ToUpper(v.Name))),
					P(Text(v.Address)),
					P(Small(Text("Near "+v.Landmark))),
					P(A(Href("tel:"+strings.ReplaceAll(v.Phone, " ", "")), Text(v.Phone))),
					Ul(Map(v.Hours, func(line string) Node { return Li(Text(line)) })),
				)
			}),
		),
		P(Class("copy"), Text(c.Site.Tagline)),
	)
}

func csrfInput(token string) Node {
	return Input(Type("hidden"), Name(csrfField), Value(token))
}

func messagePage(title, text string) Node {
	return Section(Class("message"),
		H1(Text(title)),
		P(Text(text)),
		A(Class("button"), Href("/"), Text("Back to home")),
	)
}

// field renders a labelled input with its validation problems.
func field(label, name, typ, value string, problems []string, extra ...Node) Node {
	input := Input(ID(name), Name(name), Type(typ), Value(value), Group(extra))
	if typ == "textarea" {
		input = Textarea(ID(name), Name(name), Rows("5"), Group(extra), Text(value))
	}
	class := "field"
	if len(problems) > 0 {
		class += " invalid"
	}
	return Div(Class(class),
		Label(For(name), Text(label)),
		input,
		If(len(problems) > 0, Span(Class("problem"), Text(label+" "+strings.Join(problems, ", ")))),
	)
}
