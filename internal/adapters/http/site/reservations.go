package site

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/csrf"
	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/okian/delhihouse/internal/adapters/widget"
	service "github.com/okian/delhihouse/internal/app"
	"github.com/okian/delhihouse/internal/domain/booking"
	"github.com/okian/delhihouse/internal/domain/model"
	"github.com/okian/delhihouse/pkg/logger"
)

type bookingView struct {
	form     booking.Form
	problems map[string][]string
	notice   string
}

func (h *Handler) reservations(w http.ResponseWriter, r *http.Request) {
	opts := h.deps.BookingOptions()
	f := booking.Form{Date: opts.FirstDate, Time: "19:00", PartySize: opts.DefaultPartySize}
	if len(opts.Venues) > 0 {
		f.Venue = opts.Venues[0]
	}
	h.renderReservations(w, r, http.StatusOK, bookingView{form: f})
}

func (h *Handler) reservationSubmit(w http.ResponseWriter, r *http.Request) {
	party, _ := strconv.Atoi(r.PostFormValue("party_size"))
	f := booking.Form{
		Venue:           r.PostFormValue("venue"),
		Date:            r.PostFormValue("date"),
		Time:            r.PostFormValue("time"),
		PartySize:       party,
		FirstName:       r.PostFormValue("first_name"),
		LastName:        r.PostFormValue("last_name"),
		Email:           r.PostFormValue("email"),
		Phone:           r.PostFormValue("phone"),
		SpecialRequests: r.PostFormValue("special_requests"),
	}
	b, err := h.deps.Book(r.Context(), f)
	if err == nil {
		h.render(w, r, http.StatusOK, h.layout(r, "Booking received", confirmation(b)))
		return
	}
	view := bookingView{form: f}
	var ve *booking.ValidationError
	status := http.StatusInternalServerError
	if errors.As(err, &ve) {
		status = http.StatusBadRequest
		view.problems = ve.Fields
	} else {
		h.logger.Error(r.Context(), "booking failed", logger.Error(err))
		view.notice = "Failed to submit booking. Please try again."
	}
	h.renderReservations(w, r, status, view)
}

func (h *Handler) renderReservations(w http.ResponseWriter, r *http.Request, status int, v bookingView) {
	wd := h.deps.Widget()
	available := h.deps.WidgetAvailability(r.Context()).Available
	h.render(w, r, status, h.layout(r, "Reservations",
		Section(Class("reservations"),
			H1(Text("RESERVE A TABLE")),
			widgetBlock(wd, available),
			H2(Text("Or send us a booking request")),
			If(v.notice != "", P(Class("notice error"), Text(v.notice))),
			bookingForm(csrf.Token(r), h.deps.BookingOptions(), v),
		),
		Script(Src("/static/js/widget.js"), Defer()),
	))
}

// widgetBlock renders the provider iframe with hidden fallback links, or
// only the links when the provider is known to be down.
func widgetBlock(wd widget.Embeddable, available bool) Node {
	links := Div(Class("widget-fallback"), If(available, Attr("hidden")),
		P(Text("Our booking system is taking a while to load. You can book directly:")),
		Map(wd.Fallback(), func(l widget.Link) Node {
			return A(Class("button"), Href(l.URL), Target("_blank"), Rel("noopener"), Text(l.Label))
		}),
	)
	if !available {
		return Div(Class("widget"), links)
	}
	f := wd.Frame()
	return Div(Class("widget"),
		Data("widget-origin", f.MessageOrigin),
		Data("widget-timeout", strconv.FormatInt(f.TimeoutMS, 10)),
		IFrame(Src(f.Src), Title(f.Title), Attr("sandbox", f.Sandbox),
			Style("min-height: "+strconv.Itoa(f.MinHeight)+"px"), Loading("lazy")),
		links,
	)
}

func bookingForm(token string, opts service.BookingOptions, v bookingView) Node {
	f := v.form
	return Form(Class("booking"), Method("post"), Action("/reservations"), Attr("novalidate"),
		csrfInput(token),
		Div(Class("field"),
			Label(For("venue"), Text("Restaurant")),
			Select(ID("venue"), Name("venue"),
				Map(opts.Venues, func(name string) Node {
					return Option(Value(name), If(name == f.Venue, Selected()), Text(name))
				}),
			),
		),
		field("Date", "date", "date", f.Date, v.problems["date"], Min(opts.FirstDate), Max(opts.LastDate), Required()),
		Div(Class("field"),
			Label(For("time"), Text("Time")),
			Select(ID("time"), Name("time"),
				Map(opts.TimeSlots, func(slot string) Node {
					return Option(Value(slot), If(slot == f.Time, Selected()), Text(slot))
				}),
			),
			problems(v.problems["time"]),
		),
		Div(Class("field"),
			Label(For("party_size"), Text("Party size")),
			Select(ID("party_size"), Name("party_size"),
				Map(opts.PartySizes, func(n int) Node {
					label := strconv.Itoa(n) + " people"
					if n == 1 {
						label = "1 person"
					}
					return Option(Value(strconv.Itoa(n)), If(n == f.PartySize, Selected()), Text(label))
				}),
			),
			problems(v.problems["party_size"]),
		),
		field("First name", "first_name", "text", f.FirstName, v.problems["first_name"], Required()),
		field("Last name", "last_name", "text", f.LastName, v.problems["last_name"], Required()),
		field("Email", "email", "email", f.Email, v.problems["email"], Required()),
		field("Phone", "phone", "tel", f.Phone, v.problems["phone"], Required()),
		field("Special requests", "special_requests", "textarea", f.SpecialRequests, nil),
		Button(Type("submit"), Class("button"), Text("Request booking")),
	)
}

func problems(ps []string) Node {
	if len(ps) == 0 {
		return nil
	}
	return Span(Class("problem"), Text(ps[0]))
}

func confirmation(b model.BookingRequest) Node {
	return Section(Class("message"),
		H1(Text("Booking request received")),
		P(Text("Your confirmation number is "), Strong(Text(b.Confirmation)), Text(".")),
		Dl(
			Dt(Text("Restaurant")), Dd(Text(b.Venue)),
			Dt(Text("Date")), Dd(Text(b.Date+" at "+b.Time)),
			Dt(Text("Party")), Dd(Text(strconv.Itoa(b.PartySize))),
			Dt(Text("Name")), Dd(Text(b.Name)),
		),
		P(Text("We will e-mail "+b.Email+" once the table is confirmed.")),
		A(Class("button"), Href("/"), Text("Back to home")),
	)
}
