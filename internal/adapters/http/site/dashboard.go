package site

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/okian/delhihouse/internal/adapters/auth"
	"github.com/okian/delhihouse/internal/adapters/repository"
	"github.com/okian/delhihouse/internal/domain/dashboard"
	"github.com/okian/delhihouse/internal/domain/lead"
	"github.com/okian/delhihouse/internal/domain/model"
)

var notices = map[string]string{
	"deleted":       "Lead deleted.",
	"delete_failed": "Failed to delete lead. Please try again.",
	"in_flight":     "Another delete is still in progress.",
	"missing":       "That lead no longer exists.",
}

func (h *Handler) board(w http.ResponseWriter, r *http.Request) (*dashboard.Board, bool) {
	sess, _ := auth.SessionFrom(r.Context())
	b, err := h.deps.Dashboard(r.Context(), sess)
	if err != nil {
		h.serverError(w, r, err)
		return nil, false
	}
	return b, true
}

// dashboard lists the leads. refresh=1 refetches them, lead=<id> opens a
// detail view, notice=<key> shows the outcome of a previous action.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	notice := notices[q.Get("notice")]

	if q.Get("refresh") == "1" {
		err := b.Refresh(r.Context())
		var fe *dashboard.FetchError
		if err != nil && !errors.As(err, &fe) && !errors.Is(err, dashboard.ErrSuperseded) {
			h.serverError(w, r, err)
			return
		}
	}
	if id := q.Get("lead"); id != "" {
		if _, err := b.Select(id); err != nil {
			notice = notices["missing"]
		}
	} else {
		b.CloseDetail()
	}

	v := b.View()
	token := csrf.Token(r)
	h.render(w, r, http.StatusOK, h.layout(r, "Dashboard",
		Section(Class("dashboard"),
			Header(Class("dashboard-head"),
				H1(Text("Leads")),
				P(Text("Signed in as "+v.User)),
				A(Class("button"), Href("/dashboard?refresh=1"), Text("Refresh")),
				A(Href("/dashboard/bookings"), Text("Booking requests")),
			),
			If(notice != "", P(Class("notice"), Role("status"), Text(notice))),
			statsCards(v.Stats),
			If(v.FetchFailed, P(Class("notice error"), Role("alert"), Text("Failed to load leads. Use Refresh to try again."))),
			If(!v.FetchFailed && len(v.Leads) == 0, P(Class("empty"), Text("No leads yet."))),
			If(len(v.Leads) > 0, h.leadTable(v, token)),
			Iff(v.Selected != nil, func() Node { return h.leadDetail(*v.Selected) }),
		),
	))
}

func statsCards(st lead.Stats) Node {
	card := func(label string, n int) Node {
		return Div(Class("stat"), Strong(Text(strconv.Itoa(n))), Span(Text(label)))
	}
	return Div(Class("stats"),
		card("Total leads", st.Total),
		card("Last 24 hours", st.Last24h),
		card("This week", st.ThisWeek),
	)
}

func (h *Handler) leadTable(v dashboard.View, token string) Node {
	loc := h.deps.Location()
	return Table(Class("leads"),
		THead(Tr(Th(Text("Name")), Th(Text("Email")), Th(Text("Phone")), Th(Text("Date")), Th())),
		TBody(Map(v.Leads, func(l model.Lead) Node {
			return Tr(If(v.Selected != nil && v.Selected.ID == l.ID, Class("selected")),
				Td(A(Href("/dashboard?lead="+l.ID), Text(l.Name))),
				Td(A(Href("mailto:"+l.Email), Text(l.Email))),
				Td(Text(l.Phone)),
				Td(Text(lead.FormatDate(l.Timestamp, loc))),
				Td(Class("actions"),
					If(v.Deleting == l.ID, Span(Text("Deleting…"))),
					If(v.Deleting != l.ID, A(Class("danger"), Href("/dashboard/leads/"+l.ID+"/delete"), Text("Delete"))),
				),
			)
		})),
	)
}

func (h *Handler) leadDetail(l model.Lead) Node {
	return Aside(Class("detail"),
		H2(Text(l.Name)),
		Dl(
			Dt(Text("Email")), Dd(A(Href("mailto:"+l.Email), Text(l.Email))),
			Dt(Text("Phone")), Dd(A(Href("tel:"+l.Phone), Text(l.Phone))),
			Dt(Text("Received")), Dd(Text(lead.FormatDate(l.Timestamp, h.deps.Location()))),
		),
		P(Class("message-body"), Text(l.Message)),
		A(Class("danger"), Href("/dashboard/leads/"+l.ID+"/delete"), Text("Delete")),
		A(Href("/dashboard"), Text("Close")),
	)
}

// confirmDelete asks before deleting; the delete form only posts confirm=yes
// from this page.
func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	l, found := lead.Find(b.View().Leads, id)
	if !found {
		http.Redirect(w, r, "/dashboard?notice=missing", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, h.layout(r, "Delete lead",
		Section(Class("message"),
			H1(Text("Delete this lead?")),
			P(Text("The message from "+l.Name+" <"+l.Email+"> will be removed permanently.")),
			Form(Method("post"), Action("/dashboard/leads/"+l.ID+"/delete"),
				csrfInput(csrf.Token(r)),
				Input(Type("hidden"), Name("confirm"), Value("yes")),
				Button(Type("submit"), Class("button danger"), Text("Delete")),
				A(Href("/dashboard?lead="+l.ID), Text("Cancel")),
			),
		),
	))
}

func (h *Handler) deleteLead(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	err := b.Delete(r.Context(), id, r.PostFormValue("confirm") == "yes")
	var de *dashboard.DeleteError
	switch {
	case err == nil:
		http.Redirect(w, r, "/dashboard?notice=deleted", http.StatusSeeOther)
	case errors.Is(err, dashboard.ErrNotConfirmed):
		http.Redirect(w, r, "/dashboard/leads/"+id+"/delete", http.StatusSeeOther)
	case errors.Is(err, dashboard.ErrDeleteInFlight):
		http.Redirect(w, r, "/dashboard?notice=in_flight", http.StatusSeeOther)
	case errors.Is(err, repository.ErrNotFound):
		http.Redirect(w, r, "/dashboard?notice=missing", http.StatusSeeOther)
	case errors.As(err, &de):
		http.Redirect(w, r, "/dashboard?notice=delete_failed&lead="+id, http.StatusSeeOther)
	default:
		h.serverError(w, r, err)
	}
}

func (h *Handler) bookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Bookings(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, h.layout(r, "Booking requests",
		Section(Class("dashboard"),
			H1(Text("Booking requests")),
			A(Href("/dashboard"), Text("Back to leads")),
			If(len(list) == 0, P(Class("empty"), Text("No booking requests yet."))),
			If(len(list) > 0, Table(Class("leads"),
				THead(Tr(Th(Text("Ref")), Th(Text("Restaurant")), Th(Text("Date")), Th(Text("Party")), Th(Text("Name")), Th(Text("Contact")))),
				TBody(Map(list, func(b model.BookingRequest) Node {
					return Tr(
						Td(Text(b.Confirmation)),
						Td(Text(b.Venue)),
						Td(Text(b.Date+" "+b.Time)),
						Td(Text(strconv.Itoa(b.PartySize))),
						Td(Text(b.Name)),
						Td(Text(b.Email+" / "+b.Phone)),
					)
				})),
			)),
		),
	))
}
