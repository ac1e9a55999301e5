package site

import (
	"errors"
	"net/http"

	"github.com/gorilla/csrf"
	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	service "github.com/okian/delhihouse/internal/app"
	"github.com/okian/delhihouse/internal/content"
	"github.com/okian/delhihouse/internal/domain/lead"
	"github.com/okian/delhihouse/internal/domain/model"
	"github.com/okian/delhihouse/pkg/logger"
)

type contactView struct {
	sub      model.Submission
	problems map[string][]string
	notice   string
	sent     bool
}

func (h *Handler) contactForm(w http.ResponseWriter, r *http.Request) {
	h.renderContact(w, r, http.StatusOK, contactView{
		sub:  model.Submission{Token: service.NewFormToken()},
		sent: r.URL.Query().Get("sent") == "1",
	})
}

// contactSubmit queues the form and redirects on success so a reload does
// not post again. A resubmitted token is treated as sent.
func (h *Handler) contactSubmit(w http.ResponseWriter, r *http.Request) {
	sub := model.Submission{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Phone:   r.PostFormValue("phone"),
		Message: r.PostFormValue("message"),
		Token:   r.PostFormValue("token"),
	}
	_, err := h.deps.SubmitContact(r.Context(), sub)
	if err == nil {
		http.Redirect(w, r, "/contact?sent=1", http.StatusSeeOther)
		return
	}

	if sub.Token == "" {
		sub.Token = service.NewFormToken()
	}
	view := contactView{sub: sub}
	var ve *lead.ValidationError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		view.problems = ve.Fields
	case errors.Is(err, service.ErrBackpressure):
		status = http.StatusTooManyRequests
		view.notice = "We are receiving a lot of messages right now. Please try again in a moment."
	default:
		h.logger.Error(r.Context(), "contact submission failed", logger.Error(err))
		view.notice = "Failed to send your message. Please try again."
	}
	h.renderContact(w, r, status, view)
}

func (h *Handler) renderContact(w http.ResponseWriter, r *http.Request, status int, v contactView) {
	c := h.deps.Content()
	h.render(w, r, status, h.layout(r, "Contact",
		Section(Class("contact"),
			H1(Text("GET IN TOUCH")),
			P(Text("Questions, private dining or large parties: drop us a line and we will get back to you.")),
			If(v.sent, P(Class("notice success"), Text("Thank you! Your message has been sent."))),
			If(v.notice != "", P(Class("notice error"), Text(v.notice))),
			Form(Method("post"), Action("/contact"), Attr("novalidate"),
				csrfInput(csrf.Token(r)),
				Input(Type("hidden"), Name("token"), Value(v.sub.Token)),
				field("Name", "name", "text", v.sub.Name, v.problems["name"], Required()),
				field("Email", "email", "email", v.sub.Email, v.problems["email"], Required()),
				field("Phone", "phone", "tel", v.sub.Phone, v.problems["phone"], Required()),
				field("Message", "message", "textarea", v.sub.Message, v.problems["message"], Required()),
				Button(Type("submit"), Class("button"), Text("Send message")),
			),
			Div(Class("venues"),
				Map(c.Venues, func(v content.Venue) Node {
					return P(Strong(Text(v.Name+": ")), A(Href("tel:"+v.Phone), Text(v.Phone)))
				}),
			),
		),
	))
}
