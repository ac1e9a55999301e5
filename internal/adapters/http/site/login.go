package site

import (
	"net/http"

	"github.com/gorilla/csrf"
	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/okian/delhihouse/internal/adapters/auth"
)

func (h *Handler) loginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.SessionFrom(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, "", "")
}

func (h *Handler) loginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	sess, err := h.auth.SignIn(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		status := http.StatusUnauthorized
		switch auth.CodeOf(err) {
		case auth.CodeTooManyRequests:
			status = http.StatusTooManyRequests
		case auth.CodeOther:
			status = http.StatusInternalServerError
		}
		h.renderLogin(w, r, status, email, auth.Message(err))
		return
	}
	auth.SetCookie(w, sess, h.secure)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := auth.SessionFrom(r.Context()); ok {
		h.auth.SignOut(r.Context(), sess)
	}
	auth.ClearCookie(w, h.secure)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, email, failure string) {
	h.render(w, r, status, h.layout(r, "Sign in",
		Section(Class("login"),
			H1(Text("Admin sign in")),
			If(failure != "", P(Class("notice error"), Role("alert"), Text(failure))),
			Form(Method("post"), Action("/login"),
				csrfInput(csrf.Token(r)),
				field("Email", "email", "email", email, nil, Required(), AutoComplete("username")),
				field("Password", "password", "password", "", nil, Required(), AutoComplete("current-password")),
				Button(Type("submit"), Class("button"), Text("Sign in")),
			),
		),
	))
}
