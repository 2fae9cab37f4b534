package http

import (
	"log/slog"
	"net/http"

	"sopdash/internal/api"
	"sopdash/internal/log"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "login.html", nil)
	case http.MethodPost:
		s.handleLoginSubmit(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	username := sanitizeInput(r.Form.Get("username"))
	password := r.Form.Get("password")
	if username == "" || password == "" {
		UnprocessableEntityError("Informe usuário e senha").Write(w)
		return
	}

	if err := s.session.Login(r.Context(), s.auth, username, password); err != nil {
		slog.WarnContext(r.Context(), "Login rejected",
			log.FieldOperation, log.OpLogin,
			"username", username)
		ErrorResponse(http.StatusUnauthorized, s.session.LoginError()).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Login succeeded",
		log.FieldOperation, log.OpLogin,
		"username", username)
	s.redirectHome(w, r)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "register.html", nil)
	case http.MethodPost:
		s.handleRegisterSubmit(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	reg := api.Registration{
		Name:     sanitizeInput(r.Form.Get("name")),
		Email:    sanitizeInput(r.Form.Get("email")),
		Password: r.Form.Get("password"),
		Roles:    "USER",
	}
	if reg.Name == "" || reg.Email == "" || reg.Password == "" {
		UnprocessableEntityError("Preencha todos os campos").Write(w)
		return
	}

	// Success carries a token, so the session is authenticated right away.
	if err := s.session.Register(r.Context(), s.auth, reg); err != nil {
		slog.WarnContext(r.Context(), "Registration rejected",
			log.FieldOperation, log.OpRegister,
			"email", reg.Email)
		ErrorResponse(http.StatusUnprocessableEntity, s.session.RegisterError()).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Registration succeeded",
		log.FieldOperation, log.OpRegister,
		"email", reg.Email)
	s.redirectHome(w, r)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	s.session.Logout()
	slog.InfoContext(r.Context(), "Logged out", log.FieldOperation, log.OpLogout)

	if r.Header.Get("HX-Request") == "true" {
		NewResponse().
			TriggerSessionChanged().
			Header("HX-Redirect", "/login").
			Write(w)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) redirectHome(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		NewResponse().
			TriggerSessionChanged().
			Header("HX-Redirect", "/").
			Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
