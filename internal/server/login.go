package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/newsletter/internal/auth"
)

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	flash := popFlash(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head><title>Login</title></head>
<body>
<p><i>%s</i></p>
<form action="/login" method="post">
  <input type="text" name="username" placeholder="Username">
  <input type="password" name="password" placeholder="Password">
  <button type="submit">Login</button>
</form>
</body>
</html>`, flash)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	userID, err := s.auth.ValidateCredentials(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		setFlash(w, "Authentication failed")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err != nil {
		s.log.ErrorContext(r.Context(), "login failed", slog.String("error", err.Error()))
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	token, err := s.sessions.Create(r.Context(), userID)
	if err != nil {
		s.log.ErrorContext(r.Context(), "session creation failed", slog.String("error", err.Error()))
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := s.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			s.log.ErrorContext(r.Context(), "session destroy failed", slog.String("error", err.Error()))
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	setFlash(w, "You have successfully logged out.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
