package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/newsletter/internal/subscriber"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html lang="en">
<head><title>Newsletter</title></head>
<body>
<p>Welcome to our newsletter!</p>
<form action="/subscriptions" method="post">
  <input type="text" name="name" placeholder="Name">
  <input type="email" name="email" placeholder="Email">
  <button type="submit">Subscribe</button>
</form>
</body>
</html>`)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	err := s.subscribers.Subscribe(r.Context(), r.PostFormValue("name"), r.PostFormValue("email"))
	switch {
	case errors.Is(err, subscriber.ErrInvalidName) || errors.Is(err, subscriber.ErrInvalidEmail):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case err != nil:
		s.log.ErrorContext(r.Context(), "subscribe failed", slog.String("error", err.Error()))
		http.Error(w, "", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("subscription_token")

	err := s.subscribers.Confirm(r.Context(), token)
	switch {
	case errors.Is(err, subscriber.ErrUnknownToken):
		http.Error(w, "", http.StatusUnauthorized)
	case err != nil:
		s.log.ErrorContext(r.Context(), "confirm failed", slog.String("error", err.Error()))
		http.Error(w, "", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusOK)
	}
}
