package server

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/newsletter/internal/auth"
	"github.com/dmitrymomot/newsletter/internal/idempotency"
	"github.com/dmitrymomot/newsletter/internal/newsletter"
)

// New password length bounds, measured in bytes.
const (
	passwordLowerBound = 13
	passwordUpperBound = 128
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	username, err := s.auth.Username(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		s.log.ErrorContext(r.Context(), "username lookup failed", slog.String("error", err.Error()))
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head><title>Admin dashboard</title></head>
<body>
<p>Welcome %s!</p>
<ol>
  <li><a href="/admin/newsletters">Publish a newsletter issue</a></li>
  <li><a href="/admin/password">Change password</a></li>
  <li><form name="logoutForm" action="/admin/logout" method="post"><input type="submit" value="Logout"></form></li>
</ol>
</body>
</html>`, html.EscapeString(username))
}

func (s *Server) handlePasswordForm(w http.ResponseWriter, r *http.Request) {
	flash := popFlash(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head><title>Change password</title></head>
<body>
<p><i>%s</i></p>
<form action="/admin/password" method="post">
  <input type="password" name="current_password" placeholder="Current password">
  <input type="password" name="new_password" placeholder="New password">
  <input type="password" name="new_password_check" placeholder="Confirm new password">
  <button type="submit">Change password</button>
</form>
</body>
</html>`, flash)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	newPassword := r.PostFormValue("new_password")
	if newPassword != r.PostFormValue("new_password_check") {
		setFlash(w, "You entered two different new passwords - the field values must match.")
		http.Redirect(w, r, "/admin/password", http.StatusSeeOther)
		return
	}
	if len(newPassword) <= passwordLowerBound {
		setFlash(w, "The new password is too short.")
		http.Redirect(w, r, "/admin/password", http.StatusSeeOther)
		return
	}
	if len(newPassword) >= passwordUpperBound {
		setFlash(w, "The new password is too long.")
		http.Redirect(w, r, "/admin/password", http.StatusSeeOther)
		return
	}

	userID := userIDFromContext(r.Context())
	username, err := s.auth.Username(r.Context(), userID)
	if err != nil {
		s.log.ErrorContext(r.Context(), "username lookup failed", slog.String("error", err.Error()))
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	// The session alone is not enough to rotate credentials; the caller must
	// prove they still know the current password.
	if _, err := s.auth.ValidateCredentials(r.Context(), username, r.PostFormValue("current_password")); err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.log.ErrorContext(r.Context(), "current password check failed", slog.String("error", err.Error()))
			http.Error(w, "", http.StatusInternalServerError)
			return
		}
		setFlash(w, "The current password is incorrect.")
		http.Redirect(w, r, "/admin/password", http.StatusSeeOther)
		return
	}

	if err := s.auth.ChangePassword(r.Context(), userID, newPassword); err != nil {
		s.log.ErrorContext(r.Context(), "password change failed", slog.String("error", err.Error()))
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	setFlash(w, "Your password has been changed.")
	http.Redirect(w, r, "/admin/password", http.StatusSeeOther)
}

func (s *Server) handleNewsletterForm(w http.ResponseWriter, r *http.Request) {
	flash := popFlash(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head><title>Publish newsletter issue</title></head>
<body>
<p><i>%s</i></p>
<form action="/admin/newsletters" method="post">
  <input type="text" name="title" placeholder="Title">
  <textarea name="text_content" placeholder="Plain text content"></textarea>
  <textarea name="html_content" placeholder="HTML content"></textarea>
  <input hidden type="text" name="idempotency_key" value="%s">
  <button type="submit">Publish</button>
</form>
</body>
</html>`, flash, uuid.NewString())
}

// publishSuccessMessage is cached with the response, so duplicate
// submissions flash the same text.
const publishSuccessMessage = "The newsletter issue has been accepted - emails will go out shortly."

func (s *Server) handlePublishNewsletter(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	key, err := idempotency.NewKey(r.PostFormValue("idempotency_key"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	input := newsletter.IssueInput{
		Title:       r.PostFormValue("title"),
		TextContent: r.PostFormValue("text_content"),
		HTMLContent: r.PostFormValue("html_content"),
	}

	resp, err := s.newsletters.Publish(r.Context(), userIDFromContext(r.Context()), key, input, publishSuccessResponse())
	if err != nil {
		if errors.Is(err, idempotency.ErrPendingRecord) {
			s.log.ErrorContext(r.Context(), "publish hit an in-flight idempotency record",
				slog.String("idempotency_key", key.String()))
		} else {
			s.log.ErrorContext(r.Context(), "publish failed", slog.String("error", err.Error()))
		}
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	if err := resp.Write(w); err != nil {
		s.log.ErrorContext(r.Context(), "response write failed", slog.String("error", err.Error()))
	}
}

// publishSuccessResponse is the exact HTTP outcome cached for replay: the
// redirect and the flash cookie are part of the stored header list.
func publishSuccessResponse() idempotency.Response {
	return idempotency.NewResponse(
		http.StatusSeeOther,
		[]idempotency.HeaderPair{
			{Name: "Set-Cookie", Value: []byte(flashCookie(publishSuccessMessage).String())},
			{Name: "Location", Value: []byte("/admin/newsletters")},
		},
		nil,
	)
}
