package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const sessionCookieName = "session_token"

type contextKey string

const userIDKey contextKey = "user_id"

// requireAdmin resolves the session cookie to a logged-in user and stores
// the user ID on the request context; anonymous requests are sent to /login.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		userID, err := s.sessions.UserID(r.Context(), cookie.Value)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userIDFromContext returns the authenticated admin's ID; the zero UUID
// means the middleware did not run.
func userIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(userIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
