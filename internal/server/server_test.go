package server_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/newsletter/internal/auth"
	"github.com/dmitrymomot/newsletter/internal/idempotency"
	"github.com/dmitrymomot/newsletter/internal/newsletter"
	"github.com/dmitrymomot/newsletter/internal/server"
	"github.com/dmitrymomot/newsletter/internal/subscriber"
)

type mockSubscriptions struct {
	subscribeFn func(ctx context.Context, name, email string) error
	confirmFn   func(ctx context.Context, token string) error
}

func (m *mockSubscriptions) Subscribe(ctx context.Context, name, email string) error {
	return m.subscribeFn(ctx, name, email)
}

func (m *mockSubscriptions) Confirm(ctx context.Context, token string) error {
	return m.confirmFn(ctx, token)
}

type mockPublisher struct {
	publishFn func(ctx context.Context, userID uuid.UUID, key idempotency.Key, input newsletter.IssueInput, success idempotency.Response) (idempotency.Response, error)
}

func (m *mockPublisher) Publish(ctx context.Context, userID uuid.UUID, key idempotency.Key, input newsletter.IssueInput, success idempotency.Response) (idempotency.Response, error) {
	return m.publishFn(ctx, userID, key, input, success)
}

type mockAuth struct {
	validateFn func(ctx context.Context, username, password string) (uuid.UUID, error)
	usernameFn func(ctx context.Context, userID uuid.UUID) (string, error)
	changeFn   func(ctx context.Context, userID uuid.UUID, newPassword string) error
}

func (m *mockAuth) ValidateCredentials(ctx context.Context, username, password string) (uuid.UUID, error) {
	return m.validateFn(ctx, username, password)
}

func (m *mockAuth) Username(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.usernameFn == nil {
		return "admin", nil
	}
	return m.usernameFn(ctx, userID)
}

func (m *mockAuth) ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	return m.changeFn(ctx, userID, newPassword)
}

// memSessions is an in-memory stand-in for the redis session store.
type memSessions struct {
	tokens map[string]uuid.UUID
}

func newMemSessions() *memSessions {
	return &memSessions{tokens: make(map[string]uuid.UUID)}
}

func (m *memSessions) Create(_ context.Context, userID uuid.UUID) (string, error) {
	token := uuid.NewString()
	m.tokens[token] = userID
	return token, nil
}

func (m *memSessions) UserID(_ context.Context, token string) (uuid.UUID, error) {
	userID, ok := m.tokens[token]
	if !ok {
		return uuid.Nil, auth.ErrSessionNotFound
	}
	return userID, nil
}

func (m *memSessions) Destroy(_ context.Context, token string) error {
	delete(m.tokens, token)
	return nil
}

type serverDeps struct {
	subs     *mockSubscriptions
	pub      *mockPublisher
	auth     *mockAuth
	sessions *memSessions
}

func newTestHandler(t *testing.T, deps serverDeps) http.Handler {
	t.Helper()
	if deps.subs == nil {
		deps.subs = &mockSubscriptions{}
	}
	if deps.pub == nil {
		deps.pub = &mockPublisher{}
	}
	if deps.auth == nil {
		deps.auth = &mockAuth{}
	}
	if deps.sessions == nil {
		deps.sessions = newMemSessions()
	}
	log := slog.New(slog.DiscardHandler)
	return server.New(deps.subs, deps.pub, deps.auth, deps.sessions, log).Router()
}

func postForm(handler http.Handler, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, serverDeps{})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubscribe(t *testing.T) {
	t.Parallel()

	t.Run("valid form returns 200", func(t *testing.T) {
		t.Parallel()

		subs := &mockSubscriptions{
			subscribeFn: func(_ context.Context, name, email string) error {
				assert.Equal(t, "Jane Doe", name)
				assert.Equal(t, "jane@example.com", email)
				return nil
			},
		}
		handler := newTestHandler(t, serverDeps{subs: subs})

		rec := postForm(handler, "/subscriptions", url.Values{
			"name":  {"Jane Doe"},
			"email": {"jane@example.com"},
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid email returns 422", func(t *testing.T) {
		t.Parallel()

		subs := &mockSubscriptions{
			subscribeFn: func(_ context.Context, _, _ string) error {
				return subscriber.ErrInvalidEmail
			},
		}
		handler := newTestHandler(t, serverDeps{subs: subs})

		rec := postForm(handler, "/subscriptions", url.Values{
			"name":  {"Jane Doe"},
			"email": {"not-an-email"},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("storage failure returns 500", func(t *testing.T) {
		t.Parallel()

		subs := &mockSubscriptions{
			subscribeFn: func(_ context.Context, _, _ string) error {
				return errors.New("connection refused")
			},
		}
		handler := newTestHandler(t, serverDeps{subs: subs})

		rec := postForm(handler, "/subscriptions", url.Values{
			"name":  {"Jane Doe"},
			"email": {"jane@example.com"},
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	t.Run("unknown token returns 401", func(t *testing.T) {
		t.Parallel()

		subs := &mockSubscriptions{
			confirmFn: func(_ context.Context, _ string) error {
				return subscriber.ErrUnknownToken
			},
		}
		handler := newTestHandler(t, serverDeps{subs: subs})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/subscriptions/confirm?subscription_token=abc", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("known token returns 200", func(t *testing.T) {
		t.Parallel()

		subs := &mockSubscriptions{
			confirmFn: func(_ context.Context, token string) error {
				assert.Equal(t, "goodtoken", token)
				return nil
			},
		}
		handler := newTestHandler(t, serverDeps{subs: subs})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/subscriptions/confirm?subscription_token=goodtoken", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAdminRequiresSession(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, serverDeps{})

	for _, path := range []string{"/admin/dashboard", "/admin/newsletters", "/admin/password"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("valid credentials set session cookie", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		authSvc := &mockAuth{
			validateFn: func(_ context.Context, username, password string) (uuid.UUID, error) {
				assert.Equal(t, "admin", username)
				assert.Equal(t, "everythinghastostartsomewhere", password)
				return userID, nil
			},
		}
		sessions := newMemSessions()
		handler := newTestHandler(t, serverDeps{auth: authSvc, sessions: sessions})

		rec := postForm(handler, "/login", url.Values{
			"username": {"admin"},
			"password": {"everythinghastostartsomewhere"},
		})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))

		var sessionCookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == "session_token" {
				sessionCookie = c
			}
		}
		require.NotNil(t, sessionCookie)
		assert.Equal(t, userID, sessions.tokens[sessionCookie.Value])
	})

	t.Run("invalid credentials redirect back to login", func(t *testing.T) {
		t.Parallel()

		authSvc := &mockAuth{
			validateFn: func(_ context.Context, _, _ string) (uuid.UUID, error) {
				return uuid.Nil, auth.ErrInvalidCredentials
			},
		}
		handler := newTestHandler(t, serverDeps{auth: authSvc})

		rec := postForm(handler, "/login", url.Values{
			"username": {"admin"},
			"password": {"wrong"},
		})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Contains(t, rec.Header().Get("Set-Cookie"), "flash=")
	})
}

func loggedInCookie(t *testing.T, sessions *memSessions, userID uuid.UUID) *http.Cookie {
	t.Helper()
	token, err := sessions.Create(context.Background(), userID)
	require.NoError(t, err)
	return &http.Cookie{Name: "session_token", Value: token}
}

func TestPublishNewsletter(t *testing.T) {
	t.Parallel()

	validForm := url.Values{
		"title":           {"Big news"},
		"text_content":    {"Plain body"},
		"html_content":    {"<p>HTML body</p>"},
		"idempotency_key": {uuid.NewString()},
	}

	t.Run("missing idempotency key returns 400", func(t *testing.T) {
		t.Parallel()

		sessions := newMemSessions()
		cookie := loggedInCookie(t, sessions, uuid.New())
		handler := newTestHandler(t, serverDeps{sessions: sessions})

		form := url.Values{"title": {"Big news"}}
		rec := postForm(handler, "/admin/newsletters", form, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("response comes back exactly as the coordinator returned it", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		sessions := newMemSessions()
		cookie := loggedInCookie(t, sessions, userID)

		pub := &mockPublisher{
			publishFn: func(_ context.Context, gotUserID uuid.UUID, _ idempotency.Key, input newsletter.IssueInput, success idempotency.Response) (idempotency.Response, error) {
				assert.Equal(t, userID, gotUserID)
				assert.Equal(t, "Big news", input.Title)
				assert.Equal(t, "Plain body", input.TextContent)
				assert.Equal(t, "<p>HTML body</p>", input.HTMLContent)
				return success, nil
			},
		}
		handler := newTestHandler(t, serverDeps{pub: pub, sessions: sessions})

		rec := postForm(handler, "/admin/newsletters", validForm, cookie)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin/newsletters", rec.Header().Get("Location"))
		assert.Contains(t, rec.Header().Get("Set-Cookie"), "flash=")
	})

	t.Run("pending record surfaces as 500", func(t *testing.T) {
		t.Parallel()

		sessions := newMemSessions()
		cookie := loggedInCookie(t, sessions, uuid.New())

		pub := &mockPublisher{
			publishFn: func(_ context.Context, _ uuid.UUID, _ idempotency.Key, _ newsletter.IssueInput, _ idempotency.Response) (idempotency.Response, error) {
				return idempotency.Response{}, idempotency.ErrPendingRecord
			},
		}
		handler := newTestHandler(t, serverDeps{pub: pub, sessions: sessions})

		rec := postForm(handler, "/admin/newsletters", validForm, cookie)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestDashboard(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	sessions := newMemSessions()
	cookie := loggedInCookie(t, sessions, userID)

	authSvc := &mockAuth{
		usernameFn: func(_ context.Context, gotUserID uuid.UUID) (string, error) {
			assert.Equal(t, userID, gotUserID)
			return "admin", nil
		},
	}
	handler := newTestHandler(t, serverDeps{auth: authSvc, sessions: sessions})

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome admin!")
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	t.Run("mismatched fields redirect with flash", func(t *testing.T) {
		t.Parallel()

		sessions := newMemSessions()
		cookie := loggedInCookie(t, sessions, uuid.New())
		handler := newTestHandler(t, serverDeps{sessions: sessions})

		rec := postForm(handler, "/admin/password", url.Values{
			"current_password":   {"everythinghastostartsomewhere"},
			"new_password":       {"adifferentnewpassword"},
			"new_password_check": {"somethingelseentirely"},
		}, cookie)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin/password", rec.Header().Get("Location"))
	})

	t.Run("short password is rejected without touching the service", func(t *testing.T) {
		t.Parallel()

		sessions := newMemSessions()
		cookie := loggedInCookie(t, sessions, uuid.New())
		authSvc := &mockAuth{
			changeFn: func(_ context.Context, _ uuid.UUID, _ string) error {
				t.Fatal("ChangePassword should not be called")
				return nil
			},
		}
		handler := newTestHandler(t, serverDeps{auth: authSvc, sessions: sessions})

		// 13 bytes sits exactly on the rejected boundary.
		rec := postForm(handler, "/admin/password", url.Values{
			"current_password":   {"everythinghastostartsomewhere"},
			"new_password":       {"thirteenchars"},
			"new_password_check": {"thirteenchars"},
		}, cookie)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin/password", rec.Header().Get("Location"))
	})

	t.Run("overlong password is rejected without touching the service", func(t *testing.T) {
		t.Parallel()

		sessions := newMemSessions()
		cookie := loggedInCookie(t, sessions, uuid.New())
		authSvc := &mockAuth{
			changeFn: func(_ context.Context, _ uuid.UUID, _ string) error {
				t.Fatal("ChangePassword should not be called")
				return nil
			},
		}
		handler := newTestHandler(t, serverDeps{auth: authSvc, sessions: sessions})

		long := strings.Repeat("a", 128)
		rec := postForm(handler, "/admin/password", url.Values{
			"current_password":   {"everythinghastostartsomewhere"},
			"new_password":       {long},
			"new_password_check": {long},
		}, cookie)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin/password", rec.Header().Get("Location"))
	})

	t.Run("wrong current password leaves the stored password untouched", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		sessions := newMemSessions()
		cookie := loggedInCookie(t, sessions, userID)

		validateCalled := false
		authSvc := &mockAuth{
			validateFn: func(_ context.Context, username, password string) (uuid.UUID, error) {
				validateCalled = true
				assert.Equal(t, "admin", username)
				assert.Equal(t, "notmycurrentpassword", password)
				return uuid.Nil, auth.ErrInvalidCredentials
			},
			changeFn: func(_ context.Context, _ uuid.UUID, _ string) error {
				t.Fatal("ChangePassword should not be called")
				return nil
			},
		}
		handler := newTestHandler(t, serverDeps{auth: authSvc, sessions: sessions})

		rec := postForm(handler, "/admin/password", url.Values{
			"current_password":   {"notmycurrentpassword"},
			"new_password":       {"everythinghastostartsomewhere"},
			"new_password_check": {"everythinghastostartsomewhere"},
		}, cookie)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin/password", rec.Header().Get("Location"))
		assert.True(t, validateCalled)
		assert.Contains(t, rec.Header().Get("Set-Cookie"), "flash=")
	})

	t.Run("missing current password is treated as incorrect", func(t *testing.T) {
		t.Parallel()

		sessions := newMemSessions()
		cookie := loggedInCookie(t, sessions, uuid.New())

		authSvc := &mockAuth{
			validateFn: func(_ context.Context, _, password string) (uuid.UUID, error) {
				assert.Empty(t, password)
				return uuid.Nil, auth.ErrInvalidCredentials
			},
			changeFn: func(_ context.Context, _ uuid.UUID, _ string) error {
				t.Fatal("ChangePassword should not be called")
				return nil
			},
		}
		handler := newTestHandler(t, serverDeps{auth: authSvc, sessions: sessions})

		rec := postForm(handler, "/admin/password", url.Values{
			"new_password":       {"everythinghastostartsomewhere"},
			"new_password_check": {"everythinghastostartsomewhere"},
		}, cookie)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin/password", rec.Header().Get("Location"))
	})

	t.Run("valid current password reaches the service", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		sessions := newMemSessions()
		cookie := loggedInCookie(t, sessions, userID)

		var gotPassword string
		authSvc := &mockAuth{
			validateFn: func(_ context.Context, username, password string) (uuid.UUID, error) {
				assert.Equal(t, "admin", username)
				assert.Equal(t, "myoldtrustypassword", password)
				return userID, nil
			},
			changeFn: func(_ context.Context, gotUserID uuid.UUID, newPassword string) error {
				assert.Equal(t, userID, gotUserID)
				gotPassword = newPassword
				return nil
			},
		}
		handler := newTestHandler(t, serverDeps{auth: authSvc, sessions: sessions})

		rec := postForm(handler, "/admin/password", url.Values{
			"current_password":   {"myoldtrustypassword"},
			"new_password":       {"everythinghastostartsomewhere"},
			"new_password_check": {"everythinghastostartsomewhere"},
		}, cookie)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "everythinghastostartsomewhere", gotPassword)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	sessions := newMemSessions()
	cookie := loggedInCookie(t, sessions, uuid.New())
	handler := newTestHandler(t, serverDeps{sessions: sessions})

	rec := postForm(handler, "/admin/logout", url.Values{}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Empty(t, sessions.tokens)
}
