package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suashub/suashub/internal/app/system/auth"
	"go.uber.org/zap"
)

func newSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", 24*time.Hour, false, zap.NewNop())
	require.NoError(t, err)
	return sm
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

func asUser(r *http.Request, role string) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{ID: "507f1f77bcf86cd799439011", Name: "Técnica Teste", LoginID: "teste", Role: role})
}

// cookiesFrom replays the cookies set on rec into a fresh request.
func cookiesFrom(rec *httptest.ResponseRecorder, target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestRequireSignedIn_Anonymous(t *testing.T) {
	sm := newSessionManager(t)
	h := sm.RequireSignedIn(ok)

	cases := map[string]struct {
		header, value string
		wantCode      int
		wantHeader    string
	}{
		"html redirects":   {"Accept", "text/html", http.StatusSeeOther, "Location"},
		"json is 401":      {"Accept", "application/json", http.StatusUnauthorized, ""},
		"htmx HX-Redirect": {"HX-Request", "true", http.StatusUnauthorized, "HX-Redirect"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/casos/7", nil)
			req.Header.Set(tc.header, tc.value)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)
			if tc.wantHeader != "" {
				assert.Regexp(t, "^/login", rec.Header().Get(tc.wantHeader))
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	sm := newSessionManager(t)
	h := sm.RequireRole("admin", "coordenador")(ok)

	cases := map[string]struct {
		role         string // empty means anonymous
		accept       string
		wantCode     int
		wantLocation string
	}{
		"anonymous html":    {"", "text/html", http.StatusSeeOther, "/login"},
		"tecnico html":      {"tecnico", "text/html", http.StatusSeeOther, "/forbidden"},
		"tecnico json":      {"tecnico", "application/json", http.StatusForbidden, ""},
		"admin":             {"admin", "text/html", http.StatusOK, ""},
		"coordenador":       {"coordenador", "text/html", http.StatusOK, ""},
		"role is case-free": {"COORDENADOR", "text/html", http.StatusOK, ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/casos/7/etapa", nil)
			req.Header.Set("Accept", tc.accept)
			if tc.role != "" {
				req = asUser(req, tc.role)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)
			if tc.wantLocation != "" {
				assert.Regexp(t, "^"+tc.wantLocation, rec.Header().Get("Location"))
			}
		})
	}
}

func TestCurrentUser(t *testing.T) {
	u, found := auth.CurrentUser(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, found)
	assert.Nil(t, u)

	u, found = auth.CurrentUser(asUser(httptest.NewRequest(http.MethodGet, "/", nil), "tecnico"))
	require.True(t, found)
	assert.Equal(t, "tecnico", u.Role)
}

func TestSignInThenLoadSessionUser(t *testing.T) {
	sm := newSessionManager(t)

	rec := httptest.NewRecorder()
	require.NoError(t, sm.SignIn(rec, httptest.NewRequest(http.MethodPost, "/login", nil),
		auth.SessionUser{ID: "u1", Name: "Ana", LoginID: "ana", Role: "tecnico"}))
	require.NotEmpty(t, rec.Result().Cookies())

	var got *auth.SessionUser
	sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	})).ServeHTTP(httptest.NewRecorder(), cookiesFrom(rec, "/casos"))

	require.NotNil(t, got)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, "ana", got.LoginID)
	assert.Equal(t, "tecnico", got.Role)
}

type fakeFetcher struct{ user *auth.SessionUser }

func (f fakeFetcher) FetchUser(context.Context, string) *auth.SessionUser { return f.user }

func TestLoadSessionUser_FetcherRejectsDisabledUser(t *testing.T) {
	sm := newSessionManager(t)
	sm.SetUserFetcher(fakeFetcher{user: nil})

	rec := httptest.NewRecorder()
	require.NoError(t, sm.SignIn(rec, httptest.NewRequest(http.MethodPost, "/login", nil), auth.SessionUser{ID: "u1", Role: "tecnico"}))

	found := true
	sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = auth.CurrentUser(r)
	})).ServeHTTP(httptest.NewRecorder(), cookiesFrom(rec, "/casos"))

	assert.False(t, found, "a user rejected by the fetcher must not be signed in")
}
