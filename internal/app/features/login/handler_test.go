package login_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/suashub/suashub/internal/app/features/errors"
	"github.com/suashub/suashub/internal/app/features/login"
	userstore "github.com/suashub/suashub/internal/app/store/users"
	"github.com/suashub/suashub/internal/app/system/auth"
	"github.com/suashub/suashub/internal/app/system/ratelimit"
	"github.com/suashub/suashub/internal/domain/models"
	"github.com/suashub/suashub/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) *login.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fx.CreateUser(ctx, "Rita Lopes", "rita", "senha-certa", models.RoleTecnico)

	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	return login.NewHandler(userstore.New(db), sm, uierrors.NewErrorLogger(logger), logger)
}

func postForm(h *login.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	func() {
		// template rendering panics without a booted engine
		defer func() { _ = recover() }()
		h.HandleLoginPost(rec, req)
	}()
	return rec
}

func TestHandleLoginPost_Success(t *testing.T) {
	h := newHandler(t)

	rec := postForm(h, url.Values{"login": {"RITA"}, "password": {"senha-certa"}, "return": {"/casos/3"}})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/casos/3" {
		t.Errorf("Location = %q, want /casos/3", loc)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}
}

func TestHandleLoginPost_UnsafeReturnIgnored(t *testing.T) {
	h := newHandler(t)

	rec := postForm(h, url.Values{"login": {"rita"}, "password": {"senha-certa"}, "return": {"https://evil.example"}})

	if loc := rec.Header().Get("Location"); loc != "/casos" {
		t.Errorf("Location = %q, want /casos", loc)
	}
}

func TestHandleLoginPost_WrongPassword(t *testing.T) {
	h := newHandler(t)

	rec := postForm(h, url.Values{"login": {"rita"}, "password": {"errada"}})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("no session cookie expected on failure")
	}
}

func TestHandleLoginPost_MissingFields(t *testing.T) {
	h := newHandler(t)

	rec := postForm(h, url.Values{"login": {"rita"}})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHandleLoginPost_Throttled(t *testing.T) {
	h := newHandler(t)
	h.Limiter = ratelimit.NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)

	for i := 0; i < 2; i++ {
		postForm(h, url.Values{"login": {"rita"}, "password": {"errada"}})
	}
	rec := postForm(h, url.Values{"login": {"rita"}, "password": {"senha-certa"}})

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("throttled attempt must not sign in")
	}
}
