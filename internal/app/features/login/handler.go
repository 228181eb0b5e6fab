// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	uierrors "github.com/suashub/suashub/internal/app/features/errors"
	userstore "github.com/suashub/suashub/internal/app/store/users"
	"github.com/suashub/suashub/internal/app/system/auditlog"
	"github.com/suashub/suashub/internal/app/system/auth"
	"github.com/suashub/suashub/internal/app/system/ratelimit"
	"github.com/suashub/suashub/internal/app/system/timeouts"
	"github.com/suashub/suashub/internal/app/system/viewdata"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Limiter    *ratelimit.LoginLimiter
	Audit      *auditlog.Logger // nil disables auditing
}

type loginFormData struct {
	viewdata.BaseVM
	Error     string
	LoginID   string
	ReturnURL string
}

func NewHandler(users *userstore.Store, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		Log:        logger,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Limiter:    ratelimit.NewLoginLimiter(),
	}
}

// ServeLogin handles GET /login.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, urlutil.SafeReturn(query.Get(r, "return"), "", "/casos"), http.StatusSeeOther)
		return
	}
	templates.Render(w, r, "login_form", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Entrar", "/"),
		ReturnURL: query.Get(r, "return"),
	})
}

// HandleLoginPost handles POST /login.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse login form failed", err, "Dados inválidos.", "/login")
		return
	}
	loginID := strings.TrimSpace(r.PostFormValue("login"))
	password := r.PostFormValue("password")
	returnURL := r.PostFormValue("return")

	if loginID == "" || password == "" {
		h.renderFormWithError(w, r, "Informe usuário e senha.", loginID, returnURL)
		return
	}

	if ok, reason := h.Limiter.Check(r, loginID); !ok {
		h.Log.Warn("login throttled", zap.String("login", loginID), zap.String("ip", ratelimit.ClientIP(r)))
		h.Audit.LoginThrottled(r.Context(), r, loginID)
		h.renderFormStatus(w, r, http.StatusTooManyRequests, reason, loginID, returnURL)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "authenticate")
	defer cancel()

	u, err := h.Users.Authenticate(ctx, loginID, password)
	if errors.Is(err, userstore.ErrInvalidCredentials) {
		h.Log.Info("login rejected", zap.String("login", loginID))
		h.Audit.LoginFailed(ctx, r, loginID, "invalid_credentials")
		h.renderFormWithError(w, r, "Usuário ou senha inválidos.", loginID, returnURL)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "authenticate failed", err, "Não foi possível entrar agora.", "/login")
		return
	}

	err = h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:      u.ID.Hex(),
		Name:    u.FullName,
		LoginID: u.Login,
		Role:    u.Role,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "save session failed", err, "Não foi possível entrar agora.", "/login")
		return
	}
	h.Limiter.ResetLogin(loginID)
	h.Audit.LoginSuccess(ctx, r, u.ID.Hex(), u.Login)
	h.Log.Info("user signed in", zap.String("login", u.Login), zap.String("role", u.Role))

	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", "/casos"), http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, loginID, returnURL string) {
	h.renderFormStatus(w, r, http.StatusUnauthorized, msg, loginID, returnURL)
}

func (h *Handler) renderFormStatus(w http.ResponseWriter, r *http.Request, status int, msg, loginID, returnURL string) {
	w.WriteHeader(status)
	templates.Render(w, r, "login_form", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Entrar", "/"),
		Error:     msg,
		LoginID:   loginID,
		ReturnURL: returnURL,
	})
}
