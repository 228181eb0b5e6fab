// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/securecookie"
	apifeature "github.com/suashub/suashub/internal/app/features/api"
	casosfeature "github.com/suashub/suashub/internal/app/features/casos"
	errorsfeature "github.com/suashub/suashub/internal/app/features/errors"
	healthfeature "github.com/suashub/suashub/internal/app/features/health"
	loginfeature "github.com/suashub/suashub/internal/app/features/login"
	logoutfeature "github.com/suashub/suashub/internal/app/features/logout"
	triagemfeature "github.com/suashub/suashub/internal/app/features/triagem"
	auditstore "github.com/suashub/suashub/internal/app/store/audit"
	userstore "github.com/suashub/suashub/internal/app/store/users"
	"github.com/suashub/suashub/internal/app/system/auditlog"
	"github.com/suashub/suashub/internal/app/system/auth"
	"github.com/suashub/suashub/internal/app/system/casesapi"
	"github.com/suashub/suashub/internal/app/system/csrfguard"
	"github.com/suashub/suashub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// It initializes the template engine, applies session and CSRF middleware,
// and mounts the case JSON API, the case pages and the intake drafts.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"

	sessionKey := devSecret(appCfg.SessionKey, "session_key", logger)
	sessionMgr, err := auth.NewSessionManager(string(sessionKey), appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Role changes and disabled accounts take effect on the next request.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	// Dev mode enables template reloading.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	auditLog := auditlog.New(auditstore.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Casos: appCfg.AuditLogCasos,
	})
	loc, err := time.LoadLocation(appCfg.TimeZone)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(csrfguard.Protect(devSecret(appCfg.CSRFKey, "csrf_key", logger)[:32], secure, nil))
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Modals, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Authentication
	users := userstore.New(deps.MongoDatabase)
	loginHandler := loginfeature.NewHandler(users, sessionMgr, errLog, logger)
	loginHandler.Audit = auditLog
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	logoutHandler.Audit = auditLog
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)
	r.NotFound(errorsHandler.NotFound)

	// Case JSON API; the tracker pages call it back with the user's cookies.
	apiHandler := apifeature.NewHandler(deps.MongoDatabase, deps.Catalog, logger)
	apiHandler.Audit = auditLog
	r.Mount("/api", apifeature.Routes(apiHandler, sessionMgr))

	apiClient := casesapi.New(appCfg.APIBase, &http.Client{Timeout: timeouts.Medium()}, logger)
	casosHandler := casosfeature.NewHandler(deps.MongoDatabase, deps.Catalog, apiClient, deps.Modals, casosfeature.Options{
		Location:     loc,
		HistoryLimit: appCfg.HistoryLimit,
		Audit:        auditLog,
	}, errLog, logger)
	r.Mount("/casos", casosfeature.Routes(casosHandler, sessionMgr))

	triagemHandler := triagemfeature.NewHandler(deps.MongoDatabase, deps.Catalog, triagemfeature.NewDrafts(), deps.Modals, loc, appCfg.HistoryLimit, errLog, logger)
	triagemHandler.Audit = auditLog
	r.Mount("/triagem", triagemfeature.Routes(triagemHandler, sessionMgr))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/casos", http.StatusSeeOther)
	})

	return r, nil
}

// devSecret returns the configured secret, or a random 32-byte key when it
// is blank. ValidateConfig rejects blank secrets in production.
func devSecret(configured, name string, logger *zap.Logger) []byte {
	if configured != "" {
		b := []byte(configured)
		for len(b) < 32 {
			b = append(b, b...)
		}
		return b
	}
	logger.Warn("no secret configured, using a random per-process key", zap.String("key", name))
	return securecookie.GenerateRandomKey(32)
}
