// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/suashub/suashub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for SUASHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: SUASHUB_MONGO_URI, SUASHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "suashub", Desc: "MongoDB database name"},
	{Name: "session_key", Default: "", Desc: "Session signing key (random per process in dev when blank)"},
	{Name: "session_name", Default: "suashub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "12h", Desc: "Session lifetime (e.g., 8h, 24h)"},
	{Name: "csrf_key", Default: "", Desc: "CSRF signing key, 32 bytes (random per process in dev when blank)"},

	// Tracker backend
	{Name: "api_base", Default: "http://localhost:8080/api", Desc: "Base URL of the case JSON API used by the tracker"},

	// Presentation
	{Name: "time_zone", Default: "America/Sao_Paulo", Desc: "Time zone for event timestamps"},
	{Name: "history_limit", Default: 5, Desc: "Events shown per stage before the history toggle"},

	// Catalogue and modals
	{Name: "catalog_path", Default: "", Desc: "Stage catalogue YAML (blank uses the embedded catalogue)"},
	{Name: "modal_ttl", Default: "30m", Desc: "Idle lifetime of an open registration modal"},

	// Audit logging
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_casos", Default: "all", Desc: "Case event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Admin bootstrap
	{Name: "admin_login", Default: "", Desc: "Login of the administrator created on startup"},
	{Name: "admin_password", Default: "", Desc: "Initial password of that administrator"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges flags > env (SUASHUB_*) >
// config files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "SUASHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),
		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 12*time.Hour),
		CSRFKey:       appValues.String("csrf_key"),

		APIBase: appValues.String("api_base"),

		TimeZone:     appValues.String("time_zone"),
		HistoryLimit: appValues.Int("history_limit"),

		CatalogPath: appValues.String("catalog_path"),
		ModalTTL:    appValues.Duration("modal_ttl", 30*time.Minute),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogCasos: appValues.String("audit_log_casos"),

		AdminLogin:    appValues.String("admin_login"),
		AdminPassword: appValues.String("admin_password"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Secrets may be blank outside production; BuildHandler then generates
// per-process keys, which log everyone out on restart.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if _, err := time.LoadLocation(appCfg.TimeZone); err != nil {
		return fmt.Errorf("invalid time_zone %q: %w", appCfg.TimeZone, err)
	}
	if appCfg.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive, got %d", appCfg.HistoryLimit)
	}
	if appCfg.ModalTTL <= 0 {
		return fmt.Errorf("modal_ttl must be positive")
	}
	if appCfg.APIBase == "" {
		return fmt.Errorf("api_base is required")
	}
	for name, mode := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_casos": appCfg.AuditLogCasos} {
		switch mode {
		case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
		default:
			return fmt.Errorf("%s must be all, db, log or off, got %q", name, mode)
		}
	}
	if (appCfg.AdminLogin == "") != (appCfg.AdminPassword == "") {
		return fmt.Errorf("admin_login and admin_password must be set together")
	}

	if coreCfg.Env == "prod" {
		if len(appCfg.SessionKey) < 32 {
			return fmt.Errorf("session_key must be at least 32 characters in production")
		}
		if len(appCfg.CSRFKey) != 32 {
			return fmt.Errorf("csrf_key must be exactly 32 bytes in production")
		}
	}
	return nil
}
