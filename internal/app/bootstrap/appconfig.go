// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging and CORS. AppConfig carries
// what is specific to the SUAS case tracker: the MongoDB connection, cookie
// and CSRF secrets, where the tracker reaches its JSON backend, and the
// catalogue and modal settings.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // Database name within MongoDB

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: suashub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Session lifetime

	// CSRF token signing key (32 bytes in production)
	CSRFKey string

	// Base URL of the case JSON API the tracker calls (e.g., http://localhost:8080/api)
	APIBase string

	// Presentation
	TimeZone     string // IANA zone used to format event timestamps
	HistoryLimit int    // events shown per stage before "ver mais"

	// Stage catalogue override; blank uses the embedded catalogue
	CatalogPath string

	// Registration modals left open longer than this are closed by the janitor
	ModalTTL time.Duration

	// Audit destinations: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogCasos string

	// Bootstrap administrator created on first start
	AdminLogin    string
	AdminPassword string
}
