package bootstrap

import (
	"testing"
	"time"

	"github.com/dalemusser/waffle/config"
	municipiostore "github.com/suashub/suashub/internal/app/store/municipios"
	userstore "github.com/suashub/suashub/internal/app/store/users"
	"github.com/suashub/suashub/internal/app/system/catalog"
	"github.com/suashub/suashub/internal/app/system/modals"
	"github.com/suashub/suashub/internal/testutil"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:     "mongodb://localhost:27017",
		APIBase:      "http://localhost:8080/api",
		TimeZone:     "America/Sao_Paulo",
		HistoryLimit: 5,
		ModalTTL:     30 * time.Minute,

		AuditLogAuth:  "all",
		AuditLogCasos: "db",
	}
}

func TestValidateConfig(t *testing.T) {
	dev := &config.CoreConfig{Env: "dev"}
	prod := &config.CoreConfig{Env: "prod"}

	tests := []struct {
		name    string
		core    *config.CoreConfig
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"defaults ok in dev", dev, func(*AppConfig) {}, false},
		{"bad mongo uri", dev, func(c *AppConfig) { c.MongoURI = "http://nope" }, true},
		{"bad time zone", dev, func(c *AppConfig) { c.TimeZone = "Mars/Olympus" }, true},
		{"zero history limit", dev, func(c *AppConfig) { c.HistoryLimit = 0 }, true},
		{"zero modal ttl", dev, func(c *AppConfig) { c.ModalTTL = 0 }, true},
		{"missing api base", dev, func(c *AppConfig) { c.APIBase = "" }, true},
		{"bad audit mode", dev, func(c *AppConfig) { c.AuditLogCasos = "sometimes" }, true},
		{"admin login without password", dev, func(c *AppConfig) { c.AdminLogin = "admin" }, true},
		{"prod without secrets", prod, func(*AppConfig) {}, true},
		{"prod with secrets", prod, func(c *AppConfig) {
			c.SessionKey = "0123456789abcdef0123456789abcdef"
			c.CSRFKey = "fedcba9876543210fedcba9876543210"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(tt.core, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJanitorInterval(t *testing.T) {
	if got := janitorInterval(40 * time.Minute); got != 10*time.Minute {
		t.Errorf("janitorInterval(40m) = %v", got)
	}
	if got := janitorInterval(time.Second); got != time.Second {
		t.Errorf("janitorInterval(1s) = %v, want floor of 1s", got)
	}
}

func TestDevSecret(t *testing.T) {
	if got := devSecret("", "csrf_key", testLogger()); len(got) != 32 {
		t.Errorf("random secret length = %d, want 32", len(got))
	}
	if got := devSecret("short", "csrf_key", testLogger()); len(got) < 32 || string(got[:5]) != "short" {
		t.Errorf("padded secret = %q", got)
	}
	key := "0123456789abcdef0123456789abcdef"
	if got := string(devSecret(key, "session_key", testLogger())); got != key {
		t.Errorf("configured secret changed: %q", got)
	}
}

func TestLoadCatalog_Default(t *testing.T) {
	cat, err := loadCatalog("")
	if err != nil {
		t.Fatalf("loadCatalog: %v", err)
	}
	if _, ok := cat.Programa("poprua"); !ok {
		t.Error("embedded catalogue should define poprua")
	}
}

func TestEnsureSchema_SeedsMunicipios(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	deps := DBDeps{MongoDatabase: db, Catalog: cat}

	// Twice: seeding must be idempotent.
	for i := 0; i < 2; i++ {
		if err := EnsureSchema(ctx, &config.CoreConfig{}, validAppConfig(), deps, testLogger()); err != nil {
			t.Fatalf("EnsureSchema #%d: %v", i+1, err)
		}
	}

	ms, err := municipiostore.New(db).List(ctx)
	if err != nil {
		t.Fatalf("list municipios: %v", err)
	}
	if len(ms) != len(cat.Municipios) {
		t.Errorf("municipios = %d, want %d", len(ms), len(cat.Municipios))
	}
}

func TestStartup_CreatesAdminAndStartsJanitor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	reg := modals.NewRegistry(time.Minute)
	deps := DBDeps{
		MongoDatabase: db,
		Modals:        reg,
		Janitor:       modals.NewJanitor(reg, testLogger(), time.Hour),
	}
	cfg := validAppConfig()
	cfg.AdminLogin = "admin"
	cfg.AdminPassword = "troque-esta-senha"

	if err := Startup(ctx, &config.CoreConfig{}, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	defer deps.Janitor.Stop()

	if _, err := userstore.New(db).Authenticate(ctx, "admin", "troque-esta-senha"); err != nil {
		t.Errorf("admin should authenticate: %v", err)
	}
}
