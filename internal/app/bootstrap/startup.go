// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/suashub/suashub/internal/app/resources"
	userstore "github.com/suashub/suashub/internal/app/store/users"
	"github.com/suashub/suashub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	if appCfg.AdminLogin != "" {
		actx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		defer cancel()
		created, err := userstore.New(deps.MongoDatabase).EnsureAdmin(actx, appCfg.AdminLogin, appCfg.AdminPassword)
		if err != nil {
			logger.Error("ensure admin failed", zap.String("login", appCfg.AdminLogin), zap.Error(err))
			return err
		}
		if created {
			logger.Info("bootstrap administrator created", zap.String("login", appCfg.AdminLogin))
		}
	}

	deps.Janitor.Start()
	return nil
}

// janitorInterval sweeps a few times per TTL, never more than once a
// second.
func janitorInterval(ttl time.Duration) time.Duration {
	iv := ttl / 4
	if iv < time.Second {
		iv = time.Second
	}
	return iv
}
