// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	municipiostore "github.com/suashub/suashub/internal/app/store/municipios"
	"github.com/suashub/suashub/internal/app/system/catalog"
	"github.com/suashub/suashub/internal/app/system/indexes"
	"github.com/suashub/suashub/internal/app/system/modals"
	"github.com/suashub/suashub/internal/app/system/timeouts"
	"github.com/suashub/suashub/internal/app/system/validators"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB, loads the stage catalogue and creates the
// modal registry.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	cat, err := loadCatalog(appCfg.CatalogPath)
	if err != nil {
		logger.Error("catalog load failed", zap.String("path", appCfg.CatalogPath), zap.Error(err))
		return DBDeps{}, err
	}

	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts configured from environment", zap.Int("count", n))
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(appCfg.MongoURI))
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	reg := modals.NewRegistry(appCfg.ModalTTL)
	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		Catalog:       cat,
		Modals:        reg,
		Janitor:       modals.NewJanitor(reg, logger, janitorInterval(appCfg.ModalTTL)),
	}, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

// EnsureSchema creates indexes and seeds the municipality list.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Batch())
	defer cancel()

	if err := validators.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	if err := municipiostore.New(deps.MongoDatabase).UpsertMany(ctx, deps.Catalog.Municipios); err != nil {
		logger.Error("seed municipios failed", zap.Error(err))
		return err
	}
	logger.Info("schema ready", zap.Int("municipios", len(deps.Catalog.Municipios)))
	return nil
}
