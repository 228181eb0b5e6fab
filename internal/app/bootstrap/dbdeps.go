// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/suashub/suashub/internal/app/system/catalog"
	"github.com/suashub/suashub/internal/app/system/modals"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the back-end dependencies shared by every hook. The catalogue
// and the modal registry are process-wide state built alongside the
// database handles.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Catalog *catalog.Catalog
	Modals  *modals.Registry
	Janitor *modals.Janitor
}
