// internal/app/store/municipios/municipiostore.go
package municipiostore

import (
	"context"

	"github.com/suashub/suashub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("municipios")}
}

// List returns every municipality ordered by name.
func (s *Store) List(ctx context.Context) ([]models.Municipio, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "nome", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Municipio
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertMany writes ms keyed by IBGE code in one bulk call.
func (s *Store) UpsertMany(ctx context.Context, ms []models.Municipio) error {
	if len(ms) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(ms))
	for _, m := range ms {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": m.ID}).
			SetReplacement(m).
			SetUpsert(true))
	}
	_, err := s.c.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return err
}
