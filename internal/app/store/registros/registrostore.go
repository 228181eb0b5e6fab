// internal/app/store/registros/registrostore.go
package registrostore

import (
	"context"
	"time"

	counterstore "github.com/suashub/suashub/internal/app/store/counters"
	"github.com/suashub/suashub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists progress events. There is deliberately no update or delete:
// a registro is immutable once written.
type Store struct {
	c   *mongo.Collection
	seq *counterstore.Store
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("registros"), seq: counterstore.New(db)}
}

// Create allocates an id and inserts r. DataHora defaults to now.
func (s *Store) Create(ctx context.Context, r models.Registro) (models.Registro, error) {
	id, err := s.seq.Next(ctx, counterstore.SeqRegistros)
	if err != nil {
		return models.Registro{}, err
	}
	r.ID = id
	if r.DataHora.IsZero() {
		r.DataHora = time.Now().UTC()
	}
	if r.Encaminhamentos == nil {
		r.Encaminhamentos = []models.Encaminhamento{}
	}
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.Registro{}, err
	}
	return r, nil
}

var newestFirst = bson.D{{Key: "data_hora", Value: -1}, {Key: "_id", Value: -1}}

// ListByCaso returns every registro of a case, newest first.
func (s *Store) ListByCaso(ctx context.Context, casoID int64) ([]models.Registro, error) {
	return s.find(ctx, bson.M{"caso_id": casoID})
}

// ListByCasoEtapa returns the registros of one stage, newest first.
func (s *Store) ListByCasoEtapa(ctx context.Context, casoID int64, etapa string) ([]models.Registro, error) {
	return s.find(ctx, bson.M{"caso_id": casoID, "etapa": etapa})
}

// GroupByEtapa loads every registro of a case keyed by stage code.
func (s *Store) GroupByEtapa(ctx context.Context, casoID int64) (map[string][]models.Registro, error) {
	all, err := s.ListByCaso(ctx, casoID)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]models.Registro)
	for _, r := range all {
		out[r.Etapa] = append(out[r.Etapa], r)
	}
	return out, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Registro, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Registro
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
