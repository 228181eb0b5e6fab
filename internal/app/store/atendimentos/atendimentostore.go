// internal/app/store/atendimentos/atendimentostore.go
package atendimentostore

import (
	"context"
	"errors"
	"time"

	counterstore "github.com/suashub/suashub/internal/app/store/counters"
	"github.com/suashub/suashub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("atendimento not found")

type Store struct {
	c   *mongo.Collection
	seq *counterstore.Store
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("atendimentos"), seq: counterstore.New(db)}
}

func (s *Store) Create(ctx context.Context, a models.Atendimento) (models.Atendimento, error) {
	id, err := s.seq.Next(ctx, counterstore.SeqAtendimentos)
	if err != nil {
		return models.Atendimento{}, err
	}
	now := time.Now().UTC()
	a.ID = id
	if a.DataHora.IsZero() {
		a.DataHora = now
	}
	a.CreatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Atendimento{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (models.Atendimento, error) {
	var a models.Atendimento
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Atendimento{}, ErrNotFound
	}
	if err != nil {
		return models.Atendimento{}, err
	}
	return a, nil
}

// ListByCaso returns the attendances of a case, newest first.
func (s *Store) ListByCaso(ctx context.Context, casoID int64) ([]models.Atendimento, error) {
	opts := options.Find().SetSort(bson.D{{Key: "data_hora", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"caso_id": casoID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Atendimento
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
