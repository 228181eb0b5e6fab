// internal/app/store/encaminhamentos/encaminhamentostore.go
package encaminhamentostore

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

var (
	ErrNotFound    = errors.New("encaminhamento not found")
	ErrInvalidTipo = errors.New("encaminhamento tipo must be intermunicipal or rede_local")
)

type Store struct {
	c   *mongo.Collection
	seq *counterstore.Store
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("encaminhamentos"), seq: counterstore.New(db)}
}

// Create validates the shape of e and inserts it.
func (s *Store) Create(ctx context.Context, e models.Encaminhamento) (models.Encaminhamento, error) {
	switch e.Tipo {
	case models.EncaminhamentoIntermunicipal:
		e.Destino = ""
	case models.EncaminhamentoRedeLocal:
		e.MunicipioOrigemID, e.MunicipioDestinoID = 0, 0
	default:
		return models.Encaminhamento{}, ErrInvalidTipo
	}

	id, err := s.seq.Next(ctx, counterstore.SeqEncaminhamentos)
	if err != nil {
		return models.Encaminhamento{}, err
	}
	now := time.Now().UTC()
	e.ID = id
	if e.Status == "" {
		e.Status = "pendente"
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Encaminhamento{}, err
	}
	return e, nil
}

// ListByCaso returns the referrals of a case ordered by id.
func (s *Store) ListByCaso(ctx context.Context, casoID int64) ([]models.Encaminhamento, error) {
	return s.find(ctx, bson.M{"caso_id": casoID})
}

// GetMany loads the referrals with the given ids. Missing ids are skipped.
func (s *Store) GetMany(ctx context.Context, ids []int64) ([]models.Encaminhamento, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// UpdateStatus changes the workflow status of a referral.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Encaminhamento, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Encaminhamento
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
