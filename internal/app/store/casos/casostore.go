// internal/app/store/casos/casostore.go
package casostore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	counterstore "github.com/suashub/suashub/internal/app/store/counters"
	"github.com/suashub/suashub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Case statuses.
const (
	StatusAtivo     = "ativo"
	StatusEncerrado = "encerrado"
)

var ErrNotFound = errors.New("caso not found")

type Store struct {
	c   *mongo.Collection
	seq *counterstore.Store
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("casos"), seq: counterstore.New(db)}
}

// Create allocates an id and inserts c. EtapaAtual must already hold the
// first stage of the programme.
func (s *Store) Create(ctx context.Context, c models.Caso) (models.Caso, error) {
	id, err := s.seq.Next(ctx, counterstore.SeqCasos)
	if err != nil {
		return models.Caso{}, err
	}
	now := time.Now().UTC()
	c.ID = id
	c.NomeCI = text.Fold(c.Nome)
	if c.Status == "" {
		c.Status = StatusAtivo
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Caso{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (models.Caso, error) {
	var c models.Caso
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Caso{}, ErrNotFound
	}
	if err != nil {
		return models.Caso{}, err
	}
	return c, nil
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Programa string
	Search   string // case-insensitive prefix on nome
	Skip     int64
	Limit    int64
}

// List returns cases newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Caso, error) {
	filter := bson.M{}
	if f.Programa != "" {
		filter["programa"] = f.Programa
	}
	if f.Search != "" {
		q := text.Fold(f.Search)
		filter["nome_ci"] = bson.M{"$gte": q, "$lt": q + "\uffff"}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Caso
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetEtapaAtual moves the current-stage pointer of a case.
func (s *Store) SetEtapaAtual(ctx context.Context, id int64, etapa string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"etapa_atual": etapa,
		"updated_at":  time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus marks a case ativo or encerrado.
func (s *Store) SetStatus(ctx context.Context, id int64, status string) error {
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
