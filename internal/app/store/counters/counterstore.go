// internal/app/store/counters/counterstore.go
package counterstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sequence names.
const (
	SeqCasos           = "casos"
	SeqRegistros       = "registros"
	SeqEncaminhamentos = "encaminhamentos"
	SeqAtendimentos    = "atendimentos"
)

// Store hands out numeric ids. The JSON contract of the tracker uses numbers
// for case, attendance and referral ids, so those collections do not use
// ObjectIDs.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("counters")}
}

// Next atomically increments the named sequence and returns the new value.
// The first call for a sequence returns 1.
func (s *Store) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}
