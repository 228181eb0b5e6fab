// internal/domain/models/municipio.go
package models

// Municipio is a municipality used by inter-municipal referrals.
type Municipio struct {
	ID   int64  `bson:"_id" json:"id" yaml:"id"`
	Nome string `bson:"nome" json:"nome" yaml:"nome"`
	UF   string `bson:"uf,omitempty" json:"uf,omitempty" yaml:"uf"`
}
