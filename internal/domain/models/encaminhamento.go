// internal/domain/models/encaminhamento.go
package models

import "time"

// Referral kinds stored in Encaminhamento.Tipo.
const (
	EncaminhamentoIntermunicipal = "intermunicipal"
	EncaminhamentoRedeLocal      = "rede_local"
)

// Encaminhamento is a referral of a case to another service or municipality.
//
// Two shapes share this document:
//   - intermunicipal: MunicipioOrigemID -> MunicipioDestinoID
//   - rede_local: Destino names a service of the local network
type Encaminhamento struct {
	ID                 int64  `bson:"_id" json:"id"`
	CasoID             int64  `bson:"caso_id" json:"caso_id"`
	Tipo               string `bson:"tipo" json:"tipo"`
	MunicipioOrigemID  int64  `bson:"municipio_origem_id,omitempty" json:"municipio_origem_id,omitempty"`
	MunicipioDestinoID int64  `bson:"municipio_destino_id,omitempty" json:"municipio_destino_id,omitempty"`
	Destino            string `bson:"destino,omitempty" json:"destino,omitempty"`
	Status             string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
