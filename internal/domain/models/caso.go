// internal/domain/models/caso.go
package models

import "time"

// Programme codes. Each programme has its own ordered stage list in the
// stage catalogue.
const (
	ProgramaCRAS   = "cras"
	ProgramaCREAS  = "creas"
	ProgramaPopRua = "poprua"
)

// Caso is one case (process instance) followed by the social assistance
// teams.
//
// NOTE:
//   - ID is numeric because the JSON contract used by the tracker
//     (encaminhamentos_ids, atendimento_id, caso_id) is numeric. IDs are
//     allocated from the counters collection.
//   - EtapaAtual is the current-stage pointer. It only changes through an
//     explicit "advance" action; registering a ProgressEvent never moves it.
type Caso struct {
	ID          int64  `bson:"_id" json:"id"`
	Nome        string `bson:"nome" json:"nome"`
	NomeCI      string `bson:"nome_ci" json:"-"`
	Programa    string `bson:"programa" json:"programa"`
	MunicipioID int64  `bson:"municipio_id,omitempty" json:"municipio_id,omitempty"`
	EtapaAtual  string `bson:"etapa_atual" json:"etapa_atual"`
	Status      string `bson:"status" json:"status"` // ativo | encerrado

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
