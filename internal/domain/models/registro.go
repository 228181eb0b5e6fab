// internal/domain/models/registro.go
package models

import "time"

// Registro is a ProgressEvent: a timestamped, attributed record of work done
// against one stage of one case.
//
// Registros are immutable once written. Encaminhamentos holds a snapshot of
// the linked referrals as they were at submission time; live referral data is
// merged over it at render time.
type Registro struct {
	ID              int64            `bson:"_id" json:"id"`
	CasoID          int64            `bson:"caso_id" json:"caso_id"`
	Etapa           string           `bson:"etapa" json:"etapa"`
	ResponsavelID   string           `bson:"responsavel_id,omitempty" json:"-"`
	ResponsavelNome string           `bson:"responsavel_nome" json:"responsavel_nome"`
	DataHora        time.Time        `bson:"data_hora" json:"data_hora"`
	Obs             string           `bson:"obs,omitempty" json:"obs,omitempty"`
	AtendimentoID   *int64           `bson:"atendimento_id,omitempty" json:"atendimento_id,omitempty"`
	Encaminhamentos []Encaminhamento `bson:"encaminhamentos" json:"encaminhamentos"`
}
