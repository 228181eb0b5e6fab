// internal/domain/models/atendimento.go
package models

import "time"

// Atendimento is an attendance (a meeting with the assisted person) that a
// ProgressEvent may point to.
type Atendimento struct {
	ID        int64     `bson:"_id" json:"id"`
	CasoID    int64     `bson:"caso_id" json:"caso_id"`
	DataHora  time.Time `bson:"data_hora" json:"data_hora"`
	Tipo      string    `bson:"tipo" json:"tipo"` // individual | familiar | visita
	Descricao string    `bson:"descricao,omitempty" json:"descricao,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
