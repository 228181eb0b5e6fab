package metroline

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/suashub/suashub/internal/domain/models"
)

// Event is a ProgressEvent as the tracker receives it from the backend.
type Event struct {
	ID            int64      `json:"id"`
	Responsavel   string     `json:"responsavel_nome"`
	DataHora      time.Time  `json:"data_hora"`
	Obs           string     `json:"obs,omitempty"`
	AtendimentoID *int64     `json:"atendimento_id,omitempty"`
	Referrals     []Referral `json:"encaminhamentos"`
}

// UnmarshalJSON tolerates a missing or malformed data_hora: the event keeps
// a zero time and renders the placeholder instead of failing the payload.
func (e *Event) UnmarshalJSON(b []byte) error {
	type plain Event
	var w struct {
		plain
		DataHora json.RawMessage `json:"data_hora"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*e = Event(w.plain)
	e.DataHora = time.Time{}

	var raw string
	if len(w.DataHora) > 0 && json.Unmarshal(w.DataHora, &raw) == nil {
		if t, ok := ParseTimestamp(raw); ok {
			e.DataHora = t
		}
	}
	return nil
}

// EventFromModel converts a stored Registro.
func EventFromModel(r models.Registro) Event {
	return Event{
		ID:            r.ID,
		Responsavel:   r.ResponsavelNome,
		DataHora:      r.DataHora,
		Obs:           r.Obs,
		AtendimentoID: r.AtendimentoID,
		Referrals:     ReferralsFromModels(r.Encaminhamentos),
	}
}

// StageData is a stage in the detailed shape: definition fields plus the
// optional pre-computed status and the event history for one case.
type StageData struct {
	Codigo         string  `json:"codigo"`
	Nome           string  `json:"nome"`
	Descricao      string  `json:"descricao,omitempty"`
	Ordem          int     `json:"ordem,omitempty"`
	SLADias        *int    `json:"sla_dias,omitempty"`
	Status         string  `json:"status,omitempty"`
	UltimoRegistro *Event  `json:"ultimo_registro,omitempty"`
	Registros      []Event `json:"registros,omitempty"`
}

func (s StageData) StageKey() string      { return s.Codigo }
func (s StageData) StageTitle() string    { return s.Nome }
func (s StageData) StageSubtitle() string { return s.Descricao }

// LinhaMetro is the stage payload served for one case.
type LinhaMetro struct {
	CasoID     int64       `json:"caso_id"`
	EtapaAtual string      `json:"etapa_atual"`
	Etapas     []StageData `json:"etapas"`
}

// GroupEvents distributes events over stage data by stage key and fills
// UltimoRegistro. Events for unknown stages are dropped. Histories are
// ordered most recent first.
func GroupEvents(stages []StageData, events map[string][]Event) []StageData {
	out := make([]StageData, len(stages))
	for i, s := range stages {
		evs := append([]Event(nil), events[s.Codigo]...)
		SortNewestFirst(evs)
		s.Registros = evs
		if len(evs) > 0 {
			last := evs[0]
			s.UltimoRegistro = &last
		} else {
			s.UltimoRegistro = nil
		}
		out[i] = s
	}
	return out
}

// SortNewestFirst orders events by DataHora descending, then by id
// descending for events sharing a timestamp.
func SortNewestFirst(evs []Event) {
	sort.SliceStable(evs, func(i, j int) bool {
		if !evs[i].DataHora.Equal(evs[j].DataHora) {
			return evs[i].DataHora.After(evs[j].DataHora)
		}
		return evs[i].ID > evs[j].ID
	})
}
