// internal/app/features/api/registrar.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
	"unicode/utf8"

	atendimentostore "github.com/suashub/suashub/internal/app/store/atendimentos"
	"github.com/suashub/suashub/internal/app/system/auth"
	"github.com/suashub/suashub/internal/app/system/htmlsanitize"
	"github.com/suashub/suashub/internal/app/system/metroline"
	"github.com/suashub/suashub/internal/app/system/timeouts"
	"github.com/suashub/suashub/internal/domain/models"
	"go.uber.org/zap"
)

const (
	maxBodyBytes = 64 << 10
	maxObsRunes  = 4000
)

// Registrar handles POST /api/casos/{casoId}/linha-metro/registrar.
//
// Body: {"etapa": "...", "obs": "...", "atendimento_id": 12|null,
// "encaminhamentos_ids": [7, 9]}. The event is attributed to the signed-in
// user. The case's current stage is not touched.
func (h *Handler) Registrar(w http.ResponseWriter, r *http.Request) {
	c, prog, ok := h.loadCaso(w, r)
	if !ok || rejectClosed(w, c) {
		return
	}

	var p metroline.Payload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&p); err != nil {
		http.Error(w, "Corpo da requisição inválido.", http.StatusBadRequest)
		return
	}

	if _, ok := prog.Etapa(p.Etapa); !ok {
		unprocessable(w, "Etapa desconhecida para este caso.")
		return
	}

	obs := htmlsanitize.StripTags(p.Obs)
	if utf8.RuneCountInString(obs) > maxObsRunes {
		unprocessable(w, "Observação muito longa.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register progress event")
	defer cancel()

	if p.AtendimentoID != nil {
		a, err := h.Atendimentos.GetByID(ctx, *p.AtendimentoID)
		if errors.Is(err, atendimentostore.ErrNotFound) || (err == nil && a.CasoID != c.ID) {
			unprocessable(w, "Atendimento não pertence a este caso.")
			return
		}
		if err != nil {
			h.Log.Error("load atendimento failed", zap.Int64("caso_id", c.ID), zap.Error(err))
			http.Error(w, "Erro ao validar o atendimento.", http.StatusInternalServerError)
			return
		}
	}

	ids := uniqueIDs(p.EncaminhamentosIDs)
	snapshot, err := h.Encaminhamentos.GetMany(ctx, ids)
	if err != nil {
		h.Log.Error("load encaminhamentos failed", zap.Int64("caso_id", c.ID), zap.Error(err))
		http.Error(w, "Erro ao validar os encaminhamentos.", http.StatusInternalServerError)
		return
	}
	if len(snapshot) != len(ids) {
		unprocessable(w, "Encaminhamento não encontrado.")
		return
	}
	for _, e := range snapshot {
		if e.CasoID != c.ID {
			unprocessable(w, "Encaminhamento não pertence a este caso.")
			return
		}
	}

	u, _ := auth.CurrentUser(r)
	reg := models.Registro{
		CasoID:          c.ID,
		Etapa:           p.Etapa,
		DataHora:        time.Now().UTC(),
		Obs:             obs,
		AtendimentoID:   p.AtendimentoID,
		Encaminhamentos: snapshot,
	}
	if u != nil {
		reg.ResponsavelID = u.ID
		reg.ResponsavelNome = u.Name
	}

	created, err := h.Registros.Create(ctx, reg)
	if err != nil {
		h.Log.Error("create registro failed", zap.Int64("caso_id", c.ID), zap.Error(err))
		http.Error(w, "Erro ao salvar o registro.", http.StatusInternalServerError)
		return
	}

	h.Log.Info("progress event registered",
		zap.Int64("caso_id", c.ID),
		zap.String("etapa", p.Etapa),
		zap.Int64("registro_id", created.ID),
		zap.Int("encaminhamentos", len(snapshot)))

	h.Audit.RegistroCriado(ctx, r, reg.ResponsavelID, c.ID, created.ID, p.Etapa, len(snapshot))

	writeJSON(w, http.StatusCreated, metroline.EventFromModel(created))
}

func uniqueIDs(in []int64) []int64 {
	seen := make(map[int64]struct{}, len(in))
	out := make([]int64, 0, len(in))
	for _, id := range in {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
