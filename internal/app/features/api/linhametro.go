// internal/app/features/api/linhametro.go
package api

import (
	"context"
	"net/http"

	casostore "github.com/suashub/suashub/internal/app/store/casos"
	"github.com/suashub/suashub/internal/app/system/catalog"
	"github.com/suashub/suashub/internal/app/system/metroline"
	"github.com/suashub/suashub/internal/app/system/timeouts"
	"github.com/suashub/suashub/internal/domain/models"
	"go.uber.org/zap"
)

// LinhaMetro handles GET /api/casos/{casoId}/linha-metro.
func (h *Handler) LinhaMetro(w http.ResponseWriter, r *http.Request) {
	c, prog, ok := h.loadCaso(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "load linha-metro")
	defer cancel()

	lm, err := h.buildLinhaMetro(ctx, c, prog)
	if err != nil {
		h.Log.Error("load registros failed", zap.Int64("caso_id", c.ID), zap.Error(err))
		http.Error(w, "Erro ao carregar o histórico.", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lm)
}

// buildLinhaMetro assembles the stage data of a case: catalogue stages,
// their event histories and the status derived from etapa_atual. A closed
// case reports every stage as done.
func (h *Handler) buildLinhaMetro(ctx context.Context, c models.Caso, prog catalog.Programa) (metroline.LinhaMetro, error) {
	grouped, err := h.Registros.GroupByEtapa(ctx, c.ID)
	if err != nil {
		return metroline.LinhaMetro{}, err
	}
	events := make(map[string][]metroline.Event, len(grouped))
	for etapa, regs := range grouped {
		for _, reg := range regs {
			events[etapa] = append(events[etapa], metroline.EventFromModel(reg))
		}
	}

	etapas := metroline.GroupEvents(prog.StageData(), events)
	statuses := metroline.Derive(prog.Stages(), metroline.AtKey(c.EtapaAtual))
	for i := range etapas {
		if c.Status == casostore.StatusEncerrado {
			etapas[i].Status = string(metroline.StatusDone)
			continue
		}
		etapas[i].Status = string(statuses[i])
	}

	return metroline.LinhaMetro{
		CasoID:     c.ID,
		EtapaAtual: c.EtapaAtual,
		Etapas:     etapas,
	}, nil
}
