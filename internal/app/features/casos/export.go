// internal/app/features/casos/export.go
package casos

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/suashub/suashub/internal/app/system/csvutil"
	"github.com/suashub/suashub/internal/app/system/metroline"
	"github.com/suashub/suashub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ServeHistoricoCSV handles GET /casos/{casoId}/historico.csv: every
// registered event, in stage order and oldest first within a stage.
func (h *Handler) ServeHistoricoCSV(w http.ResponseWriter, r *http.Request) {
	c, prog, ok := h.loadCaso(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "export historico")
	defer cancel()

	regs, err := h.Registros.ListByCaso(ctx, c.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list registros failed", err, "Não foi possível exportar o histórico.", caseURL(c.ID))
		return
	}
	encs, err := h.Encaminhamentos.ListByCaso(ctx, c.ID)
	if err != nil {
		h.Log.Warn("list encaminhamentos failed", zap.Int64("caso_id", c.ID), zap.Error(err))
	}
	live := metroline.IndexReferrals(metroline.ReferralsFromModels(encs))
	municipios := h.municipios(r)

	order := make(map[string]int, len(prog.Etapas))
	for i, d := range prog.Etapas {
		order[d.Codigo] = i + 1
	}
	rank := func(etapa string) int {
		if n, ok := order[etapa]; ok {
			return n
		}
		return len(order) + 1
	}
	sort.SliceStable(regs, func(i, j int) bool {
		ri, rj := rank(regs[i].Etapa), rank(regs[j].Etapa)
		if ri != rj {
			return ri < rj
		}
		return regs[i].DataHora.Before(regs[j].DataHora)
	})

	rows := make([]csvutil.HistoryRow, 0, len(regs))
	for _, reg := range regs {
		ev := metroline.EventFromModel(reg)
		row := csvutil.HistoryRow{
			Etapa:           reg.Etapa,
			DataHora:        metroline.FormatDateTime(ev.DataHora, h.Location),
			Responsavel:     ev.Responsavel,
			Obs:             ev.Obs,
			Encaminhamentos: metroline.Labels(ev.Referrals, live, municipios),
		}
		if n, ok := order[reg.Etapa]; ok {
			row.Ordem = strconv.Itoa(n)
			def, _ := prog.Etapa(reg.Etapa)
			row.EtapaNome = def.Nome
		}
		if ev.AtendimentoID != nil {
			row.AtendimentoID = strconv.FormatInt(*ev.AtendimentoID, 10)
		}
		rows = append(rows, row)
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="caso-`+strconv.FormatInt(c.ID, 10)+`-historico.csv"`)
	truncated, err := csvutil.WriteHistory(w, rows)
	if err != nil {
		h.Log.Error("write historico csv failed", zap.Int64("caso_id", c.ID), zap.Error(err))
		return
	}
	if truncated {
		h.Log.Warn("historico csv truncated", zap.Int64("caso_id", c.ID), zap.Int("rows", len(rows)))
	}
}
