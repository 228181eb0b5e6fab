// internal/app/features/casos/show.go
package casos

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	casostore "github.com/suashub/suashub/internal/app/store/casos"
	"github.com/suashub/suashub/internal/app/system/auth"
	"github.com/suashub/suashub/internal/app/system/catalog"
	"github.com/suashub/suashub/internal/app/system/metroline"
	"github.com/suashub/suashub/internal/app/system/timeouts"
	"github.com/suashub/suashub/internal/app/system/viewdata"
	"github.com/suashub/suashub/internal/domain/models"
	"go.uber.org/zap"
)

// trackerState is the per-tracker interaction state carried in the query
// string.
type trackerState struct {
	Expanded    string
	ShowHistory bool
}

func stateFromQuery(r *http.Request) trackerState {
	return trackerState{
		Expanded:    query.Get(r, "aberta"),
		ShowHistory: query.Get(r, "historico") == "1",
	}
}

// ServeShow handles GET /casos/{casoId}.
func (h *Handler) ServeShow(w http.ResponseWriter, r *http.Request) {
	c, prog, ok := h.loadCaso(w, r)
	if !ok {
		return
	}
	municipios := h.municipios(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "load caso page")
	defer cancel()

	data := showData{
		BaseVM:       viewdata.NewBaseVM(r, c.Nome, "/casos"),
		Caso:         c,
		ProgramaNome: prog.Nome,
		Municipios:   municipios,
		Tracker:      h.loadTracker(ctx, r, c, prog, municipios, stateFromQuery(r)),
	}
	if c.MunicipioID != 0 {
		data.Municipio = metroline.MunicipalityName(c.MunicipioID, municipios)
	}

	atts, err := h.Atendimentos.ListByCaso(ctx, c.ID)
	if err != nil {
		h.Log.Warn("list atendimentos failed", zap.Int64("caso_id", c.ID), zap.Error(err))
	}
	for _, a := range atts {
		data.Atendimentos = append(data.Atendimentos, atendimentoItem{
			ID:       a.ID,
			Tipo:     a.Tipo,
			DataHora: metroline.FormatDateTime(a.DataHora, h.Location),
		})
	}

	encs, err := h.Encaminhamentos.ListByCaso(ctx, c.ID)
	if err != nil {
		h.Log.Warn("list encaminhamentos failed", zap.Int64("caso_id", c.ID), zap.Error(err))
	}
	for _, e := range encs {
		data.Encaminhamentos = append(data.Encaminhamentos, encaminhamentoItem{
			ID:     e.ID,
			Label:  metroline.Label(metroline.ReferralFromModel(e), municipios),
			Status: e.Status,
		})
	}

	templates.Render(w, r, "casos_show", data)
}

// ServeLinha handles GET /casos/{casoId}/linha: the tracker fragment, used
// by htmx for expand/collapse and the history toggle.
func (h *Handler) ServeLinha(w http.ResponseWriter, r *http.Request) {
	c, prog, ok := h.loadCaso(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "load linha")
	defer cancel()

	td := h.loadTracker(ctx, r, c, prog, h.municipios(r), stateFromQuery(r))
	templates.RenderSnippet(w, "metro_tracker", td)
}

// loadTracker fetches stage data and live referrals through the API. A
// failing fetch yields a tracker with an inline error, never an error page.
func (h *Handler) loadTracker(ctx context.Context, r *http.Request, c models.Caso, prog catalog.Programa, municipios []models.Municipio, st trackerState) viewdata.TrackerVM {
	client := h.API.ForRequest(r)

	lm, err := client.LinhaMetro(ctx, c.ID)
	if err != nil {
		h.Log.Warn("load linha-metro failed", zap.Int64("caso_id", c.ID), zap.Error(err))
		td := h.trackerFrom(r, c, prog, metroline.LinhaMetro{CasoID: c.ID, EtapaAtual: c.EtapaAtual, Etapas: prog.StageData()}, nil, municipios, st)
		td.Error = "Não foi possível carregar o histórico do caso. Tente novamente."
		return td
	}

	refs, err := client.Referrals(ctx, c.ID)
	if err != nil {
		h.Log.Warn("load live referrals failed", zap.Int64("caso_id", c.ID), zap.Error(err))
	}
	return h.trackerFrom(r, c, prog, lm, refs, municipios, st)
}

func (h *Handler) trackerFrom(r *http.Request, c models.Caso, prog catalog.Programa, lm metroline.LinhaMetro, live []metroline.Referral, municipios []models.Municipio, st trackerState) viewdata.TrackerVM {
	view := metroline.Build(metroline.DetailedInput{
		CasoID:        c.ID,
		Stages:        lm.Etapas,
		Current:       metroline.ParsePointer(lm.EtapaAtual),
		LiveReferrals: metroline.IndexReferrals(live),
		Municipios:    municipios,
		HistoryLimit:  h.HistoryLimit,
		Location:      h.Location,
		Expanded:      st.Expanded,
		ShowHistory:   st.ShowHistory,
	})

	td := viewdata.TrackerVM{
		Base:      caseURL(c.ID),
		Encerrado: c.Status == casostore.StatusEncerrado,
		View:      *view.Detailed,
		Help:      prog.HelpMap(),
	}
	if u, ok := auth.CurrentUser(r); ok {
		td.CanAdvance = viewdata.CanAdvance(u.Role) && !td.Encerrado
	}
	td.CSRFField, td.CSRFToken = viewdata.CSRF(r)
	return td
}
