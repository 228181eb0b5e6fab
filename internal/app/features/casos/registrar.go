// internal/app/features/casos/registrar.go
package casos

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	casostore "github.com/suashub/suashub/internal/app/store/casos"
	"github.com/suashub/suashub/internal/app/system/catalog"
	"github.com/suashub/suashub/internal/app/system/metroline"
	"github.com/suashub/suashub/internal/app/system/timeouts"
	"github.com/suashub/suashub/internal/app/system/viewdata"
	"github.com/suashub/suashub/internal/domain/models"
	"go.uber.org/zap"
)

const (
	expiredMessage  = "Este formulário expirou. Feche e abra o registro novamente."
	inFlightMessage = "O registro já está sendo salvo."
	refreshNotice   = "Registro salvo. Não foi possível atualizar a linha; recarregue a página."
	closedMessage   = "Este caso está encerrado e não aceita novos registros."
)

// ServeRegistrar handles GET /casos/{casoId}/registrar?etapa=KEY and
// renders the registration modal for that stage.
func (h *Handler) ServeRegistrar(w http.ResponseWriter, r *http.Request) {
	c, prog, ok := h.loadCaso(w, r)
	if !ok {
		return
	}
	if c.Status == casostore.StatusEncerrado {
		w.WriteHeader(http.StatusConflict)
		templates.RenderSnippet(w, "metro_modal_message", closedMessage)
		return
	}
	def, ok := prog.Etapa(query.Get(r, "etapa"))
	if !ok {
		h.ErrLog.NotFound(w, r, "Etapa não encontrada.", caseURL(c.ID))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "open registrar")
	defer cancel()

	atts, err := h.Atendimentos.ListByCaso(ctx, c.ID)
	if err != nil {
		h.Log.Warn("list atendimentos failed", zap.Int64("caso_id", c.ID), zap.Error(err))
	}

	stage := metroline.Stage{Key: def.Codigo, Title: def.Nome, Subtitle: def.Descricao}
	reg := metroline.OpenRegistration(ctx, stage, h.API.ForRequest(r).ReferralSource(c.ID), nil, h.attendanceOptions(atts))
	token := h.Modals.Open(modalScope(c.ID), userID(r), reg)

	templates.RenderSnippet(w, "metro_registrar_modal", h.modalView(r, token, c.ID, def, reg.State()))
}

// HandleRegistrar handles POST /casos/{casoId}/registrar.
//
// The modal is looked up by token. A failed submit re-renders the modal
// with the inline message and the typed values; a successful one closes it
// and returns the refreshed tracker with the registered stage expanded.
func (h *Handler) HandleRegistrar(w http.ResponseWriter, r *http.Request) {
	c, prog, ok := h.loadCaso(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Formulário inválido.", caseURL(c.ID))
		return
	}

	token := r.PostFormValue("token")
	entry, ok := h.Modals.Get(token, modalScope(c.ID), userID(r))
	if !ok {
		w.WriteHeader(http.StatusGone)
		templates.RenderSnippet(w, "metro_modal_message", expiredMessage)
		return
	}
	reg := entry.Reg
	reg.SetForm(formFromRequest(r))
	etapa := reg.State().Stage.Key

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "registrar")
	defer cancel()

	client := h.API.ForRequest(r)
	var lm metroline.LinhaMetro
	refresh := func(ctx context.Context) error {
		var err error
		lm, err = client.LinhaMetro(ctx, c.ID)
		return err
	}

	err := reg.Submit(ctx, client.Registrar(c.ID), refresh)
	switch {
	case err == nil:
	case errors.Is(err, metroline.ErrSubmitInFlight):
		w.WriteHeader(http.StatusConflict)
		templates.RenderSnippet(w, "metro_modal_message", inFlightMessage)
		return
	case errors.Is(err, metroline.ErrClosed):
		h.Modals.Close(token)
		w.WriteHeader(http.StatusGone)
		templates.RenderSnippet(w, "metro_modal_message", expiredMessage)
		return
	case errors.Is(err, metroline.ErrRefreshFailed):
		h.Modals.Close(token)
		h.Log.Warn("refresh after registrar failed", zap.Int64("caso_id", c.ID), zap.Error(err))
		w.Header().Set("HX-Trigger", "registro-salvo")
		templates.RenderSnippet(w, "metro_modal_message", refreshNotice)
		return
	default:
		h.Log.Info("registrar rejected",
			zap.Int64("caso_id", c.ID),
			zap.String("etapa", etapa),
			zap.Error(err))
		def, _ := prog.Etapa(etapa)
		templates.RenderSnippet(w, "metro_registrar_modal", h.modalView(r, token, c.ID, def, reg.State()))
		return
	}

	h.Modals.Close(token)
	h.Log.Info("registro saved", zap.Int64("caso_id", c.ID), zap.String("etapa", etapa))

	refs, rerr := client.Referrals(ctx, c.ID)
	if rerr != nil {
		h.Log.Warn("load live referrals failed", zap.Int64("caso_id", c.ID), zap.Error(rerr))
	}
	td := h.trackerFrom(r, c, prog, lm, refs, h.municipios(r), trackerState{Expanded: etapa, ShowHistory: true})

	w.Header().Set("HX-Trigger", "registro-salvo")
	w.Header().Set("HX-Retarget", "#tracker")
	w.Header().Set("HX-Reswap", "outerHTML")
	templates.RenderSnippet(w, "metro_tracker", td)
}

// HandleFechar handles POST /casos/{casoId}/registrar/fechar. An in-flight
// submit still completes but its outcome is no longer shown.
func (h *Handler) HandleFechar(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.loadCaso(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Formulário inválido.", caseURL(c.ID))
		return
	}
	token := r.PostFormValue("token")
	if _, ok := h.Modals.Get(token, modalScope(c.ID), userID(r)); ok {
		h.Modals.Close(token)
	}
	w.WriteHeader(http.StatusOK)
}

// formFromRequest reads the modal fields. Unparseable ids are dropped.
func formFromRequest(r *http.Request) metroline.Form {
	f := metroline.Form{Obs: r.PostFormValue("obs")}
	if raw := strings.TrimSpace(r.PostFormValue("atendimento_id")); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			f.AtendimentoID = &id
		}
	}
	for _, raw := range r.PostForm["encaminhamentos"] {
		if id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && id > 0 {
			f.Selected = append(f.Selected, id)
		}
	}
	return f
}

func (h *Handler) attendanceOptions(atts []models.Atendimento) []metroline.AttendanceOption {
	out := make([]metroline.AttendanceOption, 0, len(atts))
	for _, a := range atts {
		out = append(out, metroline.AttendanceOption{
			ID:    a.ID,
			Label: "#" + strconv.FormatInt(a.ID, 10) + " · " + a.Tipo + " · " + metroline.FormatDateTime(a.DataHora, h.Location),
		})
	}
	return out
}

func (h *Handler) modalView(r *http.Request, token string, casoID int64, def catalog.StageDef, st metroline.RegistrationState) viewdata.RegistrationVM {
	return viewdata.NewRegistrationVM(r, caseURL(casoID), token, catalog.HelpHTML(def.Descricao), st, h.municipios(r))
}
