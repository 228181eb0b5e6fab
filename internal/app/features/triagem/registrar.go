// internal/app/features/triagem/registrar.go
package triagem

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/suashub/suashub/internal/app/system/catalog"
	"github.com/suashub/suashub/internal/app/system/metroline"
	"github.com/suashub/suashub/internal/app/system/viewdata"
)

// ServeRegistrar handles GET /triagem/{draftId}/registrar?etapa=KEY. The
// candidates are the draft's own referrals (local mode).
func (h *Handler) ServeRegistrar(w http.ResponseWriter, r *http.Request) {
	d, prog, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	def, ok := prog.Etapa(query.Get(r, "etapa"))
	if !ok {
		h.ErrLog.NotFound(w, r, "Etapa não encontrada.", draftURL(d.ID))
		return
	}
	stage := metroline.Stage{Key: def.Codigo, Title: def.Nome, Subtitle: def.Descricao}
	reg := metroline.OpenRegistration(r.Context(), stage, nil, d.Referrals, nil)
	token := h.Modals.Open(modalScope(d.ID), currentUser(r).ID, reg)

	templates.RenderSnippet(w, "metro_registrar_modal",
		viewdata.NewRegistrationVM(r, draftURL(d.ID), token, catalog.HelpHTML(def.Descricao), reg.State(), h.municipios(r)))
}

// HandleRegistrar handles POST /triagem/{draftId}/registrar.
func (h *Handler) HandleRegistrar(w http.ResponseWriter, r *http.Request) {
	d, prog, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Formulário inválido.", draftURL(d.ID))
		return
	}
	user := currentUser(r)
	token := r.PostFormValue("token")
	entry, ok := h.Modals.Get(token, modalScope(d.ID), user.ID)
	if !ok {
		w.WriteHeader(http.StatusGone)
		templates.RenderSnippet(w, "metro_modal_message", "Este formulário expirou. Feche e abra o registro novamente.")
		return
	}
	reg := entry.Reg
	reg.SetForm(formFromRequest(r))
	etapa := reg.State().Stage.Key

	// refresh re-reads the draft so the returned tracker shows the new event
	var fresh Draft
	refresh := func(context.Context) error {
		var err error
		fresh, err = h.Drafts.Get(d.ID, user.ID)
		return err
	}
	err := reg.Submit(r.Context(), h.Drafts.Submitter(d.ID, user.ID, user.Name, prog.Stages()), refresh)
	switch {
	case err == nil:
	case errors.Is(err, metroline.ErrSubmitInFlight):
		w.WriteHeader(http.StatusConflict)
		templates.RenderSnippet(w, "metro_modal_message", "O registro já está sendo salvo.")
		return
	case errors.Is(err, metroline.ErrClosed), errors.Is(err, metroline.ErrRefreshFailed):
		h.Modals.Close(token)
		w.WriteHeader(http.StatusGone)
		templates.RenderSnippet(w, "metro_modal_message", "Rascunho indisponível. Recarregue a página.")
		return
	default:
		def, _ := prog.Etapa(etapa)
		templates.RenderSnippet(w, "metro_registrar_modal",
			viewdata.NewRegistrationVM(r, draftURL(d.ID), token, catalog.HelpHTML(def.Descricao), reg.State(), h.municipios(r)))
		return
	}

	h.Modals.Close(token)
	w.Header().Set("HX-Trigger", "registro-salvo")
	w.Header().Set("HX-Retarget", "#tracker")
	w.Header().Set("HX-Reswap", "outerHTML")
	templates.RenderSnippet(w, "metro_tracker", h.tracker(r, fresh, prog, h.municipios(r), etapa, true))
}

// HandleFechar handles POST /triagem/{draftId}/registrar/fechar.
func (h *Handler) HandleFechar(w http.ResponseWriter, r *http.Request) {
	d, _, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Formulário inválido.", draftURL(d.ID))
		return
	}
	token := r.PostFormValue("token")
	if _, ok := h.Modals.Get(token, modalScope(d.ID), currentUser(r).ID); ok {
		h.Modals.Close(token)
	}
	w.WriteHeader(http.StatusOK)
}

func formFromRequest(r *http.Request) metroline.Form {
	f := metroline.Form{Obs: r.PostFormValue("obs")}
	for _, raw := range r.PostForm["encaminhamentos"] {
		if id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && id > 0 {
			f.Selected = append(f.Selected, id)
		}
	}
	return f
}
