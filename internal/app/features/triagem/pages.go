// internal/app/features/triagem/pages.go
package triagem

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/suashub/suashub/internal/app/system/catalog"
	"github.com/suashub/suashub/internal/app/system/htmlsanitize"
	"github.com/suashub/suashub/internal/app/system/metroline"
	"github.com/suashub/suashub/internal/app/system/viewdata"
	"github.com/suashub/suashub/internal/domain/models"
	"go.uber.org/zap"
)

type programaOption struct {
	Codigo string
	Nome   string
}

type draftItem struct {
	ID       string
	Nome     string
	Programa string
	Etapa    string
	Eventos  int
	CriadoEm string
}

type listData struct {
	viewdata.BaseVM

	Error     string
	Programas []programaOption
	Items     []draftItem
}

type showData struct {
	viewdata.BaseVM

	Draft        Draft
	ProgramaNome string
	Tracker      viewdata.TrackerVM
	Referrals    []string
	Municipios   []models.Municipio
}

// ServeList handles GET /triagem.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, "")
}

func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, errMsg string) {
	data := listData{BaseVM: viewdata.NewBaseVM(r, "Triagem", "/"), Error: errMsg}
	for _, p := range h.Catalog.Programas {
		data.Programas = append(data.Programas, programaOption{Codigo: p.Codigo, Nome: p.Nome})
	}
	for _, d := range h.Drafts.List(currentUser(r).ID) {
		item := draftItem{
			ID:       d.ID,
			Nome:     d.Nome,
			Programa: d.Programa,
			Etapa:    d.EtapaAtual,
			CriadoEm: metroline.FormatDateTime(d.CreatedAt, h.Location),
		}
		if p, ok := h.Catalog.Programa(d.Programa); ok {
			item.Programa = p.Nome
			if def, ok := p.Etapa(d.EtapaAtual); ok {
				item.Etapa = def.Nome
			}
		}
		for _, evs := range d.Events {
			item.Eventos += len(evs)
		}
		data.Items = append(data.Items, item)
	}
	templates.Render(w, r, "triagem_list", data)
}

// HandleCreate handles POST /triagem.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Formulário inválido.", "/triagem")
		return
	}
	nome := strings.Join(strings.Fields(r.PostFormValue("nome")), " ")
	prog, ok := h.Catalog.Programa(r.PostFormValue("programa"))
	switch {
	case nome == "":
		w.WriteHeader(http.StatusUnprocessableEntity)
		h.renderList(w, r, "Informe o nome.")
		return
	case utf8.RuneCountInString(nome) > 200:
		w.WriteHeader(http.StatusUnprocessableEntity)
		h.renderList(w, r, "O nome deve ter no máximo 200 caracteres.")
		return
	case !ok:
		w.WriteHeader(http.StatusUnprocessableEntity)
		h.renderList(w, r, "Selecione um programa.")
		return
	}

	d, err := h.Drafts.Create(currentUser(r).ID, nome, prog.Codigo, prog.First())
	if errors.Is(err, ErrTooManyDrafts) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		h.renderList(w, r, "Limite de rascunhos atingido. Converta ou descarte algum antes de criar outro.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create draft failed", err, "Não foi possível criar o rascunho.", "/triagem")
		return
	}
	h.Log.Info("triagem draft created", zap.String("draft_id", d.ID), zap.String("programa", d.Programa))
	redirect(w, r, draftURL(d.ID))
}

// ServeShow handles GET /triagem/{draftId}.
func (h *Handler) ServeShow(w http.ResponseWriter, r *http.Request) {
	d, prog, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	municipios := h.municipios(r)
	data := showData{
		BaseVM:       viewdata.NewBaseVM(r, "Triagem · "+d.Nome, "/triagem"),
		Draft:        d,
		ProgramaNome: prog.Nome,
		Tracker:      h.tracker(r, d, prog, municipios, query.Get(r, "aberta"), query.Get(r, "historico") == "1"),
		Municipios:   municipios,
	}
	for _, ref := range d.Referrals {
		data.Referrals = append(data.Referrals, metroline.Label(ref, municipios))
	}
	templates.Render(w, r, "triagem_show", data)
}

// ServeLinha handles GET /triagem/{draftId}/linha.
func (h *Handler) ServeLinha(w http.ResponseWriter, r *http.Request) {
	d, prog, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	templates.RenderSnippet(w, "metro_tracker", h.tracker(r, d, prog, h.municipios(r), query.Get(r, "aberta"), query.Get(r, "historico") == "1"))
}

func (h *Handler) tracker(r *http.Request, d Draft, prog catalog.Programa, municipios []models.Municipio, expanded string, showHistory bool) viewdata.TrackerVM {
	vm := viewdata.TrackerVM{
		Base:       draftURL(d.ID),
		CanAdvance: true,
		Help:       prog.HelpMap(),
		View: *metroline.Build(metroline.DetailedInput{
			Stages:        metroline.GroupEvents(prog.StageData(), d.Events),
			Current:       metroline.AtKey(d.EtapaAtual),
			LiveReferrals: metroline.IndexReferrals(d.Referrals),
			Municipios:    municipios,
			HistoryLimit:  h.HistoryLimit,
			Location:      h.Location,
			Expanded:      expanded,
			ShowHistory:   showHistory,
		}).Detailed,
	}
	vm.CSRFField, vm.CSRFToken = viewdata.CSRF(r)
	return vm
}

// HandleEncaminhamento handles POST /triagem/{draftId}/encaminhamentos and
// adds a local referral.
func (h *Handler) HandleEncaminhamento(w http.ResponseWriter, r *http.Request) {
	d, _, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Formulário inválido.", draftURL(d.ID))
		return
	}

	var ref metroline.Referral
	switch r.PostFormValue("tipo") {
	case models.EncaminhamentoIntermunicipal:
		ref.Kind = metroline.KindInterMunicipal
		ref.OrigemID, _ = strconv.ParseInt(r.PostFormValue("municipio_origem_id"), 10, 64)
		ref.DestinoID, _ = strconv.ParseInt(r.PostFormValue("municipio_destino_id"), 10, 64)
		if ref.OrigemID <= 0 || ref.DestinoID <= 0 {
			h.ErrLog.LogBadRequest(w, r, "missing municipios", nil, "Informe os municípios de origem e destino.", draftURL(d.ID))
			return
		}
	case models.EncaminhamentoRedeLocal:
		ref.Kind = metroline.KindLocalNetwork
		ref.Destino = strings.Join(strings.Fields(htmlsanitize.StripTags(r.PostFormValue("destino"))), " ")
		if ref.Destino == "" {
			h.ErrLog.LogBadRequest(w, r, "missing destino", nil, "Informe o serviço de destino.", draftURL(d.ID))
			return
		}
	default:
		h.ErrLog.LogBadRequest(w, r, "invalid encaminhamento tipo", nil, "Tipo de encaminhamento inválido.", draftURL(d.ID))
		return
	}

	if _, err := h.Drafts.AddReferral(d.ID, currentUser(r).ID, ref); err != nil {
		h.ErrLog.NotFound(w, r, "Rascunho não encontrado.", "/triagem")
		return
	}
	redirect(w, r, draftURL(d.ID))
}

// HandleEtapa handles POST /triagem/{draftId}/etapa.
func (h *Handler) HandleEtapa(w http.ResponseWriter, r *http.Request) {
	d, prog, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Formulário inválido.", draftURL(d.ID))
		return
	}
	etapa := r.PostFormValue("etapa")
	if _, ok := prog.Etapa(etapa); !ok {
		h.ErrLog.LogBadRequest(w, r, "unknown etapa", ErrUnknownEtapa, "Etapa desconhecida.", draftURL(d.ID))
		return
	}
	if err := h.Drafts.SetEtapa(d.ID, currentUser(r).ID, etapa); err != nil {
		h.ErrLog.NotFound(w, r, "Rascunho não encontrado.", "/triagem")
		return
	}
	redirect(w, r, draftURL(d.ID)+"?aberta="+url.QueryEscape(etapa))
}

// HandleDescartar handles POST /triagem/{draftId}/descartar.
func (h *Handler) HandleDescartar(w http.ResponseWriter, r *http.Request) {
	d, _, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	_ = h.Drafts.Delete(d.ID, currentUser(r).ID)
	h.Log.Info("triagem draft discarded", zap.String("draft_id", d.ID))
	redirect(w, r, "/triagem")
}
