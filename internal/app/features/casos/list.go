// internal/app/features/casos/list.go
package casos

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	casostore "github.com/suashub/suashub/internal/app/store/casos"
	"github.com/suashub/suashub/internal/app/system/metroline"
	"github.com/suashub/suashub/internal/app/system/paging"
	"github.com/suashub/suashub/internal/app/system/timeouts"
	"github.com/suashub/suashub/internal/app/system/viewdata"
	"github.com/suashub/suashub/internal/domain/models"
	"go.uber.org/zap"
)

const maxNomeRune = 200

// ServeList handles GET /casos (?programa=, ?q=, ?start=).
// HTMX requests targeting "casos-table-wrap" get only the table.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := query.Search(r, "q")
	programa := query.Get(r, "programa")
	if _, ok := h.Catalog.Programa(programa); !ok {
		programa = ""
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list casos")
	defer cancel()

	start := paging.ParseStart(r)
	cs, err := h.Casos.List(ctx, casostore.ListFilter{
		Programa: programa,
		Search:   q,
		Skip:     paging.Skip(start),
		Limit:    paging.LimitPlusOne(),
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list casos failed", err, "Não foi possível carregar os casos.", "/")
		return
	}

	page := paging.Trim(&cs, start)

	items := make([]listItem, 0, len(cs))
	for _, c := range cs {
		etapa := c.EtapaAtual
		if p, ok := h.Catalog.Programa(c.Programa); ok {
			if d, ok := p.Etapa(c.EtapaAtual); ok {
				etapa = d.Nome
			}
		}
		items = append(items, listItem{
			ID:           c.ID,
			Nome:         c.Nome,
			Programa:     programaNome(h.Catalog, c.Programa),
			EtapaAtual:   etapa,
			Status:       c.Status,
			AtualizadoEm: metroline.FormatDateTime(c.UpdatedAt, h.Location),
		})
	}

	data := listData{
		BaseVM:    viewdata.NewBaseVM(r, "Casos", "/"),
		Q:         q,
		Programa:  programa,
		Programas: h.programaOptions(programa),
		Items:     items,
		Page:      page,
	}
	filters := url.Values{"q": {q}, "programa": {programa}}
	if page.HasPrev {
		data.PrevURL = paging.Link("/casos", filters, page.PrevStart)
	}
	if page.HasNext {
		data.NextURL = paging.Link("/casos", filters, page.NextStart)
	}

	if isHTMX(r) && r.Header.Get("HX-Target") == "casos-table-wrap" {
		templates.RenderSnippet(w, "casos_table", data)
		return
	}
	templates.Render(w, r, "casos_list", data)
}

// ServeNew handles GET /casos/novo.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "casos_new", newData{
		BaseVM:     viewdata.NewBaseVM(r, "Novo caso", "/casos"),
		Programas:  h.programaOptions(query.Get(r, "programa")),
		Municipios: h.municipios(r),
	})
}

// HandleCreate handles POST /casos. The case starts at the first stage of
// its programme.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Formulário inválido.", "/casos")
		return
	}
	nome := strings.Join(strings.Fields(r.PostFormValue("nome")), " ")
	programa := strings.TrimSpace(r.PostFormValue("programa"))
	munID, _ := strconv.ParseInt(r.PostFormValue("municipio_id"), 10, 64)

	renderWithError := func(msg string) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "casos_new", newData{
			BaseVM:      viewdata.NewBaseVM(r, "Novo caso", "/casos"),
			Error:       msg,
			Nome:        nome,
			Programas:   h.programaOptions(programa),
			Municipios:  h.municipios(r),
			MunicipioID: munID,
		})
	}

	if nome == "" {
		renderWithError("Informe o nome da pessoa ou família.")
		return
	}
	if utf8.RuneCountInString(nome) > maxNomeRune {
		renderWithError("O nome deve ter no máximo 200 caracteres.")
		return
	}
	prog, ok := h.Catalog.Programa(programa)
	if !ok {
		renderWithError("Selecione um programa.")
		return
	}
	if munID < 0 {
		munID = 0
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create caso")
	defer cancel()

	c, err := h.Casos.Create(ctx, models.Caso{
		Nome:        nome,
		Programa:    prog.Codigo,
		MunicipioID: munID,
		EtapaAtual:  prog.First(),
		Status:      casostore.StatusAtivo,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create caso failed", err, "Não foi possível criar o caso.", "/casos")
		return
	}
	h.Audit.CasoCriado(ctx, r, userID(r), c.ID, c.Programa, c.EtapaAtual)
	h.Log.Info("caso created", zap.Int64("caso_id", c.ID), zap.String("programa", c.Programa))

	redirect(w, r, caseURL(c.ID))
}

// HandleEncerrar handles POST /casos/{casoId}/encerrar (coordinators).
// A closed case reports every stage as done.
func (h *Handler) HandleEncerrar(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.loadCaso(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "encerrar caso")
	defer cancel()

	err := h.Casos.SetStatus(ctx, c.ID, casostore.StatusEncerrado)
	if errors.Is(err, casostore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Caso não encontrado.", "/casos")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "encerrar caso failed", err, "Não foi possível encerrar o caso.", caseURL(c.ID))
		return
	}
	h.Audit.CasoEncerrado(ctx, r, userID(r), c.ID)
	h.Log.Info("caso encerrado", zap.Int64("caso_id", c.ID))
	redirect(w, r, caseURL(c.ID))
}

func (h *Handler) programaOptions(selected string) []programaOption {
	out := make([]programaOption, 0, len(h.Catalog.Programas))
	for _, p := range h.Catalog.Programas {
		out = append(out, programaOption{Codigo: p.Codigo, Nome: p.Nome, Selected: p.Codigo == selected})
	}
	return out
}
