// internal/app/features/casos/dados.go
package casos

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	encaminhamentostore "github.com/suashub/suashub/internal/app/store/encaminhamentos"
	"github.com/suashub/suashub/internal/app/system/htmlsanitize"
	"github.com/suashub/suashub/internal/app/system/timeouts"
	"github.com/suashub/suashub/internal/domain/models"
	"go.uber.org/zap"
)

var tiposAtendimento = map[string]bool{
	"individual": true,
	"familiar":   true,
	"visita":     true,
}

// dateTimeLocal is the layout of <input type="datetime-local">.
const dateTimeLocal = "2006-01-02T15:04"

// HandleAtendimento handles POST /casos/{casoId}/atendimentos.
func (h *Handler) HandleAtendimento(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.loadCaso(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Formulário inválido.", caseURL(c.ID))
		return
	}
	tipo := strings.TrimSpace(r.PostFormValue("tipo"))
	if !tiposAtendimento[tipo] {
		h.ErrLog.LogBadRequest(w, r, "invalid atendimento tipo", errors.New(tipo), "Tipo de atendimento inválido.", caseURL(c.ID))
		return
	}
	a := models.Atendimento{
		CasoID:    c.ID,
		Tipo:      tipo,
		Descricao: htmlsanitize.StripTags(r.PostFormValue("descricao")),
	}
	if raw := strings.TrimSpace(r.PostFormValue("data_hora")); raw != "" {
		t, err := time.ParseInLocation(dateTimeLocal, raw, h.Location)
		if err != nil {
			h.ErrLog.LogBadRequest(w, r, "invalid atendimento data_hora", err, "Data do atendimento inválida.", caseURL(c.ID))
			return
		}
		a.DataHora = t.UTC()
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create atendimento")
	defer cancel()

	a, err := h.Atendimentos.Create(ctx, a)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create atendimento failed", err, "Não foi possível salvar o atendimento.", caseURL(c.ID))
		return
	}
	h.Log.Info("atendimento created", zap.Int64("caso_id", c.ID), zap.Int64("atendimento_id", a.ID))
	redirect(w, r, caseURL(c.ID))
}

// HandleEncaminhamento handles POST /casos/{casoId}/encaminhamentos.
func (h *Handler) HandleEncaminhamento(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.loadCaso(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Formulário inválido.", caseURL(c.ID))
		return
	}

	e := models.Encaminhamento{CasoID: c.ID, Tipo: strings.TrimSpace(r.PostFormValue("tipo"))}
	switch e.Tipo {
	case models.EncaminhamentoIntermunicipal:
		e.MunicipioOrigemID, _ = strconv.ParseInt(r.PostFormValue("municipio_origem_id"), 10, 64)
		e.MunicipioDestinoID, _ = strconv.ParseInt(r.PostFormValue("municipio_destino_id"), 10, 64)
		if e.MunicipioOrigemID <= 0 || e.MunicipioDestinoID <= 0 {
			h.ErrLog.LogBadRequest(w, r, "missing municipios", nil, "Informe os municípios de origem e destino.", caseURL(c.ID))
			return
		}
	case models.EncaminhamentoRedeLocal:
		e.Destino = strings.Join(strings.Fields(htmlsanitize.StripTags(r.PostFormValue("destino"))), " ")
		if e.Destino == "" {
			h.ErrLog.LogBadRequest(w, r, "missing destino", nil, "Informe o serviço de destino.", caseURL(c.ID))
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create encaminhamento")
	defer cancel()

	e, err := h.Encaminhamentos.Create(ctx, e)
	if errors.Is(err, encaminhamentostore.ErrInvalidTipo) {
		h.ErrLog.LogBadRequest(w, r, "invalid encaminhamento tipo", err, "Tipo de encaminhamento inválido.", caseURL(c.ID))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create encaminhamento failed", err, "Não foi possível salvar o encaminhamento.", caseURL(c.ID))
		return
	}
	h.Log.Info("encaminhamento created", zap.Int64("caso_id", c.ID), zap.Int64("encaminhamento_id", e.ID), zap.String("tipo", e.Tipo))
	redirect(w, r, caseURL(c.ID))
}
