// internal/app/features/casos/etapa.go
package casos

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/suashub/suashub/internal/app/system/casesapi"
	"github.com/suashub/suashub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleEtapa handles POST /casos/{casoId}/etapa (coordinators). The move
// goes through the API so the same role check and validation apply.
func (h *Handler) HandleEtapa(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.loadCaso(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Formulário inválido.", caseURL(c.ID))
		return
	}
	etapa := strings.TrimSpace(r.PostFormValue("etapa"))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set etapa")
	defer cancel()

	err := h.API.ForRequest(r).SetEtapa(ctx, c.ID, etapa)
	var se *casesapi.StatusError
	switch {
	case err == nil:
	case errors.As(err, &se) && se.Code < http.StatusInternalServerError:
		h.ErrLog.LogBadRequest(w, r, "set etapa rejected", err, se.UserMessage(), caseURL(c.ID))
		return
	default:
		h.ErrLog.LogServerError(w, r, "set etapa failed", err, "Não foi possível mudar a etapa.", caseURL(c.ID))
		return
	}

	h.Log.Info("etapa changed from case page", zap.Int64("caso_id", c.ID), zap.String("etapa", etapa))
	redirect(w, r, caseURL(c.ID)+"?aberta="+url.QueryEscape(etapa))
}
