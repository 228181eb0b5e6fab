// internal/app/features/api/encaminhamentos.go
package api

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/suashub/suashub/internal/app/system/metroline"
	"github.com/suashub/suashub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ListEncaminhamentos handles GET /api/encaminhamentos/?caso_id={id}.
// Both referral shapes are returned; "tipo" carries the kind.
func (h *Handler) ListEncaminhamentos(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(query.Get(r, "caso_id"))
	if err != nil {
		http.Error(w, "Parâmetro caso_id obrigatório.", http.StatusBadRequest)
		return
	}
	if _, _, ok := h.loadCasoByID(w, r, id); !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list encaminhamentos")
	defer cancel()

	list, err := h.Encaminhamentos.ListByCaso(ctx, id)
	if err != nil {
		h.Log.Error("list encaminhamentos failed", zap.Int64("caso_id", id), zap.Error(err))
		http.Error(w, "Erro ao carregar encaminhamentos.", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, metroline.ReferralsFromModels(list))
}
