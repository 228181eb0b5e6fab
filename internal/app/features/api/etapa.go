// internal/app/features/api/etapa.go
package api

import (
	"encoding/json"
	"net/http"

	"github.com/suashub/suashub/internal/app/system/auth"
	"github.com/suashub/suashub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type etapaRequest struct {
	Etapa string `json:"etapa"`
}

type etapaResponse struct {
	CasoID     int64  `json:"caso_id"`
	EtapaAtual string `json:"etapa_atual"`
}

// SetEtapa handles POST /api/casos/{casoId}/linha-metro/etapa.
// Moves the current-stage pointer forward or back; coordinators only.
func (h *Handler) SetEtapa(w http.ResponseWriter, r *http.Request) {
	c, prog, ok := h.loadCaso(w, r)
	if !ok || rejectClosed(w, c) {
		return
	}

	var req etapaRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "Corpo da requisição inválido.", http.StatusBadRequest)
		return
	}
	if _, ok := prog.Etapa(req.Etapa); !ok {
		unprocessable(w, "Etapa desconhecida para este caso.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set etapa atual")
	defer cancel()

	if err := h.Casos.SetEtapaAtual(ctx, c.ID, req.Etapa); err != nil {
		h.Log.Error("set etapa atual failed", zap.Int64("caso_id", c.ID), zap.Error(err))
		http.Error(w, "Erro ao atualizar a etapa.", http.StatusInternalServerError)
		return
	}

	by, actorID := "", ""
	if u, ok := auth.CurrentUser(r); ok {
		by, actorID = u.LoginID, u.ID
	}
	h.Audit.EtapaAlterada(ctx, r, actorID, c.ID, c.EtapaAtual, req.Etapa)
	h.Log.Info("etapa atual changed",
		zap.Int64("caso_id", c.ID),
		zap.String("from", c.EtapaAtual),
		zap.String("to", req.Etapa),
		zap.String("by", by))

	writeJSON(w, http.StatusOK, etapaResponse{CasoID: c.ID, EtapaAtual: req.Etapa})
}
