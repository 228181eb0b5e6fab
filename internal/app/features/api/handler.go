// internal/app/features/api/handler.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	atendimentostore "github.com/suashub/suashub/internal/app/store/atendimentos"
	casostore "github.com/suashub/suashub/internal/app/store/casos"
	encaminhamentostore "github.com/suashub/suashub/internal/app/store/encaminhamentos"
	registrostore "github.com/suashub/suashub/internal/app/store/registros"
	"github.com/suashub/suashub/internal/app/system/auditlog"
	"github.com/suashub/suashub/internal/app/system/catalog"
	"github.com/suashub/suashub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the JSON endpoints the progress tracker talks to.
// Error responses are short plain-text messages; the tracker shows them
// inline.
type Handler struct {
	Casos           *casostore.Store
	Registros       *registrostore.Store
	Encaminhamentos *encaminhamentostore.Store
	Atendimentos    *atendimentostore.Store
	Catalog         *catalog.Catalog
	Audit           *auditlog.Logger // nil disables auditing
	Log             *zap.Logger
}

func NewHandler(db *mongo.Database, cat *catalog.Catalog, logger *zap.Logger) *Handler {
	return &Handler{
		Casos:           casostore.New(db),
		Registros:       registrostore.New(db),
		Encaminhamentos: encaminhamentostore.New(db),
		Atendimentos:    atendimentostore.New(db),
		Catalog:         cat,
		Log:             logger,
	}
}

var errBadID = errors.New("invalid id")

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}

// loadCaso resolves {casoId} and writes 400/404/500 itself when it fails.
func (h *Handler) loadCaso(w http.ResponseWriter, r *http.Request) (models.Caso, catalog.Programa, bool) {
	id, err := parseID(chi.URLParam(r, "casoId"))
	if err != nil {
		http.Error(w, "Identificador de caso inválido.", http.StatusBadRequest)
		return models.Caso{}, catalog.Programa{}, false
	}
	return h.loadCasoByID(w, r, id)
}

func (h *Handler) loadCasoByID(w http.ResponseWriter, r *http.Request, id int64) (models.Caso, catalog.Programa, bool) {
	c, err := h.Casos.GetByID(r.Context(), id)
	if errors.Is(err, casostore.ErrNotFound) {
		http.Error(w, "Caso não encontrado.", http.StatusNotFound)
		return models.Caso{}, catalog.Programa{}, false
	}
	if err != nil {
		h.Log.Error("load caso failed", zap.Int64("caso_id", id), zap.Error(err))
		http.Error(w, "Erro ao carregar o caso.", http.StatusInternalServerError)
		return models.Caso{}, catalog.Programa{}, false
	}
	prog, ok := h.Catalog.Programa(c.Programa)
	if !ok {
		h.Log.Error("caso has unknown programa", zap.Int64("caso_id", id), zap.String("programa", c.Programa))
		http.Error(w, "Programa do caso não configurado.", http.StatusInternalServerError)
		return models.Caso{}, catalog.Programa{}, false
	}
	return c, prog, true
}

// rejectClosed writes 409 when c is closed: a closed case takes no new
// events and no stage changes.
func rejectClosed(w http.ResponseWriter, c models.Caso) bool {
	if c.Status != casostore.StatusEncerrado {
		return false
	}
	http.Error(w, "Caso encerrado: não aceita novos registros nem mudança de etapa.", http.StatusConflict)
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func unprocessable(w http.ResponseWriter, msg string) {
	http.Error(w, msg, http.StatusUnprocessableEntity)
}
