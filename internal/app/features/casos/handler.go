// internal/app/features/casos/handler.go
package casos

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/suashub/suashub/internal/app/features/errors"
	atendimentostore "github.com/suashub/suashub/internal/app/store/atendimentos"
	casostore "github.com/suashub/suashub/internal/app/store/casos"
	encaminhamentostore "github.com/suashub/suashub/internal/app/store/encaminhamentos"
	municipiostore "github.com/suashub/suashub/internal/app/store/municipios"
	registrostore "github.com/suashub/suashub/internal/app/store/registros"
	"github.com/suashub/suashub/internal/app/system/auditlog"
	"github.com/suashub/suashub/internal/app/system/auth"
	"github.com/suashub/suashub/internal/app/system/casesapi"
	"github.com/suashub/suashub/internal/app/system/catalog"
	"github.com/suashub/suashub/internal/app/system/metroline"
	"github.com/suashub/suashub/internal/app/system/modals"
	"github.com/suashub/suashub/internal/app/system/timeouts"
	"github.com/suashub/suashub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the case pages. Tracker data and registrations go through
// the JSON API (API) so the pages see exactly what the backend contract
// returns; plain case data is read from the stores.
type Handler struct {
	Casos           *casostore.Store
	Registros       *registrostore.Store
	Atendimentos    *atendimentostore.Store
	Encaminhamentos *encaminhamentostore.Store
	Municipios      *municipiostore.Store

	Catalog      *catalog.Catalog
	API          *casesapi.Client
	Modals       *modals.Registry
	Location     *time.Location
	HistoryLimit int
	Audit        *auditlog.Logger

	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

// Options carries the per-deployment settings of the case pages.
type Options struct {
	Location     *time.Location
	HistoryLimit int
	Audit        *auditlog.Logger // nil disables auditing
}

func NewHandler(db *mongo.Database, cat *catalog.Catalog, api *casesapi.Client, reg *modals.Registry, opts Options, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = metroline.DefaultHistoryLimit
	}
	return &Handler{
		Casos:           casostore.New(db),
		Registros:       registrostore.New(db),
		Atendimentos:    atendimentostore.New(db),
		Encaminhamentos: encaminhamentostore.New(db),
		Municipios:      municipiostore.New(db),
		Catalog:         cat,
		API:             api,
		Modals:          reg,
		Location:        loc,
		HistoryLimit:    limit,
		Audit:           opts.Audit,
		ErrLog:          errLog,
		Log:             logger,
	}
}

func caseURL(id int64) string {
	return "/casos/" + strconv.FormatInt(id, 10)
}

func modalScope(id int64) string {
	return "caso:" + strconv.FormatInt(id, 10)
}

func userID(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.ID
	}
	return ""
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") != ""
}

// redirect sends the browser to url; htmx requests get HX-Redirect.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// loadCaso resolves {casoId} and its programme. On failure the response has
// already been written.
func (h *Handler) loadCaso(w http.ResponseWriter, r *http.Request) (models.Caso, catalog.Programa, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "casoId"), 10, 64)
	if err != nil || id <= 0 {
		h.ErrLog.NotFound(w, r, "Caso não encontrado.", "/casos")
		return models.Caso{}, catalog.Programa{}, false
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load caso")
	defer cancel()

	c, err := h.Casos.GetByID(ctx, id)
	if errors.Is(err, casostore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Caso não encontrado.", "/casos")
		return models.Caso{}, catalog.Programa{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load caso failed", err, "Não foi possível carregar o caso.", "/casos")
		return models.Caso{}, catalog.Programa{}, false
	}
	prog, ok := h.Catalog.Programa(c.Programa)
	if !ok {
		h.ErrLog.LogServerError(w, r, "caso has unknown programa", errors.New(c.Programa), "Programa do caso não configurado.", "/casos")
		return models.Caso{}, catalog.Programa{}, false
	}
	return c, prog, true
}

// municipios returns the stored municipality list, falling back to the
// catalogue when the collection cannot be read.
func (h *Handler) municipios(r *http.Request) []models.Municipio {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list municipios")
	defer cancel()
	ms, err := h.Municipios.List(ctx)
	if err != nil || len(ms) == 0 {
		if err != nil {
			h.Log.Warn("list municipios failed, using catalogue", zap.Error(err))
		}
		return h.Catalog.Municipios
	}
	return ms
}

func programaNome(cat *catalog.Catalog, code string) string {
	if p, ok := cat.Programa(code); ok {
		return p.Nome
	}
	return code
}
