// internal/app/features/triagem/handler.go
package triagem

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/suashub/suashub/internal/app/features/errors"
	municipiostore "github.com/suashub/suashub/internal/app/store/municipios"
	"github.com/suashub/suashub/internal/app/system/auditlog"
	"github.com/suashub/suashub/internal/app/system/auth"
	"github.com/suashub/suashub/internal/app/system/catalog"
	"github.com/suashub/suashub/internal/app/system/metroline"
	"github.com/suashub/suashub/internal/app/system/modals"
	"github.com/suashub/suashub/internal/app/system/timeouts"
	"github.com/suashub/suashub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves intake drafts. Drafts live in memory and register events
// through the local submit handler; nothing reaches the database until a
// draft is converted into a case.
type Handler struct {
	DB           *mongo.Database
	Drafts       *Drafts
	Municipios   *municipiostore.Store
	Catalog      *catalog.Catalog
	Modals       *modals.Registry
	Location     *time.Location
	HistoryLimit int
	Audit        *auditlog.Logger // nil disables auditing

	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, cat *catalog.Catalog, drafts *Drafts, reg *modals.Registry, loc *time.Location, historyLimit int, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.Local
	}
	if historyLimit <= 0 {
		historyLimit = metroline.DefaultHistoryLimit
	}
	return &Handler{
		DB:           db,
		Drafts:       drafts,
		Municipios:   municipiostore.New(db),
		Catalog:      cat,
		Modals:       reg,
		Location:     loc,
		HistoryLimit: historyLimit,
		ErrLog:       errLog,
		Log:          logger,
	}
}

func draftURL(id string) string { return "/triagem/" + id }

func modalScope(id string) string { return "triagem:" + id }

func currentUser(r *http.Request) auth.SessionUser {
	if u, ok := auth.CurrentUser(r); ok {
		return *u
	}
	return auth.SessionUser{}
}

func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// loadDraft resolves {draftId} for the signed-in user. On failure the
// response has already been written.
func (h *Handler) loadDraft(w http.ResponseWriter, r *http.Request) (Draft, catalog.Programa, bool) {
	d, err := h.Drafts.Get(chi.URLParam(r, "draftId"), currentUser(r).ID)
	if errors.Is(err, ErrDraftNotFound) {
		h.ErrLog.NotFound(w, r, "Rascunho não encontrado.", "/triagem")
		return Draft{}, catalog.Programa{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load draft failed", err, "Não foi possível abrir o rascunho.", "/triagem")
		return Draft{}, catalog.Programa{}, false
	}
	prog, ok := h.Catalog.Programa(d.Programa)
	if !ok {
		h.ErrLog.LogServerError(w, r, "draft has unknown programa", errors.New(d.Programa), "Programa não configurado.", "/triagem")
		return Draft{}, catalog.Programa{}, false
	}
	return d, prog, true
}

func (h *Handler) municipios(r *http.Request) []models.Municipio {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list municipios")
	defer cancel()
	ms, err := h.Municipios.List(ctx)
	if err != nil || len(ms) == 0 {
		return h.Catalog.Municipios
	}
	return ms
}
