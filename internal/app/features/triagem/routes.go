// internal/app/features/triagem/routes.go
package triagem

import (
	"github.com/go-chi/chi/v5"
	"github.com/suashub/suashub/internal/app/system/auth"
)

// Routes mounts the intake drafts under /triagem.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)

	r.Route("/{draftId}", func(dr chi.Router) {
		dr.Get("/", h.ServeShow)
		dr.Get("/linha", h.ServeLinha)
		dr.Post("/encaminhamentos", h.HandleEncaminhamento)
		dr.Post("/etapa", h.HandleEtapa)

		dr.Get("/registrar", h.ServeRegistrar)
		dr.Post("/registrar", h.HandleRegistrar)
		dr.Post("/registrar/fechar", h.HandleFechar)

		dr.Post("/converter", h.HandleConverter)
		dr.Post("/descartar", h.HandleDescartar)
	})

	return r
}
