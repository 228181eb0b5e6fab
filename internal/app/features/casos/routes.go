// internal/app/features/casos/routes.go
package casos

import (
	"github.com/go-chi/chi/v5"
	"github.com/suashub/suashub/internal/app/system/auth"
	"github.com/suashub/suashub/internal/domain/models"
)

// Routes mounts the case pages under /casos.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/novo", h.ServeNew)
	r.Post("/", h.HandleCreate)

	r.Route("/{casoId}", func(cr chi.Router) {
		cr.Get("/", h.ServeShow)
		cr.Get("/linha", h.ServeLinha)
		cr.Get("/resumo", h.ServeResumo)
		cr.Get("/historico.csv", h.ServeHistoricoCSV)

		// registration modal (htmx)
		cr.Get("/registrar", h.ServeRegistrar)
		cr.Post("/registrar", h.HandleRegistrar)
		cr.Post("/registrar/fechar", h.HandleFechar)

		cr.Post("/atendimentos", h.HandleAtendimento)
		cr.Post("/encaminhamentos", h.HandleEncaminhamento)

		cr.Group(func(pr chi.Router) {
			pr.Use(sm.RequireRole(models.RoleCoordenador, models.RoleAdmin))
			pr.Post("/etapa", h.HandleEtapa)
			pr.Post("/encerrar", h.HandleEncerrar)
		})
	})

	return r
}
