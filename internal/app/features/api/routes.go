// internal/app/features/api/routes.go
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/suashub/suashub/internal/app/system/auth"
	"github.com/suashub/suashub/internal/domain/models"
)

// Routes mounts under /api.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/encaminhamentos/", h.ListEncaminhamentos)

	r.Route("/casos/{casoId}/linha-metro", func(cr chi.Router) {
		cr.Get("/", h.LinhaMetro)
		cr.Post("/registrar", h.Registrar)
		cr.With(sm.RequireRole(models.RoleCoordenador, models.RoleAdmin)).Post("/etapa", h.SetEtapa)
	})

	return r
}
