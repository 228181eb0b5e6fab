// internal/app/features/casos/resumo.go
package casos

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	casostore "github.com/suashub/suashub/internal/app/store/casos"
	"github.com/suashub/suashub/internal/app/system/catalog"
	"github.com/suashub/suashub/internal/app/system/metroline"
	"github.com/suashub/suashub/internal/app/system/viewdata"
	"github.com/suashub/suashub/internal/domain/models"
)

// ServeResumo handles GET /casos/{casoId}/resumo: the read-only tracker with
// a next-step banner.
func (h *Handler) ServeResumo(w http.ResponseWriter, r *http.Request) {
	c, prog, ok := h.loadCaso(w, r)
	if !ok {
		return
	}
	templates.Render(w, r, "casos_resumo", resumoData{
		BaseVM:       viewdata.NewBaseVM(r, "Resumo · "+c.Nome, caseURL(c.ID)),
		Caso:         c,
		ProgramaNome: prog.Nome,
		View:         resumoView(c, prog),
	})
}

func resumoView(c models.Caso, prog catalog.Programa) metroline.SimpleView {
	stages := make([]any, len(prog.Etapas))
	for i, d := range prog.Etapas {
		stages[i] = d
	}
	in := metroline.SimpleInput{Stages: stages, Current: metroline.AtKey(c.EtapaAtual)}
	in.NextStep = nextStep(c, metroline.Normalize(stages), in.Current)
	return *metroline.Build(in).Simple
}

// nextStep is the banner text: the following stage's title, or a closing
// note on the last stage.
func nextStep(c models.Caso, stages []metroline.Stage, cur metroline.Pointer) string {
	if c.Status == casostore.StatusEncerrado {
		return "Caso encerrado."
	}
	if len(stages) == 0 {
		return ""
	}
	i := metroline.Resolve(stages, cur)
	if i+1 < len(stages) {
		return "Próxima etapa: " + stages[i+1].Title
	}
	return "Última etapa do fluxo."
}
