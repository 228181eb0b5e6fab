// internal/app/features/casos/types.go
package casos

import (
	"github.com/suashub/suashub/internal/app/system/metroline"
	"github.com/suashub/suashub/internal/app/system/paging"
	"github.com/suashub/suashub/internal/app/system/viewdata"
	"github.com/suashub/suashub/internal/domain/models"
)

type programaOption struct {
	Codigo   string
	Nome     string
	Selected bool
}

type listItem struct {
	ID           int64
	Nome         string
	Programa     string
	EtapaAtual   string
	Status       string
	AtualizadoEm string
}

// listData is the view model for the case list.
type listData struct {
	viewdata.BaseVM

	Q         string
	Programa  string
	Programas []programaOption
	Items     []listItem

	Page    paging.Page
	PrevURL string
	NextURL string
}

// newData is the view model for the "Novo caso" form.
type newData struct {
	viewdata.BaseVM

	Error       string
	Nome        string
	Programas   []programaOption
	Municipios  []models.Municipio
	MunicipioID int64
}

type atendimentoItem struct {
	ID       int64
	Tipo     string
	DataHora string
}

type encaminhamentoItem struct {
	ID     int64
	Label  string
	Status string
}

// showData is the view model for the case page.
type showData struct {
	viewdata.BaseVM

	Caso         models.Caso
	ProgramaNome string
	Municipio    string
	Tracker      viewdata.TrackerVM

	Atendimentos    []atendimentoItem
	Encaminhamentos []encaminhamentoItem
	Municipios      []models.Municipio
}

// resumoData is the view model for the simple summary page.
type resumoData struct {
	viewdata.BaseVM

	Caso         models.Caso
	ProgramaNome string
	View         metroline.SimpleView
}
