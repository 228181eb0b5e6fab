package resources_test

import (
	"html/template"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suashub/suashub/internal/app/resources"
	"github.com/suashub/suashub/internal/app/system/metroline"
	"github.com/suashub/suashub/internal/app/system/viewdata"
)

func renderTracker(t *testing.T, vm viewdata.TrackerVM) string {
	t.Helper()
	tmpl, err := template.ParseFS(resources.FS, "templates/metroline.gohtml")
	require.NoError(t, err)
	var b strings.Builder
	require.NoError(t, tmpl.ExecuteTemplate(&b, "metro_tracker", vm))
	return b.String()
}

func trackerWithEvent(expanded bool) viewdata.TrackerVM {
	row := metroline.DetailedRow{
		Row:       metroline.Row{Stage: metroline.Stage{Key: "PIA", Title: "Plano individual"}, Status: metroline.StatusCurrent},
		Ordem:     1,
		SLA:       "15 dias",
		Badge:     "Em andamento",
		Expanded:  expanded,
		LastEvent: &metroline.EventView{DataHora: "14/03/2025 10:05", Responsavel: "Rita", Obs: "visita domiciliar"},
	}
	return viewdata.TrackerVM{
		Base: "/casos/7",
		View: metroline.DetailedView{CasoID: 7, Rows: []metroline.DetailedRow{row}},
	}
}

func TestMetroTracker_CollapsedRowHidesLastEvent(t *testing.T) {
	out := renderTracker(t, trackerWithEvent(false))

	assert.Contains(t, out, "Plano individual")
	assert.Contains(t, out, "15 dias")
	assert.Contains(t, out, "Em andamento")
	assert.NotContains(t, out, "last-event")
	assert.NotContains(t, out, "visita domiciliar")
}

func TestMetroTracker_ExpandedRowShowsLastEvent(t *testing.T) {
	out := renderTracker(t, trackerWithEvent(true))

	assert.Contains(t, out, "last-event")
	assert.Contains(t, out, "Rita")
	assert.Contains(t, out, "visita domiciliar")
}
