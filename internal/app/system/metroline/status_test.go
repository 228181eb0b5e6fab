package metroline_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/suashub/suashub/internal/app/system/metroline"
)

func TestDerive_ExampleScenarios(t *testing.T) {
	stages := metroline.Normalize(titles("A", "B", "C"))
	require.Equal(t,
		[]metroline.Status{metroline.StatusDone, metroline.StatusCurrent, metroline.StatusNotStarted},
		metroline.Derive(stages, metroline.AtKey("B")))

	stages = metroline.Normalize([]any{
		map[string]any{"codigo": "X1", "nome": "Triagem"},
		map[string]any{"codigo": "X2", "nome": "Atendimento"},
	})
	require.Equal(t, "Triagem", stages[0].Title)
	require.Equal(t, "Atendimento", stages[1].Title)
	require.Equal(t,
		[]metroline.Status{metroline.StatusDone, metroline.StatusCurrent},
		metroline.Derive(stages, metroline.AtIndex(1)))
}

func TestDerive_ExactlyOneCurrent(t *testing.T) {
	for n := 1; n <= 6; n++ {
		names := make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("Etapa %d", i+1)
		}
		stages := metroline.Normalize(titles(names...))

		pointers := []metroline.Pointer{}
		for i := 0; i < n; i++ {
			pointers = append(pointers,
				metroline.AtIndex(i),
				metroline.AtKey(stages[i].Key),
				metroline.AtKey(stages[i].Title))
		}

		for _, p := range pointers {
			got := metroline.Derive(stages, p)
			cur := metroline.Resolve(stages, p)
			current := 0
			for i, st := range got {
				switch {
				case i < cur:
					require.Equal(t, metroline.StatusDone, st, "n=%d pointer=%s index=%d", n, p, i)
				case i == cur:
					require.Equal(t, metroline.StatusCurrent, st)
					current++
				default:
					require.Equal(t, metroline.StatusNotStarted, st)
				}
			}
			require.Equal(t, 1, current, "n=%d pointer=%s", n, p)
		}
	}
}

func TestDerive_FallsBackToFirstStage(t *testing.T) {
	stages := metroline.Normalize(titles("A", "B", "C"))
	want := []metroline.Status{metroline.StatusCurrent, metroline.StatusNotStarted, metroline.StatusNotStarted}

	require.Equal(t, want, metroline.Derive(stages, metroline.AtKey("nao-existe")))
	require.Equal(t, want, metroline.Derive(stages, metroline.AtKey("")))
	require.Equal(t, want, metroline.Derive(stages, metroline.AtIndex(7)))
	require.Equal(t, want, metroline.Derive(stages, metroline.AtIndex(-1)))
	require.Equal(t, want, metroline.Derive(stages, metroline.Pointer{}))
}

func TestDerive_FirstMatchWins(t *testing.T) {
	stages := metroline.Normalize([]any{
		map[string]any{"codigo": "a", "nome": "Visita"},
		map[string]any{"codigo": "b", "nome": "Retorno"},
		map[string]any{"codigo": "c", "nome": "Visita"},
	})
	require.Equal(t, 0, metroline.Resolve(stages, metroline.AtKey("Visita")))
	require.Equal(t, 2, metroline.Resolve(stages, metroline.AtKey("c")))
}

func TestDerive_Repeatable(t *testing.T) {
	a := metroline.Normalize(titles("A", "B", "C"))
	b := metroline.Normalize(titles("B", "C"))
	p := metroline.AtKey("C")

	first := metroline.Derive(a, p)
	require.Empty(t, metroline.Derive(nil, p))
	require.Equal(t, []metroline.Status{metroline.StatusDone, metroline.StatusCurrent}, metroline.Derive(b, p))
	require.Equal(t, first, metroline.Derive(a, p))
}

func TestParsePointer(t *testing.T) {
	tests := []struct {
		raw   string
		isKey bool
		str   string
	}{
		{"2", false, "2"},
		{" 10 ", false, "10"},
		{"ATENDIMENTO", true, "ATENDIMENTO"},
		{"-1", true, "-1"},
		{"", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			p := metroline.ParsePointer(tt.raw)
			require.Equal(t, tt.isKey, p.IsKey())
			require.Equal(t, tt.str, p.String())
		})
	}
}

func TestParseStatus(t *testing.T) {
	for raw, want := range map[string]metroline.Status{
		"done":         metroline.StatusDone,
		"Concluida":    metroline.StatusDone,
		"em_andamento": metroline.StatusCurrent,
		"current":      metroline.StatusCurrent,
		"pendente":     metroline.StatusNotStarted,
		"not-started":  metroline.StatusNotStarted,
	} {
		got, ok := metroline.ParseStatus(raw)
		require.True(t, ok, raw)
		require.Equal(t, want, got, raw)
	}
	_, ok := metroline.ParseStatus("")
	require.False(t, ok)
}
