// internal/app/system/csvutil/history.go
package csvutil

import (
	"encoding/csv"
	"io"
	"strings"
)

// HistoryHeader is the first line of a progress history export.
var HistoryHeader = []string{
	"ordem", "etapa", "etapa_nome", "data_hora", "responsavel", "obs", "atendimento_id", "encaminhamentos",
}

// HistoryRow is one progress event flattened for export.
type HistoryRow struct {
	Ordem           string
	Etapa           string
	EtapaNome       string
	DataHora        string
	Responsavel     string
	Obs             string
	AtendimentoID   string
	Encaminhamentos []string
}

func (r HistoryRow) record() []string {
	return []string{
		r.Ordem,
		r.Etapa,
		r.EtapaNome,
		r.DataHora,
		SafeCell(r.Responsavel),
		SafeCell(r.Obs),
		r.AtendimentoID,
		SafeCell(strings.Join(r.Encaminhamentos, "; ")),
	}
}

// WriteHistory writes the header and up to MaxRows rows. truncated reports
// whether rows were dropped.
func WriteHistory(w io.Writer, rows []HistoryRow) (truncated bool, err error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(HistoryHeader); err != nil {
		return false, err
	}
	if len(rows) > MaxRows {
		rows = rows[:MaxRows]
		truncated = true
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return truncated, err
		}
	}
	cw.Flush()
	return truncated, cw.Error()
}

// SafeCell neutralizes values a spreadsheet would evaluate as a formula.
func SafeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
