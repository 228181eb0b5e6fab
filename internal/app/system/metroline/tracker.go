package metroline

import (
	"strconv"
	"time"

	"github.com/suashub/suashub/internal/domain/models"
)

// DefaultHistoryLimit caps the expanded history list.
const DefaultHistoryLimit = 5

// Mode selects the renderer.
type Mode string

const (
	ModeSimple   Mode = "simple"
	ModeDetailed Mode = "detailed"
)

// Input is either a SimpleInput or a DetailedInput.
type Input interface {
	Mode() Mode
	isInput()
}

// SimpleInput feeds the presentational tracker.
type SimpleInput struct {
	Stages   []any
	Current  Pointer
	NextStep string // optional banner text
}

func (SimpleInput) Mode() Mode { return ModeSimple }
func (SimpleInput) isInput()   {}

// DetailedInput feeds the tracker that shows history and allows
// registration.
type DetailedInput struct {
	CasoID        int64
	Stages        []StageData
	Current       Pointer
	LiveReferrals map[int64]Referral
	Municipios    []models.Municipio
	HistoryLimit  int
	Location      *time.Location

	// Interaction state owned by one tracker instance.
	Expanded    string // key of the expanded stage, empty when all collapsed
	ShowHistory bool
}

func (DetailedInput) Mode() Mode { return ModeDetailed }
func (DetailedInput) isInput()   {}

// Row is one stage line of the tracker.
type Row struct {
	Index     int
	Stage     Stage
	Status    Status
	Dot       string // css modifier for the connector dot
	Connector bool   // false on the last row
}

// SimpleView is the render model for ModeSimple.
type SimpleView struct {
	Rows         []Row
	CurrentIndex int
	NextStep     string
}

// EventView is an event ready for display.
type EventView struct {
	ID            int64
	Responsavel   string
	DataHora      string
	Obs           string
	AtendimentoID string
	Referrals     []string
}

// DetailedRow adds the detailed-mode fields to a Row.
type DetailedRow struct {
	Row
	Ordem        int
	SLA          string
	Badge        string
	Expanded     bool
	ShowHistory  bool
	LastEvent    *EventView
	History      []EventView
	HistoryTotal int
	Referrals    []string
}

// DetailedView is the render model for ModeDetailed.
type DetailedView struct {
	CasoID       int64
	Rows         []DetailedRow
	CurrentIndex int
}

// View is the result of Build; exactly one of Simple and Detailed is set.
type View struct {
	Mode     Mode
	Simple   *SimpleView
	Detailed *DetailedView
}

// Build dispatches on the input variant.
func Build(in Input) View {
	switch v := in.(type) {
	case SimpleInput:
		sv := BuildSimple(v)
		return View{Mode: ModeSimple, Simple: &sv}
	case *SimpleInput:
		sv := BuildSimple(*v)
		return View{Mode: ModeSimple, Simple: &sv}
	case DetailedInput:
		dv := BuildDetailed(v)
		return View{Mode: ModeDetailed, Detailed: &dv}
	case *DetailedInput:
		dv := BuildDetailed(*v)
		return View{Mode: ModeDetailed, Detailed: &dv}
	}
	return View{}
}

// BuildSimple derives the presentational rows.
func BuildSimple(in SimpleInput) SimpleView {
	stages := Normalize(in.Stages)
	statuses := Derive(stages, in.Current)
	return SimpleView{
		Rows:         rows(stages, statuses),
		CurrentIndex: Resolve(stages, in.Current),
		NextStep:     in.NextStep,
	}
}

// BuildDetailed derives the detailed rows. A stage carrying its own status
// keeps it; the others are derived from the pointer.
func BuildDetailed(in DetailedInput) DetailedView {
	stages := NormalizeStages(in.Stages)
	statuses := Derive(stages, in.Current)
	for i, sd := range in.Stages {
		if st, ok := ParseStatus(sd.Status); ok {
			statuses[i] = st
		}
	}

	limit := in.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	base := rows(stages, statuses)
	out := make([]DetailedRow, len(base))
	for i, r := range base {
		sd := in.Stages[i]
		dr := DetailedRow{
			Row:      r,
			Ordem:    sd.Ordem,
			SLA:      slaLabel(sd.SLADias),
			Badge:    r.Status.Label(),
			Expanded: in.Expanded != "" && in.Expanded == r.Stage.Key,
		}
		if dr.Ordem == 0 {
			dr.Ordem = i + 1
		}

		history := append([]Event(nil), sd.Registros...)
		SortNewestFirst(history)
		last := sd.UltimoRegistro
		if last == nil && len(history) > 0 {
			last = &history[0]
		}
		if last != nil {
			ev := eventView(*last, in)
			dr.LastEvent = &ev
		}

		if dr.Expanded {
			dr.ShowHistory = in.ShowHistory
			dr.HistoryTotal = len(history)
			if dr.ShowHistory {
				n := min(len(history), limit)
				dr.History = make([]EventView, 0, n)
				for _, ev := range history[:n] {
					dr.History = append(dr.History, eventView(ev, in))
				}
			}
			dr.Referrals = Labels(stageReferrals(history, last), in.LiveReferrals, in.Municipios)
		}
		out[i] = dr
	}

	return DetailedView{
		CasoID:       in.CasoID,
		Rows:         out,
		CurrentIndex: Resolve(stages, in.Current),
	}
}

func rows(stages []Stage, statuses []Status) []Row {
	out := make([]Row, len(stages))
	for i, s := range stages {
		out[i] = Row{
			Index:     i,
			Stage:     s,
			Status:    statuses[i],
			Dot:       dotClass(statuses[i]),
			Connector: i < len(stages)-1,
		}
	}
	return out
}

func dotClass(s Status) string {
	switch s {
	case StatusDone:
		return "dot-done"
	case StatusCurrent:
		return "dot-current"
	default:
		return "dot-idle"
	}
}

func slaLabel(days *int) string {
	if days == nil {
		return ""
	}
	if *days == 1 {
		return "SLA 1 dia"
	}
	return "SLA " + strconv.Itoa(*days) + " dias"
}

func eventView(ev Event, in DetailedInput) EventView {
	v := EventView{
		ID:          ev.ID,
		Responsavel: ev.Responsavel,
		DataHora:    FormatDateTime(ev.DataHora, in.Location),
		Obs:         ev.Obs,
		Referrals:   Labels(ev.Referrals, in.LiveReferrals, in.Municipios),
	}
	if v.Responsavel == "" {
		v.Responsavel = Placeholder
	}
	if ev.AtendimentoID != nil {
		v.AtendimentoID = strconv.FormatInt(*ev.AtendimentoID, 10)
	}
	return v
}

// stageReferrals collects the distinct referrals linked anywhere in a
// stage's history, in first-seen order.
func stageReferrals(history []Event, last *Event) []Referral {
	seen := map[int64]bool{}
	var out []Referral
	add := func(evs ...Event) {
		for _, ev := range evs {
			for _, r := range ev.Referrals {
				if seen[r.ID] {
					continue
				}
				seen[r.ID] = true
				out = append(out, r)
			}
		}
	}
	if last != nil {
		add(*last)
	}
	add(history...)
	return out
}
