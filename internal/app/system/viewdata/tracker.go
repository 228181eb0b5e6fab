package viewdata

import (
	"html/template"
	"net/http"

	"github.com/suashub/suashub/internal/app/system/metroline"
	"github.com/suashub/suashub/internal/domain/models"
)

// TrackerVM feeds the shared "metro_tracker" fragment. Base is the URL of
// the tracked item ("/casos/12", "/triagem/<id>"); the fragment builds its
// links from it. It carries its own CSRF token because htmx swaps it
// without the surrounding page.
type TrackerVM struct {
	Base       string
	Encerrado  bool
	CanAdvance bool
	View       metroline.DetailedView
	Help       map[string]template.HTML
	Error      string
	Notice     string
	CSRFField  string
	CSRFToken  string
}

// CandidateVM is one selectable referral in the registration modal.
type CandidateVM struct {
	ID      int64
	Label   string
	Checked bool
}

// AttendanceVM is one attendance option in the registration modal.
type AttendanceVM struct {
	ID       int64
	Label    string
	Selected bool
}

// RegistrationVM feeds the shared "metro_registrar_modal" snippet.
type RegistrationVM struct {
	Base        string
	Token       string
	Etapa       string
	EtapaNome   string
	Help        template.HTML
	Obs         string
	CanLink     bool
	Candidates  []CandidateVM
	NoReferrals string
	Attendances []AttendanceVM
	Saving      bool
	Error       string
	CSRFField   string
	CSRFToken   string
}

// NewRegistrationVM renders a registration state for the modal.
func NewRegistrationVM(r *http.Request, base, token string, help template.HTML, st metroline.RegistrationState, municipios []models.Municipio) RegistrationVM {
	vm := RegistrationVM{
		Base:      base,
		Token:     token,
		Etapa:     st.Stage.Key,
		EtapaNome: st.Stage.Title,
		Help:      help,
		Obs:       st.Form.Obs,
		CanLink:   st.CanLinkReferrals(),
		Saving:    st.Saving,
		Error:     st.Error,
	}
	for _, ref := range st.Candidates {
		vm.Candidates = append(vm.Candidates, CandidateVM{
			ID:      ref.ID,
			Label:   metroline.Label(ref, municipios),
			Checked: st.IsSelected(ref.ID),
		})
	}
	if len(vm.Candidates) == 0 {
		vm.NoReferrals = metroline.NoReferralsMessage
	}
	for _, a := range st.Attendances {
		vm.Attendances = append(vm.Attendances, AttendanceVM{
			ID:       a.ID,
			Label:    a.Label,
			Selected: st.Form.AtendimentoID != nil && *st.Form.AtendimentoID == a.ID,
		})
	}
	vm.CSRFField, vm.CSRFToken = CSRF(r)
	return vm
}
