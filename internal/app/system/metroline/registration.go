package metroline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"
)

var (
	// ErrSubmitInFlight is returned when a submit is attempted while the
	// same registration is still saving.
	ErrSubmitInFlight = errors.New("metroline: submit already in progress")
	// ErrClosed is returned when submitting a registration whose modal was
	// closed.
	ErrClosed = errors.New("metroline: registration closed")
	// ErrRefreshFailed wraps the refresh error after a successful submit.
	ErrRefreshFailed = errors.New("metroline: refresh after submit failed")
)

// maxErrorRunes caps inline error messages.
const maxErrorRunes = 200

// Payload is the body sent to register a ProgressEvent.
type Payload struct {
	Etapa              string  `json:"etapa"`
	Obs                string  `json:"obs"`
	AtendimentoID      *int64  `json:"atendimento_id"`
	EncaminhamentosIDs []int64 `json:"encaminhamentos_ids"`
}

// Submitter dispatches a payload. Implementations: the casesapi registrar
// (HTTP POST) and SubmitFunc (a local handler).
type Submitter interface {
	Submit(ctx context.Context, p Payload) error
}

// SubmitFunc adapts a local handler to Submitter.
type SubmitFunc func(ctx context.Context, p Payload) error

func (f SubmitFunc) Submit(ctx context.Context, p Payload) error { return f(ctx, p) }

// RefreshFunc reloads the caller's stage data after a successful submit.
type RefreshFunc func(ctx context.Context) error

// ReferralSource loads the selectable referrals for one case.
type ReferralSource interface {
	Referrals(ctx context.Context) ([]Referral, error)
}

// ReferralSourceFunc adapts a function to ReferralSource.
type ReferralSourceFunc func(ctx context.Context) ([]Referral, error)

func (f ReferralSourceFunc) Referrals(ctx context.Context) ([]Referral, error) { return f(ctx) }

// AttendanceOption is one attendance the event may be linked to.
type AttendanceOption struct {
	ID    int64
	Label string
}

// Form holds the values typed into the registration modal.
type Form struct {
	Obs           string
	AtendimentoID *int64
	Selected      []int64
}

// Registration is the state of one registration modal.
type Registration struct {
	mu sync.Mutex

	stage       Stage
	form        Form
	candidates  []Referral
	attendances []AttendanceOption
	open        bool
	saving      bool
	errMsg      string
}

// RegistrationState is a copy of a Registration for rendering.
type RegistrationState struct {
	Stage       Stage
	Form        Form
	Candidates  []Referral
	Attendances []AttendanceOption
	Open        bool
	Saving      bool
	Error       string
}

// NoReferralsMessage is shown when the case has no selectable referrals.
const NoReferralsMessage = "Nenhum encaminhamento encontrado para este caso."

// OpenRegistration opens the modal for stage. Candidates come from local
// when it is non-nil, otherwise from src. A failing source leaves the list
// empty and does not block the modal.
func OpenRegistration(ctx context.Context, stage Stage, src ReferralSource, local []Referral, attendances []AttendanceOption) *Registration {
	r := &Registration{
		stage:       stage,
		attendances: append([]AttendanceOption(nil), attendances...),
		open:        true,
	}
	switch {
	case local != nil:
		r.candidates = append([]Referral(nil), local...)
	case src != nil:
		if refs, err := src.Referrals(ctx); err == nil {
			r.candidates = refs
		}
	}
	if r.candidates == nil {
		r.candidates = []Referral{}
	}
	return r
}

// State returns a copy of the current state.
func (r *Registration) State() RegistrationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RegistrationState{
		Stage:       r.stage,
		Form:        copyForm(r.form),
		Candidates:  append([]Referral(nil), r.candidates...),
		Attendances: append([]AttendanceOption(nil), r.attendances...),
		Open:        r.open,
		Saving:      r.saving,
		Error:       r.errMsg,
	}
}

// SetForm replaces the form values. It is ignored while saving so an
// in-flight payload cannot drift from what is displayed.
func (r *Registration) SetForm(f Form) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saving {
		return
	}
	r.form = copyForm(f)
}

// CanLinkReferrals reports whether referral selection is enabled: the
// observation must be filled first.
func (s RegistrationState) CanLinkReferrals() bool {
	return strings.TrimSpace(s.Form.Obs) != ""
}

// IsSelected reports whether referral id is ticked.
func (s RegistrationState) IsSelected(id int64) bool {
	for _, v := range s.Form.Selected {
		if v == id {
			return true
		}
	}
	return false
}

// Payload builds the submit body. EncaminhamentosIDs is never nil.
func (r *Registration) Payload() Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payloadLocked()
}

func (r *Registration) payloadLocked() Payload {
	ids := make([]int64, 0, len(r.form.Selected))
	seen := make(map[int64]bool, len(r.form.Selected))
	for _, id := range r.form.Selected {
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	var att *int64
	if r.form.AtendimentoID != nil {
		v := *r.form.AtendimentoID
		att = &v
	}
	return Payload{
		Etapa:              r.stage.Key,
		Obs:                strings.TrimSpace(r.form.Obs),
		AtendimentoID:      att,
		EncaminhamentosIDs: ids,
	}
}

// Submit dispatches the payload through sub. On failure the modal stays open
// with an inline message and the form untouched. On success refresh is
// awaited exactly once and only then is the modal closed. If refresh fails
// the modal still closes, since the event is already recorded, and the error
// is returned wrapped in ErrRefreshFailed.
func (r *Registration) Submit(ctx context.Context, sub Submitter, refresh RefreshFunc) error {
	r.mu.Lock()
	if !r.open {
		r.mu.Unlock()
		return ErrClosed
	}
	if r.saving {
		r.mu.Unlock()
		return ErrSubmitInFlight
	}
	r.saving = true
	r.errMsg = ""
	p := r.payloadLocked()
	r.mu.Unlock()

	var err error
	if sub == nil {
		err = errors.New("nenhum destino de envio configurado")
	} else {
		err = sub.Submit(ctx, p)
	}
	if err != nil {
		r.mu.Lock()
		r.saving = false
		r.errMsg = ErrorMessage(err)
		r.mu.Unlock()
		return err
	}

	var rerr error
	if refresh != nil {
		rerr = refresh(ctx)
	}

	r.mu.Lock()
	r.saving = false
	r.open = false
	r.mu.Unlock()

	if rerr != nil {
		return errors.Join(ErrRefreshFailed, rerr)
	}
	return nil
}

// Close tears the modal down. A submit still in flight finishes but its
// outcome is no longer shown.
func (r *Registration) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = false
}

// UserMessager is implemented by errors that carry a text meant for the
// user, such as the backend's response body.
type UserMessager interface {
	UserMessage() string
}

// ErrorMessage turns err into a short inline string. It is never empty.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := ""
	var um UserMessager
	if errors.As(err, &um) {
		msg = um.UserMessage()
	} else if errors.Is(err, context.DeadlineExceeded) {
		msg = "o servidor demorou a responder"
	} else {
		msg = err.Error()
	}
	msg = strings.Join(strings.Fields(msg), " ")
	if msg == "" {
		msg = "erro desconhecido"
	}
	if utf8.RuneCountInString(msg) > maxErrorRunes {
		msg = string([]rune(msg)[:maxErrorRunes]) + "…"
	}
	return "Não foi possível registrar: " + msg
}

func copyForm(f Form) Form {
	out := Form{Obs: f.Obs}
	if f.AtendimentoID != nil {
		v := *f.AtendimentoID
		out.AtendimentoID = &v
	}
	out.Selected = append([]int64(nil), f.Selected...)
	return out
}
