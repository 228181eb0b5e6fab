// internal/app/features/triagem/drafts.go
package triagem

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/suashub/suashub/internal/app/system/htmlsanitize"
	"github.com/suashub/suashub/internal/app/system/metroline"
)

var (
	ErrDraftNotFound   = errors.New("rascunho não encontrado")
	ErrTooManyDrafts   = errors.New("limite de rascunhos atingido")
	ErrUnknownEtapa    = errors.New("etapa desconhecida para este rascunho")
	ErrUnknownReferral = errors.New("encaminhamento não pertence a este rascunho")
	ErrObsTooLong      = errors.New("observação deve ter no máximo 4000 caracteres")
)

const (
	maxDraftsPerOwner = 50
	maxObsRunes       = 4000
)

// Draft is an intake case that exists only in memory until it is converted
// into a stored case. Its referrals and events are local: ids are assigned
// per draft.
type Draft struct {
	ID         string
	Owner      string
	Nome       string
	Programa   string
	EtapaAtual string
	CreatedAt  time.Time

	Referrals []metroline.Referral
	Events    map[string][]metroline.Event

	nextRef   int64
	nextEvent int64
}

func (d *Draft) clone() Draft {
	out := *d
	out.Referrals = append([]metroline.Referral(nil), d.Referrals...)
	out.Events = make(map[string][]metroline.Event, len(d.Events))
	for k, evs := range d.Events {
		out.Events[k] = append([]metroline.Event(nil), evs...)
	}
	return out
}

// Drafts holds every open draft. Safe for concurrent use.
type Drafts struct {
	mu     sync.Mutex
	drafts map[string]*Draft
	now    func() time.Time
}

func NewDrafts() *Drafts {
	return &Drafts{drafts: make(map[string]*Draft), now: time.Now}
}

// Create opens a draft for owner.
func (s *Drafts) Create(owner, nome, programa, etapa string) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, d := range s.drafts {
		if d.Owner == owner {
			n++
		}
	}
	if n >= maxDraftsPerOwner {
		return Draft{}, ErrTooManyDrafts
	}

	d := &Draft{
		ID:         uuid.NewString(),
		Owner:      owner,
		Nome:       nome,
		Programa:   programa,
		EtapaAtual: etapa,
		CreatedAt:  s.now().UTC(),
		Referrals:  []metroline.Referral{},
		Events:     map[string][]metroline.Event{},
	}
	s.drafts[d.ID] = d
	return d.clone(), nil
}

// Get returns a copy of the draft when owner owns it.
func (s *Drafts) Get(id, owner string) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok || d.Owner != owner {
		return Draft{}, ErrDraftNotFound
	}
	return d.clone(), nil
}

// List returns owner's drafts, newest first.
func (s *Drafts) List(owner string) []Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Draft
	for _, d := range s.drafts {
		if d.Owner == owner {
			out = append(out, d.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Delete drops the draft.
func (s *Drafts) Delete(id, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok || d.Owner != owner {
		return ErrDraftNotFound
	}
	delete(s.drafts, id)
	return nil
}

// Take removes the draft and returns it, so exactly one caller can claim it.
// Later edits through the same id fail with ErrDraftNotFound.
func (s *Drafts) Take(id, owner string) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok || d.Owner != owner {
		return Draft{}, ErrDraftNotFound
	}
	delete(s.drafts, id)
	return d.clone(), nil
}

// Restore puts back a draft claimed by Take. An id already in use is left
// alone.
func (s *Drafts) Restore(d Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.drafts[d.ID]; exists {
		return
	}
	restored := d.clone()
	s.drafts[d.ID] = &restored
}

// AddReferral appends a local referral and assigns its id.
func (s *Drafts) AddReferral(id, owner string, ref metroline.Referral) (metroline.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok || d.Owner != owner {
		return metroline.Referral{}, ErrDraftNotFound
	}
	d.nextRef++
	ref.ID = d.nextRef
	if ref.Status == "" {
		ref.Status = "pendente"
	}
	d.Referrals = append(d.Referrals, ref)
	return ref, nil
}

// SetEtapa moves the draft's current-stage pointer.
func (s *Drafts) SetEtapa(id, owner, etapa string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok || d.Owner != owner {
		return ErrDraftNotFound
	}
	d.EtapaAtual = etapa
	return nil
}

// Submitter returns the local submit handler for one draft. It validates the
// payload like the backend does: known stage, referrals of this draft only,
// obs as plain text.
func (s *Drafts) Submitter(id, owner, responsavel string, stages []metroline.Stage) metroline.SubmitFunc {
	return func(_ context.Context, p metroline.Payload) error {
		known := false
		for _, st := range stages {
			if st.Key == p.Etapa {
				known = true
				break
			}
		}
		if !known {
			return ErrUnknownEtapa
		}
		obs := strings.TrimSpace(htmlsanitize.StripTags(p.Obs))
		if utf8.RuneCountInString(obs) > maxObsRunes {
			return ErrObsTooLong
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		d, ok := s.drafts[id]
		if !ok || d.Owner != owner {
			return ErrDraftNotFound
		}
		byID := metroline.IndexReferrals(d.Referrals)
		snapshot := make([]metroline.Referral, 0, len(p.EncaminhamentosIDs))
		for _, rid := range p.EncaminhamentosIDs {
			ref, ok := byID[rid]
			if !ok {
				return fmt.Errorf("%w: #%d", ErrUnknownReferral, rid)
			}
			snapshot = append(snapshot, ref)
		}

		d.nextEvent++
		d.Events[p.Etapa] = append(d.Events[p.Etapa], metroline.Event{
			ID:          d.nextEvent,
			Responsavel: responsavel,
			DataHora:    s.now().UTC(),
			Obs:         obs,
			Referrals:   snapshot,
		})
		return nil
	}
}
