package metroline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/suashub/suashub/internal/domain/models"
)

// ReferralKind tags which shape a Referral carries.
type ReferralKind string

const (
	KindInterMunicipal ReferralKind = models.EncaminhamentoIntermunicipal
	KindLocalNetwork   ReferralKind = models.EncaminhamentoRedeLocal
)

// Referral is a variant: InterMunicipal uses OrigemID/DestinoID, LocalNetwork
// uses Destino. The tag is assigned once when the value enters the process
// (UnmarshalJSON, ReferralFromModel); formatting dispatches on it.
type Referral struct {
	ID        int64
	Kind      ReferralKind
	OrigemID  int64
	DestinoID int64
	Destino   string
	Status    string
}

type referralWire struct {
	ID                 int64  `json:"id"`
	Tipo               string `json:"tipo,omitempty"`
	MunicipioOrigemID  *int64 `json:"municipio_origem_id,omitempty"`
	MunicipioDestinoID *int64 `json:"municipio_destino_id,omitempty"`
	Destino            string `json:"destino,omitempty"`
	Status             string `json:"status,omitempty"`
}

// UnmarshalJSON accepts both backend shapes. An explicit "tipo" wins;
// otherwise municipality ids mark the inter-municipal shape.
func (r *Referral) UnmarshalJSON(data []byte) error {
	var w referralWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Referral{ID: w.ID, Destino: w.Destino, Status: w.Status}
	if w.MunicipioOrigemID != nil {
		r.OrigemID = *w.MunicipioOrigemID
	}
	if w.MunicipioDestinoID != nil {
		r.DestinoID = *w.MunicipioDestinoID
	}
	switch ReferralKind(w.Tipo) {
	case KindInterMunicipal, KindLocalNetwork:
		r.Kind = ReferralKind(w.Tipo)
	default:
		if w.MunicipioOrigemID != nil || w.MunicipioDestinoID != nil {
			r.Kind = KindInterMunicipal
		} else {
			r.Kind = KindLocalNetwork
		}
	}
	return nil
}

// MarshalJSON writes the backend shape for the referral's kind.
func (r Referral) MarshalJSON() ([]byte, error) {
	w := referralWire{ID: r.ID, Tipo: string(r.Kind), Status: r.Status}
	switch r.Kind {
	case KindInterMunicipal:
		o, d := r.OrigemID, r.DestinoID
		w.MunicipioOrigemID, w.MunicipioDestinoID = &o, &d
	default:
		w.Destino = r.Destino
	}
	return json.Marshal(w)
}

// ReferralFromModel tags a stored referral.
func ReferralFromModel(e models.Encaminhamento) Referral {
	r := Referral{
		ID:        e.ID,
		Kind:      ReferralKind(e.Tipo),
		OrigemID:  e.MunicipioOrigemID,
		DestinoID: e.MunicipioDestinoID,
		Destino:   e.Destino,
		Status:    e.Status,
	}
	if r.Kind != KindInterMunicipal && r.Kind != KindLocalNetwork {
		if e.MunicipioOrigemID != 0 || e.MunicipioDestinoID != 0 {
			r.Kind = KindInterMunicipal
		} else {
			r.Kind = KindLocalNetwork
		}
	}
	return r
}

// ReferralsFromModels tags a slice of stored referrals.
func ReferralsFromModels(in []models.Encaminhamento) []Referral {
	out := make([]Referral, 0, len(in))
	for _, e := range in {
		out = append(out, ReferralFromModel(e))
	}
	return out
}

// Merge overlays live data on an embedded snapshot. Non-zero live fields win.
func Merge(snapshot, live Referral) Referral {
	out := snapshot
	if live.Kind != "" {
		out.Kind = live.Kind
	}
	if live.OrigemID != 0 {
		out.OrigemID = live.OrigemID
	}
	if live.DestinoID != 0 {
		out.DestinoID = live.DestinoID
	}
	if live.Destino != "" {
		out.Destino = live.Destino
	}
	if live.Status != "" {
		out.Status = live.Status
	}
	return out
}

// Label formats a referral for display.
//
//	#7 Santos → Cubatão (pendente)
//	#8 CAPS AD (enviado)
func Label(r Referral, municipios []models.Municipio) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d ", r.ID)
	switch r.Kind {
	case KindInterMunicipal:
		b.WriteString(MunicipalityName(r.OrigemID, municipios))
		b.WriteString(" → ")
		b.WriteString(MunicipalityName(r.DestinoID, municipios))
	default:
		if d := strings.TrimSpace(r.Destino); d != "" {
			b.WriteString(d)
		} else {
			b.WriteString("Destino não informado")
		}
	}
	if s := strings.TrimSpace(r.Status); s != "" {
		fmt.Fprintf(&b, " (%s)", s)
	}
	return b.String()
}

// Labels merges live data (keyed by id) over each snapshot and formats it.
func Labels(refs []Referral, live map[int64]Referral, municipios []models.Municipio) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if l, ok := live[r.ID]; ok {
			r = Merge(r, l)
		}
		out = append(out, Label(r, municipios))
	}
	return out
}

// IndexReferrals keys referrals by id; used to build the live map.
func IndexReferrals(refs []Referral) map[int64]Referral {
	m := make(map[int64]Referral, len(refs))
	for _, r := range refs {
		m[r.ID] = r
	}
	return m
}
