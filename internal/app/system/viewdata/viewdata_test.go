package viewdata_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/suashub/suashub/internal/app/system/metroline"
	"github.com/suashub/suashub/internal/app/system/viewdata"
	"github.com/suashub/suashub/internal/domain/models"
	"github.com/suashub/suashub/internal/testutil"
)

func TestNewBaseVM_User(t *testing.T) {
	r := testutil.WithUser(httptest.NewRequest("GET", "/casos", nil), testutil.CoordenadorUser())

	vm := viewdata.NewBaseVM(r, "Casos", "/")

	if !vm.IsLoggedIn || !vm.IsCoordenador {
		t.Errorf("vm = %+v", vm)
	}
	if vm.CSRFField != viewdata.CSRFFieldName {
		t.Errorf("CSRFField = %q", vm.CSRFField)
	}
}

func TestNewBaseVM_Anonymous(t *testing.T) {
	vm := viewdata.NewBaseVM(httptest.NewRequest("GET", "/login", nil), "Entrar", "/")
	if vm.IsLoggedIn || vm.IsCoordenador {
		t.Errorf("anonymous vm = %+v", vm)
	}
}

func TestCanAdvance(t *testing.T) {
	for role, want := range map[string]bool{
		models.RoleAdmin:       true,
		models.RoleCoordenador: true,
		models.RoleTecnico:     false,
		"":                     false,
	} {
		if got := viewdata.CanAdvance(role); got != want {
			t.Errorf("CanAdvance(%q) = %v, want %v", role, got, want)
		}
	}
}

func TestNewRegistrationVM(t *testing.T) {
	municipios := []models.Municipio{{ID: 1, Nome: "Santos"}, {ID: 2, Nome: "Campinas"}}
	refs := []metroline.Referral{
		{ID: 7, Kind: metroline.KindInterMunicipal, OrigemID: 1, DestinoID: 2, Status: "pendente"},
		{ID: 8, Kind: metroline.KindLocalNetwork, Destino: "CAPS"},
	}
	at := int64(3)
	reg := metroline.OpenRegistration(context.Background(), metroline.Stage{Key: "PIA", Title: "Plano individual"}, nil, refs,
		[]metroline.AttendanceOption{{ID: 3, Label: "Visita"}, {ID: 4, Label: "Individual"}})
	reg.SetForm(metroline.Form{Obs: "ok", AtendimentoID: &at, Selected: []int64{8}})

	vm := viewdata.NewRegistrationVM(httptest.NewRequest("GET", "/", nil), "/casos/1", "tok", "", reg.State(), municipios)

	if vm.Etapa != "PIA" || vm.EtapaNome != "Plano individual" || !vm.CanLink {
		t.Errorf("vm = %+v", vm)
	}
	if len(vm.Candidates) != 2 {
		t.Fatalf("candidates = %+v", vm.Candidates)
	}
	if vm.Candidates[0].Label != "#7 Santos → Campinas (pendente)" || vm.Candidates[0].Checked {
		t.Errorf("candidate 0 = %+v", vm.Candidates[0])
	}
	if vm.Candidates[1].Label != "#8 CAPS" || !vm.Candidates[1].Checked {
		t.Errorf("candidate 1 = %+v", vm.Candidates[1])
	}
	if !vm.Attendances[0].Selected || vm.Attendances[1].Selected {
		t.Errorf("attendances = %+v", vm.Attendances)
	}
	if vm.NoReferrals != "" {
		t.Errorf("NoReferrals = %q", vm.NoReferrals)
	}
}

func TestNewRegistrationVM_NoCandidates(t *testing.T) {
	reg := metroline.OpenRegistration(context.Background(), metroline.Stage{Key: "X"}, nil, []metroline.Referral{}, nil)

	vm := viewdata.NewRegistrationVM(httptest.NewRequest("GET", "/", nil), "/casos/1", "tok", "", reg.State(), nil)

	if vm.NoReferrals != metroline.NoReferralsMessage {
		t.Errorf("NoReferrals = %q", vm.NoReferrals)
	}
	if vm.CanLink {
		t.Error("empty obs must keep referrals disabled")
	}
}
