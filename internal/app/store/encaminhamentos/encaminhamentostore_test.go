package encaminhamentostore_test

import (
	"errors"
	"testing"

	encaminhamentostore "github.com/suashub/suashub/internal/app/store/encaminhamentos"
	"github.com/suashub/suashub/internal/domain/models"
	"github.com/suashub/suashub/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := encaminhamentostore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	inter, err := store.Create(ctx, models.Encaminhamento{
		CasoID:             1,
		Tipo:               models.EncaminhamentoIntermunicipal,
		MunicipioOrigemID:  3548500,
		MunicipioDestinoID: 3513504,
		Destino:            "ignored",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if inter.Destino != "" {
		t.Errorf("intermunicipal referral must not carry a destino, got %q", inter.Destino)
	}
	if inter.Status != "pendente" {
		t.Errorf("expected default status pendente, got %q", inter.Status)
	}

	local, err := store.Create(ctx, models.Encaminhamento{
		CasoID:            1,
		Tipo:              models.EncaminhamentoRedeLocal,
		Destino:           "CAPS AD",
		MunicipioOrigemID: 1,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if local.MunicipioOrigemID != 0 {
		t.Error("local referral must not carry municipality ids")
	}

	_, err = store.Create(ctx, models.Encaminhamento{CasoID: 1, Tipo: "outro"})
	if !errors.Is(err, encaminhamentostore.ErrInvalidTipo) {
		t.Errorf("expected ErrInvalidTipo, got %v", err)
	}
}

func TestStore_ListAndGetMany(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := encaminhamentostore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := store.Create(ctx, models.Encaminhamento{CasoID: 1, Tipo: models.EncaminhamentoRedeLocal, Destino: "CAPS"})
	b, _ := store.Create(ctx, models.Encaminhamento{CasoID: 1, Tipo: models.EncaminhamentoRedeLocal, Destino: "UBS"})
	c, _ := store.Create(ctx, models.Encaminhamento{CasoID: 2, Tipo: models.EncaminhamentoRedeLocal, Destino: "CRAS"})

	list, err := store.ListByCaso(ctx, 1)
	if err != nil {
		t.Fatalf("ListByCaso failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != b.ID {
		t.Errorf("unexpected list: %+v", list)
	}

	many, err := store.GetMany(ctx, []int64{c.ID, a.ID, 9999})
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	if len(many) != 2 {
		t.Errorf("expected 2 referrals, got %d", len(many))
	}

	none, err := store.GetMany(ctx, nil)
	if err != nil || none != nil {
		t.Errorf("GetMany(nil) = %v, %v", none, err)
	}
}

func TestStore_UpdateStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := encaminhamentostore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e, _ := store.Create(ctx, models.Encaminhamento{CasoID: 1, Tipo: models.EncaminhamentoRedeLocal, Destino: "CAPS"})
	if err := store.UpdateStatus(ctx, e.ID, "aceito"); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	got, _ := store.GetMany(ctx, []int64{e.ID})
	if len(got) != 1 || got[0].Status != "aceito" {
		t.Errorf("status not updated: %+v", got)
	}
	if err := store.UpdateStatus(ctx, 9999, "aceito"); !errors.Is(err, encaminhamentostore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
