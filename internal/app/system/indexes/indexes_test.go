package indexes_test

import (
	"testing"

	"github.com/suashub/suashub/internal/app/system/indexes"
	"github.com/suashub/suashub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bson.M {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	out := make(map[string]bson.M)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			out[name] = idx
		}
	}
	return out
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"users":           {"uniq_users_loginci", "idx_users_role_status"},
		"casos":           {"idx_casos_programa_created", "idx_casos_nomeci"},
		"registros":       {"idx_registros_caso_datahora", "idx_registros_caso_etapa_datahora"},
		"encaminhamentos": {"idx_encaminhamentos_caso"},
		"atendimentos":    {"idx_atendimentos_caso_datahora"},
		"municipios":      {"idx_municipios_nome"},
	}
	for coll, names := range expected {
		got := indexNames(t, db, coll)
		for _, n := range names {
			if _, ok := got[n]; !ok {
				t.Errorf("%s: expected index %q", coll, n)
			}
		}
	}

	if u := indexNames(t, db, "users")["uniq_users_loginci"]; u["unique"] != true {
		t.Error("uniq_users_loginci must be unique")
	}
}

func TestEnsureAll_RenamesMisnamedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("municipios").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "nome", Value: 1}},
		Options: options.Index().SetName("legacy_nome"),
	})
	if err != nil {
		t.Fatalf("create legacy index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	got := indexNames(t, db, "municipios")
	if _, ok := got["legacy_nome"]; ok {
		t.Error("legacy index should have been replaced")
	}
	if _, ok := got["idx_municipios_nome"]; !ok {
		t.Error("expected idx_municipios_nome")
	}
}

func TestEnsureAll_DuplicateLoginsReported(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := db.Collection("users")
	for i := 0; i < 2; i++ {
		if _, err := users.InsertOne(ctx, bson.M{"login_ci": "dup"}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	if err := indexes.EnsureAll(ctx, db); err == nil {
		t.Error("expected an error when duplicate logins prevent the unique index")
	}
}
