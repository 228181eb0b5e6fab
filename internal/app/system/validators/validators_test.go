package validators_test

import (
	"testing"
	"time"

	"github.com/suashub/suashub/internal/app/system/validators"
	"github.com/suashub/suashub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func ensure(t *testing.T) *mongo.Database {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := ensure(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := ensure(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := make(map[string]bool)
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"users", "casos", "registros", "encaminhamentos", "atendimentos", "audit_events"} {
		if !have[want] {
			t.Errorf("expected collection %q to exist", want)
		}
	}
}

func TestUsersValidator(t *testing.T) {
	db := ensure(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	valid := bson.M{
		"login":         "ana",
		"login_ci":      "ana",
		"full_name":     "Ana Souza",
		"password_hash": "$2a$10$abc",
		"role":          "tecnico",
		"status":        "active",
	}
	if _, err := db.Collection("users").InsertOne(ctx, valid); err != nil {
		t.Fatalf("insert valid user: %v", err)
	}

	if _, err := db.Collection("users").InsertOne(ctx, bson.M{"login": "x"}); err == nil {
		t.Error("expected error for user without required fields")
	}

	bad := bson.M{}
	for k, v := range valid {
		bad[k] = v
	}
	bad["login"], bad["login_ci"], bad["role"] = "bia", "bia", "member"
	if _, err := db.Collection("users").InsertOne(ctx, bad); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestCasosValidator(t *testing.T) {
	db := ensure(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	caso := func(id int64, nome, status string) bson.M {
		return bson.M{
			"_id":         id,
			"nome":        nome,
			"nome_ci":     nome,
			"programa":    "poprua",
			"etapa_atual": "ABORDAGEM",
			"status":      status,
		}
	}

	if _, err := db.Collection("casos").InsertOne(ctx, caso(1, "Maria", "ativo")); err != nil {
		t.Fatalf("insert valid caso: %v", err)
	}
	if _, err := db.Collection("casos").InsertOne(ctx, caso(2, "   ", "ativo")); err == nil {
		t.Error("expected error for blank nome")
	}
	if _, err := db.Collection("casos").InsertOne(ctx, caso(3, "João", "arquivado")); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestRegistrosValidator(t *testing.T) {
	db := ensure(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	if _, err := db.Collection("registros").InsertOne(ctx, bson.M{
		"_id":             int64(1),
		"caso_id":         int64(1),
		"etapa":           "ABORDAGEM",
		"data_hora":       now,
		"encaminhamentos": nil,
	}); err != nil {
		t.Fatalf("insert registro with null encaminhamentos: %v", err)
	}
	if _, err := db.Collection("registros").InsertOne(ctx, bson.M{
		"_id":       int64(2),
		"caso_id":   int64(1),
		"etapa":     "ABORDAGEM",
		"data_hora": "2024-01-01",
	}); err == nil {
		t.Error("expected error for string data_hora")
	}
}

func TestEncaminhamentosAndAtendimentosValidators(t *testing.T) {
	db := ensure(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := db.Collection("encaminhamentos").InsertOne(ctx, bson.M{
		"_id": int64(1), "caso_id": int64(1), "tipo": "rede_local", "destino": "CAPS", "status": "pendente",
	}); err != nil {
		t.Fatalf("insert valid encaminhamento: %v", err)
	}
	if _, err := db.Collection("encaminhamentos").InsertOne(ctx, bson.M{
		"_id": int64(2), "caso_id": int64(1), "tipo": "internacional", "status": "pendente",
	}); err == nil {
		t.Error("expected error for unknown encaminhamento tipo")
	}

	if _, err := db.Collection("atendimentos").InsertOne(ctx, bson.M{
		"_id": int64(1), "caso_id": int64(1), "tipo": "visita", "data_hora": time.Now().UTC(),
	}); err != nil {
		t.Fatalf("insert valid atendimento: %v", err)
	}
	if _, err := db.Collection("atendimentos").InsertOne(ctx, bson.M{
		"_id": int64(2), "caso_id": int64(1), "tipo": "telefone", "data_hora": time.Now().UTC(),
	}); err == nil {
		t.Error("expected error for unknown atendimento tipo")
	}
}
