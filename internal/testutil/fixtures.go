package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/suashub/suashub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db     *mongo.Database
	t      *testing.T
	nextID int64
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t, nextID: 1000}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) id() int64 {
	f.nextID++
	return f.nextID
}

// CreateCaso inserts a case on the first stage of its programme.
func (f *Fixtures) CreateCaso(ctx context.Context, nome, programa, etapa string) models.Caso {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Caso{
		ID:          f.id(),
		Nome:        nome,
		NomeCI:      text.Fold(nome),
		Programa:    programa,
		MunicipioID: 3548500,
		EtapaAtual:  etapa,
		Status:      "ativo",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("casos").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test caso: %v", err)
	}
	return c
}

// CreateAtendimento inserts an attendance for casoID.
func (f *Fixtures) CreateAtendimento(ctx context.Context, casoID int64, tipo string) models.Atendimento {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Atendimento{
		ID:        f.id(),
		CasoID:    casoID,
		DataHora:  now,
		Tipo:      tipo,
		CreatedAt: now,
	}
	if _, err := f.db.Collection("atendimentos").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test atendimento: %v", err)
	}
	return a
}

// CreateIntermunicipal inserts an inter-municipal referral.
func (f *Fixtures) CreateIntermunicipal(ctx context.Context, casoID, origem, destino int64) models.Encaminhamento {
	f.t.Helper()
	return f.insertEncaminhamento(ctx, models.Encaminhamento{
		CasoID:             casoID,
		Tipo:               models.EncaminhamentoIntermunicipal,
		MunicipioOrigemID:  origem,
		MunicipioDestinoID: destino,
		Status:             "pendente",
	})
}

// CreateRedeLocal inserts a local-network referral.
func (f *Fixtures) CreateRedeLocal(ctx context.Context, casoID int64, destino string) models.Encaminhamento {
	f.t.Helper()
	return f.insertEncaminhamento(ctx, models.Encaminhamento{
		CasoID:  casoID,
		Tipo:    models.EncaminhamentoRedeLocal,
		Destino: destino,
		Status:  "enviado",
	})
}

func (f *Fixtures) insertEncaminhamento(ctx context.Context, e models.Encaminhamento) models.Encaminhamento {
	now := time.Now().UTC()
	e.ID = f.id()
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := f.db.Collection("encaminhamentos").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test encaminhamento: %v", err)
	}
	return e
}

// CreateUser creates a staff member with the given password.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, login, password, role string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Login:        login,
		LoginCI:      text.Fold(login),
		FullName:     fullName,
		PasswordHash: string(hash),
		Role:         role,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CountRegistros returns how many progress events casoID has.
func (f *Fixtures) CountRegistros(ctx context.Context, casoID int64) int64 {
	f.t.Helper()
	n, err := f.db.Collection("registros").CountDocuments(ctx, bson.M{"caso_id": casoID})
	if err != nil {
		f.t.Fatalf("count registros: %v", err)
	}
	return n
}
