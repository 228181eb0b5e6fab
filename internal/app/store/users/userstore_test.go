package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/suashub/suashub/internal/app/store/users"
	"github.com/suashub/suashub/internal/domain/models"
	"github.com/suashub/suashub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

func newStore(t *testing.T) (*userstore.Store, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "login_ci", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		t.Fatalf("create index: %v", err)
	}
	return userstore.New(db).WithCost(bcrypt.MinCost), db
}

func TestStore_Create(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{
		Login:    " Maria.Silva ",
		FullName: "Maria Silva",
		Role:     models.RoleTecnico,
	}, "segredo123")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if u.Login != "Maria.Silva" {
		t.Errorf("expected trimmed login, got %q", u.Login)
	}
	if u.PasswordHash == "" || u.PasswordHash == "segredo123" {
		t.Error("expected a bcrypt hash")
	}
	if u.Status != userstore.StatusActive {
		t.Errorf("expected status active, got %q", u.Status)
	}

	_, err = store.Create(ctx, models.User{Login: "maria.silva", FullName: "Outra", Role: models.RoleTecnico}, "x")
	if !errors.Is(err, userstore.ErrDuplicateLogin) {
		t.Errorf("expected ErrDuplicateLogin, got %v", err)
	}
}

func TestStore_Create_Validation(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name     string
		user     models.User
		password string
	}{
		{"bad role", models.User{Login: "a", Role: "member"}, "x"},
		{"bad status", models.User{Login: "b", Role: models.RoleAdmin, Status: "gone"}, "x"},
		{"empty password", models.User{Login: "c", Role: models.RoleAdmin}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := store.Create(ctx, tc.user, tc.password); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestStore_Authenticate(t *testing.T) {
	store, db := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{Login: "joao", FullName: "João", Role: models.RoleCoordenador}, "certa")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Authenticate(ctx, "JOAO", "certa")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.ID != u.ID {
		t.Error("authenticated the wrong user")
	}

	if _, err := store.Authenticate(ctx, "joao", "errada"); !errors.Is(err, userstore.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := store.Authenticate(ctx, "ninguem", "certa"); !errors.Is(err, userstore.ErrInvalidCredentials) {
		t.Errorf("unknown login: expected ErrInvalidCredentials, got %v", err)
	}

	_, err = db.Collection("users").UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{"status": userstore.StatusDisabled}})
	if err != nil {
		t.Fatalf("disable user: %v", err)
	}
	if _, err := store.Authenticate(ctx, "joao", "certa"); !errors.Is(err, userstore.ErrInvalidCredentials) {
		t.Errorf("disabled user: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestStore_EnsureAdmin(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.EnsureAdmin(ctx, "admin", "trocar")
	if err != nil || !created {
		t.Fatalf("first EnsureAdmin = %v, %v", created, err)
	}
	created, err = store.EnsureAdmin(ctx, "admin", "outra")
	if err != nil || created {
		t.Fatalf("second EnsureAdmin = %v, %v", created, err)
	}

	// The original password still works.
	if _, err := store.Authenticate(ctx, "admin", "trocar"); err != nil {
		t.Errorf("Authenticate failed: %v", err)
	}

	if created, err := store.EnsureAdmin(ctx, "", ""); created || err != nil {
		t.Errorf("EnsureAdmin without credentials = %v, %v", created, err)
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	store, db := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{Login: "lia", FullName: "Lia", Role: models.RoleTecnico}, "x")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	f := userstore.NewFetcher(db)
	su := f.FetchUser(ctx, u.ID.Hex())
	if su == nil {
		t.Fatal("expected a session user")
	}
	if su.Name != "Lia" || su.LoginID != "lia" || su.Role != models.RoleTecnico {
		t.Errorf("unexpected session user: %+v", su)
	}

	if f.FetchUser(ctx, "not-an-id") != nil {
		t.Error("expected nil for malformed id")
	}

	_, _ = db.Collection("users").UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{"status": userstore.StatusDisabled}})
	if f.FetchUser(ctx, u.ID.Hex()) != nil {
		t.Error("expected nil for disabled user")
	}
}
