package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/suashub/suashub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Statuses.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

type Store struct {
	c    *mongo.Collection
	cost int
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users"), cost: 12}
}

// WithCost returns a copy of s hashing passwords with the given bcrypt cost.
// Tests use bcrypt.MinCost.
func (s *Store) WithCost(cost int) *Store {
	cp := *s
	cp.cost = cost
	return &cp
}

var (
	// ErrDuplicateLogin is returned when attempting to create a user with a login that already exists.
	ErrDuplicateLogin = errors.New("a user with this login already exists")
	// ErrInvalidCredentials covers unknown login, wrong password and disabled accounts.
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrNotFound           = errors.New("user not found")
	errBadRole            = errors.New(`role must be "admin"|"coordenador"|"tecnico"`)
	errBadStatus          = errors.New(`status must be "active"|"disabled"`)
	errEmptyPassword      = errors.New("password is empty")
)

// Create validates u, hashes password and inserts the user.
func (s *Store) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Login = strings.TrimSpace(u.Login)
	u.LoginCI = text.Fold(u.Login)
	u.FullName = strings.TrimSpace(u.FullName)
	if u.Status == "" {
		u.Status = StatusActive
	}

	switch u.Role {
	case models.RoleAdmin, models.RoleCoordenador, models.RoleTecnico:
	default:
		return models.User{}, errBadRole
	}
	if u.Status != StatusActive && u.Status != StatusDisabled {
		return models.User{}, errBadStatus
	}
	if password == "" {
		return models.User{}, errEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, err
	}
	u.PasswordHash = string(hash)

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateLogin
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByLogin looks up a user by case-insensitive login.
func (s *Store) GetByLogin(ctx context.Context, login string) (models.User, error) {
	return s.findOne(ctx, bson.M{"login_ci": text.Fold(strings.TrimSpace(login))})
}

// Authenticate checks login and password. Every failure returns
// ErrInvalidCredentials except infrastructure errors.
func (s *Store) Authenticate(ctx context.Context, login, password string) (models.User, error) {
	u, err := s.GetByLogin(ctx, login)
	if errors.Is(err, ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if u.Status != StatusActive {
		return models.User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// EnsureAdmin creates the bootstrap admin if no user with that login
// exists. It reports whether a user was created.
func (s *Store) EnsureAdmin(ctx context.Context, login, password string) (bool, error) {
	if login == "" || password == "" {
		return false, nil
	}
	_, err := s.GetByLogin(ctx, login)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	_, err = s.Create(ctx, models.User{
		Login:    login,
		FullName: "Administrador",
		Role:     models.RoleAdmin,
	}, password)
	if errors.Is(err, ErrDuplicateLogin) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}
