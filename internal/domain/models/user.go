// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles.
const (
	RoleAdmin       = "admin"
	RoleCoordenador = "coordenador"
	RoleTecnico     = "tecnico"
)

// User is a staff member of the social assistance teams.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Login        string             `bson:"login" json:"login"`
	LoginCI      string             `bson:"login_ci" json:"-"`
	FullName     string             `bson:"full_name" json:"full_name"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"`
	Status       string             `bson:"status" json:"status"` // active | disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
