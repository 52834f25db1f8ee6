package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient   Role = "patient"
	RoleTherapist Role = "therapist"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleTherapist, RoleAdmin:
		return true
	}
	return false
}

// Profile хранит роль пользователя. ID совпадает с subject токена провайдера идентификации.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Principal is the acting caller of a core operation. It is always built from
// a freshly loaded Profile, never from token claims.
type Principal struct {
	ID       uuid.UUID
	Role     Role
	Email    string
	FullName string
}

func (p *Profile) Principal() *Principal {
	return &Principal{
		ID:       p.ID,
		Role:     p.Role,
		Email:    p.Email,
		FullName: p.FullName,
	}
}
