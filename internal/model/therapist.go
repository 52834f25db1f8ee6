package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Therapist is a directory entry. Its ID is the owning profile's ID.
type Therapist struct {
	ID              uuid.UUID      `json:"id"`
	FullName        string         `json:"full_name"`
	Specialization  string         `json:"specialization"`
	FeeCents        int64          `json:"fee_cents"` // в центах
	Bio             string         `json:"bio"`
	YearsExperience int            `json:"years_experience"`
	License         string         `json:"license"`
	Active          bool           `json:"active"`
	ApprovalStatus  ApprovalStatus `json:"approval_status"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// IsApproved checks if the admin approved the therapist
func (t *Therapist) IsApproved() bool {
	return t.ApprovalStatus == ApprovalApproved
}

// Validate проверяет отображаемые атрибуты терапевта
func (t *Therapist) Validate() error {
	if strings.TrimSpace(t.FullName) == "" {
		return NewValidationError("full_name", "is required")
	}
	if t.FeeCents < 0 {
		return NewValidationError("fee_cents", "must not be negative")
	}
	if t.YearsExperience < 0 {
		return NewValidationError("years_experience", "must not be negative")
	}
	return nil
}

// TherapistFilter задаёт параметры выборки каталога
type TherapistFilter struct {
	Specialization string
	Search         string
	// Только для администратора: пустое значение означает любой статус
	ApprovalStatus ApprovalStatus
	// Видимость: только approved+active, плюс запись IncludeOwnerID (если задан)
	PublicOnly     bool
	IncludeOwnerID *uuid.UUID
}
