package service

import (
	"context"

	"github.com/Freeeeeet/therapy_booking/internal/model"
	"github.com/google/uuid"
)

// Хранилища, которыми пользуются сервисы. Реализуются репозиториями из
// internal/repository, в тестах подменяются map-реализациями.

type ProfileStore interface {
	Create(ctx context.Context, profile *model.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error
}

type TherapistStore interface {
	Create(ctx context.Context, t *model.Therapist) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Therapist, error)
	List(ctx context.Context, filter model.TherapistFilter) ([]*model.Therapist, error)
	UpdateProfile(ctx context.Context, t *model.Therapist) error
	SetApproval(ctx context.Context, id uuid.UUID, status model.ApprovalStatus) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// BookingStore.Update must fail with model.ErrConflict when the stored
// version differs from booking.Version.
type BookingStore interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
	Update(ctx context.Context, booking *model.Booking) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type DirectoryCache interface {
	Get(ctx context.Context, filter model.TherapistFilter) ([]*model.Therapist, int64, bool, error)
	Set(ctx context.Context, generation int64, filter model.TherapistFilter, therapists []*model.Therapist) error
	Invalidate(ctx context.Context) error
}
