package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/therapy_booking/internal/model"
	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepositoryCreateAndGet(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProfileRepository(mock)

	now := time.Now().UTC()
	profile := &model.Profile{ID: uuid.New(), Email: "pat@example.com", FullName: "Pat", Role: model.RolePatient}

	mock.ExpectQuery("INSERT INTO profiles").
		WithArgs(profile.ID, "pat@example.com", "Pat", model.RolePatient).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	require.NoError(t, repo.Create(context.Background(), profile))

	mock.ExpectQuery("SELECT id, email, full_name, role").
		WithArgs(profile.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "full_name", "role", "created_at", "updated_at"}).
			AddRow(profile.ID, "pat@example.com", "Pat", model.RoleAdmin, now, now))

	got, err := repo.GetByID(context.Background(), profile.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryGetMissing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProfileRepository(mock)

	id := uuid.New()
	mock.ExpectQuery("SELECT id, email, full_name, role").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "full_name", "role", "created_at", "updated_at"}))

	got, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestProfileRepositoryUpdateRoleMissing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProfileRepository(mock)

	id := uuid.New()
	mock.ExpectExec("UPDATE profiles").
		WithArgs(model.RoleTherapist, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateRole(context.Background(), id, model.RoleTherapist)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}
