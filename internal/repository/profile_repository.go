package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/therapy_booking/internal/model"
	"github.com/Freeeeeet/therapy_booking/internal/repository/base"
	"github.com/google/uuid"
)

// ProfileRepository хранит профили и роли пользователей
type ProfileRepository struct {
	*base.Repository
}

func NewProfileRepository(db base.DBTX) *ProfileRepository {
	return &ProfileRepository{Repository: base.NewRepository(db)}
}

// Create создаёт профиль. Повторное создание возвращает model.ErrConflict
func (r *ProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	query := `
		INSERT INTO profiles (id, email, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		profile.ID,
		profile.Email,
		profile.FullName,
		profile.Role,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create profile: %w", model.ErrConflict)
		}
		return fmt.Errorf("create profile: %w", err)
	}

	return nil
}

// GetByID получает профиль по ID
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	query := `
		SELECT id, email, full_name, role, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	var profile model.Profile
	err := r.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.Email,
		&profile.FullName,
		&profile.Role,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Профиль не найден
		}
		return nil, fmt.Errorf("get profile by id: %w", err)
	}

	return &profile, nil
}

// UpdateRole меняет роль пользователя
func (r *ProfileRepository) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	query := `
		UPDATE profiles
		SET role = $1
		WHERE id = $2
	`

	affected, err := r.ExecAffected(ctx, query, role, id)
	if err != nil {
		return fmt.Errorf("update profile role: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("update profile role: %w", model.ErrNotFound)
	}

	return nil
}
