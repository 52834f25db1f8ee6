package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/therapy_booking/internal/model"
	"github.com/Freeeeeet/therapy_booking/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const therapistColumns = `id, full_name, specialization, fee_cents, bio, years_experience, license,
		active, approval_status, created_at, updated_at`

type TherapistRepository struct {
	*base.Repository
}

func NewTherapistRepository(db base.DBTX) *TherapistRepository {
	return &TherapistRepository{Repository: base.NewRepository(db)}
}

// Create создаёт запись каталога при регистрации терапевта
func (r *TherapistRepository) Create(ctx context.Context, t *model.Therapist) error {
	query := `
		INSERT INTO therapists (id, full_name, specialization, fee_cents, bio, years_experience, license, active, approval_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		t.ID,
		t.FullName,
		t.Specialization,
		t.FeeCents,
		t.Bio,
		t.YearsExperience,
		t.License,
		t.Active,
		t.ApprovalStatus,
	).Scan(&t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create therapist: %w", model.ErrConflict)
		}
		return fmt.Errorf("create therapist: %w", err)
	}

	return nil
}

// GetByID получает терапевта по ID без учёта видимости
func (r *TherapistRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Therapist, error) {
	query := `SELECT ` + therapistColumns + ` FROM therapists WHERE id = $1`

	t, err := scanTherapist(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get therapist by id: %w", err)
	}

	return t, nil
}

// List возвращает терапевтов по фильтру, отсортированных по имени
func (r *TherapistRepository) List(ctx context.Context, filter model.TherapistFilter) ([]*model.Therapist, error) {
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.PublicOnly {
		visible := "(approval_status = 'approved' AND active = true)"
		if filter.IncludeOwnerID != nil {
			visible = "(" + visible + " OR id = " + arg(*filter.IncludeOwnerID) + ")"
		}
		conditions = append(conditions, visible)
	}
	if filter.ApprovalStatus != "" {
		conditions = append(conditions, "approval_status = "+arg(filter.ApprovalStatus))
	}
	if s := strings.TrimSpace(filter.Specialization); s != "" {
		conditions = append(conditions, "lower(specialization) = lower("+arg(s)+")")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := arg("%" + escapeLike(s) + "%")
		conditions = append(conditions,
			"(full_name ILIKE "+p+" OR specialization ILIKE "+p+" OR bio ILIKE "+p+")")
	}

	query := `SELECT ` + therapistColumns + ` FROM therapists`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY full_name, id"

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list therapists: %w", err)
	}
	defer rows.Close()

	therapists := []*model.Therapist{}
	for rows.Next() {
		t, err := scanTherapist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan therapist: %w", err)
		}
		therapists = append(therapists, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate therapists: %w", err)
	}

	return therapists, nil
}

// UpdateProfile обновляет отображаемые атрибуты
func (r *TherapistRepository) UpdateProfile(ctx context.Context, t *model.Therapist) error {
	query := `
		UPDATE therapists
		SET full_name = $1, specialization = $2, fee_cents = $3, bio = $4, years_experience = $5, license = $6
		WHERE id = $7
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		t.FullName,
		t.Specialization,
		t.FeeCents,
		t.Bio,
		t.YearsExperience,
		t.License,
		t.ID,
	).Scan(&t.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("update therapist: %w", model.ErrNotFound)
		}
		return fmt.Errorf("update therapist: %w", err)
	}

	return nil
}

// SetApproval меняет статус одобрения
func (r *TherapistRepository) SetApproval(ctx context.Context, id uuid.UUID, status model.ApprovalStatus) error {
	affected, err := r.ExecAffected(ctx, `UPDATE therapists SET approval_status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("set therapist approval: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("set therapist approval: %w", model.ErrNotFound)
	}

	return nil
}

// SetActive меняет флаг активности
func (r *TherapistRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	affected, err := r.ExecAffected(ctx, `UPDATE therapists SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("set therapist active: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("set therapist active: %w", model.ErrNotFound)
	}

	return nil
}

func scanTherapist(row pgx.Row) (*model.Therapist, error) {
	var t model.Therapist
	err := row.Scan(
		&t.ID,
		&t.FullName,
		&t.Specialization,
		&t.FeeCents,
		&t.Bio,
		&t.YearsExperience,
		&t.License,
		&t.Active,
		&t.ApprovalStatus,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
