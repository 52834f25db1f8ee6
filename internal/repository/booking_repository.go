package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/therapy_booking/internal/model"
	"github.com/Freeeeeet/therapy_booking/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `id, patient_id, therapist_id, session_date,
		to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
		amount_cents, status, patient_name, patient_email,
		problem_description, meeting_link, session_notes, next_session_notes,
		reschedule_requested, proposed_date, to_char(proposed_start_time, 'HH24:MI'), reschedule_reason,
		therapist_reschedule_requested, therapist_proposed_date, to_char(therapist_proposed_time, 'HH24:MI'), therapist_reschedule_reason,
		version, created_at, updated_at`

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(db base.DBTX) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(db)}
}

// Create создаёт новое бронирование
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (id, patient_id, therapist_id, session_date, start_time, end_time,
			amount_cents, status, patient_name, patient_email, problem_description)
		VALUES ($1, $2, $3, $4, $5::text::time, $6::text::time, $7, $8, $9, $10, $11)
		RETURNING version, created_at, updated_at
	`

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}

	err := r.QueryRow(
		ctx, query,
		booking.ID,
		booking.PatientID,
		booking.TherapistID,
		booking.SessionDate,
		booking.StartTime,
		booking.EndTime,
		booking.AmountCents,
		booking.Status,
		booking.PatientName,
		booking.PatientEmail,
		booking.ProblemDescription,
	).Scan(&booking.Version, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

// List получает бронирования по фильтру, ближайшие сессии первыми
func (r *BookingRepository) List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.PatientID != nil {
		conditions = append(conditions, "patient_id = "+arg(*filter.PatientID))
	}
	if filter.TherapistID != nil {
		conditions = append(conditions, "therapist_id = "+arg(*filter.TherapistID))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = "+arg(filter.Status))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY session_date, start_time, created_at"

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*model.Booking{}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}

// Update сохраняет изменяемые поля, если версия строки не поменялась с момента чтения.
// patient_id, therapist_id, amount_cents и created_at не перезаписываются никогда.
// Ноль затронутых строк означает, что запись изменили или удалили параллельно.
func (r *BookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	query := `
		UPDATE bookings
		SET status = $1,
			session_date = $2,
			start_time = $3::text::time,
			end_time = $4::text::time,
			meeting_link = $5,
			session_notes = $6,
			next_session_notes = $7,
			reschedule_requested = $8,
			proposed_date = $9,
			proposed_start_time = $10::text::time,
			reschedule_reason = $11,
			therapist_reschedule_requested = $12,
			therapist_proposed_date = $13,
			therapist_proposed_time = $14::text::time,
			therapist_reschedule_reason = $15,
			version = version + 1
		WHERE id = $16 AND version = $17
		RETURNING version, updated_at
	`

	patient := booking.PatientReschedule
	therapist := booking.TherapistReschedule

	err := r.QueryRow(
		ctx, query,
		booking.Status,
		booking.SessionDate,
		booking.StartTime,
		booking.EndTime,
		booking.MeetingLink,
		booking.SessionNotes,
		booking.NextSessionNotes,
		patient.Requested,
		patient.Date,
		nullableClock(patient.StartTime),
		patient.Reason,
		therapist.Requested,
		therapist.Date,
		nullableClock(therapist.StartTime),
		therapist.Reason,
		booking.ID,
		booking.Version,
	).Scan(&booking.Version, &booking.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("update booking: %w", model.ErrConflict)
		}
		return fmt.Errorf("update booking: %w", err)
	}

	return nil
}

// Delete удаляет бронирование
func (r *BookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("delete booking: %w", model.ErrNotFound)
	}

	return nil
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var (
		b                     model.Booking
		patientProposedTime   *string
		therapistProposedTime *string
		patientProposedDate   *time.Time
		therapistProposedDate *time.Time
	)

	err := row.Scan(
		&b.ID,
		&b.PatientID,
		&b.TherapistID,
		&b.SessionDate,
		&b.StartTime,
		&b.EndTime,
		&b.AmountCents,
		&b.Status,
		&b.PatientName,
		&b.PatientEmail,
		&b.ProblemDescription,
		&b.MeetingLink,
		&b.SessionNotes,
		&b.NextSessionNotes,
		&b.PatientReschedule.Requested,
		&patientProposedDate,
		&patientProposedTime,
		&b.PatientReschedule.Reason,
		&b.TherapistReschedule.Requested,
		&therapistProposedDate,
		&therapistProposedTime,
		&b.TherapistReschedule.Reason,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.PatientReschedule.Date = patientProposedDate
	b.TherapistReschedule.Date = therapistProposedDate
	if patientProposedTime != nil {
		b.PatientReschedule.StartTime = *patientProposedTime
	}
	if therapistProposedTime != nil {
		b.TherapistReschedule.StartTime = *therapistProposedTime
	}

	return &b, nil
}

func nullableClock(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
