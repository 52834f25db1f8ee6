package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/therapy_booking/internal/access"
	"github.com/Freeeeeet/therapy_booking/internal/metrics"
	"github.com/Freeeeeet/therapy_booking/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService struct {
	bookings   BookingStore
	therapists TherapistStore
	metrics    *metrics.BookingMetrics
	logger     *zap.Logger
	now        func() time.Time
}

func NewBookingService(
	bookings BookingStore,
	therapists TherapistStore,
	m *metrics.BookingMetrics,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:   bookings,
		therapists: therapists,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock подменяет источник текущего времени
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

// CreateBookingInput данные новой записи
type CreateBookingInput struct {
	TherapistID        uuid.UUID
	SessionDate        time.Time
	StartTime          string
	EndTime            *string
	ProblemDescription string
}

// NotesInput заметки терапевта, nil означает "не менять"
type NotesInput struct {
	SessionNotes     *string
	NextSessionNotes *string
}

// Create записывает пациента к терапевту. Сумма фиксируется по текущей цене терапевта.
func (s *BookingService) Create(ctx context.Context, p *model.Principal, in CreateBookingInput) (*model.Booking, error) {
	if p == nil {
		return nil, model.ErrUnauthenticated
	}

	if p.Role != model.RolePatient {
		return nil, s.deny("create", model.ErrForbidden)
	}

	// Терапевт должен быть одобрен и активен на момент записи
	therapist, err := s.therapists.GetByID(ctx, in.TherapistID)
	if err != nil {
		return nil, fmt.Errorf("get therapist: %w", err)
	}

	if !access.CanViewTherapistPublicly(therapist) {
		return nil, s.deny("create", model.ErrNotFound)
	}

	// Пациент и терапевт записи должны быть разными людьми
	if therapist.ID == p.ID {
		return nil, model.NewValidationError("therapist_id", "cannot book a session with yourself")
	}

	if err := model.ValidateSessionDate("session_date", in.SessionDate, s.now()); err != nil {
		return nil, err
	}

	start, err := model.ParseClock("start_time", in.StartTime)
	if err != nil {
		return nil, err
	}

	var end *string
	if in.EndTime != nil && strings.TrimSpace(*in.EndTime) != "" {
		e, err := model.ParseClock("end_time", *in.EndTime)
		if err != nil {
			return nil, err
		}
		// HH:MM сравнивается лексикографически
		if e <= start {
			return nil, model.NewValidationError("end_time", "must be after start_time")
		}
		end = &e
	}

	booking := &model.Booking{
		PatientID:          p.ID,
		TherapistID:        therapist.ID,
		SessionDate:        model.DateOf(in.SessionDate),
		StartTime:          start,
		EndTime:            end,
		AmountCents:        therapist.FeeCents,
		Status:             model.BookingStatusPending,
		PatientName:        p.FullName,
		PatientEmail:       p.Email,
		ProblemDescription: strings.TrimSpace(in.ProblemDescription),
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.metrics.ObserveTransition("none", string(model.BookingStatusPending), string(p.Role))

	s.logger.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("patient_id", p.ID.String()),
		zap.String("therapist_id", therapist.ID.String()),
		zap.Time("session_date", booking.SessionDate),
		zap.Int64("amount_cents", booking.AmountCents),
	)

	return booking, nil
}

// Get получает бронирование, если principal вправе его читать
func (s *BookingService) Get(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Booking, error) {
	return s.load(ctx, p, id, "get")
}

// List: пациент видит свои записи, терапевт назначенные ему, админ все
func (s *BookingService) List(ctx context.Context, p *model.Principal, status model.BookingStatus) ([]*model.Booking, error) {
	if p == nil {
		return nil, model.ErrUnauthenticated
	}

	if status != "" && !status.Valid() {
		return nil, model.NewValidationError("status", "is not a known booking status")
	}

	filter := model.BookingFilter{Status: status}
	switch p.Role {
	case model.RoleAdmin:
	case model.RoleTherapist:
		filter.TherapistID = &p.ID
	case model.RolePatient:
		filter.PatientID = &p.ID
	default:
		return nil, model.ErrForbidden
	}

	bookings, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	readable := make([]*model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if access.CanRead(p, b) {
			readable = append(readable, b)
		}
	}

	return readable, nil
}

// ============ Переходы статуса ============

// Confirm принимает запись (назначенный терапевт)
func (s *BookingService) Confirm(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Booking, error) {
	return s.transition(ctx, p, id, "confirm", model.BookingStatusConfirmed, access.IsAssignedTherapist, nil)
}

// Reject отклоняет запись (назначенный терапевт)
func (s *BookingService) Reject(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Booking, error) {
	return s.transition(ctx, p, id, "reject", model.BookingStatusRejected, access.IsAssignedTherapist, nil)
}

// Complete отмечает сессию проведённой, опционально с заметками к следующей
func (s *BookingService) Complete(ctx context.Context, p *model.Principal, id uuid.UUID, nextSessionNotes *string) (*model.Booking, error) {
	return s.transition(ctx, p, id, "complete", model.BookingStatusCompleted, access.IsAssignedTherapist,
		func(b *model.Booking) {
			if nextSessionNotes != nil {
				b.NextSessionNotes = *nextSessionNotes
			}
		})
}

// Cancel отменяет запись (пациент или назначенный терапевт)
func (s *BookingService) Cancel(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Booking, error) {
	return s.transition(ctx, p, id, "cancel", model.BookingStatusCancelled,
		func(p *model.Principal, b *model.Booking) bool {
			return access.IsPatient(p, b) || access.IsAssignedTherapist(p, b)
		}, nil)
}

// transition применяет одно ребро графа статусов. Предусловие проверяется по
// состоянию записи, прочитанному здесь же, а запись сохраняется только если
// версия строки не изменилась.
func (s *BookingService) transition(
	ctx context.Context,
	p *model.Principal,
	id uuid.UUID,
	op string,
	to model.BookingStatus,
	allowed func(*model.Principal, *model.Booking) bool,
	mutate func(*model.Booking),
) (*model.Booking, error) {
	b, err := s.load(ctx, p, id, op)
	if err != nil {
		return nil, err
	}

	from := b.Status
	if err := model.CheckTransition(from, to); err != nil {
		return nil, s.deny(op, err)
	}

	if !allowed(p, b) {
		return nil, s.deny(op, model.ErrForbidden)
	}

	b.Status = to
	if to.IsTerminal() {
		b.ClearReschedule()
	}
	if mutate != nil {
		mutate(b)
	}

	if err := s.save(ctx, b, op); err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(string(from), string(to), string(p.Role))

	s.logger.Info("Booking status changed",
		zap.String("booking_id", id.String()),
		zap.String("actor_id", p.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	return b, nil
}

// ============ Администрирование ============

// AdminSetStatus ставит статус напрямую. Без force допускается только одно
// ребро графа; force позволяет любой статус и логируется отдельно.
func (s *BookingService) AdminSetStatus(ctx context.Context, p *model.Principal, id uuid.UUID, to model.BookingStatus, force bool) (*model.Booking, error) {
	if p == nil {
		return nil, model.ErrUnauthenticated
	}

	if !access.IsAdmin(p) {
		return nil, s.deny("admin_status", model.ErrForbidden)
	}

	if !to.Valid() {
		return nil, model.NewValidationError("status", "is not a known booking status")
	}

	b, err := s.load(ctx, p, id, "admin_status")
	if err != nil {
		return nil, err
	}

	from := b.Status
	if !force {
		if err := model.CheckTransition(from, to); err != nil {
			return nil, s.deny("admin_status", err)
		}
	}

	if from == to {
		return b, nil
	}

	b.Status = to
	if to.IsTerminal() {
		b.ClearReschedule()
	}

	if err := s.save(ctx, b, "admin_status"); err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(string(from), string(to), string(p.Role))

	fields := []zap.Field{
		zap.String("booking_id", id.String()),
		zap.String("admin_id", p.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	}
	if force {
		s.logger.Warn("Booking status forced by admin", fields...)
	} else {
		s.logger.Info("Booking status changed by admin", fields...)
	}

	return b, nil
}

// AdminDelete удаляет запись полностью
func (s *BookingService) AdminDelete(ctx context.Context, p *model.Principal, id uuid.UUID) error {
	if p == nil {
		return model.ErrUnauthenticated
	}

	if !access.IsAdmin(p) {
		return s.deny("admin_delete", model.ErrForbidden)
	}

	if err := s.bookings.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("delete booking: %w", err)
	}

	s.logger.Warn("Booking deleted by admin",
		zap.String("booking_id", id.String()),
		zap.String("admin_id", p.ID.String()),
	)

	return nil
}

// ============ Поля сессии ============

// SetMeetingLink сохраняет ссылку на видеовстречу (только https)
func (s *BookingService) SetMeetingLink(ctx context.Context, p *model.Principal, id uuid.UUID, link string) (*model.Booking, error) {
	link = strings.TrimSpace(link)
	if err := model.ValidateMeetingLink(link); err != nil {
		return nil, err
	}

	b, err := s.loadForTherapist(ctx, p, id, "meeting_link")
	if err != nil {
		return nil, err
	}

	if !b.Status.IsActive() {
		return nil, fmt.Errorf("%w: booking is %s", model.ErrConflict, b.Status)
	}

	b.MeetingLink = link

	if err := s.save(ctx, b, "meeting_link"); err != nil {
		return nil, err
	}

	s.logger.Info("Meeting link set",
		zap.String("booking_id", id.String()),
		zap.String("actor_id", p.ID.String()),
	)

	return b, nil
}

// UpdateNotes обновляет заметки терапевта
func (s *BookingService) UpdateNotes(ctx context.Context, p *model.Principal, id uuid.UUID, in NotesInput) (*model.Booking, error) {
	b, err := s.loadForTherapist(ctx, p, id, "notes")
	if err != nil {
		return nil, err
	}

	if b.Status == model.BookingStatusCancelled || b.Status == model.BookingStatusRejected {
		return nil, fmt.Errorf("%w: booking is %s", model.ErrConflict, b.Status)
	}

	if in.SessionNotes != nil {
		b.SessionNotes = *in.SessionNotes
	}
	if in.NextSessionNotes != nil {
		b.NextSessionNotes = *in.NextSessionNotes
	}

	if err := s.save(ctx, b, "notes"); err != nil {
		return nil, err
	}

	return b, nil
}

// ============ Общее ============

// load читает запись и проверяет право чтения
func (s *BookingService) load(ctx context.Context, p *model.Principal, id uuid.UUID, op string) (*model.Booking, error) {
	if p == nil {
		return nil, model.ErrUnauthenticated
	}

	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	if b == nil {
		return nil, model.ErrNotFound
	}

	if !access.CanWrite(p, b) {
		return nil, s.deny(op, model.ErrForbidden)
	}

	return b, nil
}

// loadForTherapist: назначенный терапевт или админ
func (s *BookingService) loadForTherapist(ctx context.Context, p *model.Principal, id uuid.UUID, op string) (*model.Booking, error) {
	b, err := s.load(ctx, p, id, op)
	if err != nil {
		return nil, err
	}

	if !access.IsAssignedTherapist(p, b) && !access.IsAdmin(p) {
		return nil, s.deny(op, model.ErrForbidden)
	}

	return b, nil
}

func (s *BookingService) save(ctx context.Context, b *model.Booking, op string) error {
	if err := s.bookings.Update(ctx, b); err != nil {
		if errors.Is(err, model.ErrConflict) {
			s.logger.Info("Booking changed concurrently",
				zap.String("booking_id", b.ID.String()),
				zap.String("operation", op),
			)
			return s.deny(op, model.ErrConflict)
		}
		return fmt.Errorf("update booking: %w", err)
	}
	return nil
}

// deny учитывает отказ в метриках и возвращает исходную ошибку
func (s *BookingService) deny(op string, err error) error {
	reason := "other"
	switch {
	case errors.Is(err, model.ErrForbidden):
		reason = "forbidden"
	case errors.Is(err, model.ErrNotFound):
		reason = "not_found"
	case errors.Is(err, model.ErrInvalidTransition):
		reason = "invalid_transition"
	case errors.Is(err, model.ErrConflict):
		reason = "conflict"
	}
	s.metrics.ObserveDenied(op, reason)
	return err
}
