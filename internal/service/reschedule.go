package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/therapy_booking/internal/access"
	"github.com/Freeeeeet/therapy_booking/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RescheduleInput предложение нового времени сессии
type RescheduleInput struct {
	Date      time.Time
	StartTime string
	Reason    string
}

// ProposeReschedule открывает канал переноса стороны, от имени которой действует principal.
// Пока открыт канал другой стороны, новое предложение отклоняется с ErrConflict;
// своё открытое предложение можно пересмотреть.
func (s *BookingService) ProposeReschedule(ctx context.Context, p *model.Principal, id uuid.UUID, in RescheduleInput) (*model.Booking, error) {
	b, err := s.load(ctx, p, id, "reschedule_propose")
	if err != nil {
		return nil, err
	}

	channel, ok := access.RescheduleChannelFor(p, b)
	if !ok {
		return nil, s.deny("reschedule_propose", model.ErrForbidden)
	}

	if !b.Status.IsActive() {
		return nil, s.deny("reschedule_propose",
			fmt.Errorf("%w: booking is %s", model.ErrConflict, b.Status))
	}

	if err := model.ValidateSessionDate("proposed_date", in.Date, s.now()); err != nil {
		return nil, err
	}

	start, err := model.ParseClock("proposed_start_time", in.StartTime)
	if err != nil {
		return nil, err
	}

	// Перенос не должен выводить сессию за полночь
	if _, err := shiftEnd(b.StartTime, b.EndTime, start); err != nil {
		return nil, err
	}

	if b.Proposal(channel.Counterpart()).Requested {
		return nil, s.deny("reschedule_propose",
			fmt.Errorf("%w: %s proposal is open", model.ErrConflict, channel.Counterpart()))
	}

	revised := b.Proposal(channel).Requested

	date := model.DateOf(in.Date)
	*b.Proposal(channel) = model.RescheduleProposal{
		Requested: true,
		Date:      &date,
		StartTime: start,
		Reason:    strings.TrimSpace(in.Reason),
	}

	if err := s.save(ctx, b, "reschedule_propose"); err != nil {
		return nil, err
	}

	event := "proposed"
	if revised {
		event = "revised"
	}
	s.metrics.ObserveReschedule(string(channel), event)

	s.logger.Info("Reschedule proposed",
		zap.String("booking_id", id.String()),
		zap.String("channel", string(channel)),
		zap.Time("proposed_date", date),
		zap.String("proposed_start_time", start),
		zap.Bool("revised", revised),
	)

	return b, nil
}

// AcceptReschedule переносит сессию на предложенное время. Принять может
// только другая сторона или админ; статус записи не меняется.
func (s *BookingService) AcceptReschedule(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Booking, error) {
	b, err := s.load(ctx, p, id, "reschedule_accept")
	if err != nil {
		return nil, err
	}

	if b.RescheduleState() == model.RescheduleContested {
		return nil, s.deny("reschedule_accept",
			fmt.Errorf("%w: both parties have open proposals", model.ErrConflict))
	}

	open, ok := b.OpenChannel()
	if !ok {
		return nil, s.deny("reschedule_accept",
			fmt.Errorf("%w: no open reschedule proposal", model.ErrConflict))
	}

	if !access.IsAdmin(p) {
		channel, ok := access.RescheduleChannelFor(p, b)
		if !ok || channel != open.Counterpart() {
			return nil, s.deny("reschedule_accept", model.ErrForbidden)
		}
	}

	if !b.Status.IsActive() {
		return nil, s.deny("reschedule_accept",
			fmt.Errorf("%w: booking is %s", model.ErrConflict, b.Status))
	}

	proposal := *b.Proposal(open)
	if proposal.Date == nil || proposal.StartTime == "" {
		return nil, model.NewValidationError("proposed_date", "is required")
	}

	// Предложение могло устареть, пока ждало ответа
	if err := model.ValidateSessionDate("proposed_date", *proposal.Date, s.now()); err != nil {
		return nil, err
	}

	end, err := shiftEnd(b.StartTime, b.EndTime, proposal.StartTime)
	if err != nil {
		return nil, err
	}

	b.EndTime = end
	b.SessionDate = model.DateOf(*proposal.Date)
	b.StartTime = proposal.StartTime
	b.ClearReschedule()

	if err := s.save(ctx, b, "reschedule_accept"); err != nil {
		return nil, err
	}

	s.metrics.ObserveReschedule(string(open), "accepted")

	s.logger.Info("Reschedule accepted",
		zap.String("booking_id", id.String()),
		zap.String("channel", string(open)),
		zap.String("actor_id", p.ID.String()),
		zap.Time("session_date", b.SessionDate),
		zap.String("start_time", b.StartTime),
	)

	return b, nil
}

// DeclineReschedule закрывает переговоры без изменения расписания.
// Предложившая сторона так отзывает своё предложение.
func (s *BookingService) DeclineReschedule(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Booking, error) {
	b, err := s.load(ctx, p, id, "reschedule_decline")
	if err != nil {
		return nil, err
	}

	if !access.IsAdmin(p) {
		if _, ok := access.RescheduleChannelFor(p, b); !ok {
			return nil, s.deny("reschedule_decline", model.ErrForbidden)
		}
	}

	state := b.RescheduleState()
	if state == model.RescheduleNone {
		return nil, s.deny("reschedule_decline",
			fmt.Errorf("%w: no open reschedule proposal", model.ErrConflict))
	}

	open, _ := b.OpenChannel()
	event := "declined"
	if ch, ok := access.RescheduleChannelFor(p, b); ok && ch == open {
		event = "withdrawn"
	}

	b.ClearReschedule()

	if err := s.save(ctx, b, "reschedule_decline"); err != nil {
		return nil, err
	}

	channel := string(open)
	if state == model.RescheduleContested {
		channel = string(model.RescheduleContested)
	}
	s.metrics.ObserveReschedule(channel, event)

	s.logger.Info("Reschedule declined",
		zap.String("booking_id", id.String()),
		zap.String("state", string(state)),
		zap.String("event", event),
		zap.String("actor_id", p.ID.String()),
	)

	return b, nil
}

// shiftEnd сохраняет длительность сессии при переносе начала
func shiftEnd(oldStart string, oldEnd *string, newStart string) (*string, error) {
	if oldEnd == nil {
		return nil, nil
	}

	from, err1 := time.Parse("15:04", oldStart)
	to, err2 := time.Parse("15:04", *oldEnd)
	next, err3 := time.Parse("15:04", newStart)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, model.NewValidationError("proposed_start_time", "must be a valid HH:MM time")
	}

	end := next.Add(to.Sub(from))
	// Сессия не может переходить через полночь
	if end.Day() != next.Day() {
		return nil, model.NewValidationError("proposed_start_time", "session would end after midnight")
	}

	s := end.Format("15:04")
	return &s, nil
}
