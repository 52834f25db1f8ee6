package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // Ожидает ответа терапевта
	BookingStatusConfirmed BookingStatus = "confirmed" // Подтверждено
	BookingStatusCompleted BookingStatus = "completed" // Сессия проведена
	BookingStatusCancelled BookingStatus = "cancelled" // Отменено одной из сторон
	BookingStatusRejected  BookingStatus = "rejected"  // Отклонено терапевтом
)

// bookingTransitions is the complete status graph. Terminal states have no entry.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted,
		BookingStatusCancelled, BookingStatusRejected:
		return true
	}
	return false
}

// IsTerminal checks if no further transitions leave the status
func (s BookingStatus) IsTerminal() bool {
	return s.Valid() && len(bookingTransitions[s]) == 0
}

// IsActive checks if the booking is still open for negotiation
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// CanTransition сообщает, есть ли ребро from -> to в графе статусов
func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition возвращает *TransitionError, если ребра нет
func CheckTransition(from, to BookingStatus) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

type Booking struct {
	ID          uuid.UUID     `json:"id"`
	PatientID   uuid.UUID     `json:"patient_id"`
	TherapistID uuid.UUID     `json:"therapist_id"`
	SessionDate time.Time     `json:"session_date"`
	StartTime   string        `json:"start_time"` // HH:MM
	EndTime     *string       `json:"end_time"`
	AmountCents int64         `json:"amount_cents"` // снимок цены терапевта на момент записи
	Status      BookingStatus `json:"status"`

	// Снимок данных пациента, не живой join
	PatientName  string `json:"patient_name"`
	PatientEmail string `json:"patient_email"`

	ProblemDescription string `json:"problem_description"`
	MeetingLink        string `json:"meeting_link"`
	SessionNotes       string `json:"session_notes"`
	NextSessionNotes   string `json:"next_session_notes"`

	PatientReschedule   RescheduleProposal `json:"patient_reschedule"`
	TherapistReschedule RescheduleProposal `json:"therapist_reschedule"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Proposal returns the reschedule channel opened by the given party
func (b *Booking) Proposal(channel RescheduleChannel) *RescheduleProposal {
	if channel == ChannelTherapist {
		return &b.TherapistReschedule
	}
	return &b.PatientReschedule
}

// ClearReschedule закрывает оба канала переноса
func (b *Booking) ClearReschedule() {
	b.PatientReschedule = RescheduleProposal{}
	b.TherapistReschedule = RescheduleProposal{}
}

// BookingFilter задаёт выборку списка бронирований
type BookingFilter struct {
	PatientID   *uuid.UUID
	TherapistID *uuid.UUID
	Status      BookingStatus
}
