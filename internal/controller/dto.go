package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Freeeeeet/therapy_booking/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// ============ Ответы ============

type profileResponse struct {
	ID       uuid.UUID  `json:"id"`
	Email    string     `json:"email"`
	FullName string     `json:"full_name"`
	Role     model.Role `json:"role"`
}

func newProfileResponse(p *model.Profile) profileResponse {
	return profileResponse{ID: p.ID, Email: p.Email, FullName: p.FullName, Role: p.Role}
}

type therapistResponse struct {
	ID              uuid.UUID            `json:"id"`
	FullName        string               `json:"full_name"`
	Specialization  string               `json:"specialization"`
	FeeCents        int64                `json:"fee_cents"`
	Bio             string               `json:"bio"`
	YearsExperience int                  `json:"years_experience"`
	License         string               `json:"license,omitempty"`
	Active          bool                 `json:"active"`
	ApprovalStatus  model.ApprovalStatus `json:"approval_status"`
}

func newTherapistResponse(t *model.Therapist) therapistResponse {
	return therapistResponse{
		ID:              t.ID,
		FullName:        t.FullName,
		Specialization:  t.Specialization,
		FeeCents:        t.FeeCents,
		Bio:             t.Bio,
		YearsExperience: t.YearsExperience,
		License:         t.License,
		Active:          t.Active,
		ApprovalStatus:  t.ApprovalStatus,
	}
}

type proposalResponse struct {
	Requested         bool    `json:"requested"`
	ProposedDate      *string `json:"proposed_date,omitempty"`
	ProposedStartTime string  `json:"proposed_start_time,omitempty"`
	Reason            string  `json:"reason,omitempty"`
}

func newProposalResponse(p model.RescheduleProposal) proposalResponse {
	resp := proposalResponse{
		Requested:         p.Requested,
		ProposedStartTime: p.StartTime,
		Reason:            p.Reason,
	}
	if p.Date != nil {
		d := p.Date.Format(dateLayout)
		resp.ProposedDate = &d
	}
	return resp
}

type bookingResponse struct {
	ID                  uuid.UUID             `json:"id"`
	PatientID           uuid.UUID             `json:"patient_id"`
	TherapistID         uuid.UUID             `json:"therapist_id"`
	SessionDate         string                `json:"session_date"`
	StartTime           string                `json:"start_time"`
	EndTime             *string               `json:"end_time,omitempty"`
	AmountCents         int64                 `json:"amount_cents"`
	Status              model.BookingStatus   `json:"status"`
	PatientName         string                `json:"patient_name"`
	PatientEmail        string                `json:"patient_email"`
	ProblemDescription  string                `json:"problem_description"`
	MeetingLink         string                `json:"meeting_link,omitempty"`
	SessionNotes        string                `json:"session_notes,omitempty"`
	NextSessionNotes    string                `json:"next_session_notes,omitempty"`
	RescheduleState     model.RescheduleState `json:"reschedule_state"`
	PatientReschedule   proposalResponse      `json:"patient_reschedule"`
	TherapistReschedule proposalResponse      `json:"therapist_reschedule"`
	Version             int64                 `json:"version"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

func newBookingResponse(b *model.Booking) bookingResponse {
	return bookingResponse{
		ID:                  b.ID,
		PatientID:           b.PatientID,
		TherapistID:         b.TherapistID,
		SessionDate:         b.SessionDate.Format(dateLayout),
		StartTime:           b.StartTime,
		EndTime:             b.EndTime,
		AmountCents:         b.AmountCents,
		Status:              b.Status,
		PatientName:         b.PatientName,
		PatientEmail:        b.PatientEmail,
		ProblemDescription:  b.ProblemDescription,
		MeetingLink:         b.MeetingLink,
		SessionNotes:        b.SessionNotes,
		NextSessionNotes:    b.NextSessionNotes,
		RescheduleState:     b.RescheduleState(),
		PatientReschedule:   newProposalResponse(b.PatientReschedule),
		TherapistReschedule: newProposalResponse(b.TherapistReschedule),
		Version:             b.Version,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}
}

// ============ Запросы ============

type createProfileRequest struct {
	Role     model.Role `json:"role"`
	FullName string     `json:"full_name"`
}

type setRoleRequest struct {
	Role model.Role `json:"role"`
}

type therapistRequest struct {
	FullName        *string `json:"full_name"`
	Specialization  *string `json:"specialization"`
	FeeCents        *int64  `json:"fee_cents"`
	Bio             *string `json:"bio"`
	YearsExperience *int    `json:"years_experience"`
	License         *string `json:"license"`
}

type approvalRequest struct {
	ApprovalStatus model.ApprovalStatus `json:"approval_status"`
}

type activeRequest struct {
	Active *bool `json:"active"`
}

type createBookingRequest struct {
	TherapistID        uuid.UUID `json:"therapist_id"`
	SessionDate        string    `json:"session_date"`
	StartTime          string    `json:"start_time"`
	EndTime            *string   `json:"end_time"`
	ProblemDescription string    `json:"problem_description"`
}

type completeRequest struct {
	NextSessionNotes *string `json:"next_session_notes"`
}

type meetingLinkRequest struct {
	MeetingLink string `json:"meeting_link"`
}

type notesRequest struct {
	SessionNotes     *string `json:"session_notes"`
	NextSessionNotes *string `json:"next_session_notes"`
}

type rescheduleRequest struct {
	ProposedDate      string `json:"proposed_date"`
	ProposedStartTime string `json:"proposed_start_time"`
	Reason            string `json:"reason"`
}

type adminStatusRequest struct {
	Status model.BookingStatus `json:"status"`
	Force  bool                `json:"force"`
}

// ============ Разбор ============

// decodeJSON читает тело запроса; при optional пустое тело допустимо
func decodeJSON(r *http.Request, dst any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, model.NewValidationError(field, "is required")
	}
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, model.NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return d, nil
}

// urlID разбирает {id}; кривой идентификатор неотличим от отсутствующей записи
func urlID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, model.ErrNotFound
	}
	return id, nil
}
