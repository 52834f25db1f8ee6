package controller

import (
	"context"
	"net/http"

	"github.com/Freeeeeet/therapy_booking/internal/model"
	"github.com/Freeeeeet/therapy_booking/internal/service"
	"github.com/google/uuid"
)

// bookingAction оборачивает операции без тела запроса: разбор {id},
// вызов сервиса от имени пользователя и ответ с актуальной записью
func (c *Controller) bookingAction(
	operation string,
	fn func(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Booking, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r)
		if err != nil {
			c.writeError(w, r, err, operation)
			return
		}

		b, err := fn(r.Context(), PrincipalFrom(r.Context()), id)
		if err != nil {
			c.writeError(w, r, err, operation)
			return
		}

		writeJSON(w, http.StatusOK, newBookingResponse(b))
	}
}

func (c *Controller) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := decodeJSON(r, &req, false); err != nil {
		c.writeError(w, r, err, "create_booking")
		return
	}

	date, err := parseDate("session_date", req.SessionDate)
	if err != nil {
		c.writeError(w, r, err, "create_booking")
		return
	}

	b, err := c.bookings.Create(r.Context(), PrincipalFrom(r.Context()), service.CreateBookingInput{
		TherapistID:        req.TherapistID,
		SessionDate:        date,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		ProblemDescription: req.ProblemDescription,
	})
	if err != nil {
		c.writeError(w, r, err, "create_booking")
		return
	}

	writeJSON(w, http.StatusCreated, newBookingResponse(b))
}

func (c *Controller) handleListBookings(w http.ResponseWriter, r *http.Request) {
	status := model.BookingStatus(r.URL.Query().Get("status"))

	bookings, err := c.bookings.List(r.Context(), PrincipalFrom(r.Context()), status)
	if err != nil {
		c.writeError(w, r, err, "list_bookings")
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp = append(resp, newBookingResponse(b))
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": resp, "count": len(resp)})
}

func (c *Controller) handleCompleteBooking(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeJSON(r, &req, true); err != nil {
		c.writeError(w, r, err, "complete")
		return
	}

	c.bookingAction("complete", func(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Booking, error) {
		return c.bookings.Complete(ctx, p, id, req.NextSessionNotes)
	})(w, r)
}

func (c *Controller) handleSetMeetingLink(w http.ResponseWriter, r *http.Request) {
	var req meetingLinkRequest
	if err := decodeJSON(r, &req, false); err != nil {
		c.writeError(w, r, err, "meeting_link")
		return
	}

	c.bookingAction("meeting_link", func(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Booking, error) {
		return c.bookings.SetMeetingLink(ctx, p, id, req.MeetingLink)
	})(w, r)
}

func (c *Controller) handleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if err := decodeJSON(r, &req, false); err != nil {
		c.writeError(w, r, err, "notes")
		return
	}

	c.bookingAction("notes", func(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Booking, error) {
		return c.bookings.UpdateNotes(ctx, p, id, service.NotesInput{
			SessionNotes:     req.SessionNotes,
			NextSessionNotes: req.NextSessionNotes,
		})
	})(w, r)
}

func (c *Controller) handleProposeReschedule(w http.ResponseWriter, r *http.Request) {
	var req rescheduleRequest
	if err := decodeJSON(r, &req, false); err != nil {
		c.writeError(w, r, err, "reschedule_propose")
		return
	}

	date, err := parseDate("proposed_date", req.ProposedDate)
	if err != nil {
		c.writeError(w, r, err, "reschedule_propose")
		return
	}

	c.bookingAction("reschedule_propose", func(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Booking, error) {
		return c.bookings.ProposeReschedule(ctx, p, id, service.RescheduleInput{
			Date:      date,
			StartTime: req.ProposedStartTime,
			Reason:    req.Reason,
		})
	})(w, r)
}

// ============ Администрирование ============

func (c *Controller) handleAdminSetStatus(w http.ResponseWriter, r *http.Request) {
	var req adminStatusRequest
	if err := decodeJSON(r, &req, false); err != nil {
		c.writeError(w, r, err, "admin_status")
		return
	}

	c.bookingAction("admin_status", func(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Booking, error) {
		return c.bookings.AdminSetStatus(ctx, p, id, req.Status, req.Force)
	})(w, r)
}

func (c *Controller) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		c.writeError(w, r, err, "admin_delete")
		return
	}

	if err := c.bookings.AdminDelete(r.Context(), PrincipalFrom(r.Context()), id); err != nil {
		c.writeError(w, r, err, "admin_delete")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
