package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusCompleted,
	BookingStatusCancelled,
	BookingStatusRejected,
}

func TestCanTransitionGraph(t *testing.T) {
	allowed := map[[2]BookingStatus]bool{
		{BookingStatusPending, BookingStatusConfirmed}:   true,
		{BookingStatusPending, BookingStatusRejected}:    true,
		{BookingStatusPending, BookingStatusCancelled}:   true,
		{BookingStatusConfirmed, BookingStatusCompleted}: true,
		{BookingStatusConfirmed, BookingStatusCancelled}: true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := allowed[[2]BookingStatus{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestNoPathReturnsToPending(t *testing.T) {
	for _, from := range allStatuses {
		assert.False(t, CanTransition(from, BookingStatusPending), "%s -> pending", from)
	}
}

func TestPendingCannotSkipToCompleted(t *testing.T) {
	err := CheckTransition(BookingStatusPending, BookingStatusCompleted)

	var terr *TransitionError
	assert.True(t, errors.As(err, &terr))
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, BookingStatusPending, terr.From)
	assert.Equal(t, BookingStatusCompleted, terr.To)
}

func TestTerminalStatuses(t *testing.T) {
	assert.False(t, BookingStatusPending.IsTerminal())
	assert.False(t, BookingStatusConfirmed.IsTerminal())
	assert.True(t, BookingStatusCompleted.IsTerminal())
	assert.True(t, BookingStatusCancelled.IsTerminal())
	assert.True(t, BookingStatusRejected.IsTerminal())
	assert.False(t, BookingStatus("archived").IsTerminal())
	assert.False(t, BookingStatus("archived").Valid())
}

func TestRescheduleState(t *testing.T) {
	date := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)

	b := &Booking{}
	assert.Equal(t, RescheduleNone, b.RescheduleState())
	_, open := b.OpenChannel()
	assert.False(t, open)

	b.PatientReschedule = RescheduleProposal{Requested: true, Date: &date, StartTime: "10:00"}
	assert.Equal(t, ReschedulePatientProposed, b.RescheduleState())
	channel, open := b.OpenChannel()
	assert.True(t, open)
	assert.Equal(t, ChannelPatient, channel)

	b.TherapistReschedule = RescheduleProposal{Requested: true}
	assert.Equal(t, RescheduleContested, b.RescheduleState())
	_, open = b.OpenChannel()
	assert.False(t, open)

	b.PatientReschedule = RescheduleProposal{}
	assert.Equal(t, RescheduleTherapistProposed, b.RescheduleState())

	b.ClearReschedule()
	assert.Equal(t, RescheduleNone, b.RescheduleState())
	assert.Nil(t, b.PatientReschedule.Date)
}

func TestChannelCounterpart(t *testing.T) {
	assert.Equal(t, ChannelTherapist, ChannelPatient.Counterpart())
	assert.Equal(t, ChannelPatient, ChannelTherapist.Counterpart())
}
