package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/therapy_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRescheduleAcceptedByTherapist(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	b := f.withStatus(t, model.BookingStatusConfirmed)

	proposed, err := f.svc.ProposeReschedule(ctx, f.patient, b.ID, RescheduleInput{
		Date:      day(6),
		StartTime: "16:30",
		Reason:    " work trip ",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ReschedulePatientProposed, proposed.RescheduleState())
	assert.True(t, proposed.PatientReschedule.Requested)
	assert.Equal(t, "work trip", proposed.PatientReschedule.Reason)
	assert.Equal(t, model.BookingStatusConfirmed, proposed.Status)
	assert.Equal(t, day(3), proposed.SessionDate)

	accepted, err := f.svc.AcceptReschedule(ctx, f.therapist, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RescheduleNone, accepted.RescheduleState())
	assert.False(t, accepted.PatientReschedule.Requested)
	assert.Equal(t, day(6), accepted.SessionDate)
	assert.Equal(t, "16:30", accepted.StartTime)
	assert.Equal(t, model.BookingStatusConfirmed, accepted.Status)

	stored := f.store.get(b.ID)
	assert.Equal(t, day(6), stored.SessionDate)
	assert.Equal(t, model.RescheduleNone, stored.RescheduleState())
}

func TestTherapistProposalAcceptedByPatient(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	b := f.create(t)

	_, err := f.svc.ProposeReschedule(ctx, f.therapist, b.ID, RescheduleInput{Date: day(4), StartTime: "08:00"})
	require.NoError(t, err)

	got, err := f.svc.AcceptReschedule(ctx, f.patient, b.ID)
	require.NoError(t, err)
	assert.Equal(t, day(4), got.SessionDate)
	assert.Equal(t, "08:00", got.StartTime)
	assert.Equal(t, model.BookingStatusPending, got.Status)
}

func TestProposalWhileOtherChannelOpen(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	b := f.withStatus(t, model.BookingStatusConfirmed)

	_, err := f.svc.ProposeReschedule(ctx, f.patient, b.ID, RescheduleInput{Date: day(5), StartTime: "10:00"})
	require.NoError(t, err)

	_, err = f.svc.ProposeReschedule(ctx, f.therapist, b.ID, RescheduleInput{Date: day(7), StartTime: "12:00"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConflict)

	stored := f.store.get(b.ID)
	assert.Equal(t, model.ReschedulePatientProposed, stored.RescheduleState())
	require.NotNil(t, stored.PatientReschedule.Date)
	assert.Equal(t, day(5), *stored.PatientReschedule.Date)
	assert.Nil(t, stored.TherapistReschedule.Date)
}

func TestProposerRevisesOwnProposal(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	b := f.create(t)

	_, err := f.svc.ProposeReschedule(ctx, f.patient, b.ID, RescheduleInput{Date: day(5), StartTime: "10:00", Reason: "first"})
	require.NoError(t, err)

	got, err := f.svc.ProposeReschedule(ctx, f.patient, b.ID, RescheduleInput{Date: day(8), StartTime: "11:15", Reason: "second"})
	require.NoError(t, err)
	assert.Equal(t, model.ReschedulePatientProposed, got.RescheduleState())
	assert.Equal(t, day(8), *got.PatientReschedule.Date)
	assert.Equal(t, "11:15", got.PatientReschedule.StartTime)
	assert.Equal(t, "second", got.PatientReschedule.Reason)
}

func TestProposerCannotAcceptOwnProposal(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	b := f.create(t)

	_, err := f.svc.ProposeReschedule(ctx, f.patient, b.ID, RescheduleInput{Date: day(5), StartTime: "10:00"})
	require.NoError(t, err)

	_, err = f.svc.AcceptReschedule(ctx, f.patient, b.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.Equal(t, day(3), f.store.get(b.ID).SessionDate)
}

func TestAdminAcceptsProposal(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	b := f.create(t)

	_, err := f.svc.ProposeReschedule(ctx, f.therapist, b.ID, RescheduleInput{Date: day(9), StartTime: "09:45"})
	require.NoError(t, err)

	got, err := f.svc.AcceptReschedule(ctx, f.admin, b.ID)
	require.NoError(t, err)
	assert.Equal(t, day(9), got.SessionDate)
}

func TestAdminHasNoProposalChannel(t *testing.T) {
	f := newBookingFixture(t)
	b := f.create(t)

	_, err := f.svc.ProposeReschedule(context.Background(), f.admin, b.ID, RescheduleInput{Date: day(5), StartTime: "10:00"})
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestDeclineReschedule(t *testing.T) {
	tests := []struct {
		name  string
		actor func(f *bookingFixture) *model.Principal
	}{
		{name: "counterpart declines", actor: func(f *bookingFixture) *model.Principal { return f.therapist }},
		{name: "proposer withdraws", actor: func(f *bookingFixture) *model.Principal { return f.patient }},
		{name: "admin declines", actor: func(f *bookingFixture) *model.Principal { return f.admin }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(t)
			ctx := context.Background()
			b := f.withStatus(t, model.BookingStatusConfirmed)

			_, err := f.svc.ProposeReschedule(ctx, f.patient, b.ID, RescheduleInput{Date: day(5), StartTime: "10:00"})
			require.NoError(t, err)

			got, err := f.svc.DeclineReschedule(ctx, tt.actor(f), b.ID)
			require.NoError(t, err)
			assert.Equal(t, model.RescheduleNone, got.RescheduleState())
			assert.Equal(t, day(3), got.SessionDate)
			assert.Equal(t, "14:00", got.StartTime)
			assert.Equal(t, model.BookingStatusConfirmed, got.Status)
		})
	}
}

func TestResolveWithoutOpenProposal(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	b := f.create(t)

	_, err := f.svc.AcceptReschedule(ctx, f.therapist, b.ID)
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = f.svc.DeclineReschedule(ctx, f.therapist, b.ID)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestContestedRowCanOnlyBeDeclined(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	b := f.create(t)

	// Строка из времени, когда каналы не были взаимоисключающими
	row := f.store.get(b.ID)
	d1, d2 := day(5), day(6)
	row.PatientReschedule = model.RescheduleProposal{Requested: true, Date: &d1, StartTime: "10:00"}
	row.TherapistReschedule = model.RescheduleProposal{Requested: true, Date: &d2, StartTime: "11:00"}
	f.store.put(row)

	_, err := f.svc.AcceptReschedule(ctx, f.therapist, b.ID)
	assert.ErrorIs(t, err, model.ErrConflict)
	_, err = f.svc.AcceptReschedule(ctx, f.admin, b.ID)
	assert.ErrorIs(t, err, model.ErrConflict)

	got, err := f.svc.DeclineReschedule(ctx, f.patient, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RescheduleNone, got.RescheduleState())
	assert.Equal(t, day(3), got.SessionDate)
}

func TestProposalValidation(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	b := f.create(t)

	_, err := f.svc.ProposeReschedule(ctx, f.patient, b.ID, RescheduleInput{Date: day(-2), StartTime: "10:00"})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.svc.ProposeReschedule(ctx, f.patient, b.ID, RescheduleInput{Date: day(2), StartTime: "ten"})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.svc.ProposeReschedule(ctx, f.patient, b.ID, RescheduleInput{StartTime: "10:00"})
	assert.ErrorIs(t, err, model.ErrValidation)

	row := f.store.get(b.ID)
	assert.Equal(t, model.RescheduleNone, row.RescheduleState())
}

func TestStaleProposalCannotBeAccepted(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	b := f.create(t)

	_, err := f.svc.ProposeReschedule(ctx, f.patient, b.ID, RescheduleInput{Date: day(1), StartTime: "10:00"})
	require.NoError(t, err)

	f.svc.WithClock(func() time.Time { return testNow.AddDate(0, 0, 2) })

	_, err = f.svc.AcceptReschedule(ctx, f.therapist, b.ID)
	assert.ErrorIs(t, err, model.ErrValidation)

	// Отклонить устаревшее предложение по-прежнему можно
	_, err = f.svc.DeclineReschedule(ctx, f.therapist, b.ID)
	require.NoError(t, err)
}

func TestAcceptKeepsSessionLength(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	end := "14:50"

	b, err := f.svc.Create(ctx, f.patient, CreateBookingInput{
		TherapistID: f.listed.ID,
		SessionDate: day(2),
		StartTime:   "14:00",
		EndTime:     &end,
	})
	require.NoError(t, err)

	_, err = f.svc.ProposeReschedule(ctx, f.therapist, b.ID, RescheduleInput{Date: day(3), StartTime: "09:30"})
	require.NoError(t, err)

	got, err := f.svc.AcceptReschedule(ctx, f.patient, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EndTime)
	assert.Equal(t, "10:20", *got.EndTime)
}

func TestShiftEnd(t *testing.T) {
	end := "15:00"
	late := "23:30"

	got, err := shiftEnd("14:00", nil, "10:00")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = shiftEnd("14:00", &end, "10:00")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "11:00", *got)

	_, err = shiftEnd("22:00", &late, "23:00")
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "proposed_start_time", verr.Field)
}

func TestProposalPastMidnightRejected(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	end := "15:30"

	b, err := f.svc.Create(ctx, f.patient, CreateBookingInput{
		TherapistID: f.listed.ID,
		SessionDate: day(2),
		StartTime:   "14:00",
		EndTime:     &end,
	})
	require.NoError(t, err)

	_, err = f.svc.ProposeReschedule(ctx, f.therapist, b.ID, RescheduleInput{Date: day(3), StartTime: "23:00"})
	assert.ErrorIs(t, err, model.ErrValidation)

	// Строка, попавшая в хранилище в обход проверки, тоже не принимается
	row := f.store.get(b.ID)
	date := day(3)
	row.TherapistReschedule = model.RescheduleProposal{Requested: true, Date: &date, StartTime: "23:00"}
	f.store.put(row)

	_, err = f.svc.AcceptReschedule(ctx, f.patient, b.ID)
	assert.ErrorIs(t, err, model.ErrValidation)

	row = f.store.get(b.ID)
	require.NotNil(t, row.EndTime)
	assert.Equal(t, "15:30", *row.EndTime)
	assert.Equal(t, "14:00", row.StartTime)
}

// Обе стороны предлагают перенос одновременно: ровно одно предложение
// должно остаться открытым, второе получает ErrConflict.
func TestConcurrentProposals(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newBookingFixture(t)
		ctx := context.Background()
		b := f.withStatus(t, model.BookingStatusConfirmed)

		var (
			wg      sync.WaitGroup
			start   = make(chan struct{})
			results = make([]error, 2)
		)

		for n, p := range []*model.Principal{f.patient, f.therapist} {
			wg.Add(1)
			go func(n int, p *model.Principal) {
				defer wg.Done()
				<-start
				_, results[n] = f.svc.ProposeReschedule(ctx, p, b.ID, RescheduleInput{Date: day(5 + n), StartTime: "10:00"})
			}(n, p)
		}
		close(start)
		wg.Wait()

		succeeded := 0
		for _, err := range results {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, model.ErrConflict)
		}
		assert.Equal(t, 1, succeeded)

		row := f.store.get(b.ID)
		state := row.RescheduleState()
		assert.Contains(t, []model.RescheduleState{model.ReschedulePatientProposed, model.RescheduleTherapistProposed}, state)
	}
}
