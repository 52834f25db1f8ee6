package model

import "time"

// RescheduleChannel identifies which party opened a proposal.
type RescheduleChannel string

const (
	ChannelPatient   RescheduleChannel = "patient"
	ChannelTherapist RescheduleChannel = "therapist"
)

// Counterpart returns the channel of the other party
func (c RescheduleChannel) Counterpart() RescheduleChannel {
	if c == ChannelPatient {
		return ChannelTherapist
	}
	return ChannelPatient
}

// RescheduleState is the negotiation state derived from both channels.
//
//	none -> patient_proposed  -> none (accepted or declined)
//	none -> therapist_proposed -> none (accepted or declined)
//
// contested only appears for rows written before channels became exclusive;
// it can be declined but never accepted.
type RescheduleState string

const (
	RescheduleNone              RescheduleState = "none"
	ReschedulePatientProposed   RescheduleState = "patient_proposed"
	RescheduleTherapistProposed RescheduleState = "therapist_proposed"
	RescheduleContested         RescheduleState = "contested"
)

type RescheduleProposal struct {
	Requested bool       `json:"requested"`
	Date      *time.Time `json:"proposed_date"`
	StartTime string     `json:"proposed_start_time"`
	Reason    string     `json:"reason"`
}

// RescheduleState возвращает текущее состояние переговоров о переносе
func (b *Booking) RescheduleState() RescheduleState {
	patient := b.PatientReschedule.Requested
	therapist := b.TherapistReschedule.Requested

	switch {
	case patient && therapist:
		return RescheduleContested
	case patient:
		return ReschedulePatientProposed
	case therapist:
		return RescheduleTherapistProposed
	default:
		return RescheduleNone
	}
}

// OpenChannel returns the single open channel, if exactly one is open
func (b *Booking) OpenChannel() (RescheduleChannel, bool) {
	switch b.RescheduleState() {
	case ReschedulePatientProposed:
		return ChannelPatient, true
	case RescheduleTherapistProposed:
		return ChannelTherapist, true
	}
	return "", false
}
