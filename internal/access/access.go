// Package access holds the authorization predicates shared by the directory
// and the booking lifecycle. Every predicate is pure and evaluated against the
// current stored record; a nil principal or record never satisfies anything.
package access

import (
	"github.com/Freeeeeet/therapy_booking/internal/model"
	"github.com/google/uuid"
)

// IsSelf checks if the record is owned by the principal
func IsSelf(p *model.Principal, ownerID uuid.UUID) bool {
	return p != nil && p.ID != uuid.Nil && p.ID == ownerID
}

// IsAssignedTherapist checks if the principal is the therapist of the booking
func IsAssignedTherapist(p *model.Principal, b *model.Booking) bool {
	return b != nil && IsSelf(p, b.TherapistID)
}

// IsPatient checks if the principal created the booking
func IsPatient(p *model.Principal, b *model.Booking) bool {
	return b != nil && IsSelf(p, b.PatientID)
}

func IsAdmin(p *model.Principal) bool {
	return p != nil && p.Role == model.RoleAdmin
}

// CanRead: пациент-владелец, назначенный терапевт или админ
func CanRead(p *model.Principal, b *model.Booking) bool {
	return IsPatient(p, b) || IsAssignedTherapist(p, b) || IsAdmin(p)
}

// CanWrite shares the actor set of CanRead; per-field rules live in the transition table.
func CanWrite(p *model.Principal, b *model.Booking) bool {
	return CanRead(p, b)
}

func CanViewTherapistPublicly(t *model.Therapist) bool {
	return t != nil && t.IsApproved() && t.Active
}

// CanViewTherapist adds the owner and admins to the public audience
func CanViewTherapist(p *model.Principal, t *model.Therapist) bool {
	if t == nil {
		return false
	}
	return CanViewTherapistPublicly(t) || IsSelf(p, t.ID) || IsAdmin(p)
}

// CanManageTherapist: владелец записи или админ
func CanManageTherapist(p *model.Principal, t *model.Therapist) bool {
	return t != nil && (IsSelf(p, t.ID) || IsAdmin(p))
}

// RescheduleChannelFor returns the channel the principal negotiates on.
// Admins have no channel of their own.
func RescheduleChannelFor(p *model.Principal, b *model.Booking) (model.RescheduleChannel, bool) {
	switch {
	case IsPatient(p, b):
		return model.ChannelPatient, true
	case IsAssignedTherapist(p, b):
		return model.ChannelTherapist, true
	}
	return "", false
}
