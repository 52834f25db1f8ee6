package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/therapy_booking/internal/model"
	"github.com/google/uuid"
)

// -- In-memory stores --

type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]model.Profile
}

func newFakeProfileStore(profiles ...*model.Profile) *fakeProfileStore {
	s := &fakeProfileStore{profiles: make(map[uuid.UUID]model.Profile)}
	for _, p := range profiles {
		s.profiles[p.ID] = *p
	}
	return s
}

func (s *fakeProfileStore) Create(_ context.Context, p *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.ID]; ok {
		return model.ErrConflict
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.profiles[p.ID] = *p
	return nil
}

func (s *fakeProfileStore) GetByID(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *fakeProfileStore) UpdateRole(_ context.Context, id uuid.UUID, role model.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return model.ErrNotFound
	}
	p.Role = role
	s.profiles[id] = p
	return nil
}

type fakeTherapistStore struct {
	mu         sync.Mutex
	therapists map[uuid.UUID]model.Therapist
	listCalls  int

	// afterList вызывается после чтения выдачи, вне блокировки
	afterList func()
}

func newFakeTherapistStore(therapists ...*model.Therapist) *fakeTherapistStore {
	s := &fakeTherapistStore{therapists: make(map[uuid.UUID]model.Therapist)}
	for _, t := range therapists {
		s.therapists[t.ID] = *t
	}
	return s
}

func (s *fakeTherapistStore) Create(_ context.Context, t *model.Therapist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.therapists[t.ID]; ok {
		return model.ErrConflict
	}
	s.therapists[t.ID] = *t
	return nil
}

func (s *fakeTherapistStore) GetByID(_ context.Context, id uuid.UUID) (*model.Therapist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.therapists[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *fakeTherapistStore) List(_ context.Context, f model.TherapistFilter) ([]*model.Therapist, error) {
	result := s.list(f)
	if s.afterList != nil {
		s.afterList()
	}
	return result, nil
}

func (s *fakeTherapistStore) list(f model.TherapistFilter) []*model.Therapist {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++

	result := []*model.Therapist{}
	for _, t := range s.therapists {
		t := t
		if f.PublicOnly {
			public := t.IsApproved() && t.Active
			owner := f.IncludeOwnerID != nil && *f.IncludeOwnerID == t.ID
			if !public && !owner {
				continue
			}
		}
		if f.ApprovalStatus != "" && t.ApprovalStatus != f.ApprovalStatus {
			continue
		}
		if f.Specialization != "" && !strings.EqualFold(t.Specialization, f.Specialization) {
			continue
		}
		if q := strings.ToLower(f.Search); q != "" {
			text := strings.ToLower(t.FullName + " " + t.Specialization + " " + t.Bio)
			if !strings.Contains(text, q) {
				continue
			}
		}
		result = append(result, &t)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].FullName < result[j].FullName })
	return result
}

func (s *fakeTherapistStore) UpdateProfile(_ context.Context, t *model.Therapist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.therapists[t.ID]; !ok {
		return model.ErrNotFound
	}
	s.therapists[t.ID] = *t
	return nil
}

func (s *fakeTherapistStore) SetApproval(_ context.Context, id uuid.UUID, status model.ApprovalStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.therapists[id]
	if !ok {
		return model.ErrNotFound
	}
	t.ApprovalStatus = status
	s.therapists[id] = t
	return nil
}

func (s *fakeTherapistStore) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.therapists[id]
	if !ok {
		return model.ErrNotFound
	}
	t.Active = active
	s.therapists[id] = t
	return nil
}

// fakeBookingStore keeps rows by value and applies the same version check as
// the SQL repository, so stale writes fail with model.ErrConflict.
type fakeBookingStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]model.Booking

	// beforeUpdate runs without the lock just before a write is applied
	beforeUpdate func()
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[uuid.UUID]model.Booking)}
}

func (s *fakeBookingStore) Create(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.Version = 1
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	s.bookings[b.ID] = *b
	return nil
}

func (s *fakeBookingStore) GetByID(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *fakeBookingStore) List(_ context.Context, f model.BookingFilter) ([]*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := []*model.Booking{}
	for _, b := range s.bookings {
		b := b
		if f.PatientID != nil && b.PatientID != *f.PatientID {
			continue
		}
		if f.TherapistID != nil && b.TherapistID != *f.TherapistID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		result = append(result, &b)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].SessionDate.Before(result[j].SessionDate) })
	return result, nil
}

func (s *fakeBookingStore) Update(_ context.Context, b *model.Booking) error {
	if s.beforeUpdate != nil {
		s.beforeUpdate()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.bookings[b.ID]
	if !ok || stored.Version != b.Version {
		return model.ErrConflict
	}
	b.Version++
	b.UpdatedAt = time.Now()
	s.bookings[b.ID] = *b
	return nil
}

func (s *fakeBookingStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

// put stores a row directly, bypassing the service
func (s *fakeBookingStore) put(b model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.Version == 0 {
		b.Version = 1
	}
	s.bookings[b.ID] = b
}

func (s *fakeBookingStore) get(id uuid.UUID) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookings[id]
}
