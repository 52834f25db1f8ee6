package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/therapy_booking/internal/access"
	"github.com/Freeeeeet/therapy_booking/internal/metrics"
	"github.com/Freeeeeet/therapy_booking/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DirectoryService struct {
	therapists TherapistStore
	cache      DirectoryCache
	metrics    *metrics.BookingMetrics
	logger     *zap.Logger
}

func NewDirectoryService(
	therapists TherapistStore,
	cache DirectoryCache,
	m *metrics.BookingMetrics,
	logger *zap.Logger,
) *DirectoryService {
	if cache == nil {
		cache = noCache{}
	}
	return &DirectoryService{
		therapists: therapists,
		cache:      cache,
		metrics:    m,
		logger:     logger,
	}
}

// DirectoryQuery параметры поиска в каталоге
type DirectoryQuery struct {
	Specialization string
	Search         string
	ApprovalStatus model.ApprovalStatus // учитывается только для админа
}

// TherapistInput атрибуты при регистрации терапевта
type TherapistInput struct {
	FullName        string
	Specialization  string
	FeeCents        int64
	Bio             string
	YearsExperience int
	License         string
}

// TherapistPatch частичное обновление, nil означает "не менять"
type TherapistPatch struct {
	FullName        *string
	Specialization  *string
	FeeCents        *int64
	Bio             *string
	YearsExperience *int
	License         *string
}

// ============ Каталог ============

// List returns the therapists visible to the viewer. viewer may be nil for
// anonymous callers.
func (s *DirectoryService) List(ctx context.Context, viewer *model.Principal, q DirectoryQuery) ([]*model.Therapist, error) {
	filter := model.TherapistFilter{
		Specialization: strings.TrimSpace(q.Specialization),
		Search:         strings.TrimSpace(q.Search),
		PublicOnly:     true,
	}

	switch {
	case access.IsAdmin(viewer):
		if q.ApprovalStatus != "" && !q.ApprovalStatus.Valid() {
			return nil, model.NewValidationError("approval_status", "must be pending, approved or rejected")
		}
		filter.PublicOnly = false
		filter.ApprovalStatus = q.ApprovalStatus
	case viewer != nil && viewer.Role == model.RoleTherapist:
		filter.IncludeOwnerID = &viewer.ID
	}

	// Кэшируются только общие публичные выдачи
	cacheable := filter.PublicOnly && filter.IncludeOwnerID == nil

	// Поколение фиксируется до запроса в БД, иначе инвалидация во время
	// запроса оставит в кэше устаревшую выдачу
	fill := false
	var generation int64
	if cacheable {
		cached, gen, ok, err := s.cache.Get(ctx, filter)
		if err != nil {
			s.logger.Warn("Directory cache read failed", zap.Error(err))
		}
		s.metrics.ObserveCacheLookup(ok)
		if ok {
			return visibleTo(viewer, cached), nil
		}
		fill = err == nil
		generation = gen
	}

	therapists, err := s.therapists.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list therapists: %w", err)
	}

	// Повторная проверка на случай, если хранилище вернуло лишнее
	therapists = visibleTo(viewer, therapists)

	if fill {
		if err := s.cache.Set(ctx, generation, filter, therapists); err != nil {
			s.logger.Warn("Directory cache write failed", zap.Error(err))
		}
	}

	return therapists, nil
}

func visibleTo(viewer *model.Principal, therapists []*model.Therapist) []*model.Therapist {
	visible := make([]*model.Therapist, 0, len(therapists))
	for _, t := range therapists {
		if access.CanViewTherapist(viewer, t) {
			visible = append(visible, t)
		}
	}
	return visible
}

// Get получает терапевта; невидимая запись неотличима от отсутствующей
func (s *DirectoryService) Get(ctx context.Context, viewer *model.Principal, id uuid.UUID) (*model.Therapist, error) {
	t, err := s.therapists.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get therapist: %w", err)
	}

	if !access.CanViewTherapist(viewer, t) {
		return nil, model.ErrNotFound
	}

	return t, nil
}

// ============ Управление записью ============

// Register создаёт запись каталога для пользователя с ролью therapist
func (s *DirectoryService) Register(ctx context.Context, p *model.Principal, in TherapistInput) (*model.Therapist, error) {
	if p == nil {
		return nil, model.ErrUnauthenticated
	}

	if p.Role != model.RoleTherapist {
		return nil, model.ErrForbidden
	}

	t := &model.Therapist{
		ID:              p.ID,
		FullName:        strings.TrimSpace(in.FullName),
		Specialization:  strings.TrimSpace(in.Specialization),
		FeeCents:        in.FeeCents,
		Bio:             in.Bio,
		YearsExperience: in.YearsExperience,
		License:         strings.TrimSpace(in.License),
		Active:          true,
		ApprovalStatus:  model.ApprovalPending,
	}

	if t.FullName == "" {
		t.FullName = p.FullName
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := s.therapists.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create therapist: %w", err)
	}

	s.logger.Info("Therapist registered",
		zap.String("therapist_id", t.ID.String()),
		zap.String("specialization", t.Specialization),
	)

	return t, nil
}

// UpdateProfile изменяет отображаемые атрибуты (владелец или админ)
func (s *DirectoryService) UpdateProfile(ctx context.Context, p *model.Principal, id uuid.UUID, patch TherapistPatch) (*model.Therapist, error) {
	t, err := s.loadManaged(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if patch.FullName != nil {
		t.FullName = strings.TrimSpace(*patch.FullName)
	}
	if patch.Specialization != nil {
		t.Specialization = strings.TrimSpace(*patch.Specialization)
	}
	if patch.FeeCents != nil {
		t.FeeCents = *patch.FeeCents
	}
	if patch.Bio != nil {
		t.Bio = *patch.Bio
	}
	if patch.YearsExperience != nil {
		t.YearsExperience = *patch.YearsExperience
	}
	if patch.License != nil {
		t.License = strings.TrimSpace(*patch.License)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := s.therapists.UpdateProfile(ctx, t); err != nil {
		return nil, fmt.Errorf("update therapist: %w", err)
	}

	s.invalidate(ctx)

	s.logger.Info("Therapist profile updated",
		zap.String("therapist_id", id.String()),
		zap.String("actor_id", p.ID.String()),
		zap.Int64("fee_cents", t.FeeCents),
	)

	return t, nil
}

// SetApproval меняет статус одобрения (только админ)
func (s *DirectoryService) SetApproval(ctx context.Context, p *model.Principal, id uuid.UUID, status model.ApprovalStatus) (*model.Therapist, error) {
	if p == nil {
		return nil, model.ErrUnauthenticated
	}

	if !access.IsAdmin(p) {
		return nil, model.ErrForbidden
	}

	if !status.Valid() {
		return nil, model.NewValidationError("approval_status", "must be pending, approved or rejected")
	}

	if err := s.therapists.SetApproval(ctx, id, status); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("set approval: %w", err)
	}

	s.invalidate(ctx)

	s.logger.Info("Therapist approval changed",
		zap.String("therapist_id", id.String()),
		zap.String("approval_status", string(status)),
		zap.String("admin_id", p.ID.String()),
	)

	return s.therapists.GetByID(ctx, id)
}

// SetActive: админ в обе стороны, владелец может только деактивироваться
func (s *DirectoryService) SetActive(ctx context.Context, p *model.Principal, id uuid.UUID, active bool) (*model.Therapist, error) {
	t, err := s.loadManaged(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if active && !access.IsAdmin(p) {
		return nil, model.ErrForbidden
	}

	if err := s.therapists.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("set active: %w", err)
	}
	t.Active = active

	s.invalidate(ctx)

	s.logger.Info("Therapist activation changed",
		zap.String("therapist_id", id.String()),
		zap.Bool("active", active),
		zap.String("actor_id", p.ID.String()),
	)

	return t, nil
}

// loadManaged загружает запись, которую principal вправе изменять
func (s *DirectoryService) loadManaged(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Therapist, error) {
	if p == nil {
		return nil, model.ErrUnauthenticated
	}

	t, err := s.therapists.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get therapist: %w", err)
	}

	if !access.CanViewTherapist(p, t) {
		return nil, model.ErrNotFound
	}

	if !access.CanManageTherapist(p, t) {
		return nil, model.ErrForbidden
	}

	return t, nil
}

type noCache struct{}

func (noCache) Get(context.Context, model.TherapistFilter) ([]*model.Therapist, int64, bool, error) {
	return nil, 0, false, nil
}

func (noCache) Set(context.Context, int64, model.TherapistFilter, []*model.Therapist) error {
	return nil
}

func (noCache) Invalidate(context.Context) error { return nil }

func (s *DirectoryService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("Directory cache invalidation failed", zap.Error(err))
	}
}
