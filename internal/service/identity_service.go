package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/therapy_booking/internal/access"
	"github.com/Freeeeeet/therapy_booking/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Claims токена внешнего провайдера идентификации. Роль из токена
// намеренно не читается: она всегда берётся из профиля.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

type IdentityService struct {
	profiles ProfileStore
	secret   []byte
	logger   *zap.Logger
}

func NewIdentityService(profiles ProfileStore, jwtSecret string, logger *zap.Logger) *IdentityService {
	return &IdentityService{
		profiles: profiles,
		secret:   []byte(jwtSecret),
		logger:   logger,
	}
}

// ParseToken проверяет подпись и срок действия токена
func (s *IdentityService) ParseToken(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" || len(s.secret) == 0 {
		return nil, model.ErrUnauthenticated
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, model.ErrUnauthenticated
	}

	return claims, nil
}

func subjectID(claims *Claims) (uuid.UUID, error) {
	id, err := uuid.Parse(claims.Subject)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, model.ErrUnauthenticated
	}
	return id, nil
}

// Authenticate resolves the caller of a request. The profile, and with it the
// role, is loaded from the store on every call.
func (s *IdentityService) Authenticate(ctx context.Context, token string) (*model.Principal, error) {
	claims, err := s.ParseToken(token)
	if err != nil {
		return nil, err
	}

	id, err := subjectID(claims)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if profile == nil || !profile.Role.Valid() {
		return nil, model.ErrUnauthenticated
	}

	return profile.Principal(), nil
}

// CreateProfile создаёт профиль при первом входе. Роль по умолчанию patient,
// admin через самостоятельную регистрацию не выдаётся.
func (s *IdentityService) CreateProfile(ctx context.Context, token string, role model.Role, fullName string) (*model.Profile, error) {
	claims, err := s.ParseToken(token)
	if err != nil {
		return nil, err
	}

	id, err := subjectID(claims)
	if err != nil {
		return nil, err
	}

	if role == "" {
		role = model.RolePatient
	}
	if role != model.RolePatient && role != model.RoleTherapist {
		return nil, model.NewValidationError("role", "must be patient or therapist")
	}

	if strings.TrimSpace(fullName) == "" {
		fullName = claims.Name
	}

	profile := &model.Profile{
		ID:       id,
		Email:    claims.Email,
		FullName: strings.TrimSpace(fullName),
		Role:     role,
	}

	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.logger.Info("Profile created",
		zap.String("profile_id", id.String()),
		zap.String("role", string(role)),
	)

	return profile, nil
}

// GetProfile отдаёт профиль владельцу или админу
func (s *IdentityService) GetProfile(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Profile, error) {
	if p == nil {
		return nil, model.ErrUnauthenticated
	}

	if !access.IsSelf(p, id) && !access.IsAdmin(p) {
		return nil, model.ErrNotFound
	}

	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if profile == nil {
		return nil, model.ErrNotFound
	}

	return profile, nil
}

// SetRole меняет роль пользователя (только админ)
func (s *IdentityService) SetRole(ctx context.Context, p *model.Principal, id uuid.UUID, role model.Role) error {
	if p == nil {
		return model.ErrUnauthenticated
	}

	if !access.IsAdmin(p) {
		return model.ErrForbidden
	}

	if !role.Valid() {
		return model.NewValidationError("role", "must be patient, therapist or admin")
	}

	if err := s.profiles.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("update role: %w", err)
	}

	s.logger.Info("Profile role changed",
		zap.String("profile_id", id.String()),
		zap.String("role", string(role)),
		zap.String("admin_id", p.ID.String()),
	)

	return nil
}
