package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/domain/repository"
	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
	"github.com/yourusername/sof-stats/pkg/auth"
)

const (
	pendingAdminPrefix = "admin:pending:"
	pendingAdminTTL    = 15 * time.Minute
	minPasswordLength  = 8
)

// RequestAdminInput данные заявки на создание администратора
type RequestAdminInput struct {
	Username        string
	FirstName       string
	LastName        string
	Password        string
	PasswordConfirm string
}

// pendingAdmin заявка, ожидающая подтверждения кодом. Пароль хранится только в виде хеша.
type pendingAdmin struct {
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"password_hash"`
	RequestedAt  time.Time `json:"requested_at"`
}

// AdminService отвечает за вход администраторов и создание новых по коду приглашения
type AdminService struct {
	admins          repository.AdminRepository
	cache           repository.CacheRepository
	invites         *InviteManager
	email           EmailService
	jwt             *auth.JWTService
	inviteRecipient string
}

// NewAdminService создает сервис администраторов
func NewAdminService(
	admins repository.AdminRepository,
	cache repository.CacheRepository,
	invites *InviteManager,
	email EmailService,
	jwt *auth.JWTService,
	inviteRecipient string,
) *AdminService {
	return &AdminService{
		admins:          admins,
		cache:           cache,
		invites:         invites,
		email:           email,
		jwt:             jwt,
		inviteRecipient: inviteRecipient,
	}
}

// RequestAdmin проверяет заявку, откладывает ее в Redis и отправляет владельцу новый код.
// Возвращает токен заявки, который нужно передать вместе с кодом в ConfirmAdmin.
func (s *AdminService) RequestAdmin(ctx context.Context, input RequestAdminInput) (string, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return "", fmt.Errorf("%w: username is required", apperrors.ErrValidation)
	}
	if input.Password != input.PasswordConfirm {
		return "", ErrPasswordMismatch
	}
	if len(input.Password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}

	_, err := s.admins.GetByUsername(ctx, username)
	if err == nil {
		return "", fmt.Errorf("%w: admin %q already exists", apperrors.ErrConflict, username)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return "", fmt.Errorf("failed to check admin %q: %w", username, err)
	}

	hash, err := entity.HashPassword(input.Password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	token := uuid.NewString()
	pending := pendingAdmin{
		Username:     username,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: hash,
		RequestedAt:  time.Now().UTC(),
	}
	if err := s.cache.SetJSON(ctx, pendingAdminPrefix+token, pending, pendingAdminTTL); err != nil {
		return "", fmt.Errorf("failed to store pending admin: %w", err)
	}

	code, err := s.invites.Issue()
	if err != nil {
		return "", err
	}
	email := InviteEmail{
		To:        s.inviteRecipient,
		Code:      code,
		Username:  pending.Username,
		FirstName: pending.FirstName,
		LastName:  pending.LastName,
	}
	if err := s.email.SendInviteCode(ctx, email, token); err != nil {
		log.Printf("[AdminService] Не удалось отправить код приглашения для %s: %v", username, err)
		return "", fmt.Errorf("failed to send invite code: %w", err)
	}

	log.Printf("[AdminService] Заявка на администратора %s ожидает подтверждения", username)
	return token, nil
}

// ConfirmAdmin проверяет код и создает администратора из отложенной заявки
func (s *AdminService) ConfirmAdmin(ctx context.Context, token, code string) (*entity.Admin, error) {
	var pending pendingAdmin
	if err := s.cache.GetJSON(ctx, pendingAdminPrefix+token, &pending); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: pending admin request expired or unknown", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load pending admin: %w", err)
	}

	if !s.invites.Verify(strings.TrimSpace(code)) {
		log.Printf("[AdminService] Неверный код приглашения для %s", pending.Username)
		return nil, ErrInvalidInviteCode
	}

	admin := &entity.Admin{
		Username:  pending.Username,
		Password:  pending.PasswordHash,
		FirstName: pending.FirstName,
		LastName:  pending.LastName,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, err
	}
	if err := s.cache.Delete(ctx, pendingAdminPrefix+token); err != nil {
		log.Printf("[AdminService] Не удалось удалить заявку %s: %v", token, err)
	}

	log.Printf("[AdminService] Администратор %s создан", admin.Username)
	return admin, nil
}

// Login проверяет пароль и выпускает токен сессии
func (s *AdminService) Login(ctx context.Context, username, password string) (string, *entity.Admin, error) {
	admin, err := s.admins.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !admin.CheckPassword(password) {
		log.Printf("[AdminService] Неверный пароль для %s", admin.Username)
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.StartSession(admin)
	if err != nil {
		return "", nil, err
	}
	return token, admin, nil
}

// StartSession выпускает токен сессии для уже проверенного администратора
func (s *AdminService) StartSession(admin *entity.Admin) (string, error) {
	token, err := s.jwt.GenerateToken(admin.ID, admin.Username)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// SessionTTL время жизни токена сессии
func (s *AdminService) SessionTTL() time.Duration {
	return s.jwt.Expiration()
}

// Logout отзывает токен сессии
func (s *AdminService) Logout(ctx context.Context, claims *auth.AdminClaims) error {
	return s.jwt.InvalidateToken(ctx, claims)
}

// EnsureAdmin создает администратора, если его еще нет. Используется при заполнении тестовыми данными.
func (s *AdminService) EnsureAdmin(ctx context.Context, username, password string) error {
	_, err := s.admins.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	return s.admins.Create(ctx, &entity.Admin{Username: username, Password: password})
}
