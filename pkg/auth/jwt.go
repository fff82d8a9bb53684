package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const issuer = "sof-stats"

var (
	ErrTokenMalformed   = errors.New("token is malformed")
	ErrTokenExpired     = errors.New("token is expired")
	ErrTokenInvalid     = errors.New("token validation failed")
	ErrTokenInvalidated = errors.New("token has been invalidated")
)

// RevocationStore хранит отозванные токены до истечения их срока
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AdminClaims содержит поля сессии администратора
type AdminClaims struct {
	AdminID  uint   `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTService выпускает и проверяет токены сессий администраторов (HS256)
type JWTService struct {
	secret     []byte
	expiration time.Duration
	revoked    RevocationStore
	now        func() time.Time
}

// NewJWTService создает сервис JWT. revoked может быть nil: тогда выход из сессии
// только удаляет cookie на клиенте.
func NewJWTService(secret string, expirationHrs int, revoked RevocationStore) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required for JWTService")
	}
	if expirationHrs <= 0 {
		expirationHrs = 24
	}
	return &JWTService{
		secret:     []byte(secret),
		expiration: time.Duration(expirationHrs) * time.Hour,
		revoked:    revoked,
		now:        time.Now,
	}, nil
}

// Expiration время жизни выпускаемых токенов
func (s *JWTService) Expiration() time.Duration {
	return s.expiration
}

// GenerateToken создает токен для администратора
func (s *JWTService) GenerateToken(adminID uint, username string) (string, error) {
	now := s.now()
	claims := &AdminClaims{
		AdminID:  adminID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(adminID), 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		log.Printf("[JWT] Ошибка генерации токена для администратора ID=%d: %v", adminID, err)
		return "", err
	}
	log.Printf("[JWT] Токен сгенерирован для администратора ID=%d", adminID)
	return tokenString, nil
}

// ParseToken проверяет подпись, срок действия и отзыв токена
func (s *JWTService) ParseToken(ctx context.Context, tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	parser := jwt.Parser{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			switch {
			case ve.Errors&jwt.ValidationErrorMalformed != 0:
				return nil, ErrTokenMalformed
			case ve.Errors&jwt.ValidationErrorExpired != 0:
				return nil, ErrTokenExpired
			}
		}
		log.Printf("[JWT] Ошибка при разборе токена: %v", err)
		return nil, ErrTokenInvalid
	}
	if claims.Issuer != issuer {
		return nil, ErrTokenInvalid
	}

	if s.revoked != nil && claims.ID != "" {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			// Хранилище недоступно: токен с валидной подписью пропускаем
			log.Printf("[JWT] Не удалось проверить отзыв токена %s: %v", claims.ID, err)
		} else if revoked {
			return nil, ErrTokenInvalidated
		}
	}
	return claims, nil
}

// InvalidateToken отзывает токен до конца его срока действия
func (s *JWTService) InvalidateToken(ctx context.Context, claims *AdminClaims) error {
	if s.revoked == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := s.expiration
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	log.Printf("[JWT] Токен администратора ID=%d отозван", claims.AdminID)
	return nil
}
