package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/sof-stats/pkg/auth"
)

// SessionCookieName имя HttpOnly cookie с токеном сессии администратора
const SessionCookieName = "sof_session"

// Ключи контекста Gin
const (
	ContextClaimsKey   = "admin_claims"
	ContextAdminIDKey  = "admin_id"
	ContextUsernameKey = "username"
)

// AuthMiddleware обеспечивает аутентификацию для защищенных маршрутов
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware создает middleware аутентификации администраторов
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// tokenFromRequest берет токен из cookie, а при ее отсутствии из заголовка Authorization
func tokenFromRequest(c *gin.Context) (string, string) {
	if token, err := c.Cookie(SessionCookieName); err == nil && token != "" {
		return token, ""
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "token_missing"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", "token_format"
	}
	return parts[1], ""
}

// RequireAdmin пропускает только запросы с действующим токеном администратора
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, errType := tokenFromRequest(c)
		if errType != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": errType})
			return
		}

		claims, err := m.jwtService.ParseToken(c.Request.Context(), token)
		if err != nil {
			errType := "token_invalid"
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				errType = "token_expired"
			case errors.Is(err, auth.ErrTokenInvalidated):
				errType = "token_revoked"
			}
			log.Printf("[AuthMiddleware] Отклонен токен (%s) для %s", errType, c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": errType})
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Set(ContextAdminIDKey, claims.AdminID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Next()
	}
}

// ClaimsFromContext возвращает claims, положенные RequireAdmin
func ClaimsFromContext(c *gin.Context) (*auth.AdminClaims, bool) {
	v, ok := c.Get(ContextClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.AdminClaims)
	return claims, ok
}
