package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
	"github.com/yourusername/sof-stats/internal/service"
)

// handleError переводит ошибки сервисов в HTTP статус и стабильный error_type
func handleError(c *gin.Context, component string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInviteCode):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный код приглашения", "error_type": "invalid_invite_code"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверные учетные данные", "error_type": "invalid_credentials"})
	case errors.Is(err, entity.ErrInvalidOutcomeLabel):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "error_type": "invalid_outcome_label"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "error_type": "not_found"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "conflict"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "error_type": "validation_error"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Требуется авторизация", "error_type": "unauthorized"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Доступ запрещен", "error_type": "forbidden"})
	default:
		log.Printf("[%s] Внутренняя ошибка: %v", component, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "error_type": "internal_error"})
	}
}

// badRequest ответ на неразборчивый запрос
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error(), "error_type": "invalid_request"})
}
