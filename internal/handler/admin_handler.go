package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/handler/dto"
	"github.com/yourusername/sof-stats/internal/middleware"
	"github.com/yourusername/sof-stats/internal/service"
)

// AdminHandler обрабатывает вход администраторов и заявки на новых
type AdminHandler struct {
	adminService *service.AdminService
	cookieSecure bool
}

// NewAdminHandler создает обработчик администраторов
func NewAdminHandler(adminService *service.AdminService, cookieSecure bool) *AdminHandler {
	return &AdminHandler{adminService: adminService, cookieSecure: cookieSecure}
}

func (h *AdminHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, token, int(h.adminService.SessionTTL().Seconds()), "/", "", h.cookieSecure, true)
}

func (h *AdminHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", h.cookieSecure, true)
}

func (h *AdminHandler) sessionResponse(admin *entity.Admin, token string) dto.SessionResponse {
	return dto.SessionResponse{
		Admin:     dto.NewAdminResponse(admin),
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(h.adminService.SessionTTL().Seconds()),
	}
}

// Login обрабатывает вход администратора
// POST /api/admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	token, admin, err := h.adminService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleError(c, "AdminHandler", err)
		return
	}

	h.setSessionCookie(c, token)
	log.Printf("[AdminHandler] Вход администратора %s", admin.Username)
	c.JSON(http.StatusOK, h.sessionResponse(admin, token))
}

// Logout отзывает токен и очищает cookie сессии
// POST /api/admin/logout
func (h *AdminHandler) Logout(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if ok {
		if err := h.adminService.Logout(c.Request.Context(), claims); err != nil {
			log.Printf("[AdminHandler] Logout: не удалось отозвать токен %s: %v", claims.ID, err)
		}
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// CreateAdmin принимает заявку на нового администратора и отправляет код владельцу сайта.
// Ответ содержит токен заявки, который нужно передать в Authenticate вместе с кодом.
// POST /api/admin/create
func (h *AdminHandler) CreateAdmin(c *gin.Context) {
	var req dto.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	token, err := h.adminService.RequestAdmin(c.Request.Context(), service.RequestAdminInput{
		Username:        req.Username,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		handleError(c, "AdminHandler", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"request_token": token,
		"message":       "Код подтверждения отправлен владельцу сайта",
	})
}

// Authenticate подтверждает заявку кодом, создает администратора и сразу открывает сессию
// POST /api/admin/authenticate
func (h *AdminHandler) Authenticate(c *gin.Context) {
	var req dto.AuthenticateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	admin, err := h.adminService.ConfirmAdmin(c.Request.Context(), req.RequestToken, req.Code)
	if err != nil {
		handleError(c, "AdminHandler", err)
		return
	}

	token, err := h.adminService.StartSession(admin)
	if err != nil {
		handleError(c, "AdminHandler", err)
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusCreated, h.sessionResponse(admin, token))
}

// Me возвращает данные текущей сессии
// GET /api/admin/me
func (h *AdminHandler) Me(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "context_missing_user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"admin_id":   claims.AdminID,
		"username":   claims.Username,
		"expires_at": claims.ExpiresAt,
	})
}
