package dto

import "github.com/yourusername/sof-stats/internal/domain/entity"

// LoginRequest запрос на вход администратора
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateAdminRequest заявка на нового администратора
type CreateAdminRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=80"`
	FirstName       string `json:"first_name" binding:"required,max=100"`
	LastName        string `json:"last_name" binding:"required,max=100"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
}

// AuthenticateAdminRequest подтверждение заявки кодом из письма
type AuthenticateAdminRequest struct {
	RequestToken string `json:"request_token" binding:"required"`
	Code         string `json:"code" binding:"required"`
}

// AdminResponse администратор в формате ответа клиенту
type AdminResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// SessionResponse ответ на вход. Токен также уходит в HttpOnly cookie.
type SessionResponse struct {
	Admin     AdminResponse `json:"admin"`
	Token     string        `json:"token"`
	TokenType string        `json:"token_type"`
	ExpiresIn int           `json:"expires_in"`
}

// NewAdminResponse создает DTO администратора без пароля
func NewAdminResponse(a *entity.Admin) AdminResponse {
	return AdminResponse{
		ID:        a.ID,
		Username:  a.Username,
		FirstName: a.FirstName,
		LastName:  a.LastName,
	}
}
