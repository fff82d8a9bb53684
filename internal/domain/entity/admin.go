package entity

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Admin представляет администратора, которому разрешен ввод данных
type Admin struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:80;not null;uniqueIndex" json:"username"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	FirstName string    `gorm:"size:100;not null;default:''" json:"first_name"`
	LastName  string    `gorm:"size:100;not null;default:''" json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Admin) TableName() string {
	return "admins"
}

// IsPasswordHash проверяет, является ли строка bcrypt-хешем
func IsPasswordHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// HashPassword хеширует пароль bcrypt со стандартным cost
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// BeforeSave хеширует пароль перед сохранением, только если он не является bcrypt-хешем
func (a *Admin) BeforeSave(tx *gorm.DB) error {
	if len(a.Password) > 0 && !IsPasswordHash(a.Password) {
		hashed, err := HashPassword(a.Password)
		if err != nil {
			log.Printf("[Admin.BeforeSave] Ошибка при хешировании пароля для username=%s: %v", a.Username, err)
			return err
		}
		a.Password = hashed
	}
	return nil
}

// CheckPassword проверяет, соответствует ли переданный пароль хешу
func (a *Admin) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password))
	return err == nil
}
