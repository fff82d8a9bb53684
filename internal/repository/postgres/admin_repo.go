package postgres

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
)

// AdminRepo реализует repository.AdminRepository
type AdminRepo struct {
	db *gorm.DB
}

// NewAdminRepo создает новый репозиторий администраторов
func NewAdminRepo(db *gorm.DB) *AdminRepo {
	return &AdminRepo{db: db}
}

// Create создает администратора. Пароль хешируется хуком BeforeSave.
func (r *AdminRepo) Create(ctx context.Context, admin *entity.Admin) error {
	if err := r.db.WithContext(ctx).Create(admin).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: admin %q already exists", apperrors.ErrConflict, admin.Username)
		}
		return err
	}
	log.Printf("[AdminRepo] Создан администратор ID=%d, Username=%s", admin.ID, admin.Username)
	return nil
}

// GetByID возвращает администратора по ID
func (r *AdminRepo) GetByID(ctx context.Context, id uint) (*entity.Admin, error) {
	var admin entity.Admin
	if err := r.db.WithContext(ctx).First(&admin, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &admin, nil
}

// GetByUsername возвращает администратора по имени пользователя
func (r *AdminRepo) GetByUsername(ctx context.Context, username string) (*entity.Admin, error) {
	var admin entity.Admin
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error; err != nil {
		return nil, notFound(err)
	}
	return &admin, nil
}

// List возвращает всех администраторов
func (r *AdminRepo) List(ctx context.Context) ([]entity.Admin, error) {
	var admins []entity.Admin
	err := r.db.WithContext(ctx).Order("username").Find(&admins).Error
	return admins, err
}
