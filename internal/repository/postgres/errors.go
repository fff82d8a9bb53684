package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
)

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// notFound переводит gorm.ErrRecordNotFound в доменную ошибку
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return err
}

// applyDateRange добавляет включительные границы диапазона к запросу
func applyDateRange(q *gorm.DB, column string, dr entity.DateRange) *gorm.DB {
	if !dr.Start.IsZero() {
		q = q.Where(column+" >= ?", entity.DateOnly(dr.Start))
	}
	if !dr.End.IsZero() {
		q = q.Where(column+" <= ?", entity.DateOnly(dr.End))
	}
	return q
}
