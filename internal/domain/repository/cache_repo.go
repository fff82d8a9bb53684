package repository

import (
	"context"
	"time"
)

// CacheRepository хранит версионированный кеш статистики и отложенные заявки администраторов.
// Отсутствующий ключ в GetJSON возвращает ErrNotFound.
type CacheRepository interface {
	// Generation возвращает счетчик поколения; для отсутствующего ключа 0
	Generation(ctx context.Context, key string) (int64, error)
	// BumpGeneration увеличивает счетчик поколения и возвращает новое значение
	BumpGeneration(ctx context.Context, key string) (int64, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
}
