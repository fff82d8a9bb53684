package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const revokedTokenPrefix = "jwt:revoked:"

// RevokedTokenRepo хранит отозванные идентификаторы JWT (jti) до истечения их срока.
// Реализует auth.RevocationStore.
type RevokedTokenRepo struct {
	client redis.UniversalClient
}

// NewRevokedTokenRepo создает хранилище отозванных токенов
func NewRevokedTokenRepo(client redis.UniversalClient) (*RevokedTokenRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for RevokedTokenRepo")
	}
	return &RevokedTokenRepo{client: client}, nil
}

// Revoke помечает токен отозванным на ttl
func (r *RevokedTokenRepo) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return r.client.Set(ctx, revokedTokenPrefix+tokenID, 1, ttl).Err()
}

// IsRevoked проверяет, отозван ли токен
func (r *RevokedTokenRepo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedTokenPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
