package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist records revoked token IDs until their natural expiry. Verification
// itself stays stateless; only logout consults the store.
type Denylist struct {
	redisdb *redis.Client
}

func NewDenylist(redisdb *redis.Client) *Denylist {
	return &Denylist{redisdb: redisdb}
}

func denyKey(jti string) string {
	return "denylist:jti:" + jti
}

// Revoke marks a token id revoked for its remaining lifetime. Already-expired
// tokens need no entry.
func (d *Denylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)

	if ttl <= 0 {
		return nil
	}

	return d.redisdb.Set(ctx, denyKey(jti), "1", ttl).Err()
}

func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, err := d.redisdb.Get(ctx, denyKey(jti)).Result()

	if err == redis.Nil {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}
