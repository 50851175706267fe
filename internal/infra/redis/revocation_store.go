package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore records logged-out token ids in Redis so every replica
// rejects them. Keys expire together with the token they block.
type RevocationStore struct {
	client *redis.Client
	clock  func() time.Time
}

func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client, clock: time.Now}
}

func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Duration(0)
	if !until.IsZero() {
		ttl = until.Sub(s.clock())
		if ttl <= 0 {
			return nil
		}
	}
	return s.client.Set(ctx, s.key(tokenID), "1", ttl).Err()
}

func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RevocationStore) key(tokenID string) string {
	return "auth:revoked:" + tokenID
}
