package token

import (
	"context"
	"fmt"

	"github.com/campusport/portalgate/internal/identity"
	"github.com/redis/go-redis/v9"
)

// RedisStore persists the session in Redis so several gateway instances
// can share one profile, the way browser tabs share one storage area.
// Note the shared-store caveat: a Clear issued through one instance is
// only observed by another instance when its next Load or protected call
// runs; there is no change notification.
type RedisStore struct {
	client  *redis.Client
	profile string
}

// NewRedisStore creates a Redis-backed session store for the given profile
func NewRedisStore(client *redis.Client, profile string) *RedisStore {
	return &RedisStore{client: client, profile: profile}
}

func (s *RedisStore) key(name string) string {
	return fmt.Sprintf("session:%s:%s", s.profile, name)
}

// Save persists both keys atomically, overwriting any prior session
func (s *RedisStore) Save(ctx context.Context, credential string, ident identity.Identity) error {
	data, err := ident.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize identity: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(KeyAuthToken), credential, 0)
		pipe.Set(ctx, s.key(KeyUserData), data, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// Load returns the persisted session. Connection failures and corrupt
// identity data resolve to ("", nil); a dead store reads as logged out.
func (s *RedisStore) Load(ctx context.Context) (string, *identity.Identity) {
	values, err := s.client.MGet(ctx, s.key(KeyAuthToken), s.key(KeyUserData)).Result()
	if err != nil || len(values) != 2 {
		return "", nil
	}
	credential, ok := values[0].(string)
	if !ok {
		return "", nil
	}
	raw, ok := values[1].(string)
	if !ok {
		return "", nil
	}
	return decodeUserData(credential, []byte(raw))
}

// Clear removes both keys. Idempotent.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key(KeyAuthToken), s.key(KeyUserData)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
