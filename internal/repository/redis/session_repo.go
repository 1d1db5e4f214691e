package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "login:user:token"
	sessionTTL       = 24 * time.Hour
)

// SessionRepo keeps the single valid token per user. Issuing a new token
// overwrites the old one, which logs out every other device.
type SessionRepo struct {
	rdb *redis.Client
}

func NewSessionRepo(rdb *redis.Client) *SessionRepo {
	return &SessionRepo{rdb: rdb}
}

func sessionKey(userID string) string {
	return fmt.Sprintf("%s:%s", sessionKeyPrefix, userID)
}

func (r *SessionRepo) SetToken(ctx context.Context, userID, token string) error {
	return r.rdb.Set(ctx, sessionKey(userID), token, sessionTTL).Err()
}

// CheckToken reports whether token is the user's current session and extends
// the session lifetime when it is.
func (r *SessionRepo) CheckToken(ctx context.Context, userID, token string) (bool, error) {
	stored, err := r.rdb.Get(ctx, sessionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if stored != token {
		return false, nil
	}
	r.rdb.Expire(ctx, sessionKey(userID), sessionTTL)
	return true, nil
}

func (r *SessionRepo) DeleteToken(ctx context.Context, userID string) error {
	return r.rdb.Del(ctx, sessionKey(userID)).Err()
}
