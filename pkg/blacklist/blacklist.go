package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix = "blacklist:token:"
	userKeyPrefix  = "blacklist:user:"
)

// TokenBlacklist manages revoked access tokens in Redis. Entries expire when
// the token itself would have expired.
type TokenBlacklist struct {
	redis *redis.Client
}

func NewTokenBlacklist(redisClient *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{
		redis: redisClient,
	}
}

// Add adds a token id to the blacklist with TTL
func (b *TokenBlacklist) Add(ctx context.Context, tokenID string, ttl time.Duration) error {
	err := b.redis.Set(ctx, tokenKeyPrefix+tokenID, "1", ttl).Err()
	if err != nil {
		return errors.Annotate(err, "adding token to blacklist")
	}
	return nil
}

// AddAccessToken blacklists an access token for its remaining lifetime
func (b *TokenBlacklist) AddAccessToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.Add(ctx, tokenID, ttl)
}

func (b *TokenBlacklist) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	exists, err := b.redis.Exists(ctx, tokenKeyPrefix+tokenID).Result()
	if err != nil {
		return false, errors.Annotate(err, "checking blacklist")
	}
	return exists > 0, nil
}

// BlacklistUser invalidates all tokens of a user issued before now. Used when
// a password is reset or a user is deleted.
func (b *TokenBlacklist) BlacklistUser(ctx context.Context, userID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	err := b.redis.Set(ctx, userKeyPrefix+userID, time.Now().Unix(), ttl).Err()
	if err != nil {
		return errors.Annotate(err, "blacklisting user")
	}
	return nil
}

// IsUserBlacklisted reports whether a token issued at tokenIssuedAt predates
// the user's invalidation marker
func (b *TokenBlacklist) IsUserBlacklisted(ctx context.Context, userID string, tokenIssuedAt time.Time) (bool, error) {
	timestamp, err := b.redis.Get(ctx, userKeyPrefix+userID).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.Annotate(err, "checking user blacklist")
	}
	return tokenIssuedAt.Unix() < timestamp, nil
}

// Ping reports whether Redis is reachable
func (b *TokenBlacklist) Ping(ctx context.Context) error {
	if err := b.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
