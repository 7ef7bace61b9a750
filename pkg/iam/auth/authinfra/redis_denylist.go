package authinfra

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/iam/auth"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/redis/go-redis/v9"
)

// RedisDenylist keeps, per user, a cutoff time in unix milliseconds: tokens
// issued before it are revoked. Entries live as long as a token can, after which every token
// they cover has expired anyway.
type RedisDenylist struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDenylist(rdb *redis.Client, tokenTTL time.Duration) *RedisDenylist {
	return &RedisDenylist{rdb: rdb, ttl: tokenTTL}
}

var _ auth.RevocationStore = (*RedisDenylist)(nil)

func revokedKey(userID kernel.UserID) string { return fmt.Sprintf("auth:revoked:%s", userID) }

// raiseCutoffScript only moves the cutoff forward so an older logout never
// re-enables tokens revoked by a later event.
var raiseCutoffScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local cutoff = tonumber(ARGV[1])
if cutoff > current then
    redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
    return 1
end
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 0
`)

func (d *RedisDenylist) Revoke(ctx context.Context, userID kernel.UserID, cutoff time.Time) error {
	err := raiseCutoffScript.Run(ctx, d.rdb,
		[]string{revokedKey(userID)},
		strconv.FormatInt(cutoff.UnixMilli(), 10),
		strconv.FormatInt(d.ttl.Milliseconds(), 10),
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return errx.Wrap(err, "failed to revoke tokens", errx.TypeInternal).
			WithDetail("user_id", userID.String())
	}
	return nil
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, userID kernel.UserID, issuedAt time.Time) (bool, error) {
	cutoff, err := d.rdb.Get(ctx, revokedKey(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, errx.Wrap(err, "failed to check token revocation", errx.TypeInternal).
			WithDetail("user_id", userID.String())
	}
	return issuedAt.UnixMilli() < cutoff, nil
}
