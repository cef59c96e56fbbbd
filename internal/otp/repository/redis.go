package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	identitydomain "staffhub/backend/internal/identity/domain"
	"staffhub/backend/internal/otp/domain"
)

// retention keeps verified and expired records around after expiry so a repeat verify still
// reports a rejection rather than not-found.
const retention = 24 * time.Hour

// createChallengeLua stores the hash only when the key is absent.
// KEYS[1] = record key
// ARGV = channel, code_hash, created_at (unix nanos), expires_at (unix nanos), key ttl (ms)
var createChallengeLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'channel', ARGV[1], 'code_hash', ARGV[2], 'created_at', ARGV[3], 'expires_at', ARGV[4], 'verified', '0')
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// markVerifiedLua flips verified on the generation ARGV[1] if it is still unverified.
var markVerifiedLua = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'created_at') ~= ARGV[1] then
  return 0
end
if redis.call('HGET', KEYS[1], 'verified') == '1' then
  return 0
end
redis.call('HSET', KEYS[1], 'verified', '1')
return 1
`)

// deleteGenerationLua removes the record only if it is generation ARGV[1].
var deleteGenerationLua = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'created_at') == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)

// RedisRepository stores each challenge as a hash under prefix+value.
type RedisRepository struct {
	redis  redis.UniversalClient
	prefix string
	nowF   func() time.Time
}

// NewRedisRepository returns a challenge repository on client. Empty prefix defaults to "otp:".
func NewRedisRepository(client redis.UniversalClient, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "otp:"
	}
	return &RedisRepository{redis: client, prefix: prefix, nowF: func() time.Time { return time.Now().UTC() }}
}

func (r *RedisRepository) key(value string) string {
	return r.prefix + value
}

func (r *RedisRepository) Get(ctx context.Context, value string) (*domain.Challenge, error) {
	fields, err := r.redis.HGetAll(ctx, r.key(value)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	createdAt, err := parseNanos(fields["created_at"])
	if err != nil {
		return nil, err
	}
	expiresAt, err := parseNanos(fields["expires_at"])
	if err != nil {
		return nil, err
	}
	return &domain.Challenge{
		Value:     value,
		Channel:   identitydomain.Channel(fields["channel"]),
		CodeHash:  fields["code_hash"],
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
		Verified:  fields["verified"] == "1",
	}, nil
}

func (r *RedisRepository) Create(ctx context.Context, c *domain.Challenge) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.nowF()
	}
	ttl := c.ExpiresAt.Sub(c.CreatedAt) + retention
	created, err := createChallengeLua.Run(ctx, r.redis, []string{r.key(c.Value)},
		string(c.Channel),
		c.CodeHash,
		formatNanos(c.CreatedAt),
		formatNanos(c.ExpiresAt),
		ttl.Milliseconds(),
	).Int()
	if err != nil {
		return err
	}
	if created == 0 {
		return ErrChallengeExists
	}
	return nil
}

func (r *RedisRepository) MarkVerified(ctx context.Context, value string, createdAt time.Time) (bool, error) {
	n, err := markVerifiedLua.Run(ctx, r.redis, []string{r.key(value)}, formatNanos(createdAt)).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RedisRepository) DeleteIfCreatedAt(ctx context.Context, value string, createdAt time.Time) (bool, error) {
	n, err := deleteGenerationLua.Run(ctx, r.redis, []string{r.key(value)}, formatNanos(createdAt)).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func formatNanos(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

func parseNanos(s string) (time.Time, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, n).UTC(), nil
}
