package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saudijob/jobboard/internal/core/domain"
	"github.com/saudijob/jobboard/internal/core/ports"
)

const (
	quotaKeyPrefix  = "urgent_quota:"
	defaultQuotaTTL = 72 * time.Hour
)

var _ ports.QuotaStore = (*QuotaStore)(nil)

// quotaScript rolls the hash over to today and applies one operation, all
// inside Redis so concurrent callers for the same identity serialize.
//
//	KEYS[1]  quota hash (fields: count, extra, reset)
//	ARGV[1]  today as unix seconds of local midnight
//	ARGV[2]  operation: get | consume | record | grant
//	ARGV[3]  base daily allowance
//	ARGV[4]  key ttl in seconds
//
// Returns {count, extra, reset, consumed}.
var quotaScript = redis.NewScript(`
local today = tonumber(ARGV[1])
local reset = tonumber(redis.call('HGET', KEYS[1], 'reset') or '-1')
if reset < today then
  redis.call('HSET', KEYS[1], 'count', 0, 'extra', 0, 'reset', today)
  reset = today
end
local count = tonumber(redis.call('HGET', KEYS[1], 'count'))
local extra = tonumber(redis.call('HGET', KEYS[1], 'extra'))
local consumed = 0
local op = ARGV[2]
if op == 'consume' then
  if count < tonumber(ARGV[3]) + extra then
    count = redis.call('HINCRBY', KEYS[1], 'count', 1)
    consumed = 1
  end
elseif op == 'record' then
  count = redis.call('HINCRBY', KEYS[1], 'count', 1)
elseif op == 'grant' then
  extra = redis.call('HINCRBY', KEYS[1], 'extra', 1)
end
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[4]))
return {count, extra, reset, consumed}
`)

// QuotaStore implements ports.QuotaStore on Redis hashes. Keys expire ttl
// after their last touch, which bounds memory to recently active identities.
type QuotaStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewQuotaStore returns a store using the default key prefix. ttl <= 0 uses 72h.
func NewQuotaStore(client redis.UniversalClient, ttl time.Duration) *QuotaStore {
	if ttl <= 0 {
		ttl = defaultQuotaTTL
	}
	return &QuotaStore{client: client, prefix: quotaKeyPrefix, ttl: ttl}
}

// NewQuotaStoreWithPrefix is used by tests to isolate keys.
func NewQuotaStoreWithPrefix(client redis.UniversalClient, prefix string, ttl time.Duration) *QuotaStore {
	s := NewQuotaStore(client, ttl)
	s.prefix = prefix
	return s
}

func (s *QuotaStore) key(email string) string {
	return s.prefix + strings.ToLower(email)
}

func (s *QuotaStore) Get(ctx context.Context, email string, today time.Time) (domain.UrgentQuota, error) {
	q, _, err := s.run(ctx, email, today, "get", 0)
	return q, err
}

func (s *QuotaStore) TryConsume(ctx context.Context, email string, today time.Time, base int) (domain.UrgentQuota, bool, error) {
	return s.run(ctx, email, today, "consume", base)
}

func (s *QuotaStore) IncrementCount(ctx context.Context, email string, today time.Time) (domain.UrgentQuota, error) {
	q, _, err := s.run(ctx, email, today, "record", 0)
	return q, err
}

func (s *QuotaStore) AddExtraCredit(ctx context.Context, email string, today time.Time) (domain.UrgentQuota, error) {
	q, _, err := s.run(ctx, email, today, "grant", 0)
	return q, err
}

func (s *QuotaStore) run(ctx context.Context, email string, today time.Time, op string, base int) (domain.UrgentQuota, bool, error) {
	res, err := quotaScript.Run(ctx, s.client,
		[]string{s.key(email)},
		today.Unix(), op, base, int64(s.ttl.Seconds()),
	).Int64Slice()
	if err != nil {
		return domain.UrgentQuota{}, false, fmt.Errorf("%w: redis quota %s: %v", domain.ErrStorageUnavailable, op, err)
	}
	if len(res) != 4 {
		return domain.UrgentQuota{}, false, fmt.Errorf("redis quota %s: unexpected reply length %d", op, len(res))
	}

	q := domain.UrgentQuota{
		Email:        email,
		Count:        int(res[0]),
		ExtraCredits: int(res[1]),
		LastReset:    time.Unix(res[2], 0).In(today.Location()),
	}
	return q, res[3] == 1, nil
}

// Keys lists the identities with live quota records; used by tests and ops
// tooling, never on the request path.
func (s *QuotaStore) Keys(ctx context.Context) ([]string, error) {
	var out []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		out = append(out, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan quota keys: %w", err)
	}
	return out, nil
}
