package docstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a Redis hash per document. The version
// token is a monotonically increasing sequence kept inside the hash, and
// conditional writes are a single Lua script so the compare and the swap
// are atomic on the server.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// casPut compares the stored version against ARGV[2] (empty string for
// create-if-absent) and on match installs the new body under the next
// sequence number. Returns 1 on success, 0 on conflict.
var casPut = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
if (current or '') ~= ARGV[2] then
  return 0
end
local seq = redis.call('HINCRBY', KEYS[1], 'seq', 1)
redis.call('HSET', KEYS[1], 'body', ARGV[1], 'version', tostring(seq))
return 1
`)

// blindPut installs the body unconditionally, still advancing the
// sequence so later conditional writers observe the change.
var blindPut = redis.NewScript(`
local seq = redis.call('HINCRBY', KEYS[1], 'seq', 1)
redis.call('HSET', KEYS[1], 'body', ARGV[1], 'version', tostring(seq))
return 1
`)

// NewRedisStore creates a Redis-backed document store. All keys are
// namespaced under the given prefix.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) docKey(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, Version, error) {
	vals, err := s.rdb.HMGet(ctx, s.docKey(key), "body", "version").Result()
	if err != nil {
		return nil, NoVersion, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if vals[0] == nil || vals[1] == nil {
		return nil, NoVersion, nil
	}

	body, ok1 := vals[0].(string)
	version, ok2 := vals[1].(string)
	if !ok1 || !ok2 {
		return nil, NoVersion, fmt.Errorf("%w: unexpected reply type", ErrUnavailable)
	}
	return []byte(body), Version(version), nil
}

func (s *RedisStore) Put(ctx context.Context, key string, body []byte, expected *Version) error {
	if expected == nil {
		if err := blindPut.Run(ctx, s.rdb, []string{s.docKey(key)}, string(body)).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil
	}

	res, err := casPut.Run(ctx, s.rdb, []string{s.docKey(key)}, string(body), string(*expected)).Int()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res == 0 {
		return ErrVersionConflict
	}
	return nil
}
