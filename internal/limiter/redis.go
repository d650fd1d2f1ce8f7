package limiter

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a sliding-window limiter backed by a Redis sorted set per
// key.  The prune-count-add sequence runs inside a Lua script so two
// instances checking the same key cannot both consume the last slot.
type Redis struct {
	rdb    *redis.Client
	max    int
	window time.Duration
	prefix string
	script *redis.Script
}

// NewRedis returns a Redis limiter allowing max requests per key in
// each sliding window.  Keys are namespaced under prefix.
func NewRedis(rdb *redis.Client, max int, window time.Duration, prefix string) *Redis {
	script := redis.NewScript(`
		local key = KEYS[1]
		local now_ms = tonumber(ARGV[1])
		local window_ms = tonumber(ARGV[2])
		local max = tonumber(ARGV[3])
		local member = ARGV[4]

		redis.call('ZREMRANGEBYSCORE', key, 0, now_ms - window_ms)
		local count = redis.call('ZCARD', key)
		if count < max then
			redis.call('ZADD', key, now_ms, member)
			redis.call('PEXPIRE', key, window_ms)
			return { 1, max - count - 1, 0 }
		end

		local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
		local retry_ms = 0
		if oldest[2] then
			retry_ms = (tonumber(oldest[2]) + window_ms) - now_ms
			if retry_ms < 0 then retry_ms = 0 end
		end
		return { 0, 0, retry_ms }
	`)
	return &Redis{rdb: rdb, max: max, window: window, prefix: prefix, script: script}
}

// Check runs the window script for key and translates the reply.
func (r *Redis) Check(ctx context.Context, key string) (Decision, error) {
	now := time.Now()
	member := strconv.FormatInt(now.UnixNano(), 10)
	args := []interface{}{
		now.UnixMilli(),
		r.window.Milliseconds(),
		r.max,
		member,
	}
	vals, err := r.script.Run(ctx, r.rdb, []string{r.prefix + ":" + key}, args...).Result()
	if err != nil {
		return Decision{}, err
	}
	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 3 {
		return Decision{}, errUnexpectedReply
	}
	return Decision{
		Allowed:    asInt64(arr[0]) == 1,
		Remaining:  int(asInt64(arr[1])),
		RetryAfter: time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, nil
}

var errUnexpectedReply = errors.New("limiter: unexpected script reply")

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
