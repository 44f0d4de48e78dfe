package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"policyhub/internal/core/apperror"
	"policyhub/internal/domain/numbering"
)

const storeName = "redis"

// DefaultKeyPrefix namespaces counter hashes.
const DefaultKeyPrefix = "policyhub:counter:"

// advanceScript performs numbering.Advance on a hash
// {value, period, wraps, transition}. Values are kept as strings and
// compared by length then lexically, since Lua numbers lose precision
// above 2^53 and 18-digit fields exceed that.
var advanceScript = redis.NewScript(`
local key = KEYS[1]
local period = ARGV[1]
local maxValue = ARGV[2]

local function gte(a, b)
	if #a ~= #b then return #a > #b end
	return a >= b
end

local state = redis.call('HMGET', key, 'value', 'period')
local transition
if not state[1] then
	redis.call('HSET', key, 'value', '1', 'period', period, 'wraps', '0')
	transition = 'init'
elseif state[2] ~= period then
	redis.call('HSET', key, 'value', '1', 'period', period)
	transition = 'reset'
elseif gte(state[1], maxValue) then
	redis.call('HSET', key, 'value', '1')
	redis.call('HINCRBY', key, 'wraps', 1)
	transition = 'wrap'
else
	redis.call('HINCRBY', key, 'value', 1)
	transition = 'increment'
end
redis.call('HSET', key, 'transition', transition)

local out = redis.call('HMGET', key, 'value', 'period', 'wraps')
return {out[1], out[2], out[3] or '0', transition}
`)

var seedScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'value', '0', 'period', ARGV[1], 'wraps', '0', 'transition', 'init')
return 1
`)

// Compile-time check that CounterStore implements numbering interfaces.
var (
	_ numbering.CounterStore  = (*CounterStore)(nil)
	_ numbering.CounterSeeder = (*CounterStore)(nil)
)

// CounterStore keeps each counter in one Redis hash advanced by a Lua script.
type CounterStore struct {
	client redis.Scripter
	prefix string
}

// NewCounterStore creates a Redis counter store.
func NewCounterStore(client redis.Scripter, prefix string) *CounterStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &CounterStore{client: client, prefix: prefix}
}

// Key returns the hash key of a counter.
func (s *CounterStore) Key(key numbering.CounterKey) string {
	return s.prefix + key.String()
}

// IncrementAndGet implements numbering.CounterStore.
func (s *CounterStore) IncrementAndGet(ctx context.Context, key numbering.CounterKey, current numbering.Period, maxValue int64) (numbering.Increment, error) {
	res, err := advanceScript.Run(ctx, s.client, []string{s.Key(key)}, int64(current), maxValue).StringSlice()
	if err != nil {
		return numbering.Increment{}, classify(fmt.Errorf("advance counter %s: %w", key, err))
	}
	if len(res) != 4 {
		return numbering.Increment{}, apperror.NewInternal(fmt.Errorf("advance counter %s: unexpected reply %v", key, res))
	}

	nums := make([]int64, 3)
	for i := range nums {
		n, err := strconv.ParseInt(res[i], 10, 64)
		if err != nil {
			return numbering.Increment{}, apperror.NewInternal(fmt.Errorf("advance counter %s: parse reply: %w", key, err))
		}
		nums[i] = n
	}

	return numbering.Increment{
		Value:      nums[0],
		Period:     numbering.Period(nums[1]),
		WrapCount:  nums[2],
		Transition: numbering.Transition(res[3]),
	}, nil
}

// Seed implements numbering.CounterSeeder.
func (s *CounterStore) Seed(ctx context.Context, key numbering.CounterKey, current numbering.Period) error {
	if err := seedScript.Run(ctx, s.client, []string{s.Key(key)}, int64(current)).Err(); err != nil {
		return classify(fmt.Errorf("seed counter %s: %w", key, err))
	}
	return nil
}

// classify maps go-redis errors onto the application error model.
func classify(err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, redis.ErrClosed),
		errors.Is(err, io.EOF),
		errors.As(err, &netErr):
		return apperror.NewStoreUnavailable(storeName, err)
	}

	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		msg := redisErr.Error()
		for _, prefix := range []string{"LOADING", "READONLY", "MASTERDOWN", "CLUSTERDOWN", "TRYAGAIN", "BUSY"} {
			if strings.HasPrefix(msg, prefix) {
				return apperror.NewStoreUnavailable(storeName, err)
			}
		}
		return apperror.NewInternal(err)
	}
	return err
}
