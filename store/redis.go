// MIT License
//
// Copyright (c) 2024-2026 Redis Collections Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/redis/go-redis/v9"

	"github.com/redis-collections/redis-collections/errors"
)

// connectRetries bounds the ping attempts made while opening a store from a
// configuration.
const connectRetries = 5

// Config holds the settings needed to open a Redis-backed store.
type Config struct {
	// Address is the host:port of the Redis server.
	Address string
	// Password authenticates the connection. Leave empty when the server does
	// not require one.
	Password string
	// DB selects the logical database. Defaults to 0.
	DB int
	// DialTimeout bounds the time spent establishing a connection.
	DialTimeout time.Duration
	// ReadTimeout bounds each read from the server.
	ReadTimeout time.Duration
	// WriteTimeout bounds each write to the server.
	WriteTimeout time.Duration
	// PoolSize caps the number of pooled connections. Zero means the client
	// default.
	PoolSize int
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c == nil {
		return errors.NewUsageError(stderrors.New("config is required"))
	}
	if strings.TrimSpace(c.Address) == "" {
		return errors.NewUsageError(stderrors.New("address is required"))
	}
	if c.DB < 0 {
		return errors.NewUsageError(fmt.Errorf("db=(%d) must not be negative", c.DB))
	}
	return nil
}

// Redis is the Store implementation backed by a Redis server through go-redis.
// It is safe for concurrent use; every method issues a single server command
// except the Replace* family, which runs inside a MULTI/EXEC transaction.
type Redis struct {
	client   redis.UniversalClient
	endpoint string
	db       int
}

// enforce compilation error
var _ Store = (*Redis)(nil)

// NewRedis wraps an existing client. The endpoint string identifies the server
// behind the client; stores created with equal endpoints are treated as one
// data space by cross-collection operations.
func NewRedis(client redis.UniversalClient, endpoint string) *Redis {
	return &Redis{
		client:   client,
		endpoint: endpoint,
	}
}

// NewRedisFromConfig opens a client from the given configuration and verifies
// the server is reachable.
func NewRedisFromConfig(ctx context.Context, config *Config) (*Redis, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Address,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		PoolSize:     config.PoolSize,
	})

	retrier := retry.NewRetrier(connectRetries, 100*time.Millisecond, time.Second)
	if err := retrier.RunContext(ctx, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}); err != nil {
		_ = client.Close()
		return nil, errors.NewStoreUnavailableError(err)
	}

	return &Redis{
		client:   client,
		endpoint: fmt.Sprintf("%s/%d", config.Address, config.DB),
		db:       config.DB,
	}, nil
}

// Client exposes the underlying go-redis client for operations outside the
// Store surface.
func (r *Redis) Client() redis.UniversalClient {
	return r.client
}

// Endpoint implements Store.
func (r *Redis) Endpoint() string {
	return r.endpoint
}

// Close releases the underlying client and its connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Exists implements Keys.
func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, r.mapErr(err)
	}
	return n > 0, nil
}

// Delete implements Keys.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.mapErr(r.client.Del(ctx, keys...).Err())
}

// Rename implements Keys.
func (r *Redis) Rename(ctx context.Context, src, dst string) error {
	return r.mapErr(r.client.Rename(ctx, src, dst).Err())
}

// Copy implements Keys.
func (r *Redis) Copy(ctx context.Context, src, dst string) error {
	return r.mapErr(r.client.Copy(ctx, src, dst, r.db, true).Err())
}

// HGet implements Hashes.
func (r *Redis) HGet(ctx context.Context, key, field string) ([]byte, error) {
	data, err := r.client.HGet(ctx, key, field).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, errors.NewErrFieldNotFound(key, field)
		}
		return nil, r.mapErr(err)
	}
	return data, nil
}

// HMGet implements Hashes.
func (r *Redis) HMGet(ctx context.Context, key string, fields ...string) ([][]byte, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	raw, err := r.client.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, r.mapErr(err)
	}
	values := make([][]byte, len(raw))
	for i, entry := range raw {
		if entry == nil {
			continue
		}
		values[i] = []byte(entry.(string))
	}
	return values, nil
}

// HSet implements Hashes.
func (r *Redis) HSet(ctx context.Context, key string, fields map[string][]byte) error {
	if len(fields) == 0 {
		return nil
	}
	return r.mapErr(r.client.HSet(ctx, key, flattenFields(fields)...).Err())
}

// HSetNX implements Hashes.
func (r *Redis) HSetNX(ctx context.Context, key, field string, value []byte) (bool, error) {
	set, err := r.client.HSetNX(ctx, key, field, value).Result()
	if err != nil {
		return false, r.mapErr(err)
	}
	return set, nil
}

// HDel implements Hashes.
func (r *Redis) HDel(ctx context.Context, key string, fields ...string) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	n, err := r.client.HDel(ctx, key, fields...).Result()
	if err != nil {
		return 0, r.mapErr(err)
	}
	return n, nil
}

// HExists implements Hashes.
func (r *Redis) HExists(ctx context.Context, key, field string) (bool, error) {
	ok, err := r.client.HExists(ctx, key, field).Result()
	if err != nil {
		return false, r.mapErr(err)
	}
	return ok, nil
}

// HGetAll implements Hashes.
func (r *Redis) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	raw, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, r.mapErr(err)
	}
	fields := make(map[string][]byte, len(raw))
	for field, value := range raw {
		fields[field] = []byte(value)
	}
	return fields, nil
}

// HLen implements Hashes.
func (r *Redis) HLen(ctx context.Context, key string) (int64, error) {
	n, err := r.client.HLen(ctx, key).Result()
	if err != nil {
		return 0, r.mapErr(err)
	}
	return n, nil
}

// HIncrBy implements Hashes.
func (r *Redis) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	n, err := r.client.HIncrBy(ctx, key, field, delta).Result()
	if err != nil {
		return 0, r.mapErr(err)
	}
	return n, nil
}

// HScan implements Hashes.
func (r *Redis) HScan(ctx context.Context, key string, cursor uint64, count int64) (map[string][]byte, uint64, error) {
	pairs, next, err := r.client.HScan(ctx, key, cursor, "", count).Result()
	if err != nil {
		return nil, 0, r.mapErr(err)
	}
	fields := make(map[string][]byte, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		fields[pairs[i]] = []byte(pairs[i+1])
	}
	return fields, next, nil
}

// HReplace implements Hashes.
func (r *Redis) HReplace(ctx context.Context, key string, fields map[string][]byte) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(fields) > 0 {
			pipe.HSet(ctx, key, flattenFields(fields)...)
		}
		return nil
	})
	return r.mapErr(err)
}

// LIndex implements Lists.
func (r *Redis) LIndex(ctx context.Context, key string, index int64) ([]byte, error) {
	data, err := r.client.LIndex(ctx, key, index).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, errors.NewErrIndexOutOfRange(index)
		}
		return nil, r.mapErr(err)
	}
	return data, nil
}

// LSet implements Lists.
func (r *Redis) LSet(ctx context.Context, key string, index int64, value []byte) error {
	if err := r.client.LSet(ctx, key, index, value).Err(); err != nil {
		if strings.Contains(err.Error(), "index out of range") ||
			strings.Contains(err.Error(), "no such key") {
			return errors.NewErrIndexOutOfRange(index)
		}
		return r.mapErr(err)
	}
	return nil
}

// LPush implements Lists.
func (r *Redis) LPush(ctx context.Context, key string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	return r.mapErr(r.client.LPush(ctx, key, byteArgs(values)...).Err())
}

// RPush implements Lists.
func (r *Redis) RPush(ctx context.Context, key string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	return r.mapErr(r.client.RPush(ctx, key, byteArgs(values)...).Err())
}

// LPop implements Lists.
func (r *Redis) LPop(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.LPop(ctx, key).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, errors.NewErrKeyNotFound(key)
		}
		return nil, r.mapErr(err)
	}
	return data, nil
}

// RPop implements Lists.
func (r *Redis) RPop(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.RPop(ctx, key).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, errors.NewErrKeyNotFound(key)
		}
		return nil, r.mapErr(err)
	}
	return data, nil
}

// LLen implements Lists.
func (r *Redis) LLen(ctx context.Context, key string) (int64, error) {
	n, err := r.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, r.mapErr(err)
	}
	return n, nil
}

// LRange implements Lists.
func (r *Redis) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	raw, err := r.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, r.mapErr(err)
	}
	values := make([][]byte, len(raw))
	for i, entry := range raw {
		values[i] = []byte(entry)
	}
	return values, nil
}

// LRem implements Lists.
func (r *Redis) LRem(ctx context.Context, key string, count int64, value []byte) (int64, error) {
	n, err := r.client.LRem(ctx, key, count, value).Result()
	if err != nil {
		return 0, r.mapErr(err)
	}
	return n, nil
}

// LTrim implements Lists.
func (r *Redis) LTrim(ctx context.Context, key string, start, stop int64) error {
	return r.mapErr(r.client.LTrim(ctx, key, start, stop).Err())
}

// LReplace implements Lists.
func (r *Redis) LReplace(ctx context.Context, key string, values [][]byte) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.RPush(ctx, key, byteArgs(values)...)
		}
		return nil
	})
	return r.mapErr(err)
}

// SAdd implements Sets.
func (r *Redis) SAdd(ctx context.Context, key string, members ...[]byte) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	n, err := r.client.SAdd(ctx, key, byteArgs(members)...).Result()
	if err != nil {
		return 0, r.mapErr(err)
	}
	return n, nil
}

// SRem implements Sets.
func (r *Redis) SRem(ctx context.Context, key string, members ...[]byte) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	n, err := r.client.SRem(ctx, key, byteArgs(members)...).Result()
	if err != nil {
		return 0, r.mapErr(err)
	}
	return n, nil
}

// SIsMember implements Sets.
func (r *Redis) SIsMember(ctx context.Context, key string, member []byte) (bool, error) {
	ok, err := r.client.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, r.mapErr(err)
	}
	return ok, nil
}

// SCard implements Sets.
func (r *Redis) SCard(ctx context.Context, key string) (int64, error) {
	n, err := r.client.SCard(ctx, key).Result()
	if err != nil {
		return 0, r.mapErr(err)
	}
	return n, nil
}

// SMembers implements Sets.
func (r *Redis) SMembers(ctx context.Context, key string) ([][]byte, error) {
	raw, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, r.mapErr(err)
	}
	members := make([][]byte, len(raw))
	for i, entry := range raw {
		members[i] = []byte(entry)
	}
	return members, nil
}

// SPop implements Sets.
func (r *Redis) SPop(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.SPop(ctx, key).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, errors.NewErrKeyNotFound(key)
		}
		return nil, r.mapErr(err)
	}
	return data, nil
}

// SRandMember implements Sets.
func (r *Redis) SRandMember(ctx context.Context, key string, count int64) ([][]byte, error) {
	raw, err := r.client.SRandMemberN(ctx, key, count).Result()
	if err != nil {
		return nil, r.mapErr(err)
	}
	members := make([][]byte, len(raw))
	for i, entry := range raw {
		members[i] = []byte(entry)
	}
	return members, nil
}

// SScan implements Sets.
func (r *Redis) SScan(ctx context.Context, key string, cursor uint64, count int64) ([][]byte, uint64, error) {
	raw, next, err := r.client.SScan(ctx, key, cursor, "", count).Result()
	if err != nil {
		return nil, 0, r.mapErr(err)
	}
	members := make([][]byte, len(raw))
	for i, entry := range raw {
		members[i] = []byte(entry)
	}
	return members, next, nil
}

// SUnionStore implements Sets.
func (r *Redis) SUnionStore(ctx context.Context, dst string, keys ...string) (int64, error) {
	n, err := r.client.SUnionStore(ctx, dst, keys...).Result()
	if err != nil {
		return 0, r.mapErr(err)
	}
	return n, nil
}

// SInterStore implements Sets.
func (r *Redis) SInterStore(ctx context.Context, dst string, keys ...string) (int64, error) {
	n, err := r.client.SInterStore(ctx, dst, keys...).Result()
	if err != nil {
		return 0, r.mapErr(err)
	}
	return n, nil
}

// SDiffStore implements Sets.
func (r *Redis) SDiffStore(ctx context.Context, dst string, keys ...string) (int64, error) {
	n, err := r.client.SDiffStore(ctx, dst, keys...).Result()
	if err != nil {
		return 0, r.mapErr(err)
	}
	return n, nil
}

// SReplace implements Sets.
func (r *Redis) SReplace(ctx context.Context, key string, members [][]byte) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(members) > 0 {
			pipe.SAdd(ctx, key, byteArgs(members)...)
		}
		return nil
	})
	return r.mapErr(err)
}

// ZAdd implements SortedSets.
func (r *Redis) ZAdd(ctx context.Context, key string, members ...ScoredMember) error {
	if len(members) == 0 {
		return nil
	}
	return r.mapErr(r.client.ZAdd(ctx, key, toZs(members)...).Err())
}

// ZAddNX implements SortedSets.
func (r *Redis) ZAddNX(ctx context.Context, key string, member ScoredMember) (bool, error) {
	added, err := r.client.ZAddNX(ctx, key, redis.Z{Score: member.Score, Member: member.Member}).Result()
	if err != nil {
		return false, r.mapErr(err)
	}
	return added > 0, nil
}

// ZScore implements SortedSets.
func (r *Redis) ZScore(ctx context.Context, key, member string) (float64, error) {
	score, err := r.client.ZScore(ctx, key, member).Result()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return 0, errors.NewErrFieldNotFound(key, member)
		}
		return 0, r.mapErr(err)
	}
	return score, nil
}

// ZIncrBy implements SortedSets.
func (r *Redis) ZIncrBy(ctx context.Context, key string, delta float64, member string) (float64, error) {
	score, err := r.client.ZIncrBy(ctx, key, delta, member).Result()
	if err != nil {
		return 0, r.mapErr(err)
	}
	return score, nil
}

// ZRem implements SortedSets.
func (r *Redis) ZRem(ctx context.Context, key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	args := make([]any, len(members))
	for i, member := range members {
		args[i] = member
	}
	n, err := r.client.ZRem(ctx, key, args...).Result()
	if err != nil {
		return 0, r.mapErr(err)
	}
	return n, nil
}

// ZCard implements SortedSets.
func (r *Redis) ZCard(ctx context.Context, key string) (int64, error) {
	n, err := r.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, r.mapErr(err)
	}
	return n, nil
}

// ZRank implements SortedSets.
func (r *Redis) ZRank(ctx context.Context, key, member string, reverse bool) (int64, error) {
	var rank int64
	var err error
	if reverse {
		rank, err = r.client.ZRevRank(ctx, key, member).Result()
	} else {
		rank, err = r.client.ZRank(ctx, key, member).Result()
	}
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return 0, errors.NewErrFieldNotFound(key, member)
		}
		return 0, r.mapErr(err)
	}
	return rank, nil
}

// ZCount implements SortedSets.
func (r *Redis) ZCount(ctx context.Context, key string, min, max float64) (int64, error) {
	n, err := r.client.ZCount(ctx, key, scoreBound(min), scoreBound(max)).Result()
	if err != nil {
		return 0, r.mapErr(err)
	}
	return n, nil
}

// ZRangeWithScores implements SortedSets.
func (r *Redis) ZRangeWithScores(ctx context.Context, key string, start, stop int64, reverse bool) ([]ScoredMember, error) {
	var zs []redis.Z
	var err error
	if reverse {
		zs, err = r.client.ZRevRangeWithScores(ctx, key, start, stop).Result()
	} else {
		zs, err = r.client.ZRangeWithScores(ctx, key, start, stop).Result()
	}
	if err != nil {
		return nil, r.mapErr(err)
	}
	return fromZs(zs), nil
}

// ZRangeByScore implements SortedSets.
func (r *Redis) ZRangeByScore(ctx context.Context, key string, min, max float64, reverse bool) ([]ScoredMember, error) {
	rangeBy := &redis.ZRangeBy{Min: scoreBound(min), Max: scoreBound(max)}
	var zs []redis.Z
	var err error
	if reverse {
		zs, err = r.client.ZRevRangeByScoreWithScores(ctx, key, rangeBy).Result()
	} else {
		zs, err = r.client.ZRangeByScoreWithScores(ctx, key, rangeBy).Result()
	}
	if err != nil {
		return nil, r.mapErr(err)
	}
	return fromZs(zs), nil
}

// ZRemRangeByRank implements SortedSets.
func (r *Redis) ZRemRangeByRank(ctx context.Context, key string, start, stop int64) (int64, error) {
	n, err := r.client.ZRemRangeByRank(ctx, key, start, stop).Result()
	if err != nil {
		return 0, r.mapErr(err)
	}
	return n, nil
}

// ZRemRangeByScore implements SortedSets.
func (r *Redis) ZRemRangeByScore(ctx context.Context, key string, min, max float64) (int64, error) {
	n, err := r.client.ZRemRangeByScore(ctx, key, scoreBound(min), scoreBound(max)).Result()
	if err != nil {
		return 0, r.mapErr(err)
	}
	return n, nil
}

// ZScan implements SortedSets.
func (r *Redis) ZScan(ctx context.Context, key string, cursor uint64, count int64) ([]ScoredMember, uint64, error) {
	pairs, next, err := r.client.ZScan(ctx, key, cursor, "", count).Result()
	if err != nil {
		return nil, 0, r.mapErr(err)
	}
	members := make([]ScoredMember, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		score, err := strconv.ParseFloat(pairs[i+1], 64)
		if err != nil {
			return nil, 0, errors.NewSerializationError(err)
		}
		members = append(members, ScoredMember{Member: pairs[i], Score: score})
	}
	return members, next, nil
}

// ZReplace implements SortedSets.
func (r *Redis) ZReplace(ctx context.Context, key string, members []ScoredMember) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(members) > 0 {
			pipe.ZAdd(ctx, key, toZs(members)...)
		}
		return nil
	})
	return r.mapErr(err)
}

// mapErr translates go-redis failures into the module's error taxonomy.
func (r *Redis) mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, redis.Nil):
		return errors.ErrKeyNotFound
	case strings.HasPrefix(err.Error(), "WRONGTYPE"):
		return fmt.Errorf("%w: %s", errors.ErrWrongType, err.Error())
	default:
		return errors.NewStoreUnavailableError(err)
	}
}

func flattenFields(fields map[string][]byte) []any {
	args := make([]any, 0, len(fields)*2)
	for field, value := range fields {
		args = append(args, field, value)
	}
	return args
}

func byteArgs(values [][]byte) []any {
	args := make([]any, len(values))
	for i, value := range values {
		args[i] = value
	}
	return args
}

func toZs(members []ScoredMember) []redis.Z {
	zs := make([]redis.Z, len(members))
	for i, member := range members {
		zs[i] = redis.Z{Score: member.Score, Member: member.Member}
	}
	return zs
}

func fromZs(zs []redis.Z) []ScoredMember {
	members := make([]ScoredMember, len(zs))
	for i, z := range zs {
		member, _ := z.Member.(string)
		members[i] = ScoredMember{Member: member, Score: z.Score}
	}
	return members
}

// scoreBound renders a numeric bound in the syntax ZRANGEBYSCORE expects,
// turning the infinities into their symbolic forms.
func scoreBound(f float64) string {
	switch {
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsInf(f, 1):
		return "+inf"
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}
