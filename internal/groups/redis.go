package groups

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrEmptyRedisURL is returned by ConnectRedis when no URL is configured.
	ErrEmptyRedisURL = errors.New("empty redis connection URL")

	// ErrRedisNotReady is returned when every ping attempt failed.
	ErrRedisNotReady = errors.New("redis did not become ready within the given attempts")
)

// deleteScript removes a group from the index only while its member set is empty.
// Returns 1 when the group is gone afterwards, 0 when it still has members.
var deleteScript = redis.NewScript(`
if redis.call('SISMEMBER', KEYS[1], ARGV[1]) == 0 then
	return 1
end
if redis.call('SCARD', KEYS[2]) > 0 then
	return 0
end
redis.call('SREM', KEYS[1], ARGV[1])
return 1
`)

// joinScript adds a member only to a registered group.
// Returns -1 when the group does not exist.
var joinScript = redis.NewScript(`
if redis.call('SISMEMBER', KEYS[1], ARGV[1]) == 0 then
	return -1
end
return redis.call('SADD', KEYS[2], ARGV[2])
`)

// Redis stores groups in a Redis instance shared by every node. The group
// index is one set; each group's members live in their own set, so an empty
// group is simply an index entry with no member key.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

var _ Groups = (*Redis)(nil)

// NewRedis wraps an existing client. prefix scopes every key this
// implementation touches.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// ConnectRedis parses url, connects and pings the server, retrying up to
// attempts times with interval between tries.
func ConnectRedis(ctx context.Context, url string, attempts int, interval time.Duration) (*redis.Client, error) {
	if url == "" {
		return nil, ErrEmptyRedisURL
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if err = client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(interval):
		}
	}
	_ = client.Close()
	return nil, errors.Join(ErrRedisNotReady, err)
}

func (r *Redis) indexKey() string {
	return r.prefix + "groups"
}

func (r *Redis) membersKey(key string) string {
	return r.prefix + "members:" + key
}

// Create implements Groups.
func (r *Redis) Create(ctx context.Context, key string) error {
	return r.client.SAdd(ctx, r.indexKey(), key).Err()
}

// Exists implements Groups.
func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	return r.client.SIsMember(ctx, r.indexKey(), key).Result()
}

// Delete implements Groups.
func (r *Redis) Delete(ctx context.Context, key string) error {
	gone, err := deleteScript.Run(ctx, r.client, []string{r.indexKey(), r.membersKey(key)}, key).Int()
	if err != nil {
		return err
	}
	if gone == 0 {
		return ErrNotEmpty
	}
	return nil
}

// Join implements Groups.
func (r *Redis) Join(ctx context.Context, key, member string) error {
	res, err := joinScript.Run(ctx, r.client, []string{r.indexKey(), r.membersKey(key)}, key, member).Int()
	if err != nil {
		return err
	}
	if res < 0 {
		return ErrNoGroup
	}
	return nil
}

// Leave implements Groups.
func (r *Redis) Leave(ctx context.Context, key, member string) error {
	return r.client.SRem(ctx, r.membersKey(key), member).Err()
}

// Members implements Groups.
func (r *Redis) Members(ctx context.Context, key string) ([]string, error) {
	members, err := r.client.SMembers(ctx, r.membersKey(key)).Result()
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []string{}
	}
	return members, nil
}

// All implements Groups.
func (r *Redis) All(ctx context.Context) ([]string, error) {
	return r.client.SMembers(ctx, r.indexKey()).Result()
}
