package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker 按key互斥锁。同一key上的临界区串行执行，不同key完全并行。
type Locker interface {
	// Acquire 获取key对应的锁，返回释放函数。获取不到时轮询等待，直到ctx取消。
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// RedisLocker 基于Redis SET NX PX实现的分布式锁，多实例部署时保证同一订单串行
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker 创建Redis锁
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// 释放锁时校验token，避免误删他人持有的锁
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Acquire 获取锁
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, "lock:"+key, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			release := func() {
				releaseScript.Run(context.Background(), l.client, []string{"lock:" + key}, token)
			}
			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
}
