//go:build !no_redis

package sequence

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/yeisme/filesort/pkg/configs"
)

// Redis 基于 Redis 的计数器，多个实例共享同一组序号.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis 创建 Redis 计数器实例.
func NewRedis(ctx context.Context, cfg configs.SequenceConfig) (Sequencer, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 测试连接
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Redis{client: rdb, prefix: cfg.Namespace + ":seq:"}, nil
}

func (r *Redis) key(category string) string {
	return r.prefix + category
}

// Next 首次使用时用 SETNX 写入种子，随后 INCR.
func (r *Redis) Next(ctx context.Context, category string, seed SeedFunc) (int, error) {
	key := r.key(category)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to check counter %s: %w", key, err)
	}

	if exists == 0 && seed != nil {
		base, err := seed(ctx)
		if err != nil {
			return 0, fmt.Errorf("seed counter %s: %w", category, err)
		}

		// 其他实例可能已抢先写入，SETNX 失败即沿用对方的值
		if err := r.client.SetNX(ctx, key, base, 0).Err(); err != nil {
			return 0, fmt.Errorf("failed to seed counter %s: %w", key, err)
		}
	}

	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", key, err)
	}

	return int(n), nil
}

// Snapshot 扫描命名空间下的所有计数器.
func (r *Redis) Snapshot(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int)

	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		val, err := r.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to get counter %s: %w", key, err)
		}

		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("invalid counter value %s=%q", key, val)
		}

		out[strings.TrimPrefix(key, r.prefix)] = n
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan counters: %w", err)
	}

	return out, nil
}

// Forget 计数器由所有实例共享，保持不变.
func (r *Redis) Forget(_ context.Context, _ string) error {
	return nil
}

// Close 关闭 Redis 连接.
func (r *Redis) Close() error {
	return r.client.Close()
}

func init() {
	RegisterFactory(configs.SequenceRedis, NewRedis)
}
