package sequence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/yeisme/filesort/pkg/configs"
)

// maxCASRetries CAS 冲突时的最大重试次数.
const maxCASRetries = 32

// NATS 基于 NATS JetStream KV 的计数器，通过修订号做 CAS 更新.
type NATS struct {
	kv     nats.KeyValue
	prefix string
	conn   *nats.Conn
}

// NewNATS 创建 NATS 计数器实例.
func NewNATS(_ context.Context, cfg configs.SequenceConfig) (Sequencer, error) {
	opts := []nats.Option{nats.Name(configs.AppName + "-sequence")}
	if cfg.NATS.User != "" {
		opts = append(opts, nats.UserInfo(cfg.NATS.User, cfg.NATS.Password))
	}

	nc, err := nats.Connect(cfg.NATS.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	// 创建或获取 KV bucket，只保留最新值
	kv, err := js.KeyValue(cfg.NATS.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{Bucket: cfg.NATS.Bucket, History: 1})
	}

	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create/get KV bucket: %w", err)
	}

	return &NATS{kv: kv, prefix: cfg.Namespace + ".", conn: nc}, nil
}

// key 分类名中的 + 不是合法的 KV 键字符，转义为 =2B.
func (n *NATS) key(category string) string {
	return n.prefix + strings.ReplaceAll(category, "+", "=2B")
}

func (n *NATS) category(key string) string {
	return strings.ReplaceAll(strings.TrimPrefix(key, n.prefix), "=2B", "+")
}

// Next 读取当前值与修订号，Create/Update 失败说明被并发修改，重新读取.
func (n *NATS) Next(ctx context.Context, category string, seed SeedFunc) (int, error) {
	key := n.key(category)

	for range maxCASRetries {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		entry, err := n.kv.Get(key)
		if errors.Is(err, nats.ErrKeyNotFound) {
			base := 0
			if seed != nil {
				if base, err = seed(ctx); err != nil {
					return 0, fmt.Errorf("seed counter %s: %w", category, err)
				}
			}

			next := base + 1
			if _, err := n.kv.Create(key, []byte(strconv.Itoa(next))); err == nil {
				return next, nil
			} else if !isConflict(err) {
				return 0, fmt.Errorf("failed to create counter %s: %w", key, err)
			}

			continue
		}

		if err != nil {
			return 0, fmt.Errorf("failed to get counter %s: %w", key, err)
		}

		cur, err := strconv.Atoi(string(entry.Value()))
		if err != nil {
			return 0, fmt.Errorf("invalid counter value %s=%q", key, entry.Value())
		}

		next := cur + 1
		if _, err := n.kv.Update(key, []byte(strconv.Itoa(next)), entry.Revision()); err == nil {
			return next, nil
		} else if !isConflict(err) {
			return 0, fmt.Errorf("failed to update counter %s: %w", key, err)
		}
	}

	return 0, fmt.Errorf("counter %s: too many concurrent updates", key)
}

func isConflict(err error) bool {
	if errors.Is(err, nats.ErrKeyExists) {
		return true
	}

	var apiErr *nats.APIError

	return errors.As(err, &apiErr) && apiErr.ErrorCode == nats.JSErrCodeStreamWrongLastSequence
}

// Snapshot 返回命名空间下的所有计数器.
func (n *NATS) Snapshot(_ context.Context) (map[string]int, error) {
	out := make(map[string]int)

	keys, err := n.kv.Keys()
	if errors.Is(err, nats.ErrNoKeysFound) {
		return out, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get keys: %w", err)
	}

	for _, key := range keys {
		if !strings.HasPrefix(key, n.prefix) {
			continue
		}

		entry, err := n.kv.Get(key)
		if err != nil {
			continue
		}

		if v, err := strconv.Atoi(string(entry.Value())); err == nil {
			out[n.category(key)] = v
		}
	}

	return out, nil
}

// Forget 计数器保存在 KV 中，保持不变.
func (n *NATS) Forget(_ context.Context, _ string) error {
	return nil
}

// Close 关闭 NATS 连接.
func (n *NATS) Close() error {
	n.conn.Close()
	return nil
}

func init() {
	RegisterFactory(configs.SequenceNATS, NewNATS)
}
