// Package sequence 为每个分类分配递增序号.
//
// 计数器在首次使用时用分类目录的条目数做种子，此后的自增是原子的：
// memory 使用互斥锁，redis 使用 SETNX + INCR，nats 使用 JetStream KV 的 CAS 更新.
// listing 保留旧版的"读取条目数再加一"行为，本身不保证唯一，依赖存储层的独占创建兜底.
package sequence

import (
	"context"
	"fmt"
	"sort"

	"github.com/yeisme/filesort/pkg/configs"
)

// SeedFunc 返回分类当前的条目数，用于初始化计数器.
type SeedFunc func(ctx context.Context) (int, error)

// Sequencer 分类序号分配器.
type Sequencer interface {
	// Next 返回分类的下一个序号，从 1 开始.
	Next(ctx context.Context, category string, seed SeedFunc) (int, error)
	// Snapshot 返回已初始化计数器的当前值.
	Snapshot(ctx context.Context) (map[string]int, error)
	// Forget 丢弃分类的本地缓存，下次取号时重新读取种子.
	// 共享后端的计数器由多个实例使用，不在这里删除.
	Forget(ctx context.Context, category string) error
	// Close 关闭底层连接.
	Close() error
}

// Factory 定义创建 Sequencer 的工厂函数类型.
type Factory func(ctx context.Context, cfg configs.SequenceConfig) (Sequencer, error)

// factories 存储类型到工厂的映射.
var factories = make(map[configs.SequenceType]Factory)

// RegisterFactory 注册工厂函数.
func RegisterFactory(t configs.SequenceType, factory Factory) {
	factories[t] = factory
}

// GetRegisteredTypes 返回已注册的类型列表.
func GetRegisteredTypes() []configs.SequenceType {
	out := make([]configs.SequenceType, 0, len(factories))
	for t := range factories {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// New 根据配置创建 Sequencer.
func New(ctx context.Context, cfg configs.SequenceConfig) (Sequencer, error) {
	t := cfg.Type
	if t == "" {
		t = configs.SequenceMemory
	}

	factory, ok := factories[t]
	if !ok {
		return nil, fmt.Errorf("unsupported sequence type: %s", t)
	}

	return factory(ctx, cfg)
}
