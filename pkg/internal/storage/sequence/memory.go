package sequence

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/yeisme/filesort/pkg/configs"
)

// Memory 进程内计数器. 种子读取也在锁内完成，保证同一分类只初始化一次.
type Memory struct {
	mu       sync.Mutex
	counters map[string]int
}

// NewMemory 创建内存计数器.
func NewMemory() *Memory {
	return &Memory{counters: make(map[string]int)}
}

func newMemory(_ context.Context, _ configs.SequenceConfig) (Sequencer, error) {
	return NewMemory(), nil
}

// Next 返回下一个序号.
func (m *Memory) Next(ctx context.Context, category string, seed SeedFunc) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.counters[category]
	if !ok && seed != nil {
		base, err := seed(ctx)
		if err != nil {
			return 0, fmt.Errorf("seed counter %s: %w", category, err)
		}

		cur = base
	}

	cur++
	m.counters[category] = cur

	return cur, nil
}

// Snapshot 返回计数器副本.
func (m *Memory) Snapshot(_ context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return maps.Clone(m.counters), nil
}

// Forget 删除分类计数器.
func (m *Memory) Forget(_ context.Context, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.counters, category)

	return nil
}

// Close 无需释放资源.
func (m *Memory) Close() error {
	return nil
}

func init() {
	RegisterFactory(configs.SequenceMemory, newMemory)
}
