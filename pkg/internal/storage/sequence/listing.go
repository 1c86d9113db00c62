package sequence

import (
	"context"
	"fmt"

	"github.com/yeisme/filesort/pkg/configs"
)

// Listing 每次都重新读取条目数并加一，不保存状态.
// 并发请求可能得到相同序号，由存储层的独占创建发现冲突后重新取号.
type Listing struct{}

func newListing(_ context.Context, _ configs.SequenceConfig) (Sequencer, error) {
	return Listing{}, nil
}

// Next 返回条目数加一.
func (Listing) Next(ctx context.Context, category string, seed SeedFunc) (int, error) {
	if seed == nil {
		return 1, nil
	}

	n, err := seed(ctx)
	if err != nil {
		return 0, fmt.Errorf("count entries %s: %w", category, err)
	}

	return n + 1, nil
}

// Snapshot 没有计数器可报告.
func (Listing) Snapshot(_ context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

// Forget 没有缓存.
func (Listing) Forget(_ context.Context, _ string) error {
	return nil
}

// Close 无需释放资源.
func (Listing) Close() error {
	return nil
}

func init() {
	RegisterFactory(configs.SequenceListing, newListing)
}
