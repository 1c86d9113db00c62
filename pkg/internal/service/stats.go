package service

import (
	"context"
	"errors"

	"github.com/yeisme/filesort/pkg/internal/storage"
	"github.com/yeisme/filesort/pkg/internal/storage/sequence"
	"github.com/yeisme/filesort/pkg/internal/types"
	"github.com/yeisme/filesort/pkg/metrics"
)

// StatsService 提供分类目录与计数器的统计.
type StatsService struct {
	files storage.Store
	seq   sequence.Sequencer
}

// NewStatsService 从 Manager 取依赖.
func NewStatsService(mgr *storage.Manager) (*StatsService, error) {
	if mgr == nil || mgr.Files == nil {
		return nil, errors.New("storage manager not initialized")
	}

	return &StatsService{files: mgr.Files, seq: mgr.Sequence}, nil
}

// Categories 返回每个分类目录的条目数.
func (s *StatsService) Categories(ctx context.Context) ([]types.CategoryStat, error) {
	return s.files.ListCategories(ctx)
}

// Counters 返回序号分配器中已初始化的计数器.
func (s *StatsService) Counters(ctx context.Context) (map[string]int, error) {
	if s.seq == nil {
		return map[string]int{}, nil
	}

	return s.seq.Snapshot(ctx)
}

// Refresh 重新统计分类条目数并写入 filesort_category_entries.
func (s *StatsService) Refresh(ctx context.Context) ([]types.CategoryStat, error) {
	stats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}

	metrics.CategoryEntries.Reset()

	for _, st := range stats {
		metrics.CategoryEntries.WithLabelValues(st.Category).Set(float64(st.Entries))
	}

	return stats, nil
}
