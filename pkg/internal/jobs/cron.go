// Package jobs 注册业务定时任务.
package jobs

import (
	"context"
	"fmt"

	"github.com/yeisme/filesort/pkg/configs"
	"github.com/yeisme/filesort/pkg/internal/service"
	"github.com/yeisme/filesort/pkg/internal/storage"
	"github.com/yeisme/filesort/pkg/log"
	"github.com/yeisme/filesort/pkg/scheduler"
)

// RegisterCronJobs 注册 stats.refresh：按 jobs.stats_cron 重新统计每个分类目录的条目数.
func RegisterCronJobs(sched *scheduler.Scheduler, cfg configs.JobsConfig, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	stats, err := service.NewStatsService(mgr)
	if err != nil {
		return err
	}

	return sched.AddCron(JobStatsRefresh, cfg.StatsCron, func(ctx context.Context) error {
		return refreshStats(ctx, stats)
	})
}

func refreshStats(ctx context.Context, stats *service.StatsService) error {
	res, err := stats.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh category stats: %w", err)
	}

	log.Logger().Debug().Str("job", JobStatsRefresh).Int("categories", len(res)).Msg("category stats refreshed")

	return nil
}
