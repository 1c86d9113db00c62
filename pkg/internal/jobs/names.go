package jobs

// 任务名称.
const (
	JobStatsRefresh = "stats.refresh"
)
