package types

import "time"

// CategoryStat 单个分类目录的条目统计.
type CategoryStat struct {
	Category string `json:"category"`
	Entries  int    `json:"entries"`
}

// HealthStatus 健康检查结果.
type HealthStatus struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components"`
	CheckedAt  time.Time         `json:"checked_at"`
}
