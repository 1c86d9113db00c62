package configs

import "github.com/spf13/viper"

const (
	DefaultStatsCron = "*/5 * * * *" // 每 5 分钟刷新一次分类统计
)

// JobsConfig 定时任务配置.
type JobsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	StatsCron string `mapstructure:"stats_cron" rule:"required"`
}

func (c *JobsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.stats_cron", DefaultStatsCron)
}
