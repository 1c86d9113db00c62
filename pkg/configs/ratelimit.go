package configs

import "github.com/spf13/viper"

const (
	// 默认速率限制配置，仅作用于上传路由.
	DefaultRateLimitEnabled = false
	DefaultRateLimitRPS     = 10.0
	DefaultRateLimitBurst   = 20
	DefaultRateLimitKey     = "ip"
)

// RateLimitConfig 上传接口的速率限制配置.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"   rule:"gte=0"` // 每秒允许的请求数
	Burst   int     `mapstructure:"burst" rule:"gte=0"` // 突发容量
	// Key 选择限流维度：global（全局）、ip（按客户端IP）、header:Header-Name（按请求头）
	Key string `mapstructure:"key"`
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.key", DefaultRateLimitKey)
}
