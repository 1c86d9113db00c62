package configs

import (
	"github.com/spf13/viper"
)

// SequenceType 分类序号分配器类型.
type SequenceType string

const (
	SequenceMemory  SequenceType = "memory"  // 进程内计数器，互斥锁保护
	SequenceListing SequenceType = "listing" // 旧版行为：每次读取目录条目数 + 1
	SequenceRedis   SequenceType = "redis"   // Redis INCR，可跨进程
	SequenceNATS    SequenceType = "nats"    // NATS JetStream KV CAS，可跨进程
)

// SequenceConfig 序号分配配置.
type SequenceConfig struct {
	Type      SequenceType        `mapstructure:"type"      rule:"oneof=memory listing redis nats"`
	Namespace string              `mapstructure:"namespace" rule:"required"`
	Redis     RedisSequenceConfig `mapstructure:"redis"`
	NATS      NATSSequenceConfig  `mapstructure:"nats"`
}

// RedisSequenceConfig Redis 计数器配置.
type RedisSequenceConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

// NATSSequenceConfig NATS KV 计数器配置.
type NATSSequenceConfig struct {
	URL      string `mapstructure:"url"      rule:"required"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Bucket   string `mapstructure:"bucket"   rule:"required"`
}

// setDefaults 设置序号配置的默认值.
func (c *SequenceConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("sequence.type", string(SequenceMemory))
	v.SetDefault("sequence.namespace", AppName)

	// Redis 默认值
	v.SetDefault("sequence.redis.addr", "localhost:6379")
	v.SetDefault("sequence.redis.password", "")
	v.SetDefault("sequence.redis.db", 0)

	// NATS 默认值
	v.SetDefault("sequence.nats.url", "nats://localhost:4222")
	v.SetDefault("sequence.nats.user", "")
	v.SetDefault("sequence.nats.password", "")
	v.SetDefault("sequence.nats.bucket", "filesort-seq")
}
