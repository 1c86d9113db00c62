package configs

import "github.com/spf13/viper"

// MQType 事件总线类型.
type MQType string

const (
	MQTypeGoChannel MQType = "gochannel" // 进程内总线
	MQTypeNATS      MQType = "nats"
	MQTypeRedis     MQType = "redis" // Redis Pub/Sub，无持久化

	DefaultMaxReconnects = 5              // 默认最大重连次数.
	DefaultReconnectWait = 5              // 默认重连等待时间（秒）.
	DefaultMQClientID    = "filesort-app" // 默认客户端ID
	DefaultMQURL         = "nats://localhost:4222"
)

// EventsConfig 控制上传事件的发布（总开关与分主题）.
type EventsConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Type     MQType            `mapstructure:"type"     rule:"oneof=gochannel nats redis"`
	Producer string            `mapstructure:"producer"`
	Stored   bool              `mapstructure:"stored"`   // fs.file.stored
	Rejected bool              `mapstructure:"rejected"` // fs.batch.rejected
	NATS     NATSEventsConfig  `mapstructure:"nats"`
	Redis    RedisEventsConfig `mapstructure:"redis"`
}

// RedisEventsConfig Redis Pub/Sub 连接配置.
type RedisEventsConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

// NATSEventsConfig NATS 事件总线连接配置.
type NATSEventsConfig struct {
	URL              string `mapstructure:"url"`
	ClientID         string `mapstructure:"client_id"`
	User             string `mapstructure:"user"`
	Password         string `mapstructure:"password"`
	MaxReconnects    int    `mapstructure:"max_reconnects"     rule:"min=-1"`
	ReconnectWait    int    `mapstructure:"reconnect_wait"     rule:"min=0"`
	JetStreamEnabled bool   `mapstructure:"jetstream_enabled"`
	AutoProvision    bool   `mapstructure:"auto_provision"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认关闭，避免无订阅者时的额外开销
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.type", string(MQTypeGoChannel))
	v.SetDefault("events.producer", AppName)
	v.SetDefault("events.stored", true)
	v.SetDefault("events.rejected", false)

	v.SetDefault("events.nats.url", DefaultMQURL)
	v.SetDefault("events.nats.client_id", DefaultMQClientID)
	v.SetDefault("events.nats.user", "")
	v.SetDefault("events.nats.password", "")
	v.SetDefault("events.nats.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("events.nats.reconnect_wait", DefaultReconnectWait)
	v.SetDefault("events.nats.jetstream_enabled", false)
	v.SetDefault("events.nats.auto_provision", true)

	v.SetDefault("events.redis.addr", "localhost:6379")
	v.SetDefault("events.redis.password", "")
	v.SetDefault("events.redis.db", 0)
}
