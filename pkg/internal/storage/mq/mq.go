// Package mq 提供基于 Watermill 库的统一事件总线接口.
// 支持发布/订阅模式，并通过工厂模式抽象不同的实现.
//
// 支持的类型：
//   - gochannel（进程内，默认）
//   - NATS（可选 JetStream）
//   - Redis Pub/Sub
//
// 使用示例：
//
//	client, err := mq.New(ctx, cfg.Events, cfg.Metrics.Enabled)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	msg := message.NewMessage(watermill.NewUUID(), []byte("hello world"))
//	err = client.Publish(ctx, "fs.file.stored", msg)
package mq

import (
	"context"
	"fmt"
	"sort"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/filesort/pkg/configs"
	nlog "github.com/yeisme/filesort/pkg/log"
	appmetrics "github.com/yeisme/filesort/pkg/metrics"
)

// Factory 定义创建 Publisher + Subscriber 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.EventsConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var (
	factories = map[configs.MQType]Factory{}
)

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factories[t] = f
}

// GetRegisteredMQTypes 返回已注册的总线类型.
func GetRegisteredMQTypes() []configs.MQType {
	out := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// Client 封装 watermill Publisher 与 Subscriber.
type Client struct {
	kind       configs.MQType
	publisher  message.Publisher
	subscriber message.Subscriber
}

// NewLogger 返回桥接到全局 zerolog 的 watermill 日志适配器.
func NewLogger() watermill.LoggerAdapter {
	return newZerologAdapter(nlog.Logger())
}

// New 按配置创建事件总线客户端. withMetrics 为 true 时发布与订阅指标注册到应用的 Prometheus 注册表.
func New(ctx context.Context, cfg configs.EventsConfig, withMetrics bool) (*Client, error) {
	kind := cfg.Type
	if kind == "" {
		kind = configs.MQTypeGoChannel
	}

	factory, ok := factories[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", kind)
	}

	logger := NewLogger()

	pub, sub, err := factory(ctx, &cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", kind, err)
	}

	if withMetrics {
		builder := metrics.NewPrometheusMetricsBuilder(appmetrics.GetRegistry(), configs.AppName, "events")

		if pub, err = builder.DecoratePublisher(pub); err != nil {
			return nil, fmt.Errorf("decorate publisher with metrics: %w", err)
		}

		if sub, err = builder.DecorateSubscriber(sub); err != nil {
			return nil, fmt.Errorf("decorate subscriber with metrics: %w", err)
		}
	}

	nlog.Logger().Info().Str("type", string(kind)).Msg("event bus initialized")

	return &Client{kind: kind, publisher: pub, subscriber: sub}, nil
}

// Type 返回总线类型.
func (c *Client) Type() configs.MQType {
	return c.kind
}

// Publisher 返回底层 Publisher.
func (c *Client) Publisher() message.Publisher {
	return c.publisher
}

// Publish 便捷发布.
func (c *Client) Publish(_ context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return fmt.Errorf("mq publisher not initialized")
	}

	return c.publisher.Publish(topic, msgs...)
}

// Subscribe 便捷订阅.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, fmt.Errorf("mq subscriber not initialized")
	}

	return c.subscriber.Subscribe(ctx, topic)
}

// Close 关闭资源.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}

	var err error

	if c.publisher != nil {
		if e := c.publisher.Close(); e != nil {
			err = e
		}
	}

	// gochannel 的 publisher 与 subscriber 是同一个对象
	if c.subscriber != nil && any(c.subscriber) != any(c.publisher) {
		if e := c.subscriber.Close(); e != nil {
			err = e
		}
	}

	return err
}
