package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/filesort/pkg/configs"
)

// RedisPublisher 基于 Redis Pub/Sub 的 Publisher，没有 at-least-once 保证.
type RedisPublisher struct {
	client *redis.Client
}

// RedisSubscriber 基于 Redis Pub/Sub 的 Subscriber.
type RedisSubscriber struct {
	client  *redis.Client
	logger  watermill.LoggerAdapter
	mu      sync.Mutex
	subs    []*redis.PubSub
	closed  bool
	closeCh chan struct{}
}

// init 注册 Redis 工厂.
func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

// redisFactory 创建 Redis Publisher & Subscriber，二者共享一个连接池.
func redisFactory(
	ctx context.Context,
	cfg *configs.EventsConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 测试连接
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	pub := &RedisPublisher{client: rdb}
	sub := &RedisSubscriber{client: rdb, logger: logger, closeCh: make(chan struct{})}

	return pub, sub, nil
}

// Publish 实现 Publisher 接口，payload 原样发送，UUID 放在前缀帧中.
func (p *RedisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		frame := encodeFrame(msg.UUID, msg.Payload)
		if err := p.client.Publish(context.Background(), topic, frame).Err(); err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}
	}

	return nil
}

// Close Publisher 不持有连接，由 Subscriber 统一关闭.
func (p *RedisPublisher) Close() error {
	return nil
}

// Subscribe 实现 Subscriber 接口，每个主题一个 PubSub 连接.
func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("subscriber closed")
	}

	ps := s.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	s.subs = append(s.subs, ps)

	out := make(chan *message.Message, DefaultChannelBufferSize)

	go func() {
		defer close(out)

		in := ps.Channel()

		for {
			select {
			case <-s.closeCh:
				return
			case <-ctx.Done():
				return
			case raw, ok := <-in:
				if !ok {
					return
				}

				id, payload := decodeFrame(raw.Payload)
				msg := message.NewMessage(id, payload)

				select {
				case out <- msg:
				case <-s.closeCh:
					return
				case <-ctx.Done():
					return
				}

				// Pub/Sub 不支持重投，Nack 只记录日志
				select {
				case <-msg.Acked():
				case <-msg.Nacked():
					s.logger.Info("message nacked, dropped", watermill.LogFields{"topic": topic, "uuid": id})
				case <-s.closeCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close 实现 Subscriber 接口.
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.closeCh)

	var errs []error

	for _, ps := range s.subs {
		if err := ps.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := s.client.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// encodeFrame 格式为 "<uuid>\n<payload>".
func encodeFrame(id string, payload []byte) []byte {
	frame := make([]byte, 0, len(id)+1+len(payload))
	frame = append(frame, id...)
	frame = append(frame, '\n')

	return append(frame, payload...)
}

func decodeFrame(raw string) (string, []byte) {
	if i := strings.IndexByte(raw, '\n'); i >= 0 {
		return raw[:i], []byte(raw[i+1:])
	}

	return watermill.NewUUID(), []byte(raw)
}
