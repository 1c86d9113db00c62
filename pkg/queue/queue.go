// Package queue 封装上传事件的消息信封与编解码.
//
// 概览
//   - 统一的消息封装：Message[Payload] = Header + Payload
//   - 主题常量见 topics.go，负载结构体见 payloads.go
//   - JSON 编解码使用 bytedance/sonic
//
// 消息信封（Envelope）JSON 结构
//
//	{
//	  "header": {
//	    "topic": "fs.file.stored",
//	    "trace_id": "optional-trace-id",
//	    "producer": "filesort",
//	    "occurred_at": "2025-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": {
//	    "category": "jpg",
//	    "sequence": 1,
//	    "path": "jpg/jpg-1.JPG",
//	    "original_name": "photo.JPG",
//	    "size": 42,
//	    "checksum": "9a3f0c1d2e4b5a67",
//	    "batch_id": "..."
//	  }
//	}
//
// 订阅示例
//
//	ch, _ := client.Subscribe(ctx, queue.TopicFileStored)
//	for m := range ch {
//	    env, _ := queue.ParseFileStored(m)
//	    // 使用 env.Header / env.Payload ...
//	    m.Ack()
//	}
//
// fs.file.stored 的消息 ID 由存储路径派生（见 StoredMessageID），下游可据此去重.
package queue

import (
	"context"
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/trace"
)

const (
	PayloadVersionV1 string = "v1"
)

// NewEventHeader 便捷创建事件头.
func NewEventHeader(topic string, opts ...func(*EventHeader)) EventHeader {
	hdr := EventHeader{
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		Version:    PayloadVersionV1,
	}
	for _, opt := range opts {
		opt(&hdr)
	}

	return hdr
}

// WithTraceID 设置 TraceID.
func WithTraceID(id string) func(*EventHeader) { return func(h *EventHeader) { h.TraceID = id } }

// WithTraceContext 从 ctx 中的 span 取 TraceID，没有有效 span 时不做修改.
func WithTraceContext(ctx context.Context) func(*EventHeader) {
	return func(h *EventHeader) {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			h.TraceID = sc.TraceID().String()
		}
	}
}

// WithProducer 设置 Producer.
func WithProducer(p string) func(*EventHeader) { return func(h *EventHeader) { h.Producer = p } }

// Encode 将消息封装为 JSON 字节切片.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 从 JSON 字节解码为消息.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	err := sonic.Unmarshal(b, &m)

	return m, err
}

// NewWatermillMessage 构造一个 watermill 消息，设置 ID 与元数据.
func NewWatermillMessage[T any](topic string, payload T, opts ...func(*EventHeader)) (*message.Message, error) {
	header := NewEventHeader(topic, opts...)
	env := Message[T]{Header: header, Payload: payload}

	data, err := Encode(env)
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)

	if header.TraceID != "" {
		msg.Metadata.Set("trace_id", header.TraceID)
	}

	if header.Producer != "" {
		msg.Metadata.Set("producer", header.Producer)
	}

	msg.Metadata.Set("occurred_at", header.OccurredAt.Format(time.RFC3339Nano))

	if header.Version != "" {
		msg.Metadata.Set("version", header.Version)
	}

	return msg, nil
}

// ParseWatermillMessage 解出泛型负载.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}
