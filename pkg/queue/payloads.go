package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 来自请求 span 的追踪 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// FileStoredPayload 对应 fs.file.stored.
type FileStoredPayload struct {
	Category     string `json:"category"`
	Sequence     int    `json:"sequence"`
	Path         string `json:"path"` // 相对上传根目录
	OriginalName string `json:"original_name"`
	ContentType  string `json:"content_type,omitempty"`
	Size         int64  `json:"size"`
	Checksum     string `json:"checksum"` // xxhash64
	BatchID      string `json:"batch_id"`
}

// BatchRejectedPayload 对应 fs.batch.rejected.
type BatchRejectedPayload struct {
	BatchID   string   `json:"batch_id"`
	Reason    string   `json:"reason"` // 返回给客户端的文案
	Files     int      `json:"files"`
	Filenames []string `json:"filenames,omitempty"`
}
