package queue

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// storedNamespace 用于由存储路径派生确定性的消息 ID.
var storedNamespace = uuid.MustParse("5b8f0d3e-6c1a-4e0f-9a57-2f1c8f7c9e41")

// StoredMessageID 返回路径对应的确定性消息 ID，路径不会被覆盖，因此天然唯一，便于下游幂等.
func StoredMessageID(path string) string {
	return uuid.NewSHA1(storedNamespace, []byte(path)).String()
}

// PublishFileStored 发布 fs.file.stored 事件.
func PublishFileStored(pub message.Publisher, payload FileStoredPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicFileStored, payload, opts...)
	if err != nil {
		return err
	}

	msg.UUID = StoredMessageID(payload.Path)

	return pub.Publish(TopicFileStored, msg)
}

// PublishBatchRejected 发布 fs.batch.rejected 事件.
func PublishBatchRejected(pub message.Publisher, payload BatchRejectedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicBatchRejected, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicBatchRejected, msg)
}

// ParseFileStored 将 Watermill 消息解析为强类型 Envelope.
func ParseFileStored(msg *message.Message) (Message[FileStoredPayload], error) {
	return ParseWatermillMessage[FileStoredPayload](msg)
}

// ParseBatchRejected 将 Watermill 消息解析为强类型 Envelope.
func ParseBatchRejected(msg *message.Message) (Message[BatchRejectedPayload], error) {
	return ParseWatermillMessage[BatchRejectedPayload](msg)
}
