package queue_test

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/filesort/pkg/queue"
)

func TestFileStoredRoundTrip(t *testing.T) {
	payload := queue.FileStoredPayload{
		Category:     "jpg",
		Sequence:     1,
		Path:         "jpg/jpg-1.JPG",
		OriginalName: "photo.JPG",
		Size:         42,
		Checksum:     "00000000deadbeef",
	}

	msg, err := queue.NewWatermillMessage(queue.TopicFileStored, payload, queue.WithProducer("filesort"))
	if err != nil {
		t.Fatalf("new message: %v", err)
	}

	if msg.Metadata.Get("topic") != queue.TopicFileStored || msg.Metadata.Get("producer") != "filesort" {
		t.Errorf("unexpected metadata: %v", msg.Metadata)
	}

	env, err := queue.ParseFileStored(msg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if env.Payload != payload {
		t.Errorf("payload mismatch: %+v", env.Payload)
	}

	if env.Header.Version != queue.PayloadVersionV1 || env.Header.OccurredAt.IsZero() {
		t.Errorf("unexpected header: %+v", env.Header)
	}
}

func TestStoredMessageIDIsDeterministic(t *testing.T) {
	a := queue.StoredMessageID("png/png-3.png")
	b := queue.StoredMessageID("png/png-3.png")
	c := queue.StoredMessageID("png/png-4.png")

	if a != b {
		t.Errorf("same path should give same id: %s != %s", a, b)
	}

	if a == c {
		t.Errorf("different paths should differ")
	}
}

func TestWithTraceContext(t *testing.T) {
	hdr := queue.NewEventHeader(queue.TopicBatchRejected, queue.WithTraceContext(context.Background()))
	if hdr.TraceID != "" {
		t.Errorf("expected empty trace id, got %q", hdr.TraceID)
	}

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	hdr = queue.NewEventHeader(queue.TopicBatchRejected, queue.WithTraceContext(ctx))
	if hdr.TraceID != traceID.String() {
		t.Errorf("expected trace id %s, got %q", traceID, hdr.TraceID)
	}
}
