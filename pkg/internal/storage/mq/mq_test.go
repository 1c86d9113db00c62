package mq

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/yeisme/filesort/pkg/configs"
)

func TestGoChannelRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := New(ctx, configs.EventsConfig{Type: configs.MQTypeGoChannel}, false)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer client.Close()

	if client.Type() != configs.MQTypeGoChannel {
		t.Errorf("unexpected type %s", client.Type())
	}

	msgs, err := client.Subscribe(ctx, "fs.test")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := client.Publish(ctx, "fs.test", message.NewMessage(watermill.NewUUID(), []byte("hello"))); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case m := <-msgs:
		m.Ack()

		if string(m.Payload) != "hello" {
			t.Errorf("payload = %q", m.Payload)
		}
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}

func TestEmptyTypeDefaultsToGoChannel(t *testing.T) {
	client, err := New(context.Background(), configs.EventsConfig{}, false)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer client.Close()

	if client.Type() != configs.MQTypeGoChannel {
		t.Errorf("expected gochannel, got %s", client.Type())
	}
}

func TestUnsupportedType(t *testing.T) {
	if _, err := New(context.Background(), configs.EventsConfig{Type: "kafka"}, false); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestNilClient(t *testing.T) {
	var c *Client

	if err := c.Publish(context.Background(), "x"); err == nil {
		t.Error("publish on nil client should fail")
	}

	if err := c.Close(); err != nil {
		t.Errorf("close on nil client: %v", err)
	}
}

func TestZerologAdapter(t *testing.T) {
	var buf bytes.Buffer

	base := zerolog.New(&buf).Level(zerolog.DebugLevel)
	a := newZerologAdapter(&base).With(watermill.LogFields{"topic": "fs.file.stored"})

	a.Error("publish failed", errors.New("boom"), watermill.LogFields{"attempt": 2})
	a.Trace("dropped", nil)

	out := buf.String()
	for _, want := range []string{`"component":"mq"`, `"topic":"fs.file.stored"`, `"attempt":2`, `"error":"boom"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}

	if strings.Contains(out, "dropped") {
		t.Error("trace should be filtered at debug level")
	}
}

func TestRegisteredTypes(t *testing.T) {
	got := GetRegisteredMQTypes()
	if len(got) < 2 || got[0] != configs.MQTypeGoChannel {
		t.Errorf("unexpected registered types: %v", got)
	}
}
