package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/yeisme/filesort/pkg/configs"
	"github.com/yeisme/filesort/pkg/internal/storage"
)

func TestNewLocalManager(t *testing.T) {
	var cfg configs.AppConfig
	cfg.Upload.RootDir = filepath.Join(t.TempDir(), "uploads")
	cfg.Storage.Type = configs.StorageLocal
	cfg.Sequence.Type = configs.SequenceMemory
	cfg.Events.Enabled = true
	cfg.Events.Type = configs.MQTypeGoChannel

	ctx := context.Background()

	mgr, err := storage.New(ctx, cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	defer mgr.Close()

	if mgr.MQ == nil {
		t.Error("expected event bus when events are enabled")
	}

	if err := mgr.Files.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}

	if got := storage.GetManagerFromContext(storage.WithManager(ctx, mgr)); got != mgr {
		t.Error("manager not found in context")
	}
}

func TestNewUnknownStorage(t *testing.T) {
	var cfg configs.AppConfig
	cfg.Storage.Type = "ftp"

	if _, err := storage.New(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown storage type")
	}
}
