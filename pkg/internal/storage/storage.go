// Package storage 聚合上传流程依赖的外部资源：文件存储、分类计数器与事件总线.
//
// Example:
//
//	mgr, err := storage.New(ctx, cfg)
//	if err != nil {
//		// 处理错误
//	}
//	defer mgr.Close()
//
//	n, _ := mgr.Files.CountEntries(ctx, "jpg")
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/yeisme/filesort/pkg/configs"
	"github.com/yeisme/filesort/pkg/internal/storage/local"
	"github.com/yeisme/filesort/pkg/internal/storage/mq"
	s3c "github.com/yeisme/filesort/pkg/internal/storage/s3"
	"github.com/yeisme/filesort/pkg/internal/storage/sequence"
	"github.com/yeisme/filesort/pkg/internal/types"
	nlog "github.com/yeisme/filesort/pkg/log"
)

// Store 上传根目录之上的文件存储，路径均为相对路径并以 / 分隔.
type Store interface {
	// EnsureDir 幂等创建目录，created 表示目录由本次调用新建.
	EnsureDir(ctx context.Context, dir string) (created bool, err error)
	// RemoveDir 删除空目录，目录非空或不存在时保持不变.
	RemoveDir(ctx context.Context, dir string) error
	// CountEntries 返回目录下的条目数，目录不存在时为 0.
	CountEntries(ctx context.Context, dir string) (int, error)
	// Create 独占创建，目标已存在时返回 fs.ErrExist.
	Create(ctx context.Context, obj types.Object, r io.Reader) (int64, error)
	// Remove 删除文件，用于批次回滚.
	Remove(ctx context.Context, path string) error
	// ListCategories 列出分类目录及条目数.
	ListCategories(ctx context.Context) ([]types.CategoryStat, error)
	// Ping 检查存储可用.
	Ping(ctx context.Context) error
	// Name 存储描述.
	Name() string
	Close() error
}

// Manager 聚合所有存储资源.
type Manager struct {
	Files    Store
	Sequence sequence.Sequencer
	MQ       *mq.Client // 未启用事件时为 nil
}

// NewStore 根据配置创建文件存储.
func NewStore(ctx context.Context, cfg configs.AppConfig) (Store, error) {
	switch cfg.Storage.Type {
	case configs.StorageS3:
		return s3c.New(ctx, cfg.Storage.S3, cfg.Upload.RootDir)
	case configs.StorageLocal, "":
		return local.New(cfg.Upload.RootDir)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}

// New 初始化全部存储资源，任一失败时关闭已创建的部分.
func New(ctx context.Context, cfg configs.AppConfig) (*Manager, error) {
	files, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init file store: %w", err)
	}

	seq, err := sequence.New(ctx, cfg.Sequence)
	if err != nil {
		_ = files.Close()
		return nil, fmt.Errorf("init sequencer: %w", err)
	}

	m := &Manager{Files: files, Sequence: seq}

	if cfg.Events.Enabled {
		client, err := mq.New(ctx, cfg.Events, cfg.Metrics.Enabled)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("init event bus: %w", err)
		}

		m.MQ = client
	}

	nlog.Logger().Info().
		Str("store", files.Name()).
		Str("sequence", string(cfg.Sequence.Type)).
		Bool("events", cfg.Events.Enabled).
		Msg("storage manager initialized")

	return m, nil
}

// Close 关闭全部资源.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}

	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.Sequence != nil {
		errs = append(errs, m.Sequence.Close())
	}

	if m.Files != nil {
		errs = append(errs, m.Files.Close())
	}

	return errors.Join(errs...)
}
