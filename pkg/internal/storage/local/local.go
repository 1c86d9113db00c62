// Package local 基于 afero 的本地文件存储，所有路径都相对于上传根目录.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path"
	"sort"

	"github.com/spf13/afero"

	"github.com/yeisme/filesort/pkg/internal/types"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store 本地存储，底层为 afero.Fs.
type Store struct {
	fs   afero.Fs
	root string
}

// New 在 root 下创建存储，root 不存在时自动创建.
func New(root string) (*Store, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("create upload root %s: %w", root, err)
	}

	return &Store{fs: afero.NewBasePathFs(osFs, root), root: root}, nil
}

// NewWithFs 使用给定的文件系统，测试中通常传入 afero.NewMemMapFs().
func NewWithFs(fs afero.Fs) *Store {
	return &Store{fs: fs, root: "/"}
}

// Fs 返回底层文件系统.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// abs 统一成以 / 开头的干净路径，MemMapFs 区分相对与绝对路径.
func abs(p string) string {
	return path.Clean("/" + p)
}

// EnsureDir 幂等创建目录.
func (s *Store) EnsureDir(_ context.Context, dir string) (bool, error) {
	p := abs(dir)

	exists, err := afero.DirExists(s.fs, p)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", dir, err)
	}

	if exists {
		return false, nil
	}

	if err := s.fs.MkdirAll(p, dirPerm); err != nil {
		return false, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return true, nil
}

// RemoveDir 删除空目录，根目录永远保留.
func (s *Store) RemoveDir(_ context.Context, dir string) error {
	p := abs(dir)
	if p == "/" {
		return nil
	}

	exists, err := afero.DirExists(s.fs, p)
	if err != nil || !exists {
		return err
	}

	empty, err := afero.IsEmpty(s.fs, p)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	if !empty {
		return nil
	}

	if err := s.fs.Remove(p); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return fmt.Errorf("remove dir %s: %w", dir, err)
	}

	return nil
}

// CountEntries 返回目录下的条目数（包含子目录与隐藏文件），目录不存在时为 0.
func (s *Store) CountEntries(_ context.Context, dir string) (int, error) {
	entries, err := afero.ReadDir(s.fs, abs(dir))
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return 0, nil
		}

		return 0, fmt.Errorf("read dir %s: %w", dir, err)
	}

	return len(entries), nil
}

// Create 独占创建文件并写入内容，文件已存在时返回 fs.ErrExist.
// 写入失败会删除残留的半个文件.
func (s *Store) Create(_ context.Context, obj types.Object, r io.Reader) (int64, error) {
	p := abs(obj.Path)

	f, err := s.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if errors.Is(err, iofs.ErrNotExist) {
		// 并发批次回滚时可能刚删掉空的分类目录
		if merr := s.fs.MkdirAll(path.Dir(p), dirPerm); merr != nil {
			return 0, fmt.Errorf("mkdir %s: %w", path.Dir(obj.Path), merr)
		}

		f, err = s.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	}

	if err != nil {
		if errors.Is(err, iofs.ErrExist) {
			return 0, iofs.ErrExist
		}

		return 0, fmt.Errorf("create %s: %w", obj.Path, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		_ = s.fs.Remove(p)
		return 0, fmt.Errorf("write %s: %w", obj.Path, err)
	}

	return n, nil
}

// Remove 删除文件，文件不存在不是错误.
func (s *Store) Remove(_ context.Context, p string) error {
	if err := s.fs.Remove(abs(p)); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", p, err)
	}

	return nil
}

// ListCategories 列出根目录下的分类子目录及其条目数，按名称排序.
func (s *Store) ListCategories(ctx context.Context) ([]types.CategoryStat, error) {
	entries, err := afero.ReadDir(s.fs, "/")
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read upload root: %w", err)
	}

	stats := make([]types.CategoryStat, 0, len(entries))

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		n, err := s.CountEntries(ctx, e.Name())
		if err != nil {
			return nil, err
		}

		stats = append(stats, types.CategoryStat{Category: e.Name(), Entries: n})
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].Category < stats[j].Category })

	return stats, nil
}

// Ping 检查根目录可访问.
func (s *Store) Ping(_ context.Context) error {
	if _, err := s.fs.Stat("/"); err != nil {
		return fmt.Errorf("stat upload root: %w", err)
	}

	return nil
}

// Name 返回存储描述，用于日志与健康检查.
func (s *Store) Name() string {
	return "local:" + s.root
}

// Close 无需释放资源.
func (s *Store) Close() error {
	return nil
}
