// Package s3 把分类后的文件写入 S3 兼容的对象存储（MinIO）.
// 上传根目录作为对象键前缀，分类目录对应 "<prefix>/<category>/".
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/filesort/pkg/configs"
	"github.com/yeisme/filesort/pkg/internal/types"
	nlog "github.com/yeisme/filesort/pkg/log"
)

// Store 包装 MinIO 客户端.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// New 初始化 MinIO 客户端，若 bucket 不存在则尝试创建.
func New(ctx context.Context, cfg configs.S3Config, prefix string) (*Store, error) {
	endpoint := cfg.Endpoint
	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			cfg.UseSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo(configs.AppName, configs.AppVersion)

	exists, err := cli.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.BucketName, err)
	}

	if !exists {
		if err := cli.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.BucketName, err)
		}

		nlog.Logger().Info().Str("bucket", cfg.BucketName).Msg("bucket created")
	}

	nlog.Logger().Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.BucketName).Msg("s3 connected")

	return &Store{client: cli, bucket: cfg.BucketName, prefix: strings.Trim(prefix, "/")}, nil
}

func (s *Store) key(p string) string {
	return strings.TrimPrefix(path.Join(s.prefix, path.Clean("/"+p)), "/")
}

func (s *Store) dirPrefix(dir string) string {
	k := s.key(dir)
	if k == "" {
		return ""
	}

	return k + "/"
}

// EnsureDir 对象存储没有目录，前缀在写入第一个对象时隐式出现.
func (s *Store) EnsureDir(_ context.Context, _ string) (bool, error) {
	return false, nil
}

// RemoveDir 前缀随最后一个对象一起消失.
func (s *Store) RemoveDir(_ context.Context, _ string) error {
	return nil
}

// CountEntries 统计前缀下一层的对象与子前缀数量.
func (s *Store) CountEntries(ctx context.Context, dir string) (int, error) {
	n := 0

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.dirPrefix(dir)}) {
		if obj.Err != nil {
			return 0, fmt.Errorf("list objects: %w", obj.Err)
		}

		n++
	}

	return n, nil
}

// Create 写入对象. 先检查键是否已存在，已存在时返回 fs.ErrExist.
func (s *Store) Create(ctx context.Context, obj types.Object, r io.Reader) (int64, error) {
	k := s.key(obj.Path)

	_, err := s.client.StatObject(ctx, s.bucket, k, minio.StatObjectOptions{})
	if err == nil {
		return 0, iofs.ErrExist
	}

	if resp := minio.ToErrorResponse(err); resp.StatusCode != http.StatusNotFound {
		return 0, fmt.Errorf("stat %s: %w", k, err)
	}

	size := obj.Size
	if size <= 0 {
		size = -1
	}

	info, err := s.client.PutObject(ctx, s.bucket, k, r, size, minio.PutObjectOptions{ContentType: obj.ContentType})
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", k, err)
	}

	return info.Size, nil
}

// Remove 删除对象.
func (s *Store) Remove(ctx context.Context, p string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, s.key(p), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", p, err)
	}

	return nil
}

// ListCategories 列出前缀下的分类及各自对象数.
func (s *Store) ListCategories(ctx context.Context) ([]types.CategoryStat, error) {
	var stats []types.CategoryStat

	root := s.dirPrefix("")
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: root}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}

		// 非递归列举时，子前缀以 / 结尾
		if !strings.HasSuffix(obj.Key, "/") {
			continue
		}

		category := strings.TrimSuffix(strings.TrimPrefix(obj.Key, root), "/")

		n, err := s.CountEntries(ctx, category)
		if err != nil {
			return nil, err
		}

		stats = append(stats, types.CategoryStat{Category: category, Entries: n})
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].Category < stats[j].Category })

	return stats, nil
}

// Ping 检查 bucket 可访问.
func (s *Store) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}

	if !ok {
		return errors.New("bucket not found: " + s.bucket)
	}

	return nil
}

// Name 返回存储描述.
func (s *Store) Name() string {
	return "s3:" + s.bucket + "/" + s.prefix
}

// Close 关闭 S3 客户端连接（无实际操作）.
func (s *Store) Close() error {
	return nil
}
