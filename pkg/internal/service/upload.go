// Package service 实现上传文件的校验、分类、命名与落盘，不处理 HTTP 细节.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/filesort/pkg/configs"
	"github.com/yeisme/filesort/pkg/internal/policy"
	"github.com/yeisme/filesort/pkg/internal/storage"
	"github.com/yeisme/filesort/pkg/internal/storage/mq"
	"github.com/yeisme/filesort/pkg/internal/storage/sequence"
	"github.com/yeisme/filesort/pkg/internal/types"
	nlog "github.com/yeisme/filesort/pkg/log"
	"github.com/yeisme/filesort/pkg/metrics"
	"github.com/yeisme/filesort/pkg/queue"
	"github.com/yeisme/filesort/pkg/tracing"
)

// maxCreateAttempts 单个文件遇到同名冲突时最多重新取号的次数.
const maxCreateAttempts = 1000

// UploadService 负责一个批次的整理：先校验全部文件，再逐个取号写入.
type UploadService struct {
	upload configs.UploadConfig
	events configs.EventsConfig
	policy policy.Policy
	files  storage.Store
	seq    sequence.Sequencer
	mq     *mq.Client
}

// NewUploadService 使用配置快照与存储资源构造服务，配置在服务生命周期内不变.
func NewUploadService(cfg configs.AppConfig, mgr *storage.Manager) (*UploadService, error) {
	if mgr == nil || mgr.Files == nil || mgr.Sequence == nil {
		return nil, errors.New("storage manager not initialized")
	}

	p, err := policy.New(cfg.Upload)
	if err != nil {
		return nil, fmt.Errorf("build upload policy: %w", err)
	}

	return &UploadService{
		upload: cfg.Upload,
		events: cfg.Events,
		policy: p,
		files:  mgr.Files,
		seq:    mgr.Sequence,
		mq:     mgr.MQ,
	}, nil
}

// Organize 校验并保存一个批次. 任一文件校验失败时不写入任何文件；
// 写入中途失败时删除本批次已写入的文件并返回 *StorageError.
func (s *UploadService) Organize(ctx context.Context, files []types.IncomingFile) ([]types.StoredFile, error) {
	start := time.Now()
	batchID := uuid.NewString()

	ctx, span := tracing.StartSpan(ctx, "upload.organize", trace.WithAttributes(
		attribute.String("batch.id", batchID),
		attribute.Int("batch.files", len(files)),
	))
	defer span.End()

	classified, err := s.validate(files)
	if err != nil {
		s.reject(ctx, batchID, err, files)
		span.SetStatus(codes.Error, err.Error())
		metrics.BatchDuration.WithLabelValues("rejected").Observe(time.Since(start).Seconds())

		return nil, err
	}

	stored := make([]types.StoredFile, 0, len(classified))

	var created []string

	for _, cf := range classified {
		if err := ctx.Err(); err != nil {
			s.rollback(ctx, stored, created, cf.Category)
			span.RecordError(err)
			metrics.BatchDuration.WithLabelValues("canceled").Observe(time.Since(start).Seconds())

			return nil, &StorageError{Op: "write", Category: cf.Category, Err: err}
		}

		sf, mkdir, err := s.store(ctx, cf)
		if mkdir {
			created = append(created, cf.Category)
		}

		if err != nil {
			nlog.WithTrace(ctx).Error().Err(err).Str("batch_id", batchID).Str("file", cf.Filename).Msg("store file failed")

			s.rollback(ctx, stored, created, cf.Category)
			s.reject(ctx, batchID, err, files)
			span.RecordError(err)
			span.SetStatus(codes.Error, "storage failure")
			metrics.BatchDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())

			return nil, err
		}

		stored = append(stored, sf)
	}

	for _, sf := range stored {
		metrics.FilesStored.WithLabelValues(sf.Category).Inc()
		s.publishStored(ctx, batchID, sf)
	}

	span.SetStatus(codes.Ok, "")
	metrics.BatchDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	nlog.WithTrace(ctx).Info().
		Str("batch_id", batchID).
		Int("files", len(stored)).
		Dur("took", time.Since(start)).
		Msg("batch organized")

	return stored, nil
}

// validate 在写入前检查整个批次.
func (s *UploadService) validate(files []types.IncomingFile) ([]types.ClassifiedFile, error) {
	if s.upload.MaxFiles > 0 && len(files) > s.upload.MaxFiles {
		return nil, ErrTooManyFiles
	}

	out := make([]types.ClassifiedFile, 0, len(files))

	for _, f := range files {
		if s.upload.MaxFileSize > 0 && f.Size > s.upload.MaxFileSize {
			return nil, ErrFileTooLarge
		}

		cf, err := s.policy.Classify(f)
		if err != nil {
			if errors.Is(err, ErrUnsupportedType) {
				return nil, ErrUnsupportedType
			}

			return nil, &StorageError{Op: "open", Category: cf.Category, Err: err}
		}

		out = append(out, cf)
	}

	return out, nil
}

// store 确保分类目录存在，取号并独占创建. 名称已被占用时继续取下一个号.
// created 表示分类目录由这次调用新建，失败时同样有效.
func (s *UploadService) store(ctx context.Context, cf types.ClassifiedFile) (types.StoredFile, bool, error) {
	dir := cf.Category

	created, err := s.files.EnsureDir(ctx, dir)
	if err != nil {
		return types.StoredFile{}, false, &StorageError{Op: "mkdir", Category: cf.Category, Err: err}
	}

	seed := func(ctx context.Context) (int, error) {
		return s.files.CountEntries(ctx, dir)
	}

	last := 0

	for range maxCreateAttempts {
		n, err := s.seq.Next(ctx, cf.Category, seed)
		if err != nil {
			return types.StoredFile{}, created, &StorageError{Op: "sequence", Category: cf.Category, Err: err}
		}

		// listing 在冲突后可能返回同一个号
		if n <= last {
			n = last + 1
		}

		last = n

		name := fmt.Sprintf("%s-%d%s", cf.Category, n, cf.Ext)
		p := path.Join(dir, name)

		written, sum, err := s.write(ctx, cf, p)
		if errors.Is(err, fs.ErrExist) {
			nlog.WithTrace(ctx).Debug().Str("path", p).Msg("name taken, drawing next sequence")
			continue
		}

		if err != nil {
			return types.StoredFile{}, created, &StorageError{Op: "write", Category: cf.Category, Err: err}
		}

		nlog.WithTrace(ctx).Info().
			Str("original", cf.Filename).
			Str("path", p).
			Int64("size", written).
			Msg("file stored")

		return types.StoredFile{
			Category:     cf.Category,
			Sequence:     n,
			Path:         p,
			OriginalName: cf.Filename,
			ContentType:  cf.ContentType,
			Size:         written,
			Checksum:     fmt.Sprintf("%016x", sum),
		}, created, nil
	}

	return types.StoredFile{}, created, &StorageError{Op: "write", Category: cf.Category, Err: errors.New("no free sequence number")}
}

func (s *UploadService) write(ctx context.Context, cf types.ClassifiedFile, p string) (int64, uint64, error) {
	if cf.Open == nil {
		return 0, 0, errors.New("file content not available")
	}

	rc, err := cf.Open()
	if err != nil {
		return 0, 0, fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	h := xxhash.New()
	obj := types.Object{Path: p, ContentType: policy.BaseMIME(cf.ContentType), Size: cf.Size}

	n, err := s.files.Create(ctx, obj, io.TeeReader(rc, h))
	if err != nil {
		return 0, 0, err
	}

	return n, h.Sum64(), nil
}

// rollback 删除本批次已写入的文件与新建后又变空的分类目录，
// 然后让计数器重新从目录条目数开始. 请求取消后仍需完成.
func (s *UploadService) rollback(ctx context.Context, stored []types.StoredFile, created []string, failed string) {
	ctx = context.WithoutCancel(ctx)

	for i := len(stored) - 1; i >= 0; i-- {
		if err := s.files.Remove(ctx, stored[i].Path); err != nil {
			nlog.WithTrace(ctx).Error().Err(err).Str("path", stored[i].Path).Msg("rollback failed")
		}
	}

	for i := len(created) - 1; i >= 0; i-- {
		if err := s.files.RemoveDir(ctx, created[i]); err != nil {
			nlog.WithTrace(ctx).Warn().Err(err).Str("dir", created[i]).Msg("remove category dir failed")
		}
	}

	touched := make(map[string]struct{}, len(stored)+1)
	touched[failed] = struct{}{}

	for _, sf := range stored {
		touched[sf.Category] = struct{}{}
	}

	for category := range touched {
		if err := s.seq.Forget(ctx, category); err != nil {
			nlog.WithTrace(ctx).Warn().Err(err).Str("category", category).Msg("reset counter failed")
		}
	}
}

// Reject 记录在进入 Organize 之前就被拒绝的请求，例如字段名不符或请求体无法解析.
func (s *UploadService) Reject(ctx context.Context, reason error, files []types.IncomingFile) {
	s.reject(ctx, uuid.NewString(), reason, files)
}

// reject 记录被拒绝的批次：指标与可选的 fs.batch.rejected 事件.
func (s *UploadService) reject(ctx context.Context, batchID string, reason error, files []types.IncomingFile) {
	label := rejectReason(reason)
	metrics.FilesRejected.WithLabelValues(label).Inc()

	nlog.WithTrace(ctx).Warn().Str("batch_id", batchID).Str("reason", label).Int("files", len(files)).Msg("batch rejected")

	if s.mq == nil || !s.events.Enabled || !s.events.Rejected {
		return
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Filename)
	}

	payload := queue.BatchRejectedPayload{BatchID: batchID, Reason: label, Files: len(files), Filenames: names}

	if err := queue.PublishBatchRejected(s.mq.Publisher(), payload, s.headerOpts(ctx)...); err != nil {
		nlog.WithTrace(ctx).Warn().Err(err).Msg("publish batch rejected failed")
	}
}

func (s *UploadService) publishStored(ctx context.Context, batchID string, sf types.StoredFile) {
	if s.mq == nil || !s.events.Enabled || !s.events.Stored {
		return
	}

	payload := queue.FileStoredPayload{
		Category:     sf.Category,
		Sequence:     sf.Sequence,
		Path:         sf.Path,
		OriginalName: sf.OriginalName,
		ContentType:  sf.ContentType,
		Size:         sf.Size,
		Checksum:     sf.Checksum,
		BatchID:      batchID,
	}

	if err := queue.PublishFileStored(s.mq.Publisher(), payload, s.headerOpts(ctx)...); err != nil {
		nlog.WithTrace(ctx).Warn().Err(err).Str("path", sf.Path).Msg("publish file stored failed")
	}
}

func (s *UploadService) headerOpts(ctx context.Context) []func(*queue.EventHeader) {
	return []func(*queue.EventHeader){queue.WithProducer(s.events.Producer), queue.WithTraceContext(ctx)}
}
