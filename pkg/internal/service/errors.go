package service

import (
	"errors"
	"fmt"

	"github.com/yeisme/filesort/pkg/internal/policy"
)

// 客户端可见的错误类型，HTTP 层用 errors.Is 映射状态码与文案.
var (
	ErrUnsupportedType  = policy.ErrUnsupportedType
	ErrTooManyFiles     = errors.New("too many files")
	ErrUnexpectedField  = errors.New("unexpected field")
	ErrFileTooLarge     = errors.New("file too large")
	ErrMalformedRequest = errors.New("malformed multipart request")
)

// StorageError 落盘阶段的故障，原因只写日志，不返回给客户端.
type StorageError struct {
	Op       string // mkdir、sequence、open、write
	Category string
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Category, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// rejectReason 返回指标与事件使用的原因标签.
func rejectReason(err error) string {
	var se *StorageError

	switch {
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, ErrTooManyFiles):
		return "too_many_files"
	case errors.Is(err, ErrUnexpectedField):
		return "unexpected_field"
	case errors.Is(err, ErrFileTooLarge):
		return "file_too_large"
	case errors.Is(err, ErrMalformedRequest):
		return "malformed_request"
	case errors.As(err, &se):
		return "storage"
	default:
		return "other"
	}
}
