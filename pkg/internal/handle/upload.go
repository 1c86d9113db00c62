package handle

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filesort/pkg/configs"
	"github.com/yeisme/filesort/pkg/internal/service"
	"github.com/yeisme/filesort/pkg/internal/types"
	nlog "github.com/yeisme/filesort/pkg/log"
)

const (
	msgUploaded      = "Files uploaded and organized successfully"
	msgStoreFailed   = "Failed to store files"
	msgUnsupported   = "File type not supported"
	msgTooManyFiles  = "Too many files"
	msgUnexpected    = "Unexpected field"
	msgFileTooLarge  = "File too large"
	msgMalformedBody = "Malformed multipart request"
)

// UploadHandler 处理 POST /upload.
type UploadHandler struct {
	svc *service.UploadService
	cfg configs.UploadConfig
}

// NewUploadHandler 创建上传处理器.
func NewUploadHandler(svc *service.UploadService, cfg configs.UploadConfig) *UploadHandler {
	return &UploadHandler{svc: svc, cfg: cfg}
}

// Upload 解析 multipart 请求体，把 files[] 下的文件交给 UploadService 整理.
//
//	@Summary		上传并整理文件
//	@Description	按扩展名归类到分类目录并顺序命名，任一文件不合法时整批拒绝
//	@Tags			上传
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			files[]	formData	file	true	"待上传文件，可重复"
//	@Success		200		{object}	types.MessageResponse
//	@Failure		400		{object}	types.MessageResponse
//	@Failure		429		{object}	types.MessageResponse
//	@Failure		500		{object}	types.MessageResponse
//	@Failure		503		{object}	types.MessageResponse
//	@Router			/upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	if h.cfg.MaxRequestBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxRequestBytes)
	}

	files, err := h.collect(c.Request)
	if form := c.Request.MultipartForm; form != nil {
		defer func() { _ = form.RemoveAll() }()
	}

	if err != nil {
		h.svc.Reject(ctx, err, files)
		h.fail(c, err)

		return
	}

	if _, err := h.svc.Organize(ctx, files); err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, msgUploaded)
}

// collect 读取表单中的文件部分. 出现其他字段名下的文件时返回 ErrUnexpectedField.
func (h *UploadHandler) collect(r *http.Request) ([]types.IncomingFile, error) {
	if err := r.ParseMultipartForm(h.cfg.MaxMemory); err != nil {
		return nil, classifyParseError(err)
	}

	form := r.MultipartForm
	if form == nil {
		return nil, nil
	}

	fields := make([]string, 0, len(form.File))
	for name := range form.File {
		fields = append(fields, name)
	}

	sort.Strings(fields)

	for _, name := range fields {
		if name != h.cfg.FieldName && len(form.File[name]) > 0 {
			return toIncoming(form.File[name]), service.ErrUnexpectedField
		}
	}

	return toIncoming(form.File[h.cfg.FieldName]), nil
}

func toIncoming(headers []*multipart.FileHeader) []types.IncomingFile {
	files := make([]types.IncomingFile, 0, len(headers))

	for _, fh := range headers {
		files = append(files, types.IncomingFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}

	return files
}

func classifyParseError(err error) error {
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &maxErr), errors.Is(err, multipart.ErrMessageTooLarge):
		return service.ErrFileTooLarge
	default:
		return errors.Join(service.ErrMalformedRequest, err)
	}
}

func (h *UploadHandler) fail(c *gin.Context, err error) {
	var se *service.StorageError

	switch {
	case errors.Is(err, service.ErrUnsupportedType):
		respond(c, http.StatusBadRequest, msgUnsupported)
	case errors.Is(err, service.ErrTooManyFiles):
		respond(c, http.StatusBadRequest, msgTooManyFiles)
	case errors.Is(err, service.ErrUnexpectedField):
		respond(c, http.StatusBadRequest, msgUnexpected)
	case errors.Is(err, service.ErrFileTooLarge):
		respond(c, http.StatusBadRequest, msgFileTooLarge)
	case errors.Is(err, service.ErrMalformedRequest):
		nlog.WithTrace(c.Request.Context()).Debug().Err(err).Msg("malformed upload")
		respond(c, http.StatusBadRequest, msgMalformedBody)
	case errors.As(err, &se):
		_ = c.Error(err)
		respond(c, http.StatusInternalServerError, msgStoreFailed)
	default:
		_ = c.Error(err)
		nlog.WithTrace(c.Request.Context()).Error().Err(err).Msg("upload failed")
		respond(c, http.StatusInternalServerError, msgStoreFailed)
	}
}
