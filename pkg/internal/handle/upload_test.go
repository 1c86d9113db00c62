package handle_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/yeisme/filesort/pkg/configs"
	"github.com/yeisme/filesort/pkg/internal/handle"
	"github.com/yeisme/filesort/pkg/internal/service"
	"github.com/yeisme/filesort/pkg/internal/storage"
	"github.com/yeisme/filesort/pkg/internal/storage/local"
	"github.com/yeisme/filesort/pkg/internal/storage/sequence"
	"github.com/yeisme/filesort/pkg/internal/types"
)

type part struct {
	field       string
	name        string
	contentType string
	body        string
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.name))
		h.Set("Content-Type", p.contentType)

		pw, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}

		_, _ = pw.Write([]byte(p.body))
	}

	_ = w.Close()

	return &buf, w.FormDataContentType()
}

func setup(t *testing.T, mutate func(*configs.AppConfig)) (*gin.Engine, afero.Fs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var cfg configs.AppConfig
	cfg.Upload.RootDir = "uploads"
	cfg.Upload.FieldName = configs.DefaultUploadFieldName
	cfg.Upload.AllowedTypes = []string{"jpg", "png"}
	cfg.Upload.MatchMode = configs.MatchExact
	cfg.Upload.MaxFiles = 3
	cfg.Upload.MaxMemory = configs.DefaultUploadMaxMemory

	if mutate != nil {
		mutate(&cfg)
	}

	fs := afero.NewMemMapFs()
	mgr := &storage.Manager{Files: local.NewWithFs(fs), Sequence: sequence.NewMemory()}

	svc, err := service.NewUploadService(cfg, mgr)
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	r := gin.New()
	r.POST("/upload", handle.NewUploadHandler(svc, cfg.Upload).Upload)

	return r, fs
}

func post(r *gin.Engine, body *bytes.Buffer, contentType string) (int, string) {
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp types.MessageResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)

	return w.Code, resp.Message
}

func TestUploadOrganizesFiles(t *testing.T) {
	r, fs := setup(t, nil)

	body, ct := multipartBody(t,
		part{"files[]", "photo.JPG", "image/jpeg", "jpeg"},
		part{"files[]", "icon.png", "image/png", "png"},
	)

	code, msg := post(r, body, ct)
	if code != http.StatusOK || msg != "Files uploaded and organized successfully" {
		t.Fatalf("got %d %q", code, msg)
	}

	for _, p := range []string{"/jpg/jpg-1.JPG", "/png/png-1.png"} {
		if ok, _ := afero.Exists(fs, p); !ok {
			t.Errorf("%s not stored", p)
		}
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	r, fs := setup(t, func(c *configs.AppConfig) { c.Upload.AllowedTypes = []string{"png"} })

	body, ct := multipartBody(t, part{"files[]", "doc.pdf", "application/pdf", "pdf"})

	code, msg := post(r, body, ct)
	if code != http.StatusBadRequest || msg != "File type not supported" {
		t.Fatalf("got %d %q", code, msg)
	}

	if ok, _ := afero.DirExists(fs, "/pdf"); ok {
		t.Error("nothing should be written")
	}
}

func TestUploadErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*configs.AppConfig)
		parts  []part
		want   string
	}{
		{
			name:  "too many files",
			parts: []part{{"files[]", "a.png", "image/png", "a"}, {"files[]", "b.png", "image/png", "b"}, {"files[]", "c.png", "image/png", "c"}, {"files[]", "d.png", "image/png", "d"}},
			want:  "Too many files",
		},
		{
			name:  "unexpected field",
			parts: []part{{"avatar", "a.png", "image/png", "a"}},
			want:  "Unexpected field",
		},
		{
			name:   "file too large",
			mutate: func(c *configs.AppConfig) { c.Upload.MaxFileSize = 2 },
			parts:  []part{{"files[]", "a.png", "image/png", "abc"}},
			want:   "File too large",
		},
		{
			name:   "request body too large",
			mutate: func(c *configs.AppConfig) { c.Upload.MaxRequestBytes = 64 },
			parts:  []part{{"files[]", "a.png", "image/png", strings.Repeat("x", 1024)}},
			want:   "File too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := setup(t, tt.mutate)

			body, ct := multipartBody(t, tt.parts...)

			code, msg := post(r, body, ct)
			if code != http.StatusBadRequest || msg != tt.want {
				t.Errorf("got %d %q, want 400 %q", code, msg, tt.want)
			}
		})
	}
}

func TestUploadMalformedBody(t *testing.T) {
	r, _ := setup(t, nil)

	code, msg := post(r, bytes.NewBufferString(`{"files":[]}`), "application/json")
	if code != http.StatusBadRequest || msg != "Malformed multipart request" {
		t.Fatalf("got %d %q", code, msg)
	}
}

func TestUploadNoFiles(t *testing.T) {
	r, _ := setup(t, nil)

	body, ct := multipartBody(t)

	code, _ := post(r, body, ct)
	if code != http.StatusOK {
		t.Fatalf("empty upload should succeed, got %d", code)
	}
}
