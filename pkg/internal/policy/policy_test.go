package policy_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/yeisme/filesort/pkg/configs"
	"github.com/yeisme/filesort/pkg/internal/policy"
	"github.com/yeisme/filesort/pkg/internal/types"
)

func file(name, contentType string, content []byte) types.IncomingFile {
	return types.IncomingFile{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"photo.JPG":       ".JPG",
		"archive.tar.gz":  ".gz",
		"README":          "",
		".bashrc":         "",
		"trailing.":       ".",
		"dir/file.png":    ".png",
		`C:\tmp\scan.PDF`: ".PDF",
	}

	for name, want := range cases {
		if got := policy.Extension(name); got != want {
			t.Errorf("Extension(%q) = %q, want %q", name, got, want)
		}
	}

	if got := policy.Category("photo.JPG"); got != "jpg" {
		t.Errorf("Category = %q, want jpg", got)
	}
}

func TestBaseMIME(t *testing.T) {
	if got := policy.BaseMIME("Image/JPEG; charset=binary"); got != "image/jpeg" {
		t.Errorf("BaseMIME = %q", got)
	}

	if got := policy.BaseMIME(""); got != "" {
		t.Errorf("BaseMIME(empty) = %q", got)
	}
}

func TestExactPolicy(t *testing.T) {
	p, err := policy.New(configs.UploadConfig{
		AllowedTypes: []string{"jpg", "png", "pdf"},
		MatchMode:    configs.MatchExact,
	})
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}

	tests := []struct {
		name        string
		filename    string
		contentType string
		wantErr     bool
		wantCat     string
		wantExt     string
	}{
		{"jpg token admits image/jpeg", "photo.JPG", "image/jpeg", false, "jpg", ".JPG"},
		{"png", "shot.png", "image/png", false, "png", ".png"},
		{"mime parameters ignored", "doc.pdf", "application/pdf; charset=binary", false, "pdf", ".pdf"},
		{"extension not allowed", "notes.txt", "text/plain", true, "", ""},
		{"mime not allowed", "fake.jpg", "text/html", true, "", ""},
		{"no extension", "README", "image/png", true, "", ""},
		{"empty mime", "photo.jpg", "", true, "", ""},
		{"substring of token does not match", "x.pn", "image/png", true, "", ""},
		{"bad characters", "evil.j pg", "image/jpeg", true, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf, err := p.Classify(file(tt.filename, tt.contentType, nil))
			if tt.wantErr {
				if !errors.Is(err, policy.ErrUnsupportedType) {
					t.Fatalf("expected ErrUnsupportedType, got %v", err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if cf.Category != tt.wantCat || cf.Ext != tt.wantExt {
				t.Errorf("got category=%q ext=%q", cf.Category, cf.Ext)
			}
		})
	}
}

func TestExactPolicyExtraMIME(t *testing.T) {
	p, err := policy.New(configs.UploadConfig{
		AllowedTypes: []string{"bin"},
		MIMETypes:    []string{"application/x-firmware"},
	})
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}

	if _, err := p.Classify(file("fw.bin", "application/x-firmware", nil)); err != nil {
		t.Errorf("configured mime should be accepted: %v", err)
	}
}

func TestPatternPolicyKeepsLegacyLooseness(t *testing.T) {
	p, err := policy.New(configs.UploadConfig{
		AllowedTypes: []string{"jpeg", "png"},
		MatchMode:    configs.MatchPattern,
	})
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}

	// "jpeg" 是 "image/jpeg" 的子串，且 ".jpeg" 命中
	if _, err := p.Classify(file("a.jpeg", "image/jpeg", nil)); err != nil {
		t.Errorf("expected accept: %v", err)
	}

	// ".jpg" 不包含 "jpeg"，旧版行为下被拒绝
	if _, err := p.Classify(file("a.jpg", "image/jpeg", nil)); !errors.Is(err, policy.ErrUnsupportedType) {
		t.Errorf("expected reject, got %v", err)
	}

	// 子串匹配：.xpng 也会通过
	if _, err := p.Classify(file("a.xpng", "image/png", nil)); err != nil {
		t.Errorf("expected loose accept: %v", err)
	}
}

func TestPatternPolicyIgnoresCase(t *testing.T) {
	p, err := policy.New(configs.UploadConfig{
		AllowedTypes: []string{"png"},
		MatchMode:    configs.MatchPattern,
	})
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}

	for _, tc := range []struct{ name, ct string }{
		{"a.png", "IMAGE/PNG"},
		{"a.PNG", "image/png"},
		{"a.Png", "Image/Png"},
	} {
		if _, err := p.Classify(file(tc.name, tc.ct, nil)); err != nil {
			t.Errorf("%s %s: expected accept, got %v", tc.name, tc.ct, err)
		}
	}
}

func TestPatternPolicyInvalidRegexp(t *testing.T) {
	_, err := policy.New(configs.UploadConfig{
		AllowedTypes: []string{"("},
		MatchMode:    configs.MatchPattern,
	})
	if err == nil {
		t.Fatal("expected compile error")
	}
}

func TestSniffPolicy(t *testing.T) {
	p, err := policy.New(configs.UploadConfig{
		AllowedTypes: []string{"png"},
		SniffContent: true,
	})
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}

	pngHeader := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if _, err := p.Classify(file("ok.png", "image/png", pngHeader)); err != nil {
		t.Errorf("real png rejected: %v", err)
	}

	if _, err := p.Classify(file("fake.png", "image/png", []byte("<html><body>hi</body></html>"))); !errors.Is(err, policy.ErrUnsupportedType) {
		t.Errorf("html disguised as png should be rejected, got %v", err)
	}
}
