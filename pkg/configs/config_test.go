package configs

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	_, cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != DefaultPort || cfg.Upload.RootDir != DefaultUploadRootDir {
		t.Errorf("unexpected defaults: %+v", cfg.Server)
	}

	if cfg.Upload.FieldName != "files[]" || cfg.Upload.MaxFiles != DefaultUploadMaxFiles {
		t.Errorf("unexpected upload defaults: %+v", cfg.Upload)
	}

	if cfg.Sequence.Type != SequenceMemory || cfg.Storage.Type != StorageLocal {
		t.Errorf("unexpected backend defaults: %s %s", cfg.Sequence.Type, cfg.Storage.Type)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), `
server:
  port: 8081
upload:
  root_dir: /srv/files
  allowed_types: ["jpg, png", "pdf"]
  max_files: 4
sequence:
  type: listing
`)

	v, cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if v.ConfigFileUsed() != filepath.Join(dir, "config.yaml") {
		t.Errorf("config file used = %s", v.ConfigFileUsed())
	}

	if cfg.Server.Port != 8081 || cfg.Upload.MaxFiles != 4 || cfg.Sequence.Type != SequenceListing {
		t.Errorf("unexpected config: %+v", cfg)
	}

	if want := []string{"jpg", "png", "pdf"}; !reflect.DeepEqual(cfg.Upload.AllowedTypes, want) {
		t.Errorf("allowed types = %v, want %v", cfg.Upload.AllowedTypes, want)
	}
}

func TestLegacyEnvNames(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("UPLOAD_DIR", "incoming")
	t.Setenv("ALLOWED_FILE_TYPES", "txt,csv")
	t.Setenv("MAX_FILE_UPLOADS", "2")

	_, cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 4000 || cfg.Upload.RootDir != "incoming" || cfg.Upload.MaxFiles != 2 {
		t.Errorf("legacy env not applied: port=%d root=%s max=%d", cfg.Server.Port, cfg.Upload.RootDir, cfg.Upload.MaxFiles)
	}

	if want := []string{"txt", "csv"}; !reflect.DeepEqual(cfg.Upload.AllowedTypes, want) {
		t.Errorf("allowed types = %v", cfg.Upload.AllowedTypes)
	}
}

func TestPrefixedEnvWinsOverLegacy(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("FILESORT_SERVER_PORT", "5000")

	_, cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("port = %d, want 5000", cfg.Server.Port)
	}
}

func TestDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "FILESORT_UPLOAD_FIELD_NAME=attachments\n")

	t.Cleanup(func() { os.Unsetenv("FILESORT_UPLOAD_FIELD_NAME") })

	_, cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Upload.FieldName != "attachments" {
		t.Errorf("field name = %s", cfg.Upload.FieldName)
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), "upload:\n  match_mode: fuzzy\n")

	if _, _, err := Load(dir); err == nil {
		t.Fatal("expected validation error for unknown match mode")
	}
}

func TestInitConfigSetsGlobal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json"), `{"server": {"port": 9090}}`)

	if err := InitConfig(dir); err != nil {
		t.Fatalf("init: %v", err)
	}

	if GetConfig().Server.Port != 9090 || GetViper() == nil {
		t.Errorf("global config not set: %+v", GetConfig().Server)
	}
}
