package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("ml_base_url: http://ml:9000\nprocess_timeout_min: 5\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("KAGGLE_USERNAME", "alice")
	t.Setenv("KAGGLE_KEY", "k")
	t.Setenv("AISTUDIO_ENVIRONMENT", "production")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.MLBaseURL != "http://ml:9000" {
		t.Fatalf("ml_base_url = %q", c.MLBaseURL)
	}
	if c.ProcessTimeout() != 5*time.Minute {
		t.Fatalf("process timeout = %v", c.ProcessTimeout())
	}
	if c.DownloadTimeout() != 2*time.Minute {
		t.Fatalf("download timeout default = %v", c.DownloadTimeout())
	}
	if !c.KaggleConfigured() {
		t.Fatalf("expected kaggle credentials from env")
	}
	if !c.IsProduction() {
		t.Fatalf("expected production environment from env")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	c := &Global{MLBaseURL: "http://x", ProcessTimeoutMin: 3, DownloadsDir: "dl"}
	if err := Save(c, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.MLBaseURL != "http://x" || got.ProcessTimeoutMin != 3 || got.DownloadsDir != "dl" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.ListenAddr != ":5000" || c.MaxTokens != 1024 || c.CacheTTL() != 10*time.Minute {
		t.Fatalf("defaults not applied: %+v", c)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: [unterminated\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
