package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Missing(t *testing.T) {
	cfg, found, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil || found {
		t.Fatalf("loadConfig = %v, %v", found, err)
	}
	if cfg.Addr != ":8430" || cfg.CorpusDB != "amyloid.db" || cfg.CheckInterval != time.Hour {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `addr: ":9000"
tls_addr: ":8443"
mcp_addr: "127.0.0.1:9443"
log_level: debug
keywords_dir: groups
workers: 4
check_interval: 15m
datasets:
  cardiac_path_reports: /srv/extracts/cp.csv
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, found, err := loadConfig(path)
	if err != nil || !found {
		t.Fatalf("loadConfig = %v, %v", found, err)
	}
	if cfg.Addr != ":9000" || cfg.MCPAddr != "127.0.0.1:9443" || cfg.Workers != 4 || cfg.KeywordsDir != "groups" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.TLSAddr != ":8443" {
		t.Errorf("tls_addr = %q", cfg.TLSAddr)
	}
	if cfg.CheckInterval != 15*time.Minute {
		t.Errorf("check_interval = %v", cfg.CheckInterval)
	}
	if cfg.CorpusDB != "amyloid.db" {
		t.Errorf("unset field lost its default: %q", cfg.CorpusDB)
	}
	if cfg.Datasets["cardiac_path_reports"] != "/srv/extracts/cp.csv" {
		t.Errorf("datasets = %v", cfg.Datasets)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("addr: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := loadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNewLogger(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		level string
		debug bool
		info  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"WARN", false, false},
		{"nonsense", false, true},
	}
	for _, tt := range tests {
		l := newLogger(tt.level)
		if got := l.Enabled(ctx, slog.LevelDebug); got != tt.debug {
			t.Errorf("newLogger(%q) debug enabled = %v", tt.level, got)
		}
		if got := l.Enabled(ctx, slog.LevelInfo); got != tt.info {
			t.Errorf("newLogger(%q) info enabled = %v", tt.level, got)
		}
	}
}
