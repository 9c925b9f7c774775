package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.TemplateDir != filepath.Join(home, ".image_processor_templates") {
		t.Fatalf("template dir %q", cfg.TemplateDir)
	}
	if cfg.JPEGQuality != 95 {
		t.Fatalf("jpeg quality %d", cfg.JPEGQuality)
	}
	if cfg.Workers != runtime.NumCPU() {
		t.Fatalf("workers %d, want %d", cfg.Workers, runtime.NumCPU())
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("log level %q", cfg.LogLevel)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("WATERMARKER_TEMPLATE_DIR", "/srv/templates")
	t.Setenv("WATERMARKER_FONT_DIRS", "/opt/fonts, /more/fonts")
	t.Setenv("WATERMARKER_JPEG_QUALITY", "80")
	t.Setenv("WATERMARKER_WORKERS", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TemplateDir != "/srv/templates" || cfg.JPEGQuality != 80 || cfg.Workers != 3 {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if len(cfg.FontDirs) < 2 || cfg.FontDirs[0] != "/opt/fonts" || cfg.FontDirs[1] != "/more/fonts" {
		t.Fatalf("font dirs %v", cfg.FontDirs)
	}
}

func TestLoadFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := strings.Join([]string{
		"template_dir: ~/tpl",
		"jpeg_quality: 70",
		"workers: 2",
		"log_level: debug",
		"font_dirs:",
		"  - /fonts/a",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TemplateDir != filepath.Join(home, "tpl") {
		t.Fatalf("template dir %q", cfg.TemplateDir)
	}
	if cfg.JPEGQuality != 70 || cfg.Workers != 2 || cfg.LogLevel != "debug" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.FontDirs[0] != "/fonts/a" {
		t.Fatalf("font dirs %v", cfg.FontDirs)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("WATERMARKER_JPEG_QUALITY", "150")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for quality 150")
	}

	t.Setenv("WATERMARKER_JPEG_QUALITY", "90")
	t.Setenv("WATERMARKER_LOG_LEVEL", "chatty")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unknown log level")
	}
}

func TestNewLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	log, closer, err := NewLogger(Config{LogLevel: "info", LogFile: path})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level %s", log.GetLevel())
	}
	log.WithField("path", "a.jpg").Info("exported")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "exported") || !strings.Contains(string(data), "path=a.jpg") {
		t.Fatalf("log file missing entry: %q", data)
	}
}
