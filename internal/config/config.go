package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/sirupsen/logrus"
)

// Config holds settings that outlive a single invocation. Flags override
// them per command.
type Config struct {
	TemplateDir string   `yaml:"template_dir" env:"WATERMARKER_TEMPLATE_DIR" env-default:"~/.image_processor_templates" env-description:"directory holding saved templates"`
	FontDirs    []string `yaml:"font_dirs" env:"WATERMARKER_FONT_DIRS" env-separator:"," env-description:"extra directories searched for font families"`
	Workers     int      `yaml:"workers" env:"WATERMARKER_WORKERS" env-default:"0" env-description:"export workers, 0 for one per CPU"`
	JPEGQuality int      `yaml:"jpeg_quality" env:"WATERMARKER_JPEG_QUALITY" env-default:"95" env-description:"default JPEG quality"`
	LogLevel    string   `yaml:"log_level" env:"WATERMARKER_LOG_LEVEL" env-default:"warn" env-description:"logrus level"`
	LogFile     string   `yaml:"log_file" env:"WATERMARKER_LOG_FILE" env-description:"write logs to this file instead of stderr"`
}

// DefaultPath is where Load looks when no explicit file is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "watermarker", "config.yaml")
}

// Load reads path if it exists, then the environment. A missing file is not
// an error.
func Load(path string) (Config, error) {
	var cfg Config

	readFile := false
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			readFile = true
		} else if !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if readFile {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	dir, err := expandHome(c.TemplateDir)
	if err != nil {
		return err
	}
	c.TemplateDir = dir

	fontDirs := c.FontDirs[:0]
	for _, d := range c.FontDirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		expanded, err := expandHome(d)
		if err != nil {
			return err
		}
		fontDirs = append(fontDirs, expanded)
	}
	c.FontDirs = append(fontDirs, SystemFontDirs()...)

	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be within 0..100, got %d", c.JPEGQuality)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// SystemFontDirs lists the platform's usual font locations.
func SystemFontDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		return []string{filepath.Join(windir, "Fonts")}
	case "darwin":
		dirs := []string{"/System/Library/Fonts", "/Library/Fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
		return dirs
	default:
		dirs := []string{"/usr/share/fonts", "/usr/local/share/fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".fonts"), filepath.Join(home, ".local", "share", "fonts"))
		}
		return dirs
	}
}

// NewLogger builds the process logger. When cfg.LogFile is set logs go there
// so they do not interleave with the progress view; the returned closer must
// be called on exit.
func NewLogger(cfg Config) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	log.SetLevel(level)

	if cfg.LogFile == "" {
		log.SetOutput(os.Stderr)
		return log, nopCloser{}, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return log, f, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, path[1:]), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
