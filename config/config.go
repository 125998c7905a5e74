// Package config loads CLI settings from an optional YAML file, a .env file and
// SLIDEGENIUS_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/slidegenius/layout"
)

const envPrefix = "SLIDEGENIUS_"

// Config holds all settings of the slidegenius CLI.
type Config struct {
	OutputDir   string            `yaml:"output_dir"`
	Caption     string            `yaml:"caption"`
	Author      string            `yaml:"author"`
	LogLevel    string            `yaml:"log_level"`
	PreviewDPMM float64           `yaml:"preview_dpmm"`
	Fonts       map[string]string `yaml:"fonts"` // "family-style" -> font file
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		OutputDir:   ".",
		Caption:     layout.DefaultCaption,
		LogLevel:    "info",
		PreviewDPMM: 4,
		Fonts:       map[string]string{},
	}
}

// Load 读取配置。path 为空时只使用默认值、.env 与环境变量；
// path 非空但文件不存在视为错误。字体路径按配置文件所在目录解析。
func Load(path string) (*Config, error) {
	cfg := Default()
	dir := "."
	if path != "" {
		dir = filepath.Dir(path)
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
		}
		for key, p := range cfg.Fonts {
			if p != "" && !filepath.IsAbs(p) {
				cfg.Fonts[key] = filepath.Join(dir, p)
			}
		}
	}

	// .env 不覆盖已存在的环境变量
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := getEnv("OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := getEnv("CAPTION"); v != "" {
		c.Caption = v
	}
	if v := getEnv("AUTHOR"); v != "" {
		c.Author = v
	}
	if v := getEnv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("PREVIEW_DPMM"); v != "" {
		dpmm, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sPREVIEW_DPMM 不是数字: %w", envPrefix, err)
		}
		c.PreviewDPMM = dpmm
	}
	return nil
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

// Validate 检查取值范围。
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.PreviewDPMM <= 0 {
		return fmt.Errorf("preview_dpmm 必须大于 0，当前为 %g", c.PreviewDPMM)
	}
	return nil
}

// Level 解析日志级别。
func (c *Config) Level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("无效的日志级别 %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// NewLogger 按配置构建 zap 生产日志；verbose 强制 debug 级别。
func (c *Config) NewLogger(verbose bool) (*zap.Logger, error) {
	lvl, err := c.Level()
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.DisableStacktrace = !verbose
	return zc.Build()
}
