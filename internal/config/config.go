// Package config loads viewtree settings with Viper from an optional YAML
// file and VIEWTREE_ environment variables (VIEWTREE_SERVER_ADDR,
// VIEWTREE_TEMPLATES_DIR, VIEWTREE_LOG_LEVEL, ...). Flags bound by the CLI
// take precedence over both.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VIEWTREE"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Files     FilesConfig     `mapstructure:"files"`
	View      ViewConfig      `mapstructure:"view"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type TemplatesConfig struct {
	Dir       string `mapstructure:"dir"`
	Extension string `mapstructure:"extension"`
	Watch     bool   `mapstructure:"watch"`
	CacheSize int    `mapstructure:"cache_size"`
}

// FilesConfig drives the flat file renderer. An empty Dir resolves file names
// against the working directory.
type FilesConfig struct {
	Dir         string `mapstructure:"dir"`
	ContentType string `mapstructure:"content_type"`
}

type ViewConfig struct {
	ContentType string `mapstructure:"content_type"`
	// StatusTemplates maps status codes ("404") to fallback templates.
	StatusTemplates map[string]string `mapstructure:"status_templates"`
	Globals         map[string]any    `mapstructure:"globals"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New returns a Viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("templates.dir", "templates")
	v.SetDefault("templates.extension", ".html")
	v.SetDefault("templates.watch", false)
	v.SetDefault("templates.cache_size", 128)
	v.SetDefault("files.dir", "")
	v.SetDefault("files.content_type", "text/plain")
	v.SetDefault("view.content_type", "text/html")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (when set) into v and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = New()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values Viper cannot type check.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("config: server.addr is required")
	}
	if strings.TrimSpace(c.Files.ContentType) == "" {
		return errors.New("config: files.content_type is required")
	}
	if strings.TrimSpace(c.View.ContentType) == "" {
		return errors.New("config: view.content_type is required")
	}
	if _, err := c.View.StatusCodes(); err != nil {
		return err
	}
	return nil
}

// StatusCodes returns StatusTemplates keyed by numeric status code.
func (vc ViewConfig) StatusCodes() (map[int]string, error) {
	out := make(map[int]string, len(vc.StatusTemplates))
	for key, template := range vc.StatusTemplates {
		code, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || http.StatusText(code) == "" {
			return nil, fmt.Errorf("config: view.status_templates: invalid status code %q", key)
		}
		out[code] = template
	}
	return out, nil
}
