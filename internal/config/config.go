// Package config assembles the runtime configuration from built-in
// defaults, an optional YAML file, and environment variable overrides, in
// that order.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	// DefaultMaxUploadBytes caps a single upload at 2 GiB.
	DefaultMaxUploadBytes = 2 << 30
	DefaultMaxUsers       = 10
	DefaultStorageLimitGB = 10
	DefaultSessionHours   = 1
)

// Config is the full runtime configuration. The environment variable names
// match the original deployment surface so existing setups carry over.
type Config struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`

	SecretKey    string `yaml:"secret_key"`
	DatabaseFile string `yaml:"database_file"`
	UploadRoot   string `yaml:"upload_root"`
	SharedRoot   string `yaml:"shared_root"`

	MaxUploadBytes       int64    `yaml:"max_upload_bytes"`
	MaxUsers             int      `yaml:"max_users"`
	StorageLimitGB       int64    `yaml:"storage_limit_gb"`
	SessionLifetimeHours int      `yaml:"session_lifetime_hours"`
	AllowedExtensions    []string `yaml:"allowed_extensions"`

	TemplatesDir string `yaml:"templates_dir"`
	StaticDir    string `yaml:"static_dir"`
	LogFile      string `yaml:"log_file"`

	generatedSecret bool
}

// Default returns the development defaults.
func Default() *Config {
	return &Config{
		Host:                 "0.0.0.0",
		Port:                 "8080",
		Environment:          "development",
		DatabaseFile:         "users.json",
		UploadRoot:           "user_storage",
		SharedRoot:           "shared_storage",
		MaxUploadBytes:       DefaultMaxUploadBytes,
		MaxUsers:             DefaultMaxUsers,
		StorageLimitGB:       DefaultStorageLimitGB,
		SessionLifetimeHours: DefaultSessionHours,
		AllowedExtensions: []string{
			"txt", "pdf", "md", "csv", "json",
			"png", "jpg", "jpeg", "gif", "svg",
			"doc", "docx", "xls", "xlsx", "ppt", "pptx",
			"zip", "tar", "gz", "mp3", "mp4",
		},
		TemplatesDir: "web/templates",
		StaticDir:    "web/static",
	}
}

// Load reads path when it exists, overlays the environment, and validates.
// A missing file just means defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	cfg.applyEnv()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	for env, field := range map[string]*string{
		"HOST":          &c.Host,
		"PORT":          &c.Port,
		"APP_ENV":       &c.Environment,
		"SECRET_KEY":    &c.SecretKey,
		"DATABASE_FILE": &c.DatabaseFile,
		"UPLOAD_FOLDER": &c.UploadRoot,
		"SHARED_FOLDER": &c.SharedRoot,
		"LOG_FILE":      &c.LogFile,
	} {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("MAX_USERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxUsers = n
		}
	}
	if v := os.Getenv("STORAGE_LIMIT_GB"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.StorageLimitGB = n
		}
	}
	if v := os.Getenv("SESSION_LIFETIME_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SessionLifetimeHours = n
		}
	}
}

// finish validates the assembled configuration. Development generates a
// throwaway signing key when none is set, so sessions do not survive a
// restart; production refuses to start without an operator-provided one.
func (c *Config) finish() error {
	switch c.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	if c.SecretKey == "" {
		if c.Production() {
			return errors.New("SECRET_KEY must be set in production")
		}
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return err
		}
		c.SecretKey = hex.EncodeToString(b)
		c.generatedSecret = true
	}
	if c.MaxUploadBytes <= 0 || c.MaxUsers <= 0 || c.StorageLimitGB <= 0 || c.SessionLifetimeHours <= 0 {
		return errors.New("limits must be positive")
	}
	return nil
}

// Production reports whether secure-transport rules apply.
func (c *Config) Production() bool { return c.Environment == "production" }

// GeneratedSecret reports whether the signing key was generated at startup
// rather than configured.
func (c *Config) GeneratedSecret() bool { return c.generatedSecret }

// StorageLimitBytes is the per-user quota in bytes.
func (c *Config) StorageLimitBytes() int64 { return c.StorageLimitGB * 1024 * 1024 * 1024 }

// SessionLifetime is the session cookie lifetime.
func (c *Config) SessionLifetime() time.Duration {
	return time.Duration(c.SessionLifetimeHours) * time.Hour
}

// Addr is the listen address.
func (c *Config) Addr() string { return net.JoinHostPort(c.Host, c.Port) }

// ExtensionAllowed reports whether filename carries an allowed upload
// extension. Files without an extension are rejected.
func (c *Config) ExtensionAllowed(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range c.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
