package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
	if cfg.DatabaseFile != "users.json" || cfg.UploadRoot != "user_storage" || cfg.SharedRoot != "shared_storage" {
		t.Errorf("paths = %q %q %q", cfg.DatabaseFile, cfg.UploadRoot, cfg.SharedRoot)
	}
	if cfg.MaxUsers != 10 || cfg.StorageLimitGB != 10 {
		t.Errorf("limits = %d users, %d GB", cfg.MaxUsers, cfg.StorageLimitGB)
	}
	if cfg.MaxUploadBytes != 2<<30 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if cfg.SessionLifetime() != time.Hour {
		t.Errorf("SessionLifetime = %v", cfg.SessionLifetime())
	}
	if cfg.Production() {
		t.Error("default environment is production")
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	yaml := strings.Join([]string{
		`port: "9000"`,
		`database_file: /var/lib/cloudstash/users.json`,
		`max_users: 50`,
		`storage_limit_gb: 25`,
	}, "\n")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9000" || cfg.MaxUsers != 50 || cfg.StorageLimitGB != 25 {
		t.Errorf("overlay not applied: %q %d %d", cfg.Port, cfg.MaxUsers, cfg.StorageLimitGB)
	}
	if cfg.DatabaseFile != "/var/lib/cloudstash/users.json" {
		t.Errorf("DatabaseFile = %q", cfg.DatabaseFile)
	}
	// Untouched keys keep their defaults.
	if cfg.Host != "0.0.0.0" || cfg.UploadRoot != "user_storage" {
		t.Errorf("defaults lost: %q %q", cfg.Host, cfg.UploadRoot)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	if err := os.WriteFile(path, []byte(`port: "9000"`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "7070")
	t.Setenv("MAX_USERS", "3")
	t.Setenv("UPLOAD_FOLDER", "/tmp/uploads")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "7070" {
		t.Errorf("Port = %q, env should beat the file", cfg.Port)
	}
	if cfg.MaxUsers != 3 || cfg.UploadRoot != "/tmp/uploads" {
		t.Errorf("env not applied: %d %q", cfg.MaxUsers, cfg.UploadRoot)
	}
}

func TestProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SECRET_KEY", "")
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("production without SECRET_KEY accepted")
	}

	t.Setenv("SECRET_KEY", "an-operator-provided-key")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Production() || cfg.GeneratedSecret() {
		t.Error("configured production secret reported as generated")
	}
}

func TestDevelopmentGeneratesSecret(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("SECRET_KEY", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SecretKey == "" || !cfg.GeneratedSecret() {
		t.Error("development did not generate a signing key")
	}
}

func TestUnknownEnvironmentRejected(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("unknown environment accepted")
	}
}

func TestStorageLimitBytes(t *testing.T) {
	cfg := Default()
	cfg.StorageLimitGB = 2
	if got := cfg.StorageLimitBytes(); got != 2*1024*1024*1024 {
		t.Errorf("StorageLimitBytes = %d", got)
	}
}

func TestExtensionAllowed(t *testing.T) {
	cfg := Default()
	tests := []struct {
		name string
		want bool
	}{
		{"report.pdf", true},
		{"REPORT.PDF", true},
		{"archive.tar.gz", true},
		{"photo.jpeg", true},
		{"script.exe", false},
		{"noextension", false},
		{"trailingdot.", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := cfg.ExtensionAllowed(tt.name); got != tt.want {
			t.Errorf("ExtensionAllowed(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
