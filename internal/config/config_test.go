package config

import (
	"testing"
	"time"
)

// clearAllEnv unsets every variable Load reads so tests see a clean slate.
// t.Setenv with an empty value also registers cleanup restoring the original.
func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TRELLIS_DATABASE_URL",
		"TRELLIS_HTTP_ADDR",
		"TRELLIS_NATS_URL",
		"TRELLIS_AUTH_TOKEN",
		"TRELLIS_ARCHIVE_INTERVAL",
		"TRELLIS_ARCHIVE_S3_BUCKET",
		"TRELLIS_ARCHIVE_S3_ENDPOINT",
		"TRELLIS_ARCHIVE_S3_REGION",
		"TRELLIS_ARCHIVE_S3_KEY",
		"TRELLIS_ARCHIVE_GIT_REPO",
		"TRELLIS_ARCHIVE_GIT_FILE",
		"TRELLIS_ARCHIVE_GIT_BRANCH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	clearAllEnv(t)

	if _, err := Load(); err == nil {
		t.Error("Load() with no TRELLIS_DATABASE_URL should return an error")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("TRELLIS_DATABASE_URL", "postgres://localhost/trellis")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.NATSURL != "" {
		t.Errorf("NATSURL = %q, want empty", cfg.NATSURL)
	}
	if cfg.AuthToken != "" {
		t.Errorf("AuthToken = %q, want empty", cfg.AuthToken)
	}
	if cfg.ArchiveInterval != 5*time.Minute {
		t.Errorf("ArchiveInterval = %v, want 5m", cfg.ArchiveInterval)
	}
	if cfg.ArchiveS3Region != "us-east-1" {
		t.Errorf("ArchiveS3Region = %q, want us-east-1", cfg.ArchiveS3Region)
	}
	if cfg.ArchiveS3Key != "trellis/archive.jsonl" {
		t.Errorf("ArchiveS3Key = %q, want trellis/archive.jsonl", cfg.ArchiveS3Key)
	}
	if cfg.ArchiveGitFile != "trellis.jsonl" {
		t.Errorf("ArchiveGitFile = %q, want trellis.jsonl", cfg.ArchiveGitFile)
	}
	if cfg.ArchiveGitBranch != "main" {
		t.Errorf("ArchiveGitBranch = %q, want main", cfg.ArchiveGitBranch)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("TRELLIS_DATABASE_URL", "postgres://db:5432/trellis")
	t.Setenv("TRELLIS_HTTP_ADDR", ":9090")
	t.Setenv("TRELLIS_NATS_URL", "nats://localhost:4222")
	t.Setenv("TRELLIS_AUTH_TOKEN", "secret")
	t.Setenv("TRELLIS_ARCHIVE_INTERVAL", "30s")
	t.Setenv("TRELLIS_ARCHIVE_S3_BUCKET", "my-bucket")
	t.Setenv("TRELLIS_ARCHIVE_S3_ENDPOINT", "http://minio:9000")
	t.Setenv("TRELLIS_ARCHIVE_GIT_REPO", "/srv/archive")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.DatabaseURL != "postgres://db:5432/trellis" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
	}
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Errorf("NATSURL = %q", cfg.NATSURL)
	}
	if cfg.AuthToken != "secret" {
		t.Errorf("AuthToken = %q", cfg.AuthToken)
	}
	if cfg.ArchiveInterval != 30*time.Second {
		t.Errorf("ArchiveInterval = %v, want 30s", cfg.ArchiveInterval)
	}
	if cfg.ArchiveS3Bucket != "my-bucket" {
		t.Errorf("ArchiveS3Bucket = %q", cfg.ArchiveS3Bucket)
	}
	if cfg.ArchiveS3Endpoint != "http://minio:9000" {
		t.Errorf("ArchiveS3Endpoint = %q", cfg.ArchiveS3Endpoint)
	}
	if cfg.ArchiveGitRepo != "/srv/archive" {
		t.Errorf("ArchiveGitRepo = %q", cfg.ArchiveGitRepo)
	}
}

func TestLoad_InvalidArchiveInterval(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("TRELLIS_DATABASE_URL", "postgres://localhost/trellis")
	t.Setenv("TRELLIS_ARCHIVE_INTERVAL", "not-a-duration")

	if _, err := Load(); err == nil {
		t.Error("Load() with invalid TRELLIS_ARCHIVE_INTERVAL should return an error")
	}
}

func TestLoad_ArchiveDisabled(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("TRELLIS_DATABASE_URL", "postgres://localhost/trellis")
	t.Setenv("TRELLIS_ARCHIVE_INTERVAL", "0s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.ArchiveInterval != 0 {
		t.Errorf("ArchiveInterval = %v, want 0", cfg.ArchiveInterval)
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("TRELLIS_TEST_KEY", "")
	if got := envOrDefault("TRELLIS_TEST_KEY", "fallback"); got != "fallback" {
		t.Errorf("envOrDefault with empty var = %q, want fallback", got)
	}
	t.Setenv("TRELLIS_TEST_KEY", "value")
	if got := envOrDefault("TRELLIS_TEST_KEY", "fallback"); got != "value" {
		t.Errorf("envOrDefault with set var = %q, want value", got)
	}
}
