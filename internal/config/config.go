package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL string // TRELLIS_DATABASE_URL (required)
	HTTPAddr    string // TRELLIS_HTTP_ADDR (default ":8080")
	NATSURL     string // TRELLIS_NATS_URL (optional, empty = no events)
	AuthToken   string // TRELLIS_AUTH_TOKEN (optional, empty = auth disabled)

	// Archive settings
	ArchiveInterval   time.Duration // TRELLIS_ARCHIVE_INTERVAL (default 5m; 0 = disabled)
	ArchiveS3Bucket   string        // TRELLIS_ARCHIVE_S3_BUCKET (enables S3 when set)
	ArchiveS3Endpoint string        // TRELLIS_ARCHIVE_S3_ENDPOINT (custom endpoint for MinIO)
	ArchiveS3Region   string        // TRELLIS_ARCHIVE_S3_REGION (default "us-east-1")
	ArchiveS3Key      string        // TRELLIS_ARCHIVE_S3_KEY (default "trellis/archive.jsonl")
	ArchiveGitRepo    string        // TRELLIS_ARCHIVE_GIT_REPO (enables git when set; path to clone)
	ArchiveGitFile    string        // TRELLIS_ARCHIVE_GIT_FILE (default "trellis.jsonl")
	ArchiveGitBranch  string        // TRELLIS_ARCHIVE_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:       os.Getenv("TRELLIS_DATABASE_URL"),
		HTTPAddr:          envOrDefault("TRELLIS_HTTP_ADDR", ":8080"),
		NATSURL:           os.Getenv("TRELLIS_NATS_URL"),
		AuthToken:         os.Getenv("TRELLIS_AUTH_TOKEN"),
		ArchiveS3Bucket:   os.Getenv("TRELLIS_ARCHIVE_S3_BUCKET"),
		ArchiveS3Endpoint: os.Getenv("TRELLIS_ARCHIVE_S3_ENDPOINT"),
		ArchiveS3Region:   envOrDefault("TRELLIS_ARCHIVE_S3_REGION", "us-east-1"),
		ArchiveS3Key:      envOrDefault("TRELLIS_ARCHIVE_S3_KEY", "trellis/archive.jsonl"),
		ArchiveGitRepo:    os.Getenv("TRELLIS_ARCHIVE_GIT_REPO"),
		ArchiveGitFile:    envOrDefault("TRELLIS_ARCHIVE_GIT_FILE", "trellis.jsonl"),
		ArchiveGitBranch:  envOrDefault("TRELLIS_ARCHIVE_GIT_BRANCH", "main"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("TRELLIS_DATABASE_URL is required")
	}

	intervalStr := envOrDefault("TRELLIS_ARCHIVE_INTERVAL", "5m")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("TRELLIS_ARCHIVE_INTERVAL: %w", err)
		}
		c.ArchiveInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
