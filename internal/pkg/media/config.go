package media

import (
	"errors"
	"strings"

	"github.com/ManuelReschke/TierFox/internal/pkg/env"
)

// Config holds S3 media storage configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	PublicBaseURL   string // Optional CDN or bucket website URL
	Enabled         bool
	MaxBytes        int64
	MaxWidth        int
	JPEGQuality     int
}

// LoadConfig loads media configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   strings.TrimRight(env.GetEnv("S3_PUBLIC_BASE_URL", ""), "/"),
		Enabled:         env.GetEnvBool("S3_ENABLED", false),
		MaxBytes:        int64(env.GetEnvInt("MEDIA_MAX_BYTES", 10<<20)),
		MaxWidth:        env.GetEnvInt("MEDIA_MAX_WIDTH", 1600),
		JPEGQuality:     env.GetEnvInt("MEDIA_JPEG_QUALITY", 85),
	}

	if cfg.Enabled {
		if cfg.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when S3 is enabled")
		}
		if cfg.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when S3 is enabled")
		}
		if cfg.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when S3 is enabled")
		}
	}
	return cfg, nil
}

// ObjectURL is the public URL of an uploaded object.
func (c *Config) ObjectURL(key string) string {
	switch {
	case c.PublicBaseURL != "":
		return c.PublicBaseURL + "/" + key
	case c.EndpointURL != "":
		return strings.TrimRight(c.EndpointURL, "/") + "/" + c.BucketName + "/" + key
	default:
		return "https://" + c.BucketName + ".s3." + c.Region + ".amazonaws.com/" + key
	}
}
