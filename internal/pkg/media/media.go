// Package media downsizes uploaded images and stores them in S3 compatible
// object storage.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
)

// ObjectPutter is the subset of *s3.Client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Result describes a stored image. Metadata is nil when the upload had no
// EXIF block.
type Result struct {
	URL      string    `json:"url"`
	Key      string    `json:"key"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Bytes    int       `json:"bytes"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

type Service struct {
	cfg *Config
	s3  ObjectPutter
	log *zap.Logger
	now func() time.Time
}

// NewS3Client builds the S3 client for cfg.
func NewS3Client(ctx context.Context, cfg *Config) (*s3.Client, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3 compatible providers (MinIO, B2) need path-style URLs
			o.UsePathStyle = true
		}
	}), nil
}

func NewService(cfg *Config, putter ObjectPutter, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{cfg: cfg, s3: putter, log: log, now: time.Now}
}

// Upload validates, downsizes and re-encodes an image as JPEG, then stores it
// under media/<owner>/YYYY/MM/<uuid>.jpg.
func (s *Service) Upload(ctx context.Context, owner, filename string, r io.Reader) (*Result, error) {
	raw, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(raw)) > s.cfg.MaxBytes {
		return nil, apperrors.Invalid("file", fmt.Sprintf("must be at most %d bytes", s.cfg.MaxBytes))
	}
	if len(raw) == 0 {
		return nil, apperrors.Invalid("file", "is empty")
	}

	head := raw
	if len(head) > 512 {
		head = head[:512]
	}
	if _, err := SniffImage(filename, head); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.Invalid("file", "image could not be decoded")
	}
	if img.Bounds().Dx() > s.cfg.MaxWidth {
		img = imaging.Resize(img, s.cfg.MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(s.cfg.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	now := s.now().UTC()
	key := fmt.Sprintf("media/%s/%04d/%02d/%s.jpg", owner, now.Year(), int(now.Month()), uuid.NewString())
	_, err = s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
		ContentType:   aws.String("image/jpeg"),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return nil, apperrors.Upstream("s3 put object", err)
	}

	s.log.Info("media uploaded", zap.String("key", key), zap.Int("bytes", buf.Len()))
	return &Result{
		URL:      s.cfg.ObjectURL(key),
		Key:      key,
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		Bytes:    buf.Len(),
		Metadata: readMetadata(raw),
	}, nil
}
