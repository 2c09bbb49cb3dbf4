package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func testConfig() *Config {
	return &Config{
		BucketName:    "media",
		PublicBaseURL: "https://cdn.example",
		Enabled:       true,
		MaxBytes:      10 << 20,
		MaxWidth:      1600,
		JPEGQuality:   80,
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadDownsizesAndStoresJPEG(t *testing.T) {
	putter := &fakePutter{}
	svc := NewService(testConfig(), putter, nil)
	svc.now = func() time.Time { return time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC) }

	res, err := svc.Upload(context.Background(), "0xabc", "cover.png", bytes.NewReader(pngBytes(t, 3200, 400)))
	require.NoError(t, err)

	assert.Equal(t, 1600, res.Width)
	assert.Equal(t, 200, res.Height)
	assert.True(t, strings.HasPrefix(res.Key, "media/0xabc/2025/04/"))
	assert.Equal(t, "https://cdn.example/"+res.Key, res.URL)
	assert.Equal(t, "image/jpeg", aws.ToString(putter.input.ContentType))

	decoded, err := jpeg.Decode(bytes.NewReader(putter.body))
	require.NoError(t, err)
	assert.Equal(t, 1600, decoded.Bounds().Dx())
}

func TestUploadKeepsSmallImages(t *testing.T) {
	putter := &fakePutter{}
	res, err := NewService(testConfig(), putter, nil).Upload(context.Background(), "0xabc", "a.png", bytes.NewReader(pngBytes(t, 300, 200)))
	require.NoError(t, err)
	assert.Equal(t, 300, res.Width)
	assert.Nil(t, res.Metadata)
	assert.Nil(t, readMetadata(putter.body), "stored jpeg carries no exif")
}

func TestUploadRejects(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBytes = 1024
	svc := NewService(cfg, &fakePutter{}, nil)

	tests := []struct {
		name     string
		filename string
		body     []byte
	}{
		{"html disguised as png", "x.png", []byte("<html><script>alert(1)</script></html>")},
		{"svg extension", "x.svg", pngBytes(t, 4, 4)},
		{"too large", "x.png", bytes.Repeat([]byte{0}, 2048)},
		{"empty", "x.png", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), "0xabc", tt.filename, bytes.NewReader(tt.body))
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestObjectURL(t *testing.T) {
	cfg := &Config{BucketName: "b", Region: "eu-central-1"}
	assert.Equal(t, "https://b.s3.eu-central-1.amazonaws.com/k.jpg", cfg.ObjectURL("k.jpg"))
	cfg.EndpointURL = "http://minio:9000/"
	assert.Equal(t, "http://minio:9000/b/k.jpg", cfg.ObjectURL("k.jpg"))
}
