package media

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var allowedMime = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// SniffImage checks the filename extension and the first bytes against the
// accepted image types and returns the detected mime type.
func SniffImage(filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", apperrors.Invalid("file", "only JPG, PNG, GIF and WEBP images are supported")
	}

	detected := http.DetectContentType(head)
	// SVG and HTML are scriptable; never accept them whatever the extension says.
	if strings.HasPrefix(detected, "text/") || strings.Contains(detected, "xml") {
		return "", apperrors.Invalid("file", "file content is not an image")
	}
	if !allowedMime[detected] {
		return "", apperrors.Invalid("file", "unsupported image type "+detected)
	}
	return detected, nil
}
