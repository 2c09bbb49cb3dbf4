package media

import (
	"bytes"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

func init() {
	// Register Nikon and Canon maker notes
	exif.RegisterParsers(mknote.All...)
}

// Metadata is what the original upload carried in EXIF. The stored JPEG is
// re-encoded without any of it, so HadLocation tells the client that GPS
// coordinates were removed.
type Metadata struct {
	CameraModel string     `json:"cameraModel,omitempty"`
	TakenAt     *time.Time `json:"takenAt,omitempty"`
	HadLocation bool       `json:"hadLocation"`
}

// readMetadata returns nil for images without EXIF.
func readMetadata(raw []byte) *Metadata {
	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil
	}

	md := &Metadata{}
	if m, err := x.Get(exif.Model); err == nil {
		md.CameraModel = strings.TrimSpace(strings.Trim(m.String(), `"`))
	}
	if dt, err := x.DateTime(); err == nil {
		md.TakenAt = &dt
	}
	if _, _, err := x.LatLong(); err == nil {
		md.HadLocation = true
	}
	return md
}
