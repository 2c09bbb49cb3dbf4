package controllers

import (
	"context"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
	"github.com/ManuelReschke/TierFox/internal/pkg/media"
)

type Uploader interface {
	Upload(ctx context.Context, owner, filename string, r io.Reader) (*media.Result, error)
}

// MediaController accepts image uploads for avatars and post images. A nil
// uploader means media storage is disabled.
type MediaController struct {
	uploader Uploader
}

func NewMediaController(uploader Uploader) *MediaController {
	return &MediaController{uploader: uploader}
}

func (mc *MediaController) HandleUpload(c *fiber.Ctx) error {
	if mc.uploader == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":   "media_disabled",
			"message": "media uploads are not enabled",
		})
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return respondError(c, apperrors.Invalid("file", "is required"))
	}
	f, err := fh.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer f.Close()

	res, err := mc.uploader.Upload(c.UserContext(), callerAddress(c), fh.Filename, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}
