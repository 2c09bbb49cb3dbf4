package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
)

// notFound translates gorm's missing-row error into the app taxonomy.
func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource)
	}
	return err
}
