package common

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Error taxonomy used across the service. Handlers map these to HTTP status
// codes; everything unclassified is treated as internal.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrUnavailable = errors.New("storage unavailable")
)

// ClassifyStorageError translates storage-layer failures into the service
// taxonomy at the core boundary, so callers only ever see taxonomy errors.
func ClassifyStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrUnavailable
	default:
		return err
	}
}
