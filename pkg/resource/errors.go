package resource

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var (
	ErrInvalidConfig   = errors.New("resource: invalid configuration")
	ErrInvalidPackage  = errors.New("resource: invalid package id")
	ErrPackageNotFound = errors.New("resource: package not found")
	ErrAccessDenied    = errors.New("resource: access denied")
	ErrReadFailed      = errors.New("resource: read failed")
)

// errNotFound marks missing S3 objects before they are turned into fs.ErrNotExist.
var errNotFound = errors.New("resource: object not found")

// wrapS3Error wraps S3 errors with the matching sentinel error.
// Uses %v for the original error so callers match sentinels, not AWS types.
func wrapS3Error(err error, fallback error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return fmt.Errorf("%w: %v", errNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %v", errNotFound, err)
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", errNotFound, err)
	}

	return fmt.Errorf("%w: %v", fallback, err)
}
