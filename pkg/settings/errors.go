package settings

import "errors"

var (
	// ErrNotFound is returned when a path does not resolve to a value.
	ErrNotFound = errors.New("settings: path not found")
	// ErrInvalidFile is returned when a settings file cannot be parsed.
	ErrInvalidFile = errors.New("settings: invalid file")
	// ErrDecodeFailed is returned when a value cannot be decoded into the target.
	ErrDecodeFailed = errors.New("settings: decode failed")
)
