package errors

import "errors"

var (
	ErrDataUnavailable   = errors.New("financial or inventory data unavailable")
	ErrDuplicateVideo    = errors.New("video already exists in inventory")
	ErrInvalidVideoInput = errors.New("invalid video input")
)
