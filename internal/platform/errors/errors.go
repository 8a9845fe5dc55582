package apperrors

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrUnknownApp       = errors.New("unknown app id")
	ErrCorruptState     = errors.New("corrupt persisted state")
	ErrValidationFailed = errors.New("validation failed")
	ErrWriterConflict   = errors.New("writer conflict")
	ErrWriterNotEnabled = errors.New("writer plugin is not configured")
)
