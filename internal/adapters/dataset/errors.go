package dataset

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrOpen              = errors.New("dataset open failed")
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrMissingField      = errors.New("missing dataset field")
	ErrInvalidValue      = errors.New("invalid dataset value")
	ErrDuplicateColumn   = errors.New("duplicate dataset column")
	ErrClosed            = errors.New("dataset closed")
	ErrUnknownConvention = errors.New("unknown field convention")
)
