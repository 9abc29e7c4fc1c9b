package metadata

import "errors"

var (
	ErrInvalidDescriptor = errors.New("invalid resource descriptor")
	ErrUnsupportedFormat = errors.New("unsupported format")
)
