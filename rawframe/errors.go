package rawframe

import "errors"

var (
	ErrBadMagic           = errors.New("rawframe: bad magic")
	ErrUnsupportedVersion = errors.New("rawframe: unsupported version")
	ErrTruncated          = errors.New("rawframe: truncated")
	ErrCorrupt            = errors.New("rawframe: corrupt frame")
	ErrTooLarge           = errors.New("rawframe: frame too large")
	ErrInvalidLevel       = errors.New("rawframe: invalid compression level")
	ErrClosed             = errors.New("rawframe: codec closed")
)
