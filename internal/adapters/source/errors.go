package source

import "errors"

// Sentinel kinds for source errors.
var (
	ErrFetch             = errors.New("fetch users")
	ErrDecode            = errors.New("decode users")
	ErrUnsupportedFormat = errors.New("unsupported user file format")
	ErrUnknownSource     = errors.New("unknown source kind")
)
