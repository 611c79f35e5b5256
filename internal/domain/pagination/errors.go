package pagination

import "errors"

// Sentinel kinds for pagination errors.
var (
	ErrInvalidPageSize  = errors.New("invalid page size")
	ErrInvalidPageIndex = errors.New("invalid page index")
)
