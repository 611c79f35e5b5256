package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound = errors.New("user not found")
)
