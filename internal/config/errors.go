package config

import "errors"

var (
	// ErrInvalidConfig marks a userboard setting that failed Validate.
	ErrInvalidConfig = errors.New("invalid userboard config")
	// ErrLoadConfig marks a failure reading the USERBOARD_CONFIG file or
	// the USERBOARD_ environment.
	ErrLoadConfig = errors.New("load userboard config")
)
