package service

import "errors"

// ErrNoSource is returned when the service has no user source configured.
var ErrNoSource = errors.New("no user source configured")
