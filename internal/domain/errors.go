package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrJobExists       = errors.New("job already exists")
	ErrJobFinished     = errors.New("job already finished")
	ErrProviderFailure = errors.New("provider failure")
)
