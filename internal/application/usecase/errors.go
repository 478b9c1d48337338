package usecase

import "errors"

// ErrInvalidRequest wraps request fields that fail to parse or validate.
var ErrInvalidRequest = errors.New("invalid request")
