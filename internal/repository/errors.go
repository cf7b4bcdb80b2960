package repository

import "errors"

// ErrDuplicateKey surfaces a unique index violation without leaking the
// driver error type to callers.
var ErrDuplicateKey = errors.New("duplicate key")
