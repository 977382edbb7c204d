package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrQueryTooShort = errors.New("search term must be at least 3 characters")
)
