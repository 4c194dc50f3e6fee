package domain

import "errors"

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrCredentialNotFound = errors.New("credentials not found")
	ErrEmptyInput         = errors.New("import input is empty")
	ErrUnrecognizedFormat = errors.New("unrecognized import format")
	ErrUnsupportedFormat  = errors.New("unsupported import format")
	ErrDuplicateAccount   = errors.New("account already exists")
)
