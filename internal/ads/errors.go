package ads

import "errors"

// ErrAdNotFound is returned for missing ads and for ads the caller may not modify.
var ErrAdNotFound = errors.New("ad not found")
