package fieldrepo

import "errors"

// ErrNotFound indicates the requested profile field does not exist.
var ErrNotFound = errors.New("profile field not found")
