package catalog

import "errors"

// ErrCacheMiss is returned when the key is absent or expired.
var ErrCacheMiss = errors.New("catalog cache: miss")
