package logging

import "errors"

// ErrInvalidLevel indicates an unrecognized log level name.
var ErrInvalidLevel = errors.New("logging: invalid log level")
