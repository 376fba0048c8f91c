// Package logging builds the leveled terminal logger shared by daoverse
// components.
package logging

import (
	"fmt"
	"strings"

	"github.com/mborders/logmatic"
)

// ParseLevel maps a config log level string to a logmatic level.
func ParseLevel(level string) (logmatic.LogLevel, error) {
	switch strings.ToLower(level) {
	case "trace":
		return logmatic.TRACE, nil
	case "debug":
		return logmatic.DEBUG, nil
	case "info", "":
		return logmatic.INFO, nil
	case "warn":
		return logmatic.WARN, nil
	case "error":
		return logmatic.ERROR, nil
	default:
		return logmatic.INFO, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}
}

// New returns a logger writing at the given level. Fatal messages never
// exit the process; callers receive errors instead.
func New(level string) (*logmatic.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	l := logmatic.NewLogger()
	l.SetLevel(lvl)
	l.ExitOnFatal = false
	return l, nil
}
