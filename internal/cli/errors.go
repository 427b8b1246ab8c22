package cli

import "errors"

var (
	errInvalidSize    = errors.New("invalid size")
	errNoTargets      = errors.New("missing target")
	errUnknownCommand = errors.New("unknown argument")
)
