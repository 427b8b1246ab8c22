package shred

import "errors"

var (
	errInvalidFileType = errors.New("invalid file type")
	errAppendOnly      = errors.New("cannot shred append-only file descriptor")
	errOpenFailed      = errors.New("cannot open for writing")
	errTruncateFailed  = errors.New("cannot truncate")
	errUsagePassCount  = errors.New("number of passes must be at least 1")
)
