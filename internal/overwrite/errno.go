package overwrite

import (
	"errors"
	"syscall"
)

func isENOSPC(err error) bool {
	return err != nil && errors.Is(err, syscall.ENOSPC)
}

func isEIO(err error) bool {
	return err != nil && errors.Is(err, syscall.EIO)
}
