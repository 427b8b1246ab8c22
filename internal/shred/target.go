package shred

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/coreutils/goshred/internal/wipefs"
)

// devFDPrefix is the pseudo-path form the original parses by hand when a
// plain open fails: "/dev/fd/<N>" means "use descriptor N directly".
const devFDPrefix = "/dev/fd/"

// ResolveTarget opens spec for writing, applying the target forms §6
// documents: a bare pathname, "-" meaning standard output, or
// "/dev/fd/<N>" meaning descriptor N directly. force retries an EACCES open
// after chmod'ing the target to user-write-only, same as the CLI's -f flag.
//
// The returned path is what diagnostics and the name obliterator should
// use; for "-" and "/dev/fd/<N>" it is spec itself, since those have no
// obliterable directory entry.
func ResolveTarget(fs wipefs.FS, spec string, force bool) (wipefs.File, string, error) {
	if spec == "-" {
		return os.NewFile(1, "-"), spec, nil
	}

	if n, ok := parseDevFD(spec); ok {
		return os.NewFile(uintptr(n), spec), spec, nil
	}

	f, err := openForWriting(fs, spec, force)
	if err != nil {
		return nil, spec, err
	}

	return f, spec, nil
}

// parseDevFD reports whether spec is exactly "/dev/fd/<N>" for a decimal N,
// returning the parsed descriptor.
func parseDevFD(spec string) (int, bool) {
	rest, ok := strings.CutPrefix(spec, devFDPrefix)
	if !ok || rest == "" {
		return 0, false
	}

	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}

	return n, true
}

// openForWriting opens path O_WRONLY, retrying once after chmod if the
// open fails with EACCES and force is set.
func openForWriting(fs wipefs.FS, path string, force bool) (wipefs.File, error) {
	f, err := fs.OpenFile(path, os.O_WRONLY, 0)
	if err == nil {
		return f, nil
	}

	if force && os.IsPermission(err) {
		if chmodErr := os.Chmod(path, 0o200); chmodErr == nil {
			if f, retryErr := fs.OpenFile(path, os.O_WRONLY, 0); retryErr == nil {
				return f, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s: %w", errOpenFailed, path, err)
}
