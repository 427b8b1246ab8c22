// Package shred drives the full wipe of one target: resolving it, building
// an ISAAC-seeded pass plan, running the overwrite passes, and — if
// requested — obliterating its name. It is the only package that imports
// all four core subsystems.
package shred

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/coreutils/goshred/internal/isaac"
	"github.com/coreutils/goshred/internal/obliterate"
	"github.com/coreutils/goshred/internal/overwrite"
	"github.com/coreutils/goshred/internal/passplan"
	"github.com/coreutils/goshred/internal/wipefs"
)

// WipeTarget overwrites and, if requested, removes the single target named
// by spec. It owns the full lifetime of one CSPRNG state and one pass plan,
// zeroing both on every exit path.
func WipeTarget(wfs wipefs.FS, entropy isaac.EntropySources, spec string, opts Options, diag Diag) error {
	if diag == nil {
		diag = NopDiag{}
	}

	if opts.Passes < 1 {
		err := fmt.Errorf("%w: got %d", errUsagePassCount, opts.Passes)
		diag.Error(spec, err)

		return err
	}

	f, path, err := ResolveTarget(wfs, spec, opts.ForceWritable)
	if err != nil {
		diag.Error(spec, err)

		return err
	}
	defer f.Close()

	if err := checkTargetType(wfs, f, path); err != nil {
		diag.Error(path, err)

		return err
	}

	state := &isaac.State{}
	state.Seed(entropy)

	defer state.Zero()

	rng := isaac.NewRand(state)

	plan, err := passplan.Build(opts.Passes, rng)
	if err != nil {
		diag.Error(path, err)

		return err
	}

	defer passplan.Zero(plan)

	size, err := determineSize(wfs, f, opts)
	if err != nil {
		diag.Error(path, err)

		return err
	}

	reportCount := opts.Passes
	if opts.AppendZeroPass {
		reportCount++
	}

	for i, code := range plan {
		newSize, perr := overwrite.Pass(wfs, f, size, code, rng, i+1, reportCount, progressFunc(diag, path, opts.Verbose))
		if perr != nil {
			passplan.Zero(plan)
			diag.Error(path, perr)

			return perr
		}

		size = newSize
	}

	if opts.AppendZeroPass {
		newSize, perr := overwrite.Pass(wfs, f, size, passplan.Code(0x000), rng, opts.Passes+1, reportCount, progressFunc(diag, path, opts.Verbose))
		if perr != nil {
			diag.Error(path, perr)

			return perr
		}

		size = newSize
	}

	if opts.RemoveAfter {
		return removeTarget(wfs, f, path, diag)
	}

	return nil
}

// progressFunc adapts [Diag.Progress] into the shape [overwrite.Pass]
// expects, or returns nil when not verbose (so Pass skips the work of
// formatting a line nobody will see).
func progressFunc(diag Diag, path string, verbose bool) overwrite.Progress {
	if !verbose {
		return nil
	}

	return func(passIndex, passCount int, label string, offset, size int64) {
		diag.Progress(path, passIndex, passCount, label, offset, size)
	}
}

// checkTargetType rejects TTYs, FIFOs, sockets, and directories, and
// append-only descriptors, before any data is written — avoiding the
// infinite rewind loop an un-seekable target would otherwise cause.
func checkTargetType(wfs wipefs.FS, f wipefs.File, path string) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %s: fstat: %w", errInvalidFileType, path, err)
	}

	mode := info.Mode()

	switch {
	case mode&fs.ModeNamedPipe != 0, mode&fs.ModeSocket != 0, mode.IsDir():
		return fmt.Errorf("%w: %s", errInvalidFileType, path)

	case mode&fs.ModeCharDevice != 0 && isTTY(f.Fd()):
		return fmt.Errorf("%w: %s", errInvalidFileType, path)
	}

	appendOnly, err := wfs.IsAppendOnly(f)
	if err != nil {
		return nil // inability to query append-only is not itself fatal
	}

	if appendOnly {
		return fmt.Errorf("%w: %s", errAppendOnly, path)
	}

	return nil
}

// determineSize follows spec.md §4.3 exactly: an explicit size always
// wins; a regular file uses its reported length (rounded up to the block
// size unless ExactSize); anything else falls back to SEEK_END, and
// SEEK_END <= 0 means "unknown", discovered later from a short write.
// Per §9's resolved open question, a device's ioctl-reported size is
// deliberately not consulted here even when st_size is zero.
func determineSize(wfs wipefs.FS, f wipefs.File, opts Options) (int64, error) {
	if opts.Size != nil {
		return *opts.Size, nil
	}

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("fstat: %w", err)
	}

	if info.Mode().IsRegular() {
		size := info.Size()
		if size < 0 {
			return 0, fmt.Errorf("%s: file has negative size", info.Name())
		}

		if opts.ExactSize {
			return size, nil
		}

		return roundUpToBlock(wfs, f, size)
	}

	end, err := f.Seek(0, io.SeekEnd)
	if err != nil || end <= 0 {
		return overwrite.UnknownSize, nil
	}

	return end, nil
}

func roundUpToBlock(wfs wipefs.FS, f wipefs.File, size int64) (int64, error) {
	block, err := wfs.BlockSize(f)
	if err != nil || block <= 0 {
		return size, nil
	}

	rounded := size + block - 1 - (size-1)%block
	if rounded < 0 {
		return int64(1)<<63 - 1, nil // saturate, matching the original's TYPE_MAXIMUM(off_t) clamp
	}

	return rounded, nil
}

// removeTarget truncates a regular file to zero length, then hands off to
// the name obliterator. A truncation failure on a regular file aborts the
// target instead of proceeding to rename/unlink — matching the original's
// do_wipefd, which refuses to remove a file it could not first deallocate.
// Non-regular targets (character/block devices) skip truncation entirely,
// since it would be meaningless there.
func removeTarget(wfs wipefs.FS, f wipefs.File, path string, diag Diag) error {
	if info, err := f.Stat(); err == nil && info.Mode().IsRegular() {
		if err := wfs.Truncate(path, 0); err != nil {
			werr := fmt.Errorf("%w: %s: %w", errTruncateFailed, path, err)
			diag.Error(path, werr)

			return werr
		}
	}

	err := obliterate.Wipe(wfs, path, diag.Renamed)
	if err != nil {
		diag.Error(path, err)

		return err
	}

	return nil
}
