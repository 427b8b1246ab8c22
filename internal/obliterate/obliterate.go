// Package obliterate renames a target through a descending series of
// opaque names — so the directory slot holding its original name gets
// overwritten as many times as the filesystem allows — before unlinking it.
package obliterate

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/coreutils/goshred/internal/wipefs"
)

// Alphabet is the 69-character set names are built from: digits, both
// letter cases, and a handful of punctuation safe on every POSIX
// filesystem.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_+=%@#."

// ErrUnlinkFailed is returned when the final unlink fails, after the
// rename sequence (which fails silently and best-effort per length) has
// run to completion.
var ErrUnlinkFailed = errors.New("obliterate: cannot remove")

// ErrOpenDirFailed is returned when the containing directory can't be
// opened at all to hold across the rename sequence.
var ErrOpenDirFailed = errors.New("obliterate: cannot open containing directory")

// Renamed is called once per successful rename, so a verbose caller can
// print "<old>: renamed to <new>". from is the original (possibly
// directory-qualified) path on the very first call and the previous
// obliterated name afterward.
type Renamed func(from, to string)

// Wipe renames the file at path through shrinking opaque names, syncing
// the containing directory after each successful rename, then unlinks it.
// path is modified only on disk; the caller's copy is not mutated.
//
// The containing directory is opened exactly once for the whole sequence
// (per spec: one held descriptor, synced after each rename and after the
// final unlink, closed once at the end), rather than reopened for every
// sync.
func Wipe(fs wipefs.FS, path string, onRename Renamed) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	dirHandle, err := fs.OpenDir(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOpenDirFailed, dir, err)
	}
	defer dirHandle.Close()

	current := path

	for length := len(base); length > 0; length-- {
		candidate, ok := renameToShorterName(fs, dirHandle, dir, current, length, onRename)
		if ok {
			current = candidate
		}
	}

	if err := fs.Remove(current); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnlinkFailed, current, err)
	}

	_ = dirHandle.Sync()

	return nil
}

// renameToShorterName tries every name of the given length in alphabet
// order (skipping ones already taken) until a rename succeeds, or the
// alphabet is exhausted, or the rename syscall itself fails. It reports
// whether it moved the file, and if so to what new path.
func renameToShorterName(fs wipefs.FS, dirHandle wipefs.Dir, dir, current string, length int, onRename Renamed) (string, bool) {
	name := make([]byte, length)
	for i := range name {
		name[i] = Alphabet[0]
	}

	for {
		candidate := filepath.Join(dir, string(name))

		if _, err := fs.Lstat(candidate); err != nil {
			if err := fs.Rename(current, candidate); err != nil {
				// Give up on this length; move on to the next shorter one.
				return "", false
			}

			_ = dirHandle.Sync()

			if onRename != nil {
				onRename(current, candidate)
			}

			return candidate, true
		}

		// Candidate exists: advance to the next name of this length.
		if incrementName(name) {
			// Overflowed every name of this length without finding a
			// free one; move on to the next shorter length.
			return "", false
		}
	}
}

// incrementName treats name as a big-endian base-69 numeral over
// [Alphabet] and increments it in place. It returns true on overflow (the
// all-last-character name incrementing past the top of the range).
//
// Any byte not found in [Alphabet] sorts before Alphabet[0]: as the digit
// being incremented it advances to Alphabet[0] with no carry, and anywhere
// before that digit it is replaced by Alphabet[0].
func incrementName(name []byte) (overflow bool) {
	if len(name) == 0 {
		return true
	}

	i := len(name) - 1

	for j := 0; j < i; j++ {
		if strings.IndexByte(Alphabet, name[j]) < 0 {
			name[j] = Alphabet[0]
		}
	}

	idx := strings.IndexByte(Alphabet, name[i])

	if idx < 0 {
		name[i] = Alphabet[0]

		return false
	}

	if idx+1 < len(Alphabet) {
		name[i] = Alphabet[idx+1]

		return false
	}

	name[i] = Alphabet[0]

	return incrementName(name[:i])
}
