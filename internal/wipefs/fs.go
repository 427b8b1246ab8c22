// Package wipefs provides the filesystem abstraction the overwrite and name
// obliteration passes run against.
//
// The main types are:
//   - [FS]: interface for the filesystem operations a wipe needs
//   - [File]: interface for an open file (satisfied by [os.File])
//   - [Real]: production implementation using the [os] package and raw
//     syscalls for block-device queries and durability
//   - [Chaos]: testing implementation that injects faults matching the
//     failure modes a wipe must tolerate (partial writes, EIO, ENOSPC)
package wipefs

import (
	"io"
	"os"
)

// File represents an open file descriptor.
//
// This interface is satisfied by [os.File] and by anything wrapping it, so
// standard library helpers that accept [io.Reader], [io.Writer],
// [io.Seeker], or [io.Closer] work unmodified.
type File interface {
	io.ReadWriteCloser
	io.Seeker

	// Fd returns the file descriptor. Used for low-level operations
	// (fdatasync, ioctl, fcntl) that have no [os.File] equivalent.
	Fd() uintptr

	// Stat returns the [os.FileInfo] for this file. See [os.File.Stat].
	Stat() (os.FileInfo, error)

	// Sync calls fsync. See [os.File.Sync]. The overwrite pass prefers
	// [FS.Fdatasync] when available and falls back to this.
	Sync() error
}

// FS defines the filesystem operations a wipe needs: opening and mutating
// the target, discovering its geometry, and forcing data to stable storage.
//
// Two implementations are provided:
//   - [Real]: production use, wraps [os] and golang.org/x/sys/unix
//   - [Chaos]: testing use, injects random failures
type FS interface {
	// Open opens a file for reading. See [os.Open].
	Open(path string) (File, error)

	// OpenFile opens a file with specified flags and permissions. See
	// [os.OpenFile].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// Stat returns file info for path. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Lstat returns file info for path without following a trailing
	// symlink. See [os.Lstat]. The name obliterator uses this to probe
	// candidate names, since a dangling symlink must still count as "name
	// taken".
	Lstat(path string) (os.FileInfo, error)

	// Remove deletes a file. See [os.Remove]. Called only after the target
	// has already been renamed down to its final obliterated name.
	Remove(path string) error

	// Rename moves/renames a file. See [os.Rename]. Used by the name
	// obliterator to walk a target through a sequence of shrinking names.
	Rename(oldpath, newpath string) error

	// Truncate changes the size of the named file. See [os.Truncate]. Used
	// to deallocate a regular file's blocks before the final unlink.
	Truncate(path string, size int64) error

	// Fdatasync forces f's data (and, where the platform requires it,
	// enough metadata to retrieve it) to stable storage. Implementations
	// should prefer fdatasync over fsync where the platform distinguishes
	// them, since a wipe cares about data durability, not metadata like
	// mtime.
	Fdatasync(f File) error

	// BlockSize reports the preferred I/O block size for f, e.g. from
	// statfs(2)'s f_bsize. Used to round a wipe's working size up to a
	// full block on regular files.
	BlockSize(f File) (int64, error)

	// IsAppendOnly reports whether f was opened, or the underlying inode
	// is marked, append-only — a target a wipe must refuse to overwrite
	// in place.
	IsAppendOnly(f File) (bool, error)

	// OpenDir obtains a held descriptor on the directory at path, to be
	// synced repeatedly and closed once by the caller. Name obliteration
	// opens its target's parent directory exactly once this way, rather
	// than reopening it before every sync. Implementations should never
	// fail outright; if the directory itself can't be opened, the returned
	// [Dir] should fall back to the broadest durability primitive
	// available (e.g. a whole-filesystem sync(2)) on every call to Sync.
	OpenDir(path string) (Dir, error)
}

// Dir is a held descriptor on a directory, synced after each mutation made
// inside it (rename, unlink) and closed once the sequence of mutations is
// done.
type Dir interface {
	// Sync forces the directory to stable storage. Implementations should
	// fall back from fdatasync to fsync to a whole-filesystem sync(2) if
	// the directory can't be synced directly.
	Sync() error

	// Close releases the held descriptor.
	Close() error
}

// Compile-time interface check.
var _ File = (*os.File)(nil)
