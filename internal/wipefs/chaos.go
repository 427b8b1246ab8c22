package wipefs

import (
	"errors"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
)

// ChaosConfig controls fault injection probabilities for [Chaos]. Each rate
// is a float64 from 0.0 (never) to 1.0 (always). The zero value disables
// all injection.
type ChaosConfig struct {
	// OpenFailRate controls how often Open/OpenFile fail. Returns EACCES,
	// EIO, EMFILE, ENFILE, or ENOTDIR, whatever the open flags.
	OpenFailRate float64

	// WriteFailRate controls how often File.Write fails entirely. Returns
	// EIO, ENOSPC, EDQUOT, or EROFS — the errors an overwrite pass's
	// size-discovery and EIO-skip logic must handle.
	WriteFailRate float64

	// PartialWriteRate controls how often File.Write writes only a prefix
	// of p before failing, returning n > 0 with a non-nil error.
	PartialWriteRate float64

	// ShortWriteRate controls what fraction of partial writes report
	// [io.ErrShortWrite] (no errno) rather than an errno-style error.
	ShortWriteRate float64

	// SyncFailRate controls how often Fdatasync and File.Sync fail.
	// Returns EIO, ENOSPC, EDQUOT, or EROFS.
	SyncFailRate float64

	// RenameFailRate controls how often Rename fails during name
	// obliteration. Returns EACCES, EIO, ENOSPC, EXDEV, EROFS, or EPERM.
	RenameFailRate float64

	// TruncateFailRate controls how often Truncate fails. Returns EIO,
	// ENOSPC, EROFS, or EPERM.
	TruncateFailRate float64

	// CloseFailRate controls how often File.Close reports an error. The
	// underlying descriptor is always closed regardless, to avoid leaks.
	CloseFailRate float64
}

// ChaosMode controls how [Chaos] behaves.
type ChaosMode uint8

const (
	// ChaosModeActive injects faults according to [ChaosConfig]. Default.
	ChaosModeActive ChaosMode = iota

	// ChaosModeNoOp passes every call straight through to the wrapped FS.
	ChaosModeNoOp
)

// ChaosStats counts injected faults.
type ChaosStats struct {
	OpenFails     int64
	WriteFails    int64
	PartialWrites int64
	SyncFails     int64
	RenameFails   int64
	TruncateFails int64
	CloseFails    int64
}

// ChaosError marks an error as intentionally injected by [Chaos]. It wraps
// the underlying error so [errors.Is]/[errors.As] keep working.
type ChaosError struct {
	Err error
}

func (e *ChaosError) Error() string { return "chaos: " + e.Err.Error() }
func (e *ChaosError) Unwrap() error { return e.Err }

// IsChaosErr reports whether err (or anything it wraps) was injected.
func IsChaosErr(err error) bool {
	var injected *ChaosError

	return errors.As(err, &injected)
}

// Chaos wraps an [FS] and injects random failures matching the faults a
// wipe must tolerate: partial writes, EIO mid-pass, ENOSPC discovered by a
// short write, and fsync failures that can surface a delayed write error.
//
// It does not maintain per-path sticky fault state: each call independently
// decides whether to inject. BlockSize and IsAppendOnly are passed straight
// through, since their correctness is geometry the tests set up
// deliberately rather than a fault worth injecting at random.
type Chaos struct {
	fs     FS
	rng    *rand.Rand
	config ChaosConfig
	mode   atomic.Uint32

	rngMu sync.Mutex

	openFails     atomic.Int64
	writeFails    atomic.Int64
	partialWrites atomic.Int64
	syncFails     atomic.Int64
	renameFails   atomic.Int64
	truncateFails atomic.Int64
	closeFails    atomic.Int64
}

// NewChaos wraps fs, seeding the injection RNG with seed for reproducible
// test runs. Panics if fs is nil.
func NewChaos(wrapped FS, seed int64, config ChaosConfig) *Chaos {
	if wrapped == nil {
		panic("wipefs: NewChaos: fs is nil")
	}

	return &Chaos{
		fs:     wrapped,
		rng:    rand.New(rand.NewSource(seed)),
		config: config,
	}
}

// SetMode updates behavior. Safe to call concurrently with filesystem ops.
func (c *Chaos) SetMode(m ChaosMode) { c.mode.Store(uint32(m)) }

// Stats returns the current fault injection counts.
func (c *Chaos) Stats() ChaosStats {
	return ChaosStats{
		OpenFails:     c.openFails.Load(),
		WriteFails:    c.writeFails.Load(),
		PartialWrites: c.partialWrites.Load(),
		SyncFails:     c.syncFails.Load(),
		RenameFails:   c.renameFails.Load(),
		TruncateFails: c.truncateFails.Load(),
		CloseFails:    c.closeFails.Load(),
	}
}

func (c *Chaos) chaosMode() ChaosMode { return ChaosMode(c.mode.Load()) }

func (c *Chaos) should(mode ChaosMode, rate float64) bool {
	if mode != ChaosModeActive {
		return false
	}

	c.rngMu.Lock()
	v := c.rng.Float64()
	c.rngMu.Unlock()

	return v < rate
}

func (c *Chaos) randIntn(n int) int {
	c.rngMu.Lock()
	v := c.rng.Intn(n)
	c.rngMu.Unlock()

	return v
}

func (c *Chaos) pickRandom(errs []syscall.Errno) syscall.Errno {
	return errs[c.randIntn(len(errs))]
}

func pathError(op, path string, errno syscall.Errno) error {
	return &ChaosError{Err: &fs.PathError{Op: op, Path: path, Err: errno}}
}

func linkError(op, oldpath, newpath string, errno syscall.Errno) error {
	return &ChaosError{Err: &os.LinkError{Op: op, Old: oldpath, New: newpath, Err: errno}}
}

func (c *Chaos) Open(path string) (File, error) {
	return c.openWithChaos(path, func() (File, error) { return c.fs.Open(path) })
}

func (c *Chaos) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	return c.openWithChaos(path, func() (File, error) { return c.fs.OpenFile(path, flag, perm) })
}

func (c *Chaos) openWithChaos(path string, openFn func() (File, error)) (File, error) {
	mode := c.chaosMode()
	if mode == ChaosModeNoOp {
		f, err := openFn()
		if err != nil {
			return nil, err
		}

		return &chaosFile{f: f, chaos: c, path: path}, nil
	}

	if c.should(mode, c.config.OpenFailRate) {
		c.openFails.Add(1)
		errno := c.pickRandom([]syscall.Errno{
			syscall.EACCES, syscall.EIO, syscall.EMFILE, syscall.ENFILE, syscall.ENOTDIR,
		})

		return nil, pathError("open", path, errno)
	}

	f, err := openFn()
	if err != nil {
		return nil, err
	}

	return &chaosFile{f: f, chaos: c, path: path}, nil
}

func (c *Chaos) Stat(path string) (os.FileInfo, error) {
	return c.fs.Stat(path)
}

func (c *Chaos) Lstat(path string) (os.FileInfo, error) {
	return c.fs.Lstat(path)
}

func (c *Chaos) Remove(path string) error {
	return c.fs.Remove(path)
}

func (c *Chaos) Rename(oldpath, newpath string) error {
	mode := c.chaosMode()
	if mode == ChaosModeNoOp {
		return c.fs.Rename(oldpath, newpath)
	}

	if c.should(mode, c.config.RenameFailRate) {
		c.renameFails.Add(1)
		errno := c.pickRandom([]syscall.Errno{
			syscall.EACCES, syscall.EIO, syscall.ENOSPC, syscall.EXDEV, syscall.EROFS, syscall.EPERM,
		})

		return linkError("rename", oldpath, newpath, errno)
	}

	return c.fs.Rename(oldpath, newpath)
}

func (c *Chaos) Truncate(path string, size int64) error {
	mode := c.chaosMode()
	if mode == ChaosModeNoOp {
		return c.fs.Truncate(path, size)
	}

	if c.should(mode, c.config.TruncateFailRate) {
		c.truncateFails.Add(1)
		errno := c.pickRandom([]syscall.Errno{syscall.EIO, syscall.ENOSPC, syscall.EROFS, syscall.EPERM})

		return pathError("truncate", path, errno)
	}

	return c.fs.Truncate(path, size)
}

func (c *Chaos) Fdatasync(f File) error {
	cf, ok := f.(*chaosFile)
	if !ok {
		return c.fs.Fdatasync(f)
	}

	mode := c.chaosMode()
	if mode == ChaosModeNoOp {
		return c.fs.Fdatasync(cf.f)
	}

	if c.should(mode, c.config.SyncFailRate) {
		c.syncFails.Add(1)
		errno := c.pickRandom([]syscall.Errno{syscall.EIO, syscall.ENOSPC, syscall.EDQUOT, syscall.EROFS})

		return pathError("fdatasync", cf.path, errno)
	}

	return c.fs.Fdatasync(cf.f)
}

func (c *Chaos) BlockSize(f File) (int64, error) {
	if cf, ok := f.(*chaosFile); ok {
		return c.fs.BlockSize(cf.f)
	}

	return c.fs.BlockSize(f)
}

func (c *Chaos) IsAppendOnly(f File) (bool, error) {
	if cf, ok := f.(*chaosFile); ok {
		return c.fs.IsAppendOnly(cf.f)
	}

	return c.fs.IsAppendOnly(f)
}

func (c *Chaos) OpenDir(path string) (Dir, error) {
	mode := c.chaosMode()
	if mode == ChaosModeNoOp {
		return c.fs.OpenDir(path)
	}

	d, err := c.fs.OpenDir(path)
	if err != nil {
		return nil, err
	}

	return &chaosDir{d: d, chaos: c, path: path}, nil
}

// chaosDir wraps a [Dir] and injects the same sync faults [chaosFile.Sync]
// does, so obliteration's directory-durability fallback chain gets
// exercised exactly like a regular file's.
type chaosDir struct {
	d     Dir
	chaos *Chaos
	path  string
}

var _ Dir = (*chaosDir)(nil)

func (cd *chaosDir) Sync() error {
	mode := cd.chaos.chaosMode()
	if mode == ChaosModeNoOp {
		return cd.d.Sync()
	}

	if cd.chaos.should(mode, cd.chaos.config.SyncFailRate) {
		cd.chaos.syncFails.Add(1)
		errno := cd.chaos.pickRandom([]syscall.Errno{syscall.EIO, syscall.ENOSPC, syscall.EDQUOT, syscall.EROFS})

		return pathError("fsync", cd.path, errno)
	}

	return cd.d.Sync()
}

func (cd *chaosDir) Close() error {
	return cd.d.Close()
}

// chaosFile wraps a [File] and injects write/sync/close faults.
type chaosFile struct {
	f     File
	chaos *Chaos
	path  string
}

var _ File = (*chaosFile)(nil)

func (cf *chaosFile) Read(p []byte) (int, error) {
	return cf.f.Read(p)
}

func (cf *chaosFile) Write(p []byte) (int, error) {
	mode := cf.chaos.chaosMode()
	if mode == ChaosModeNoOp {
		return cf.f.Write(p)
	}

	if cf.chaos.should(mode, cf.chaos.config.WriteFailRate) {
		cf.chaos.writeFails.Add(1)
		errno := cf.chaos.pickRandom([]syscall.Errno{
			syscall.EIO, syscall.ENOSPC, syscall.EDQUOT, syscall.EROFS,
		})

		return 0, pathError("write", cf.path, errno)
	}

	if cf.chaos.should(mode, cf.chaos.config.PartialWriteRate) && len(p) > 1 {
		cf.chaos.partialWrites.Add(1)
		cutoff := cf.chaos.randIntn(len(p)-1) + 1

		n, err := cf.f.Write(p[:cutoff])
		if err != nil {
			return n, err
		}

		if cf.chaos.should(mode, cf.chaos.config.ShortWriteRate) {
			return n, &ChaosError{Err: io.ErrShortWrite}
		}

		errno := cf.chaos.pickRandom([]syscall.Errno{syscall.EIO, syscall.ENOSPC, syscall.EDQUOT, syscall.EROFS})

		return n, pathError("write", cf.path, errno)
	}

	return cf.f.Write(p)
}

func (cf *chaosFile) Close() error {
	mode := cf.chaos.chaosMode()
	if mode == ChaosModeNoOp {
		return cf.f.Close()
	}

	injectClose := cf.chaos.should(mode, cf.chaos.config.CloseFailRate)

	if err := cf.f.Close(); err != nil {
		return err
	}

	if injectClose {
		cf.chaos.closeFails.Add(1)

		return pathError("close", cf.path, syscall.EIO)
	}

	return nil
}

func (cf *chaosFile) Seek(offset int64, whence int) (int64, error) {
	return cf.f.Seek(offset, whence)
}

func (cf *chaosFile) Fd() uintptr { return cf.f.Fd() }

func (cf *chaosFile) Stat() (os.FileInfo, error) { return cf.f.Stat() }

func (cf *chaosFile) Sync() error {
	mode := cf.chaos.chaosMode()
	if mode == ChaosModeNoOp {
		return cf.f.Sync()
	}

	if cf.chaos.should(mode, cf.chaos.config.SyncFailRate) {
		cf.chaos.syncFails.Add(1)
		errno := cf.chaos.pickRandom([]syscall.Errno{syscall.EIO, syscall.ENOSPC, syscall.EDQUOT, syscall.EROFS})

		return pathError("fsync", cf.path, errno)
	}

	return cf.f.Sync()
}

var _ FS = (*Chaos)(nil)
