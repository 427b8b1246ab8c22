package obliterate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/coreutils/goshred/internal/wipefs"
	"github.com/stretchr/testify/require"
)

// fakeDirFS implements just enough of [wipefs.FS] to drive Wipe against an
// in-memory directory listing, so tests don't need a real filesystem.
type fakeDirFS struct {
	entries      map[string]bool
	renames      int
	syncDirCall  int
	openDirCall  int
	closeDirCall int
}

func newFakeDirFS(initial ...string) *fakeDirFS {
	f := &fakeDirFS{entries: map[string]bool{}}
	for _, e := range initial {
		f.entries[e] = true
	}

	return f
}

func (f *fakeDirFS) Open(string) (wipefs.File, error)                       { panic("unused") }
func (f *fakeDirFS) OpenFile(string, int, os.FileMode) (wipefs.File, error) { panic("unused") }
func (f *fakeDirFS) Truncate(string, int64) error                          { panic("unused") }
func (f *fakeDirFS) Fdatasync(wipefs.File) error                           { panic("unused") }
func (f *fakeDirFS) BlockSize(wipefs.File) (int64, error)                  { panic("unused") }
func (f *fakeDirFS) IsAppendOnly(wipefs.File) (bool, error)                { panic("unused") }

func (f *fakeDirFS) Stat(path string) (os.FileInfo, error)  { return f.Lstat(path) }
func (f *fakeDirFS) Lstat(path string) (os.FileInfo, error) {
	if f.entries[path] {
		return nil, nil
	}

	return nil, os.ErrNotExist
}

func (f *fakeDirFS) Remove(path string) error {
	if !f.entries[path] {
		return os.ErrNotExist
	}

	delete(f.entries, path)

	return nil
}

func (f *fakeDirFS) Rename(oldpath, newpath string) error {
	if f.entries[newpath] {
		return os.ErrExist
	}

	delete(f.entries, oldpath)
	f.entries[newpath] = true
	f.renames++

	return nil
}

func (f *fakeDirFS) OpenDir(string) (wipefs.Dir, error) {
	f.openDirCall++

	return &fakeDir{fs: f}, nil
}

var _ wipefs.FS = (*fakeDirFS)(nil)

// fakeDir is the held directory descriptor [fakeDirFS.OpenDir] returns,
// counting syncs and closes so tests can assert Wipe holds it across the
// whole rename sequence rather than reopening it per sync.
type fakeDir struct {
	fs     *fakeDirFS
	closed bool
}

func (d *fakeDir) Sync() error {
	d.fs.syncDirCall++

	return nil
}

func (d *fakeDir) Close() error {
	d.closed = true
	d.fs.closeDirCall++

	return nil
}

var _ wipefs.Dir = (*fakeDir)(nil)

func TestWipeShortNameAndUnlink(t *testing.T) {
	path := "/tmp/d/a"
	fs := newFakeDirFS(path)

	var renames []string
	err := Wipe(fs, path, func(from, to string) { renames = append(renames, to) })
	require.NoError(t, err)

	require.Empty(t, fs.entries, "directory must be empty after the final unlink")
	require.Len(t, renames, 1, "a single-character name has no earlier length to rename through")
	require.Equal(t, filepath.Join("/tmp/d", string(Alphabet[0])), renames[0])
}

func TestWipeSkipsOccupiedNames(t *testing.T) {
	dir := "/tmp/d"
	path := filepath.Join(dir, "ab")

	// Occupy the first few 2-character candidates so Wipe must increment
	// past them.
	taken := []string{
		filepath.Join(dir, "00"),
		filepath.Join(dir, "01"),
		filepath.Join(dir, "02"),
	}

	fs := newFakeDirFS(append(taken, path)...)

	err := Wipe(fs, path, nil)
	require.NoError(t, err)

	for _, tn := range taken {
		_, err := fs.Lstat(tn)
		require.NoError(t, err, "occupied names must be left alone")
	}
}

func TestIncrementNameRoundTripsThroughWholeAlphabet(t *testing.T) {
	name := []byte{Alphabet[0], Alphabet[0]}

	seen := map[string]bool{string(name): true}

	total := len(Alphabet) * len(Alphabet)

	for i := 1; i < total; i++ {
		overflow := incrementName(name)
		require.Falsef(t, overflow, "premature overflow at iteration %d", i)
		seen[string(name)] = true
	}

	require.Len(t, seen, total, "every 2-character name must be visited exactly once")

	overflow := incrementName(name)
	require.True(t, overflow, "the final increment must report overflow")
}

func TestIncrementNameTreatsForeignBytesAsBelowFirstDigit(t *testing.T) {
	name := []byte{'!', Alphabet[0]}

	overflow := incrementName(name)
	require.False(t, overflow)
	require.Equal(t, byte(Alphabet[0]), name[0], "a byte outside the alphabet resets to the first digit")
	require.Equal(t, Alphabet[1], name[1])
}

func TestWipeSyncsDirectoryAfterEachRenameAndTheFinalUnlink(t *testing.T) {
	path := "/tmp/d/ab"
	fs := newFakeDirFS(path)

	err := Wipe(fs, path, nil)
	require.NoError(t, err)

	// Two names (length 2, then length 1) plus the post-unlink sync.
	require.GreaterOrEqual(t, fs.syncDirCall, 3)
}

func TestWipeHoldsOneDirectoryDescriptorForTheWholeSequence(t *testing.T) {
	path := "/tmp/d/ab"
	fs := newFakeDirFS(path)

	err := Wipe(fs, path, nil)
	require.NoError(t, err)

	require.Equal(t, 1, fs.openDirCall, "the directory must be opened exactly once")
	require.Equal(t, 1, fs.closeDirCall, "the held descriptor must be closed exactly once")
}

func TestWipeFailsOnUnlinkError(t *testing.T) {
	path := "/tmp/d/a"
	fs := newFakeDirFS(path)

	// Delete the entry out from under Wipe as soon as it's renamed, so the
	// final unlink hits a missing file and reports failure.
	err := Wipe(fs, path, func(from, to string) {
		delete(fs.entries, to)
	})
	require.ErrorIs(t, err, ErrUnlinkFailed)
}
