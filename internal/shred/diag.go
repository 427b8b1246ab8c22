package shred

// Diag receives diagnostics and verbose progress out of the core. The core
// never touches os.Stdout/os.Stderr directly so tests can capture output
// without redirecting real file descriptors.
type Diag interface {
	// Error reports a non-fatal or fatal problem with one target. path is
	// the target as given on the command line.
	Error(path string, err error)

	// Progress reports a verbose-mode status line for an in-progress pass.
	// label is either "random" or a three-hex-digit pattern. offset and
	// size describe how far the pass has gotten; size is -1 when unknown.
	Progress(path string, passIndex, passCount int, label string, offset, size int64)

	// Renamed reports a successful name-obliteration step. from is the
	// original target path on the first call and the previous obliterated
	// name on every call after that.
	Renamed(from, to string)
}

// NopDiag discards everything. Useful as a zero-configuration default and
// in tests that don't care about progress output.
type NopDiag struct{}

func (NopDiag) Error(string, error)                             {}
func (NopDiag) Progress(string, int, int, string, int64, int64) {}
func (NopDiag) Renamed(string, string)                          {}

var _ Diag = NopDiag{}
