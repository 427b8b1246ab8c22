package shred

// Options configures how WipeTarget processes one target.
type Options struct {
	// Passes is the number of overwrite passes to run. Must be >= 1.
	Passes int

	// Size, if non-nil, is the exact number of bytes to overwrite instead
	// of probing the target. A nil Size means "probe" (§3, §4.3).
	Size *int64

	// RemoveAfter truncates (regular files only) and obliterates the
	// target's name after the passes complete.
	RemoveAfter bool

	// Verbose turns on per-pass and periodic progress reporting.
	Verbose bool

	// ExactSize disables the default rounding of a regular file's size up
	// to the next filesystem block.
	ExactSize bool

	// AppendZeroPass runs one extra pass of the all-zero pattern after the
	// scheduled plan.
	AppendZeroPass bool

	// ForceWritable retries an EACCES open after chmod'ing the target to
	// user-write-only.
	ForceWritable bool
}
