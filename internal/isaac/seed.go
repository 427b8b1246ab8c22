package isaac

import (
	"encoding/binary"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// EntropySources lets callers override where production seeding reads from,
// mainly so tests can seed deterministically without touching the real
// devices. The zero value uses the real OS-provided sources.
type EntropySources struct {
	// URandomPath overrides "/dev/urandom". Empty uses the default.
	URandomPath string

	// RandomPath overrides "/dev/random". Empty uses the default.
	RandomPath string
}

const (
	defaultURandomPath = "/dev/urandom"
	defaultRandomPath  = "/dev/random"

	urandomReadBytes = 32
	randomReadBytes  = 16
)

// Seed performs the full default seeding sequence: process id, parent
// process id, user id, group id, the highest-resolution wall clock
// available, an optional cycle-counter sample, and OS entropy
// (/dev/urandom, falling back to /dev/random). Failure of any individual
// source is not fatal — it simply contributes nothing to the final state.
func (s *State) Seed(sources EntropySources) {
	s.SeedStart()

	seedInt(s, int64(os.Getpid()))
	seedInt(s, int64(os.Getppid()))
	seedInt(s, int64(os.Getuid()))
	seedInt(s, int64(os.Getgid()))
	seedInt(s, time.Now().UnixNano())

	if counter, ok := cycleCounter(); ok {
		seedInt(s, int64(counter))
	}

	seedOSEntropy(s, sources)

	s.SeedFinish()
}

// seedInt feeds an 8-byte little-endian encoding of v into the state. The
// exact byte order doesn't matter for ISAAC's security properties — it only
// needs to be consistent within one process — so we fix little-endian
// rather than depend on host layout the way the original C took the raw
// in-memory representation of each scalar.
func seedInt(s *State, v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	s.SeedData(buf[:])
}

// seedOSEntropy tries /dev/urandom first (32 bytes), falling back to a
// non-blocking read of /dev/random (16 bytes) if /dev/urandom can't be
// opened or yields no bytes. Neither source is required; both failing leaves
// the state seeded
// from process/clock entropy alone.
func seedOSEntropy(s *State, sources EntropySources) {
	urandomPath := sources.URandomPath
	if urandomPath == "" {
		urandomPath = defaultURandomPath
	}

	if readInto(s, urandomPath, urandomReadBytes, 0) {
		return
	}

	randomPath := sources.RandomPath
	if randomPath == "" {
		randomPath = defaultRandomPath
	}

	readInto(s, randomPath, randomReadBytes, unix.O_NONBLOCK)
}

// readInto opens path with the given extra flags, reads up to n bytes, and
// folds whatever was read into the state. Returns whether any bytes were
// seeded.
func readInto(s *State, path string, n int, extraFlags int) bool {
	f, err := os.OpenFile(path, os.O_RDONLY|extraFlags, 0)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, n)

	read, err := f.Read(buf)
	if err != nil && read == 0 {
		return false
	}

	s.SeedData(buf[:read])

	return read > 0
}
