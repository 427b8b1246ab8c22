// Package overwrite performs the per-pass I/O that actually destroys a
// target's prior contents: seeking to the start, filling a working buffer
// with a pattern or fresh random bytes, writing it across the target's
// length while tolerating bad sectors and short devices, and forcing the
// result to stable storage before returning.
package overwrite

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/coreutils/goshred/internal/isaac"
	"github.com/coreutils/goshred/internal/passplan"
	"github.com/coreutils/goshred/internal/wipefs"
)

// bufSize is the working buffer size: 3 KiB. It must be a multiple of both
// the pattern period (3 bytes) and 512 (the sector size the EIO-skip logic
// assumes), and 3*1024 satisfies both with room to spare.
const bufSize = 3 * 1024

// sectorSize is the alignment granularity for the EIO-skip tolerance.
const sectorSize = 512

// progressInterval bounds how often a verbose status line is emitted for a
// single pass, independent of completion.
const progressInterval = 5 * time.Second

// UnknownSize marks a target whose length could not be determined ahead of
// time; it is discovered by the first pass that runs to a short write.
const UnknownSize int64 = -1

// Progress is called at most once every [progressInterval], plus once when
// a pass finishes, with the pass's current write offset. size is
// [UnknownSize] if not yet discovered.
type Progress func(passIndex, passCount int, label string, offset, size int64)

// Pass runs one full overwrite pass over fd using code, starting from
// offset 0 up to size bytes (or until the device signals its own end, if
// size is [UnknownSize]). rng supplies random fill bytes when code is
// [passplan.Random]. It returns the size discovered during the pass — equal
// to the input size unless the input was [UnknownSize] and a short write or
// ENOSPC pinned it down.
func Pass(fs wipefs.FS, fd wipefs.File, size int64, code passplan.Code, rng *isaac.Rand, passIndex, passCount int, report Progress) (discovered int64, err error) {
	if _, err := fd.Seek(0, io.SeekStart); err != nil {
		return size, fmt.Errorf("rewind: %w", err)
	}

	buf := make([]byte, bufSize)
	defer zeroBytes(buf)

	random := code.IsRandom()
	if !random {
		fillPattern(buf, code)
	}

	label := passLabel(code)
	lastReport := time.Time{}

	var off int64

	for {
		lim := int64(bufSize)
		if size != UnknownSize {
			remaining := size - off
			if remaining <= 0 {
				break
			}

			if remaining < lim {
				lim = remaining
			}
		}

		if random {
			fillRandom(buf[:lim], rng)
		}

		soff, werr := writeChunk(fd, buf[:lim], off, size)
		if werr != nil {
			var short shortDeviceErr
			if errors.As(werr, &short) {
				discovered = off + soff
				off = discovered
				size = discovered

				break
			}

			return size, werr
		}

		off += soff

		if off < 0 {
			return size, ErrOffsetOverflow
		}

		if report != nil && time.Since(lastReport) >= progressInterval {
			report(passIndex, passCount, label, off, size)
			lastReport = time.Now()
		}
	}

	if report != nil {
		report(passIndex, passCount, label, off, size)
	}

	if err := fs.Fdatasync(fd); err != nil {
		return size, fmt.Errorf("fsync: %w", err)
	}

	return size, nil
}

// ErrOffsetOverflow is returned when a pass's write offset would overflow
// int64 — the original's "file too large" condition.
var ErrOffsetOverflow = errors.New("overwrite: file too large")

// shortDeviceErr signals that a pass hit the end of an unknown-size device
// cleanly (ENOSPC, or a zero-byte write) rather than failing. discovered is
// how many bytes of the current chunk were actually written before that
// happened.
type shortDeviceErr struct{ discovered int64 }

func (e shortDeviceErr) Error() string {
	return fmt.Sprintf("device end discovered at %d bytes into chunk", e.discovered)
}

// writeChunk writes buf to fd at the current offset off, retrying short
// writes and skipping past each 512-byte-aligned sector whose write fails
// with EIO. Bytes a write reports as written are counted even when it also
// returns an error. size is the target's
// declared length (or [UnknownSize]); it gates whether a short write is
// treated as "found the end" versus a real error.
func writeChunk(fd wipefs.File, buf []byte, off, size int64) (written int64, err error) {
	var soff int

	for soff < len(buf) {
		n, werr := fd.Write(buf[soff:])
		if n > 0 {
			soff += n
		}

		if werr == nil {
			continue
		}

		if n == 0 && size == UnknownSize {
			return int64(soff), shortDeviceErr{discovered: int64(soff)}
		}

		var errno error
		if pe := asErrno(werr); pe != nil {
			errno = pe
		}

		if isENOSPC(errno) && size == UnknownSize {
			return int64(soff), shortDeviceErr{discovered: int64(soff)}
		}

		if isEIO(errno) && soff%sectorSize == 0 && len(buf)-soff >= sectorSize && size != UnknownSize {
			if _, serr := fd.Seek(off+int64(soff)+sectorSize, io.SeekStart); serr != nil {
				return int64(soff), fmt.Errorf("seek past bad sector: %w", serr)
			}

			soff += sectorSize

			continue
		}

		return int64(soff), fmt.Errorf("write at offset %d: %w", off+int64(soff), werr)
	}

	return int64(soff), nil
}

func asErrno(err error) error {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}

	var le *os.LinkError
	if errors.As(err, &le) {
		return le.Err
	}

	return err
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
