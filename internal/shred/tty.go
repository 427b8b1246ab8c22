package shred

import "golang.org/x/sys/unix"

// isTTY reports whether fd refers to a terminal, via the same ioctl a
// libc isatty(3) would use.
func isTTY(fd uintptr) bool {
	_, err := unix.IoctlGetTermios(int(fd), unix.TCGETS)

	return err == nil
}
