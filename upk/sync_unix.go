//go:build linux || freebsd

package upk

import (
	"golang.org/x/sys/unix"
)

// fdatasync performs file descriptor sync.
//
// On Linux/FreeBSD, fdatasync() provides sufficient guarantees. Metadata such
// as timestamps is not needed to read the patched bytes back.
func fdatasync(fd uintptr) error {
	return unix.Fdatasync(int(fd))
}
