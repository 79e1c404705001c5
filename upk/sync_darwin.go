//go:build darwin

package upk

import (
	"golang.org/x/sys/unix"
)

// fdatasync performs file descriptor sync.
//
// On macOS, fsync only pushes data to the drive cache. F_FULLFSYNC asks the
// drive to flush it to the platter, which is what a save has to promise.
func fdatasync(fd uintptr) error {
	if _, err := unix.FcntlInt(fd, unix.F_FULLFSYNC, 0); err == nil {
		return nil
	}
	// Some filesystems (network mounts) reject F_FULLFSYNC.
	return unix.Fsync(int(fd))
}
