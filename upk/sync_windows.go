//go:build windows

package upk

import (
	"golang.org/x/sys/windows"
)

// fdatasync performs file handle sync using FlushFileBuffers.
func fdatasync(fd uintptr) error {
	return windows.FlushFileBuffers(windows.Handle(fd))
}
