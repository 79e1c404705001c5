//go:build !linux && !freebsd && !darwin && !windows

package upk

import "github.com/pkg/errors"

var errNoFdatasync = errors.New("fdatasync unavailable")

func fdatasync(uintptr) error {
	return errNoFdatasync
}
