package upk

import "github.com/pkg/errors"

type fder interface {
	Fd() uintptr
}

// syncFile flushes f to durable storage. Handles that expose a descriptor go
// through the platform sync call; everything else falls back to f.Sync.
func syncFile(f File) error {
	if d, ok := f.(fder); ok {
		if err := fdatasync(d.Fd()); err == nil {
			return nil
		}
	}
	return errors.Wrap(f.Sync(), "sync")
}
