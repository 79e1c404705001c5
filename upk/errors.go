package upk

import "github.com/pkg/errors"

var (
	// ErrClosed indicates an operation on a stream after Close.
	ErrClosed = errors.New("upk: stream is closed")
	// ErrNoPackage indicates the object has no owning package.
	ErrNoPackage = errors.New("upk: object has no package")
)
