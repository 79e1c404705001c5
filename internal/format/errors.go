package format

import "github.com/pkg/errors"

var (
	// ErrSignatureMismatch indicates the file does not start with the package tag.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrTruncated indicates the stream ended before a structure was complete.
	ErrTruncated = errors.New("format: truncated stream")
	// ErrUnsupported indicates the structure or feature is not supported.
	ErrUnsupported = errors.New("format: unsupported feature")
	// ErrCompressed indicates the package stores its tables in compressed chunks.
	ErrCompressed = errors.New("format: compressed packages are not supported")
	// ErrNewestGeneration indicates a package of the fourth engine generation.
	ErrNewestGeneration = errors.New("format: packages from the fourth generation or later are not supported")
	// ErrBadIndex indicates an object or name reference outside its table.
	ErrBadIndex = errors.New("format: reference out of range")
)
