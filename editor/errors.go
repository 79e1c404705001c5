package editor

import (
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/joshuapare/upkflags/internal/format"
	"github.com/joshuapare/upkflags/upk"
)

var (
	// ErrPackageLoaded is returned by LoadPackage while another package is open.
	ErrPackageLoaded = errors.New("editor: cannot load package, because a package is already loaded")
	// ErrNoPackageLoaded is returned by operations that need a loaded package.
	ErrNoPackageLoaded = errors.New("editor: no package is loaded")
	// ErrNoHierarchy is returned by lookups on an engine built without a hierarchy.
	ErrNoHierarchy = errors.New("editor: object lookup needs the node hierarchy")
	// ErrObjectNotFound means no node matches an object path.
	ErrObjectNotFound = errors.New("editor: object not found")
	// ErrAmbiguousPath means an untyped path names two different nodes.
	ErrAmbiguousPath = errors.New("editor: ambiguous object path")
	// ErrTypeMismatch means the node found is not of the requested type.
	ErrTypeMismatch = errors.New("editor: object type mismatch")
	// ErrInvalidPath means an object path could not be parsed.
	ErrInvalidPath = errors.New("editor: invalid object path")
)

// PathError carries a user-facing message for a lookup failure. It unwraps
// to one of the lookup sentinels.
type PathError struct {
	Kind error
	Msg  string
}

func (e *PathError) Error() string { return e.Msg }
func (e *PathError) Unwrap() error { return e.Kind }

func pathErrorf(kind error, format string, args ...interface{}) error {
	return &PathError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// FriendlyFileError turns a failure to open path into a message for users.
// typeName names what was opened ("package", "instruction file"). It returns
// "" for errors it has no wording for.
func FriendlyFileError(path, typeName string, err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, os.ErrPermission):
		return fmt.Sprintf("Failed to open %s: %v Make sure that the file is not read-only, and that this user has access to it.", typeName, err)
	case errors.Is(err, os.ErrNotExist), errors.Is(err, os.ErrInvalid):
		// the *PathError text already names the file
		return fmt.Sprintf("Failed to open %s: %v", typeName, err)
	case errors.Is(err, format.ErrSignatureMismatch),
		errors.Is(err, format.ErrTruncated),
		errors.Is(err, format.ErrCompressed),
		errors.Is(err, format.ErrNewestGeneration),
		errors.Is(err, format.ErrUnsupported),
		errors.Is(err, format.ErrBadIndex),
		errors.Is(err, upk.ErrClosed):
		return fmt.Sprintf("Failed to open %s %s: %v", typeName, path, err)
	}
	return ""
}
