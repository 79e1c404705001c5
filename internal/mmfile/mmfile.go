// Package mmfile maps package files into memory for read-only inspection.
package mmfile

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
)

// ErrReadOnly is returned by every write to a mapped file.
var ErrReadOnly = errors.New("mmfile: file is mapped read-only")

// File is a read-only view of a mapped file. It has the method set of
// upk.File; writes fail with ErrReadOnly.
type File struct {
	name   string
	r      *bytes.Reader
	unmap  func() error
	closed bool
}

// Open maps the file at path.
func Open(path string) (*File, error) {
	data, unmap, err := Map(path)
	if err != nil {
		return nil, errors.Wrapf(err, "map %s", path)
	}
	return &File{name: path, r: bytes.NewReader(data), unmap: unmap}, nil
}

func (f *File) Name() string { return f.name }

// Len returns the size of the mapping.
func (f *File) Len() int64 { return f.r.Size() }

func (f *File) Read(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	return f.r.Read(p)
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	return f.r.Seek(offset, whence)
}

func (f *File) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	return 0, errors.Wrap(ErrReadOnly, f.name)
}

// Sync is a no-op, nothing is ever written.
func (f *File) Sync() error { return nil }

// Close unmaps the file. Closing twice is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	f.r = bytes.NewReader(nil)
	return f.unmap()
}

var _ io.ReadWriteSeeker = (*File)(nil)
