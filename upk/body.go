package upk

import (
	"github.com/pkg/errors"

	"github.com/joshuapare/upkflags/internal/format"
)

// BinaryField is one named field captured while decoding an object body.
// Offset is relative to the start of the body. Size 0 means the field is
// absent in this package.
type BinaryField struct {
	Name   string
	Offset int64
	Size   int
	Value  uint64
}

// Present reports whether the field exists in the package.
func (f BinaryField) Present() bool { return f.Size != 0 }

// BinaryMetaData is the ordered list of fields captured for an object.
type BinaryMetaData struct {
	Fields []BinaryField
}

// Add appends f.
func (m *BinaryMetaData) Add(f BinaryField) {
	m.Fields = append(m.Fields, f)
}

// Len returns the number of captured fields.
func (m *BinaryMetaData) Len() int { return len(m.Fields) }

// BodyDecoder walks an object body far enough to capture the fields the
// editor needs.
type BodyDecoder func(r *BodyReader) error

// BodyReader reads primitives from one object body and records every named
// read into the object's metadata. Reads past the serial size fail with
// format.ErrTruncated.
type BodyReader struct {
	s    *Stream
	obj  *Object
	base int64
	size int64
}

func newBodyReader(s *Stream, o *Object) (*BodyReader, error) {
	if s == nil {
		return nil, ErrClosed
	}
	r := &BodyReader{s: s, obj: o, base: o.Export.SerialOffset, size: o.Export.SerialSize}
	if err := s.Seek(r.base); err != nil {
		return nil, err
	}
	return r, nil
}

// Object returns the object being decoded.
func (r *BodyReader) Object() *Object { return r.obj }

// Identity returns the package identity.
func (r *BodyReader) Identity() format.Identity { return r.s.Identity() }

// Version returns the package file version.
func (r *BodyReader) Version() int { return r.s.Version() }

// Position returns the offset relative to the body start.
func (r *BodyReader) Position() int64 { return r.s.Position() - r.base }

// Remaining returns the number of body bytes left.
func (r *BodyReader) Remaining() int64 { return r.size - r.Position() }

// NameString resolves a name reference against the package name table.
func (r *BodyReader) NameString(ref NameRef) string {
	return r.obj.Package.NameString(ref)
}

func (r *BodyReader) need(n int64) error {
	if n < 0 || r.Position()+n > r.size {
		return errors.Wrapf(format.ErrTruncated, "need %d bytes at %d of %d", n, r.Position(), r.size)
	}
	return nil
}

func (r *BodyReader) record(name string, start int64, size int, v uint64) {
	if name == "" {
		return
	}
	r.obj.Meta.Add(BinaryField{Name: name, Offset: start, Size: size, Value: v})
}

func (r *BodyReader) sized(name string, size int) (uint64, error) {
	if err := r.need(int64(size)); err != nil {
		return 0, errors.Wrap(err, name)
	}
	start := r.Position()
	v, err := r.s.ReadSized(size)
	if err != nil {
		return 0, errors.Wrap(err, name)
	}
	r.record(name, start, size, v)
	return v, nil
}

// U8 reads and records a byte. An empty name reads without recording.
func (r *BodyReader) U8(name string) (uint8, error) {
	v, err := r.sized(name, 1)
	return uint8(v), err
}

// U16 reads and records a uint16.
func (r *BodyReader) U16(name string) (uint16, error) {
	v, err := r.sized(name, 2)
	return uint16(v), err
}

// U32 reads and records a uint32.
func (r *BodyReader) U32(name string) (uint32, error) {
	v, err := r.sized(name, 4)
	return uint32(v), err
}

// I32 reads and records an int32.
func (r *BodyReader) I32(name string) (int32, error) {
	v, err := r.sized(name, 4)
	return int32(uint32(v)), err
}

// U64 reads and records a uint64.
func (r *BodyReader) U64(name string) (uint64, error) {
	return r.sized(name, 8)
}

// Index reads and records an object reference.
func (r *BodyReader) Index(name string) (int32, error) {
	start := r.Position()
	v, err := r.s.ReadIndex()
	if err != nil {
		return 0, errors.Wrap(err, name)
	}
	if err := r.overrun(name); err != nil {
		return 0, err
	}
	r.record(name, start, int(r.Position()-start), uint64(uint32(v)))
	return v, nil
}

// Name reads and records a name reference.
func (r *BodyReader) Name(name string) (NameRef, error) {
	start := r.Position()
	v, err := r.s.ReadName()
	if err != nil {
		return NameRef{}, errors.Wrap(err, name)
	}
	if err := r.overrun(name); err != nil {
		return NameRef{}, err
	}
	r.record(name, start, int(r.Position()-start), uint64(uint32(v.Index)))
	return v, nil
}

// String reads a package string. Strings are never recorded.
func (r *BodyReader) String(name string) (string, error) {
	v, err := r.s.ReadString()
	if err != nil {
		return "", errors.Wrap(err, name)
	}
	if err := r.overrun(name); err != nil {
		return "", err
	}
	return v, nil
}

// Skip advances n bytes within the body.
func (r *BodyReader) Skip(name string, n int64) error {
	if err := r.need(n); err != nil {
		return errors.Wrap(err, name)
	}
	return r.s.Skip(n)
}

func (r *BodyReader) overrun(name string) error {
	if r.Position() > r.size {
		return errors.Wrapf(format.ErrTruncated, "%s ends past the body", name)
	}
	return nil
}
