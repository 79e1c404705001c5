package upk

import (
	"io"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/upkflags/internal/buf"
	"github.com/joshuapare/upkflags/internal/format"
)

// File is the handle a Stream reads and patches. *os.File satisfies it.
type File interface {
	io.ReadWriteSeeker
	io.Closer
	Name() string
	Sync() error
}

// copyChunk is the buffer size used by CopyTo.
const copyChunk = 80 * 1024

// Stream is a position-tracked, endian-aware view of an open package file.
// It is not safe for concurrent use.
type Stream struct {
	f         File
	pos       int64
	lastPos   int64
	bigEndian bool
	id        format.Identity
	scratch   [8]byte
	closed    bool
}

// NewStream wraps f. The identity and byte order are filled in by the loader
// once the summary has been read.
func NewStream(f File) *Stream {
	return &Stream{f: f}
}

// Name returns the underlying file name.
func (s *Stream) Name() string { return s.f.Name() }

// File returns the underlying handle.
func (s *Stream) File() File { return s.f }

// Position returns the current absolute offset.
func (s *Stream) Position() int64 { return s.pos }

// LastPosition returns the offset at which the most recent read or write began.
func (s *Stream) LastPosition() int64 { return s.lastPos }

// BigEndian reports whether multi-byte values are stored byte-reversed.
func (s *Stream) BigEndian() bool { return s.bigEndian }

// Identity returns the package identity the stream was configured with.
func (s *Stream) Identity() format.Identity { return s.id }

// Version returns the package file version.
func (s *Stream) Version() int { return s.id.Version }

// Licensee returns the package licensee version.
func (s *Stream) Licensee() int { return s.id.Licensee }

// Configure sets the byte order and identity used by subsequent primitives.
func (s *Stream) Configure(bigEndian bool, id format.Identity) {
	s.bigEndian = bigEndian
	s.id = id
}

// Restore sets the bookkeeping positions, seeking to pos.
func (s *Stream) Restore(pos, lastPos int64) error {
	if err := s.Seek(pos); err != nil {
		return err
	}
	s.lastPos = lastPos
	return nil
}

// Seek moves to the absolute offset pos.
func (s *Stream) Seek(pos int64) error {
	if s.closed {
		return ErrClosed
	}
	if _, err := s.f.Seek(pos, io.SeekStart); err != nil {
		return errors.Wrapf(err, "seek to %d", pos)
	}
	s.pos = pos
	return nil
}

// Skip advances by n bytes.
func (s *Stream) Skip(n int64) error {
	return s.Seek(s.pos + n)
}

// Size returns the length of the underlying file.
func (s *Stream) Size() (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	end, err := s.f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, errors.Wrap(err, "seek to end")
	}
	if _, err := s.f.Seek(s.pos, io.SeekStart); err != nil {
		return 0, errors.Wrap(err, "restore position")
	}
	return end, nil
}

// ReadRaw fills p from the current position without any byte-order handling.
func (s *Stream) ReadRaw(p []byte) error {
	if s.closed {
		return ErrClosed
	}
	s.lastPos = s.pos
	n, err := io.ReadFull(s.f, p)
	s.pos += int64(n)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return errors.Wrapf(format.ErrTruncated, "read %d bytes at %d", len(p), s.lastPos)
		}
		return errors.Wrapf(err, "read at %d", s.lastPos)
	}
	return nil
}

// WriteRaw writes p at the current position without any byte-order handling.
func (s *Stream) WriteRaw(p []byte) error {
	if s.closed {
		return ErrClosed
	}
	s.lastPos = s.pos
	n, err := s.f.Write(p)
	s.pos += int64(n)
	if err != nil {
		return errors.Wrapf(err, "write %d bytes at %d", len(p), s.lastPos)
	}
	if n != len(p) {
		return errors.Wrapf(io.ErrShortWrite, "write at %d", s.lastPos)
	}
	return nil
}

// ReadU8 reads one byte.
func (s *Stream) ReadU8() (uint8, error) {
	if err := s.ReadRaw(s.scratch[:1]); err != nil {
		return 0, err
	}
	return s.scratch[0], nil
}

// ReadU16 reads a uint16 in the package byte order.
func (s *Stream) ReadU16() (uint16, error) {
	if err := s.ReadRaw(s.scratch[:2]); err != nil {
		return 0, err
	}
	return buf.U16(s.scratch[:2], s.bigEndian), nil
}

// ReadU32 reads a uint32 in the package byte order.
func (s *Stream) ReadU32() (uint32, error) {
	if err := s.ReadRaw(s.scratch[:4]); err != nil {
		return 0, err
	}
	return buf.U32(s.scratch[:4], s.bigEndian), nil
}

// ReadI32 reads an int32 in the package byte order.
func (s *Stream) ReadI32() (int32, error) {
	v, err := s.ReadU32()
	return int32(v), err
}

// ReadU64 reads a uint64 in the package byte order.
func (s *Stream) ReadU64() (uint64, error) {
	if err := s.ReadRaw(s.scratch[:8]); err != nil {
		return 0, err
	}
	return buf.U64(s.scratch[:8], s.bigEndian), nil
}

// ReadIndex reads an object reference: a compact index before
// format.VIndexDeprecated, an int32 afterwards.
func (s *Stream) ReadIndex() (int32, error) {
	if !s.id.CompactIndices() {
		return s.ReadI32()
	}
	start := s.pos
	v, _, err := format.DecodeIndex(s.ReadU8)
	s.lastPos = start
	return v, err
}

// NameRef is a reference into the name table.
type NameRef struct {
	Index  int32
	Number int32
}

// ReadName reads a name reference. Numbered names carry an extra int32
// from format.VNameNumbered.
func (s *Stream) ReadName() (NameRef, error) {
	idx, err := s.ReadIndex()
	if err != nil {
		return NameRef{}, err
	}
	ref := NameRef{Index: idx}
	if s.id.Version >= format.VNameNumbered {
		if ref.Number, err = s.ReadI32(); err != nil {
			return NameRef{}, err
		}
	}
	return ref, nil
}

// maxStringLen bounds string lengths read from untrusted packages.
const maxStringLen = 1 << 20

// ReadString reads a package string. Before format.VSizePrefixDeprecated
// strings are NUL terminated. Later strings carry a length prefix that
// counts the terminator; a negative length marks UTF-16LE text.
func (s *Stream) ReadString() (string, error) {
	if s.id.Version < format.VSizePrefixDeprecated {
		return s.readTerminated()
	}
	var n int32
	var err error
	if s.id.CompactIndices() {
		n, err = s.ReadIndex()
	} else {
		n, err = s.ReadI32()
	}
	if err != nil {
		return "", err
	}
	switch {
	case n == 0:
		return "", nil
	case n > 0:
		if n > maxStringLen {
			return "", errors.Wrapf(format.ErrUnsupported, "string length %d", n)
		}
		b := make([]byte, n)
		if err := s.ReadRaw(b); err != nil {
			return "", err
		}
		return trimNUL(string(b)), nil
	default:
		count := -int64(n)
		if count > maxStringLen {
			return "", errors.Wrapf(format.ErrUnsupported, "string length %d", n)
		}
		b := make([]byte, count*2)
		if err := s.ReadRaw(b); err != nil {
			return "", err
		}
		return decodeUTF16(b, s.bigEndian)
	}
}

func (s *Stream) readTerminated() (string, error) {
	var out []byte
	for {
		c, err := s.ReadU8()
		if err != nil {
			return "", err
		}
		if c == 0 {
			return string(out), nil
		}
		if len(out) >= maxStringLen {
			return "", errors.Wrap(format.ErrUnsupported, "unterminated string")
		}
		out = append(out, c)
	}
}

func trimNUL(v string) string {
	for len(v) > 0 && v[len(v)-1] == 0 {
		v = v[:len(v)-1]
	}
	return v
}

func decodeUTF16(b []byte, bigEndian bool) (string, error) {
	endianness := unicode.LittleEndian
	if bigEndian {
		endianness = unicode.BigEndian
	}
	out, err := unicode.UTF16(endianness, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		return "", errors.Wrap(err, "decode utf-16 string")
	}
	return trimNUL(string(out)), nil
}

// WriteU8 writes one byte.
func (s *Stream) WriteU8(v uint8) error {
	s.scratch[0] = v
	return s.WriteRaw(s.scratch[:1])
}

// WriteU16 writes v in the package byte order.
func (s *Stream) WriteU16(v uint16) error {
	buf.PutU16(s.scratch[:2], v, s.bigEndian)
	return s.WriteRaw(s.scratch[:2])
}

// WriteU32 writes v in the package byte order.
func (s *Stream) WriteU32(v uint32) error {
	buf.PutU32(s.scratch[:4], v, s.bigEndian)
	return s.WriteRaw(s.scratch[:4])
}

// WriteU64 writes v in the package byte order.
func (s *Stream) WriteU64(v uint64) error {
	buf.PutU64(s.scratch[:8], v, s.bigEndian)
	return s.WriteRaw(s.scratch[:8])
}

// WriteSized writes the low size bytes of v. Size 0 is a no-op.
func (s *Stream) WriteSized(v uint64, size int) error {
	switch size {
	case 0:
		return nil
	case 1:
		return s.WriteU8(uint8(v))
	case 2:
		return s.WriteU16(uint16(v))
	case 4:
		return s.WriteU32(uint32(v))
	case 8:
		return s.WriteU64(v)
	}
	return errors.Wrapf(format.ErrUnsupported, "field size %d", size)
}

// ReadSized reads a size byte value. Size 0 returns 0.
func (s *Stream) ReadSized(size int) (uint64, error) {
	switch size {
	case 0:
		return 0, nil
	case 1:
		v, err := s.ReadU8()
		return uint64(v), err
	case 2:
		v, err := s.ReadU16()
		return uint64(v), err
	case 4:
		v, err := s.ReadU32()
		return uint64(v), err
	case 8:
		return s.ReadU64()
	}
	return 0, errors.Wrapf(format.ErrUnsupported, "field size %d", size)
}

// CopyTo copies the entire file, from offset 0 to the end, into dst without
// reinterpreting any bytes. Both streams are left positioned at 0.
func (s *Stream) CopyTo(dst *Stream) error {
	if err := s.Seek(0); err != nil {
		return err
	}
	if err := dst.Seek(0); err != nil {
		return err
	}
	chunk := make([]byte, copyChunk)
	for {
		n, err := s.f.Read(chunk)
		if n > 0 {
			s.pos += int64(n)
			if werr := dst.WriteRaw(chunk[:n]); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "copy read at %d", s.pos)
		}
	}
	if err := s.Seek(0); err != nil {
		return err
	}
	return dst.Seek(0)
}

// Flush forces written bytes to durable storage.
func (s *Stream) Flush() error {
	if s.closed {
		return ErrClosed
	}
	return syncFile(s.f)
}

// Close releases the file handle. Closing twice is a no-op.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}

// Closed reports whether Close has been called.
func (s *Stream) Closed() bool { return s.closed }
