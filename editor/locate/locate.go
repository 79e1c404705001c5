// Package locate recomputes the byte offset of flag words whose position the
// package format does not record.
//
// The header and export entry locators replay the layout rules of
// internal/format from a known anchor, read the word they land on and
// compare it against a value obtained independently from the loader. A
// mismatch is a *LocationError: the caller must disable editing of that
// word rather than write through a wrong offset.
//
// Field does not touch the stream. It scans the binary metadata captured
// while an object body was decoded.
package locate

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/joshuapare/upkflags/internal/format"
	"github.com/joshuapare/upkflags/upk"
)

// ErrFieldNotFound is returned by Field when a required field was not
// captured for the object.
var ErrFieldNotFound = errors.New("locate: field not found")

// LocationError reports that the word found at the replayed offset does not
// hold the expected value.
type LocationError struct {
	Region   format.Region
	Field    string
	Offset   int64
	Expected uint64
	Found    uint64
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("locate %s %s: value at 0x%X is 0x%X, expected 0x%X",
		e.Region, e.Field, e.Offset, e.Found, e.Expected)
}

// IsLocationError reports whether err is or wraps a *LocationError.
func IsLocationError(err error) bool {
	var le *LocationError
	return errors.As(err, &le)
}

// HeaderSupported reports whether the package flags of id can be located.
func HeaderSupported(id format.Identity) bool {
	return id.Version > 0 && id.Generation() <= format.UE3
}

// ExportTableSupported reports whether export entries of id follow a layout
// the export plan describes.
func ExportTableSupported(id format.Identity) bool {
	return !id.Build.CustomSerializer()
}

// Walk seeks to anchor and consumes every rule of plan in order. It returns
// the position reached. Steps are decoded with the conventions of id, not
// the stream's own identity.
func Walk(s *upk.Stream, id format.Identity, anchor int64, plan []format.Rule) (int64, error) {
	if err := s.Seek(anchor); err != nil {
		return 0, err
	}
	for _, r := range plan {
		if err := step(s, id, r); err != nil {
			return 0, errors.Wrapf(err, "%s %s", r.Region, r.Field)
		}
	}
	return s.Position(), nil
}

func step(s *upk.Stream, id format.Identity, r format.Rule) error {
	switch r.Step {
	case format.StepSkip:
		return s.Skip(int64(r.Size))
	case format.StepIndex:
		_, err := readIndex(s, id)
		return err
	case format.StepName:
		if _, err := readIndex(s, id); err != nil {
			return err
		}
		if id.Version >= format.VNameNumbered {
			return s.Skip(4)
		}
		return nil
	case format.StepString:
		return skipString(s, id)
	}
	return errors.Wrapf(format.ErrUnsupported, "step %s", r.Step)
}

func readIndex(s *upk.Stream, id format.Identity) (int32, error) {
	if !id.CompactIndices() {
		return s.ReadI32()
	}
	v, _, err := format.DecodeIndex(s.ReadU8)
	return v, err
}

func skipString(s *upk.Stream, id format.Identity) error {
	if id.Version < format.VSizePrefixDeprecated {
		for {
			c, err := s.ReadU8()
			if err != nil {
				return err
			}
			if c == 0 {
				return nil
			}
		}
	}
	n, err := readIndex(s, id)
	if err != nil {
		return err
	}
	if n < 0 {
		return s.Skip(-int64(n) * 2)
	}
	return s.Skip(int64(n))
}

// Locate replays plan from anchor, reads a size byte word at the position
// reached and compares it with known. It returns the word's offset.
func Locate(s *upk.Stream, id format.Identity, anchor int64, plan []format.Rule, field string, size int, known uint64) (int64, error) {
	region := format.Region(0)
	if len(plan) > 0 {
		region = plan[0].Region
	}
	off, err := Walk(s, id, anchor, plan)
	if err != nil {
		return 0, err
	}
	got, err := s.ReadSized(size)
	if err != nil {
		return 0, errors.Wrapf(err, "read %s", field)
	}
	if got != known {
		return 0, &LocationError{Region: region, Field: field, Offset: off, Expected: known, Found: got}
	}
	return off, nil
}

// PackageFlags locates the package flags word of the summary.
func PackageFlags(s *upk.Stream, id format.Identity, known uint32) (int64, error) {
	if !HeaderSupported(id) {
		return 0, errors.Wrapf(format.ErrUnsupported, "package flags of %s", id)
	}
	return Locate(s, id, format.VersionOffset, format.HeaderPlan(id), "PackageFlags", 4, uint64(known))
}

// Located is the position and encoding of an object flags word.
type Located struct {
	Offset   int64
	Encoding format.ObjectFlagsEncoding
}

// Size returns the number of bytes the word occupies.
func (l Located) Size() int { return l.Encoding.Size() }

// ObjectFlags locates the object flags word of the export table entry
// starting at entryOffset. For the 32-bit encoding only the low half of
// known is compared.
func ObjectFlags(s *upk.Stream, id format.Identity, entryOffset int64, known uint64) (Located, error) {
	if !ExportTableSupported(id) {
		return Located{}, errors.Wrapf(format.ErrUnsupported, "export table of %s", id)
	}
	off, err := Walk(s, id, entryOffset, format.ExportPlan(id))
	if err != nil {
		return Located{}, err
	}
	enc := id.ObjectFlagsEncoding()
	var got uint64
	switch enc {
	case format.FlagsWhole64:
		got, err = s.ReadU64()
	case format.FlagsSplit64:
		var hi, lo uint32
		if hi, err = s.ReadU32(); err == nil {
			lo, err = s.ReadU32()
		}
		got = uint64(hi)<<format.HighShift | uint64(lo)
	default:
		var v uint32
		v, err = s.ReadU32()
		got = uint64(v)
		known = uint64(uint32(known))
	}
	if err != nil {
		return Located{}, errors.Wrap(err, "read ObjectFlags")
	}
	if got != known {
		return Located{}, &LocationError{
			Region: format.RegionExport, Field: "ObjectFlags",
			Offset: off, Expected: known, Found: got,
		}
	}
	return Located{Offset: off, Encoding: enc}, nil
}

// Field returns the first captured field whose name matches one of names,
// in capture order. When nothing matches it returns ErrFieldNotFound if
// required is set and a zero field otherwise.
func Field(meta upk.BinaryMetaData, names []string, required bool) (upk.BinaryField, error) {
	for _, f := range meta.Fields {
		for _, n := range names {
			if f.Name == n {
				return f, nil
			}
		}
	}
	if required {
		return upk.BinaryField{}, errors.Wrap(ErrFieldNotFound, strings.Join(names, ", "))
	}
	return upk.BinaryField{}, nil
}
