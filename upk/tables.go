package upk

import (
	"github.com/pkg/errors"

	"github.com/joshuapare/upkflags/internal/buf"
	"github.com/joshuapare/upkflags/internal/format"
)

// NameEntry is one row of the name table.
type NameEntry struct {
	Name  string
	Flags uint64
}

// Import is one row of the import table.
type Import struct {
	ClassPackage NameRef
	ClassName    NameRef
	OuterIndex   int32
	ObjectName   NameRef
}

// Export is one row of the export table.
type Export struct {
	// EntryOffset is the absolute offset of this row in the export table.
	EntryOffset int64

	ClassIndex  int32
	SuperIndex  int32
	OuterIndex  int32
	ObjectName  NameRef
	Archetype   int32
	ObjectFlags uint64

	SerialSize   int64
	SerialOffset int64

	ExportFlags  uint32
	PackageGuid  [16]byte
	PackageFlags uint32
}

// Minimum on-disk row sizes used to sanity check table counts.
const (
	minNameEntry   = 5
	minImportEntry = 4
	minExportEntry = 8
)

func readNames(s *Stream, sum *Summary, size int64) ([]NameEntry, error) {
	if err := buf.CheckTableBounds(size, int64(sum.NameOffset), int(sum.NameCount), minNameEntry); err != nil {
		return nil, errors.Wrap(err, "name table")
	}
	if err := s.Seek(int64(sum.NameOffset)); err != nil {
		return nil, err
	}
	names := make([]NameEntry, sum.NameCount)
	for i := range names {
		n, err := s.ReadString()
		if err != nil {
			return nil, errors.Wrapf(err, "name %d", i)
		}
		names[i].Name = n
		if sum.Version < format.VNameFlags64 {
			f, err := s.ReadU32()
			if err != nil {
				return nil, errors.Wrapf(err, "name %d flags", i)
			}
			names[i].Flags = uint64(f)
		} else if names[i].Flags, err = s.ReadU64(); err != nil {
			return nil, errors.Wrapf(err, "name %d flags", i)
		}
	}
	return names, nil
}

func readImports(s *Stream, sum *Summary, size int64) ([]Import, error) {
	if err := buf.CheckTableBounds(size, int64(sum.ImportOffset), int(sum.ImportCount), minImportEntry); err != nil {
		return nil, errors.Wrap(err, "import table")
	}
	if err := s.Seek(int64(sum.ImportOffset)); err != nil {
		return nil, err
	}
	imports := make([]Import, sum.ImportCount)
	var err error
	for i := range imports {
		imp := &imports[i]
		if imp.ClassPackage, err = s.ReadName(); err != nil {
			return nil, errors.Wrapf(err, "import %d", i)
		}
		if imp.ClassName, err = s.ReadName(); err != nil {
			return nil, errors.Wrapf(err, "import %d", i)
		}
		if imp.OuterIndex, err = s.ReadI32(); err != nil {
			return nil, errors.Wrapf(err, "import %d", i)
		}
		if imp.ObjectName, err = s.ReadName(); err != nil {
			return nil, errors.Wrapf(err, "import %d", i)
		}
	}
	return imports, nil
}

// readObjectFlags reads object flags in the identity's encoding.
func readObjectFlags(s *Stream) (uint64, error) {
	switch s.Identity().ObjectFlagsEncoding() {
	case format.FlagsWhole64:
		return s.ReadU64()
	case format.FlagsSplit64:
		hi, err := s.ReadU32()
		if err != nil {
			return 0, err
		}
		lo, err := s.ReadU32()
		if err != nil {
			return 0, err
		}
		return uint64(hi)<<format.HighShift | uint64(lo), nil
	default:
		v, err := s.ReadU32()
		return uint64(v), err
	}
}

// ReadObjectFlags reads object flags at the current position in the
// encoding of the stream's identity.
func (s *Stream) ReadObjectFlags() (uint64, error) {
	return readObjectFlags(s)
}

// WriteObjectFlags writes object flags at the current position in the
// encoding of the stream's identity. The split encoding writes the high
// half first.
func (s *Stream) WriteObjectFlags(v uint64) error {
	switch s.Identity().ObjectFlagsEncoding() {
	case format.FlagsWhole64:
		return s.WriteU64(v)
	case format.FlagsSplit64:
		if err := s.WriteU32(uint32(v >> format.HighShift)); err != nil {
			return err
		}
		return s.WriteU32(uint32(v))
	default:
		return s.WriteU32(uint32(v))
	}
}

func readExports(s *Stream, sum *Summary, size int64) ([]Export, error) {
	if err := buf.CheckTableBounds(size, int64(sum.ExportOffset), int(sum.ExportCount), minExportEntry); err != nil {
		return nil, errors.Wrap(err, "export table")
	}
	if err := s.Seek(int64(sum.ExportOffset)); err != nil {
		return nil, err
	}
	exports := make([]Export, sum.ExportCount)
	for i := range exports {
		if err := readExport(s, &exports[i]); err != nil {
			return nil, errors.Wrapf(err, "export %d", i)
		}
	}
	return exports, nil
}

func readExport(s *Stream, exp *Export) error {
	id := s.Identity()
	exp.EntryOffset = s.Position()

	var err error
	for _, rule := range format.Plan(format.RegionExport, id) {
		switch rule.Field {
		case "Class":
			exp.ClassIndex, err = s.ReadIndex()
		case "Super":
			exp.SuperIndex, err = s.ReadIndex()
		case "Outer":
			exp.OuterIndex, err = s.ReadI32()
		case "ObjectName":
			exp.ObjectName, err = s.ReadName()
		case "Archetype":
			exp.Archetype, err = s.ReadI32()
		default:
			err = s.Skip(int64(rule.Size))
		}
		if err != nil {
			return errors.Wrap(err, rule.Field)
		}
	}
	if exp.ObjectFlags, err = readObjectFlags(s); err != nil {
		return errors.Wrap(err, "object flags")
	}

	size, err := s.ReadIndex()
	if err != nil {
		return errors.Wrap(err, "serial size")
	}
	exp.SerialSize = int64(size)
	if size > 0 || id.Version >= format.VSerialSizeAlways {
		off, err := s.ReadIndex()
		if err != nil {
			return errors.Wrap(err, "serial offset")
		}
		exp.SerialOffset = int64(off)
	}

	if id.Version >= format.VArchetype && id.Version < format.VComponentMapRemoved {
		count, err := s.ReadI32()
		if err != nil {
			return errors.Wrap(err, "component map")
		}
		if count < 0 || count > 1<<16 {
			return errors.Wrapf(format.ErrUnsupported, "component map count %d", count)
		}
		for i := int32(0); i < count; i++ {
			if _, err := s.ReadName(); err != nil {
				return errors.Wrap(err, "component map")
			}
			if err := s.Skip(4); err != nil {
				return err
			}
		}
	}
	if id.Version >= format.VExportFlags {
		if exp.ExportFlags, err = s.ReadU32(); err != nil {
			return errors.Wrap(err, "export flags")
		}
	}
	if id.Version >= format.VNetObjects {
		count, err := s.ReadI32()
		if err != nil {
			return errors.Wrap(err, "net objects")
		}
		if count < 0 || count > 1<<20 {
			return errors.Wrapf(format.ErrUnsupported, "net object count %d", count)
		}
		if err := s.Skip(int64(count) * 4); err != nil {
			return err
		}
		if err := s.ReadRaw(exp.PackageGuid[:]); err != nil {
			return errors.Wrap(err, "package guid")
		}
		if id.Version >= format.VExportPackageFlags {
			if exp.PackageFlags, err = s.ReadU32(); err != nil {
				return errors.Wrap(err, "package flags")
			}
		}
	}
	return nil
}
