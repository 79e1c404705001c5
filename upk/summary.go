package upk

import (
	"github.com/pkg/errors"

	"github.com/joshuapare/upkflags/internal/buf"
	"github.com/joshuapare/upkflags/internal/format"
)

// Summary is the reduced package file summary. Fields after the compression
// chunk list are not read.
type Summary struct {
	Tag          uint32
	Version      int
	Licensee     int
	BigEndian    bool
	HeaderSize   int32
	FolderName   string
	PackageFlags uint32

	NameCount, NameOffset     int32
	ExportCount, ExportOffset int32
	ImportCount, ImportOffset int32
	DependsOffset             int32

	Guid          [16]byte
	Generations   []Generation
	EngineVersion int32
	CookerVersion int32

	CompressionFlags uint32
	CompressedChunks int32
}

// Generation is one entry of the summary's generation list.
type Generation struct {
	ExportCount    int32
	NameCount      int32
	NetObjectCount int32
}

// readTag reads the tag at offset 0 and reports the byte order.
func readTag(s *Stream) (bigEndian bool, err error) {
	var raw [4]byte
	if err := s.Seek(0); err != nil {
		return false, err
	}
	if err := s.ReadRaw(raw[:]); err != nil {
		return false, err
	}
	switch buf.U32LE(raw[:]) {
	case format.Signature:
		return false, nil
	case format.SignatureSwapped:
		return true, nil
	}
	return false, errors.Wrapf(format.ErrSignatureMismatch, "tag % x", raw)
}

// readSummary reads the package summary and configures s with the package
// byte order and identity. build overrides table detection when non-zero.
func readSummary(s *Stream, build format.Build) (*Summary, error) {
	bigEndian, err := readTag(s)
	if err != nil {
		return nil, err
	}
	s.Configure(bigEndian, format.Identity{})

	raw, err := s.ReadI32()
	if err != nil {
		return nil, errors.Wrap(err, "version")
	}
	if raw < 0 {
		return nil, format.ErrNewestGeneration
	}
	sum := &Summary{
		Tag:       format.Signature,
		Version:   int(uint32(raw) & 0xFFFF),
		Licensee:  int(uint32(raw) >> 16),
		BigEndian: bigEndian,
	}
	id := format.NewIdentity(sum.Version, sum.Licensee)
	if build != format.BuildDefault {
		id.Build = build
	}
	s.Configure(bigEndian, id)

	for _, rule := range format.Plan(format.RegionHeader, id) {
		switch rule.Field {
		case "Version":
			// already consumed
		case "HeaderSize":
			if sum.HeaderSize, err = s.ReadI32(); err != nil {
				return nil, errors.Wrap(err, "header size")
			}
		case "FolderName":
			if sum.FolderName, err = s.ReadString(); err != nil {
				return nil, errors.Wrap(err, "folder name")
			}
		default:
			if err := s.Skip(int64(rule.Size)); err != nil {
				return nil, errors.Wrap(err, rule.Field)
			}
		}
	}

	if sum.PackageFlags, err = s.ReadU32(); err != nil {
		return nil, errors.Wrap(err, "package flags")
	}
	for _, p := range []*int32{
		&sum.NameCount, &sum.NameOffset,
		&sum.ExportCount, &sum.ExportOffset,
		&sum.ImportCount, &sum.ImportOffset,
	} {
		if *p, err = s.ReadI32(); err != nil {
			return nil, errors.Wrap(err, "table counts")
		}
	}
	if sum.Version >= format.VDependsOffset {
		if sum.DependsOffset, err = s.ReadI32(); err != nil {
			return nil, errors.Wrap(err, "depends offset")
		}
	}
	if sum.Version >= format.VImportExportGuids {
		// import/export guids offset, import guid count, export guid count
		if err := s.Skip(12); err != nil {
			return nil, err
		}
	}
	if sum.Version >= format.VThumbnailTable {
		if err := s.Skip(4); err != nil {
			return nil, err
		}
	}

	if sum.Version < format.VHeritageDeprecated {
		// heritage count and offset
		if err := s.Skip(8); err != nil {
			return nil, err
		}
	} else {
		if err := s.ReadRaw(sum.Guid[:]); err != nil {
			return nil, errors.Wrap(err, "guid")
		}
		count, err := s.ReadI32()
		if err != nil {
			return nil, errors.Wrap(err, "generation count")
		}
		if count < 0 || count > 1<<16 {
			return nil, errors.Wrapf(format.ErrUnsupported, "generation count %d", count)
		}
		sum.Generations = make([]Generation, count)
		for i := range sum.Generations {
			g := &sum.Generations[i]
			if g.ExportCount, err = s.ReadI32(); err != nil {
				return nil, err
			}
			if g.NameCount, err = s.ReadI32(); err != nil {
				return nil, err
			}
			if sum.Version >= format.VNetObjects {
				if g.NetObjectCount, err = s.ReadI32(); err != nil {
					return nil, err
				}
			}
		}
	}

	if sum.Version >= format.VEngineVersion {
		if sum.EngineVersion, err = s.ReadI32(); err != nil {
			return nil, errors.Wrap(err, "engine version")
		}
	}
	if sum.Version >= format.VCookerVersion {
		if sum.CookerVersion, err = s.ReadI32(); err != nil {
			return nil, errors.Wrap(err, "cooker version")
		}
	}
	if sum.Version >= format.VCompression {
		if sum.CompressionFlags, err = s.ReadU32(); err != nil {
			return nil, errors.Wrap(err, "compression flags")
		}
		if sum.CompressedChunks, err = s.ReadI32(); err != nil {
			return nil, errors.Wrap(err, "compressed chunks")
		}
		if sum.CompressedChunks != 0 {
			return nil, format.ErrCompressed
		}
	}
	return sum, nil
}
