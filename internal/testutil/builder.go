package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/upkflags/internal/buf"
	"github.com/joshuapare/upkflags/internal/format"
)

// Export describes one export table row written by PackageBuilder.
type Export struct {
	Name        string
	Number      int32
	Class       int32 // object reference, 0 for classes
	Super       int32
	Outer       int32
	Archetype   int32
	ObjectFlags uint64
	ExportFlags uint32
	Body        Body
}

// Import describes one import table row.
type Import struct {
	ClassPackage string
	ClassName    string
	Name         string
	Outer        int32
}

// Body is a serialized object body plus the body-relative offsets of the
// named fields it contains.
type Body struct {
	Bytes  []byte
	Fields map[string]int64
}

// Layout reports where PackageBuilder put things, as absolute offsets.
type Layout struct {
	PackageFlags int64
	NameTable    int64
	ImportTable  int64
	ExportTable  int64
	// ExportEntries, ObjectFlags and Bodies are indexed like Exports.
	ExportEntries []int64
	ObjectFlags   []int64
	Bodies        []int64
	Size          int64
}

// FieldOffset returns the absolute offset of a named body field of export i.
func (l Layout) FieldOffset(exports []Export, i int, name string) int64 {
	rel, ok := exports[i].Body.Fields[name]
	if !ok {
		return -1
	}
	return l.Bodies[i] + rel
}

// PackageBuilder writes small synthetic packages for any identity.
//
// Example:
//
//	b := testutil.NewPackage(868, 0)
//	cls := b.AddImport("Core", "Class", "Function", 0)
//	b.AddExport(testutil.Export{Name: "Tick", Class: cls, Body: b.FunctionBody(0x400)})
//	path, layout := b.WriteFile(t, "Test.u")
type PackageBuilder struct {
	Version      int
	Licensee     int
	Build        format.Build
	BigEndian    bool
	PackageFlags uint32
	FolderName   string

	EngineVersion    int32
	CookerVersion    int32
	CompressedChunks int32

	Names   []string
	Imports []Import
	Exports []Export
}

// NewPackage returns a little-endian builder with the build detected from
// version and licensee.
func NewPackage(version, licensee int) *PackageBuilder {
	return &PackageBuilder{
		Version:  version,
		Licensee: licensee,
		Build:    format.DetectBuild(version, licensee),
		Names:    []string{"None"},
	}
}

// Identity returns the identity the builder writes for.
func (b *PackageBuilder) Identity() format.Identity {
	return format.Identity{Version: b.Version, Licensee: b.Licensee, Build: b.Build}
}

// Name interns s in the name table and returns its index.
func (b *PackageBuilder) Name(s string) int32 {
	for i, n := range b.Names {
		if n == s {
			return int32(i)
		}
	}
	b.Names = append(b.Names, s)
	return int32(len(b.Names) - 1)
}

// AddImport appends an import and returns its object reference.
func (b *PackageBuilder) AddImport(classPackage, className, name string, outer int32) int32 {
	b.Name(classPackage)
	b.Name(className)
	b.Name(name)
	b.Imports = append(b.Imports, Import{ClassPackage: classPackage, ClassName: className, Name: name, Outer: outer})
	return int32(-len(b.Imports))
}

// AddExport appends an export and returns its object reference.
func (b *PackageBuilder) AddExport(e Export) int32 {
	b.Name(e.Name)
	b.Exports = append(b.Exports, e)
	return int32(len(b.Exports))
}

// WriteFile writes the package into a temp dir and returns its path.
func (b *PackageBuilder) WriteFile(t *testing.T, name string) (string, Layout) {
	t.Helper()
	data, layout := b.Bytes()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write package: %v", err)
	}
	return path, layout
}

// Bytes serializes the package. Bodies are placed between the import and
// export tables so every serial offset is known when the export table is
// written.
func (b *PackageBuilder) Bytes() ([]byte, Layout) {
	id := b.Identity()
	w := b.writer()
	var l Layout

	w.u32(format.Signature)
	w.u32(uint32(b.Version) | uint32(b.Licensee)<<16)
	var headerSizeAt int64 = -1
	for _, rule := range format.Plan(format.RegionHeader, id) {
		switch rule.Field {
		case "Version":
		case "HeaderSize":
			headerSizeAt = w.pos()
			w.u32(0)
		case "FolderName":
			w.str(b.FolderName)
		default:
			w.zero(rule.Size)
		}
	}
	l.PackageFlags = w.pos()
	w.u32(b.PackageFlags)

	countsAt := w.pos()
	w.zero(6 * 4)
	if b.Version >= format.VDependsOffset {
		w.u32(0)
	}
	if b.Version >= format.VImportExportGuids {
		w.zero(12)
	}
	if b.Version >= format.VThumbnailTable {
		w.zero(4)
	}
	if b.Version < format.VHeritageDeprecated {
		w.zero(8)
	} else {
		w.zero(16) // guid
		w.u32(1)
		w.u32(uint32(len(b.Exports)))
		w.u32(uint32(len(b.Names)))
		if b.Version >= format.VNetObjects {
			w.u32(0)
		}
	}
	if b.Version >= format.VEngineVersion {
		w.u32(uint32(b.EngineVersion))
	}
	if b.Version >= format.VCookerVersion {
		w.u32(uint32(b.CookerVersion))
	}
	if b.Version >= format.VCompression {
		w.u32(0)
		w.u32(uint32(b.CompressedChunks))
	}
	if headerSizeAt >= 0 {
		w.patch32(headerSizeAt, uint32(w.pos()))
	}

	l.NameTable = w.pos()
	for _, n := range b.Names {
		w.str(n)
		if b.Version < format.VNameFlags64 {
			w.u32(0)
		} else {
			w.u64(0)
		}
	}

	l.ImportTable = w.pos()
	for _, imp := range b.Imports {
		w.name(b.Name(imp.ClassPackage), 0)
		w.name(b.Name(imp.ClassName), 0)
		w.u32(uint32(imp.Outer))
		w.name(b.Name(imp.Name), 0)
	}

	l.Bodies = make([]int64, len(b.Exports))
	for i, e := range b.Exports {
		l.Bodies[i] = w.pos()
		w.raw(e.Body.Bytes)
	}

	l.ExportTable = w.pos()
	l.ExportEntries = make([]int64, len(b.Exports))
	l.ObjectFlags = make([]int64, len(b.Exports))
	for i, e := range b.Exports {
		l.ExportEntries[i] = w.pos()
		for _, rule := range format.Plan(format.RegionExport, id) {
			switch rule.Field {
			case "Class":
				w.index(e.Class)
			case "Super":
				w.index(e.Super)
			case "Outer":
				w.u32(uint32(e.Outer))
			case "ObjectName":
				w.name(b.Name(e.Name), e.Number)
			case "Archetype":
				w.u32(uint32(e.Archetype))
			default:
				w.zero(rule.Size)
			}
		}
		l.ObjectFlags[i] = w.pos()
		switch id.ObjectFlagsEncoding() {
		case format.FlagsWhole64:
			w.u64(e.ObjectFlags)
		case format.FlagsSplit64:
			w.u32(uint32(e.ObjectFlags >> format.HighShift))
			w.u32(uint32(e.ObjectFlags))
		default:
			w.u32(uint32(e.ObjectFlags))
		}

		size := int32(len(e.Body.Bytes))
		w.index(size)
		if size > 0 || b.Version >= format.VSerialSizeAlways {
			w.index(int32(l.Bodies[i]))
		}
		if b.Version >= format.VArchetype && b.Version < format.VComponentMapRemoved {
			w.u32(0)
		}
		if b.Version >= format.VExportFlags {
			w.u32(e.ExportFlags)
		}
		if b.Version >= format.VNetObjects {
			w.u32(0)
			w.zero(16)
			if b.Version >= format.VExportPackageFlags {
				w.u32(0)
			}
		}
	}

	counts := []int64{
		int64(len(b.Names)), l.NameTable,
		int64(len(b.Exports)), l.ExportTable,
		int64(len(b.Imports)), l.ImportTable,
	}
	for i, v := range counts {
		w.patch32(countsAt+int64(i)*4, uint32(v))
	}
	l.Size = w.pos()
	return w.buf.Bytes(), l
}

// writer serializes primitives in a package byte order.
type writer struct {
	buf bytes.Buffer
	big bool
	id  format.Identity
}

func (b *PackageBuilder) writer() *writer {
	return &writer{big: b.BigEndian, id: b.Identity()}
}

func (w *writer) pos() int64   { return int64(w.buf.Len()) }
func (w *writer) raw(p []byte) { w.buf.Write(p) }
func (w *writer) zero(n int)   { w.buf.Write(make([]byte, n)) }
func (w *writer) u8(v uint8)   { w.buf.WriteByte(v) }

func (w *writer) u16(v uint16) {
	var b [2]byte
	buf.PutU16(b[:], v, w.big)
	w.buf.Write(b[:])
}

func (w *writer) u32(v uint32) {
	var b [4]byte
	buf.PutU32(b[:], v, w.big)
	w.buf.Write(b[:])
}

func (w *writer) u64(v uint64) {
	var b [8]byte
	buf.PutU64(b[:], v, w.big)
	w.buf.Write(b[:])
}

func (w *writer) patch32(at int64, v uint32) {
	buf.PutU32(w.buf.Bytes()[at:at+4], v, w.big)
}

func (w *writer) index(v int32) {
	if w.id.CompactIndices() {
		w.raw(format.EncodeIndex(v))
		return
	}
	w.u32(uint32(v))
}

func (w *writer) name(idx, number int32) {
	w.index(idx)
	if w.id.Version >= format.VNameNumbered {
		w.u32(uint32(number))
	}
}

func (w *writer) length(n int32) {
	if w.id.CompactIndices() {
		w.raw(format.EncodeIndex(n))
		return
	}
	w.u32(uint32(n))
}

func (w *writer) str(s string) {
	if w.id.Version < format.VSizePrefixDeprecated {
		w.raw([]byte(s))
		w.u8(0)
		return
	}
	if s == "" {
		w.length(0)
		return
	}
	if isASCII(s) {
		w.length(int32(len(s) + 1))
		w.raw([]byte(s))
		w.u8(0)
		return
	}
	endianness := unicode.LittleEndian
	if w.big {
		endianness = unicode.BigEndian
	}
	enc, err := unicode.UTF16(endianness, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		panic(err)
	}
	w.length(-int32(len(enc)/2 + 1))
	w.raw(enc)
	w.u16(0)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
