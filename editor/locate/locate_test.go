package locate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/upkflags/internal/format"
	"github.com/joshuapare/upkflags/internal/testutil"
	"github.com/joshuapare/upkflags/upk"
)

func rawStream(t *testing.T, data []byte, bigEndian bool, id format.Identity) *upk.Stream {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	s := upk.NewStream(f)
	s.Configure(bigEndian, id)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLocateMismatchRaises(t *testing.T) {
	// 10 bytes, the word under test sits at offset 6
	data := []byte{0xC1, 0x83, 0x2A, 0x9E, 0xAA, 0xBB, 0x3A, 0x05, 0x00, 0x00}
	id := format.NewIdentity(868, 0)
	s := rawStream(t, data, false, id)
	plan := []format.Rule{{Region: format.RegionHeader, Field: "Padding", Step: format.StepSkip, Size: 2}}

	_, err := Locate(s, id, format.VersionOffset, plan, "Value", 4, 1337)
	require.Error(t, err)
	var le *LocationError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, int64(6), le.Offset)
	assert.Equal(t, uint64(1337), le.Expected)
	assert.Equal(t, uint64(1338), le.Found)
	assert.True(t, IsLocationError(err))

	off, err := Locate(s, id, format.VersionOffset, plan, "Value", 4, 1338)
	require.NoError(t, err)
	assert.Equal(t, int64(6), off)
}

func TestLocateTruncated(t *testing.T) {
	id := format.NewIdentity(868, 0)
	s := rawStream(t, make([]byte, 6), false, id)
	_, err := Locate(s, id, 4, nil, "Value", 4, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, format.ErrTruncated))
	assert.False(t, IsLocationError(err))
}

func TestWalkSteps(t *testing.T) {
	tests := []struct {
		name string
		id   format.Identity
		data []byte
		rule format.Rule
		want int64
	}{
		{
			name: "terminated string",
			id:   format.NewIdentity(61, 0),
			data: []byte{'a', 'b', 'c', 0, 0xFF},
			rule: format.Rule{Step: format.StepString},
			want: 4,
		},
		{
			name: "compact length string",
			id:   format.NewIdentity(120, 0),
			data: []byte{0x03, 'a', 'b', 0, 0xFF},
			rule: format.Rule{Step: format.StepString},
			want: 4,
		},
		{
			name: "utf-16 string",
			id:   format.NewIdentity(868, 0),
			data: []byte{0xFE, 0xFF, 0xFF, 0xFF, 'a', 0, 0, 0, 0xFF},
			rule: format.Rule{Step: format.StepString},
			want: 8,
		},
		{
			name: "compact index",
			id:   format.NewIdentity(120, 0),
			data: []byte{0x40, 0x01, 0xFF},
			rule: format.Rule{Step: format.StepIndex},
			want: 2,
		},
		{
			name: "int32 index",
			id:   format.NewIdentity(369, 0),
			data: []byte{1, 0, 0, 0, 0xFF},
			rule: format.Rule{Step: format.StepIndex},
			want: 4,
		},
		{
			name: "numbered name",
			id:   format.NewIdentity(868, 0),
			data: []byte{1, 0, 0, 0, 2, 0, 0, 0, 0xFF},
			rule: format.Rule{Step: format.StepName},
			want: 8,
		},
		{
			name: "plain name",
			id:   format.NewIdentity(300, 0),
			data: []byte{1, 0, 0, 0, 0xFF},
			rule: format.Rule{Step: format.StepName},
			want: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := rawStream(t, tt.data, false, tt.id)
			pos, err := Walk(s, tt.id, 0, []format.Rule{tt.rule})
			require.NoError(t, err)
			assert.Equal(t, tt.want, pos)
		})
	}
}

var locatorIdentities = []struct {
	name      string
	version   int
	licensee  int
	bigEndian bool
	build     format.Build
}{
	{"UE1", 61, 0, false, format.BuildDefault},
	{"UE2", 120, 0, false, format.BuildDefault},
	{"UT2004", 128, 29, false, format.BuildUT2004},
	{"BioShock", 141, 56, false, format.BuildBioShock},
	{"UE3 early", 369, 0, false, format.BuildDefault},
	{"UE3 late", 868, 0, false, format.BuildDefault},
	{"UE3 big endian", 868, 0, true, format.BuildDefault},
	{"Batman", 576, 21, false, format.BuildBatman},
	{"Batman 2", 805, 101, false, format.BuildBatman2},
	{"BioShock Infinite", 727, 75, false, format.BuildBioShockInfinite},
	{"MKKE", 472, 46, false, format.BuildMKKE},
	{"HMS", 868, 60, false, format.BuildHMS},
	{"AHIT", 877, 5, false, format.BuildAHIT},
}

func samplePackage(t *testing.T, version, licensee int, bigEndian bool, build format.Build) (*upk.Package, testutil.Layout) {
	t.Helper()
	b := testutil.NewPackage(version, licensee)
	b.Build = build
	b.BigEndian = bigEndian
	b.PackageFlags = 0x80000009
	b.FolderName = "Folder"
	cls := b.AddImport("Core", "Class", "Object", 0)
	b.AddExport(testutil.Export{Name: "First", Class: cls, ObjectFlags: 0x0000000F00000004, Body: b.ObjectBody()})
	b.AddExport(testutil.Export{Name: "Second", Number: 3, Class: cls, Outer: 1, ObjectFlags: 0x00000001, Body: b.ObjectBody()})
	path, layout := b.WriteFile(t, "Sample.upk")

	p, err := upk.Open(path, upk.Options{Build: build, DeserializeOnDemand: true})
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p, layout
}

func TestPackageFlags(t *testing.T) {
	for _, tt := range locatorIdentities {
		t.Run(tt.name, func(t *testing.T) {
			p, layout := samplePackage(t, tt.version, tt.licensee, tt.bigEndian, tt.build)
			id := p.Identity()
			require.True(t, HeaderSupported(id))

			off, err := PackageFlags(p.Stream(), id, p.Summary.PackageFlags)
			require.NoError(t, err)
			assert.Equal(t, layout.PackageFlags, off)

			_, err = PackageFlags(p.Stream(), id, p.Summary.PackageFlags^1)
			assert.True(t, IsLocationError(err))
		})
	}
}

func TestObjectFlags(t *testing.T) {
	for _, tt := range locatorIdentities {
		t.Run(tt.name, func(t *testing.T) {
			p, layout := samplePackage(t, tt.version, tt.licensee, tt.bigEndian, tt.build)
			id := p.Identity()
			if !ExportTableSupported(id) {
				_, err := ObjectFlags(p.Stream(), id, 0, 0)
				assert.True(t, errors.Is(err, format.ErrUnsupported))
				return
			}

			for i, o := range p.ExportObjects() {
				loc, err := ObjectFlags(p.Stream(), id, o.Export.EntryOffset, o.Export.ObjectFlags)
				require.NoError(t, err, o.Name)
				assert.Equal(t, layout.ObjectFlags[i], loc.Offset, o.Name)
				assert.Equal(t, id.ObjectFlagsEncoding(), loc.Encoding)
				assert.Equal(t, id.ObjectFlagsEncoding().Size(), loc.Size())

				_, err = ObjectFlags(p.Stream(), id, o.Export.EntryOffset, o.Export.ObjectFlags^2)
				assert.True(t, IsLocationError(err))
			}
		})
	}
}

// Hand-written headers and export entries, laid out field by field rather
// than through format.Plan.
func TestFlagsInHandWrittenBytes(t *testing.T) {
	ue3 := format.NewIdentity(868, 0)
	ut2004 := format.NewIdentity(128, 29)

	header := []byte{
		0xC1, 0x83, 0x2A, 0x9E, // signature
		0x64, 0x03, 0x00, 0x00, // version 868, licensee 0
		0x00, 0x01, 0x00, 0x00, // header size
		0x05, 0x00, 0x00, 0x00, // folder name
		'N', 'o', 'n', 'e', 0x00,
		0x09, 0x00, 0x00, 0x80, // package flags
	}
	off, err := PackageFlags(rawStream(t, header, false, ue3), ue3, 0x80000009)
	require.NoError(t, err)
	assert.Equal(t, int64(21), off)

	header = []byte{
		0xC1, 0x83, 0x2A, 0x9E,
		0x80, 0x00, 0x1D, 0x00, // version 128, licensee 29
		0x01, 0x00, 0x00, 0x00,
	}
	off, err = PackageFlags(rawStream(t, header, false, ut2004), ut2004, 0x1)
	require.NoError(t, err)
	assert.Equal(t, int64(8), off)

	entry := []byte{
		0xFF, 0xFF, 0xFF, 0xFF, // class
		0x00, 0x00, 0x00, 0x00, // super
		0x00, 0x00, 0x00, 0x00, // outer
		0x03, 0x00, 0x00, 0x00, // name
		0x00, 0x00, 0x00, 0x00, // number
		0x00, 0x00, 0x00, 0x00, // archetype
		0x0F, 0x00, 0x00, 0x00, // flags, high half
		0x04, 0x00, 0x00, 0x00, // flags, low half
	}
	loc, err := ObjectFlags(rawStream(t, entry, false, ue3), ue3, 0, 0x0000000F00000004)
	require.NoError(t, err)
	assert.Equal(t, int64(24), loc.Offset)
	assert.Equal(t, format.FlagsSplit64, loc.Encoding)

	entry = []byte{
		0x41, 0x01,             // class, compact 65
		0x00,                   // super
		0x00, 0x00, 0x00, 0x00, // outer
		0x05,                   // name
		0x04, 0x00, 0x07, 0x00, // flags
	}
	loc, err = ObjectFlags(rawStream(t, entry, false, ut2004), ut2004, 0, 0x00070004)
	require.NoError(t, err)
	assert.Equal(t, int64(8), loc.Offset)
	assert.Equal(t, format.FlagsWhole32, loc.Encoding)
}

func TestExportTableSupported(t *testing.T) {
	assert.True(t, ExportTableSupported(format.NewIdentity(868, 0)))
	assert.True(t, ExportTableSupported(format.NewIdentity(576, 21)))
	assert.False(t, ExportTableSupported(format.NewIdentity(727, 75)))
	assert.False(t, ExportTableSupported(format.NewIdentity(472, 46)))
	assert.False(t, ExportTableSupported(format.Identity{Version: 868, Licensee: 60, Build: format.BuildHMS}))
}

func TestField(t *testing.T) {
	meta := upk.BinaryMetaData{Fields: []upk.BinaryField{
		{Name: "NetIndex", Offset: 0, Size: 4},
		{Name: "_StateFlags", Offset: 40, Size: 4, Value: 0x3},
		{Name: "StateFlags", Offset: 60, Size: 4, Value: 0x1},
	}}

	f, err := Field(meta, []string{"StateFlags", "_StateFlags"}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(40), f.Offset, "first match in capture order wins")
	assert.Equal(t, uint64(0x3), f.Value)

	f, err = Field(meta, []string{"ClassFlags"}, false)
	require.NoError(t, err)
	assert.False(t, f.Present())

	_, err = Field(meta, []string{"ClassFlags"}, true)
	assert.True(t, errors.Is(err, ErrFieldNotFound))
}
