package upk

import (
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/upkflags/internal/buf"
	"github.com/joshuapare/upkflags/internal/format"
	"github.com/joshuapare/upkflags/internal/testutil"
)

func buildSample(b *testutil.PackageBuilder) {
	b.PackageFlags = 0x1
	b.FolderName = "None"
	funcClass := b.AddImport("Core", "Class", "Function", 0)
	b.AddExport(testutil.Export{
		Name:        "Tick",
		Class:       funcClass,
		ObjectFlags: 0x0000007000000004,
		Body:        b.FunctionBody(0x400),
	})
	b.AddExport(testutil.Export{
		Name:        "Thing",
		Class:       b.AddImport("Core", "Class", "Object", 0),
		Outer:       1,
		ObjectFlags: 0x00000004,
		Body:        b.ObjectBody(testutil.Tag{Name: "Count", Type: "IntProperty", Value: []byte{1, 0, 0, 0}}),
	})
}

func TestLoadIdentities(t *testing.T) {
	tests := []struct {
		name      string
		version   int
		licensee  int
		bigEndian bool
		build     format.Build
	}{
		{"UE1", 61, 0, false, format.BuildDefault},
		{"UE2 compact indices", 120, 0, false, format.BuildDefault},
		{"UT2004", 128, 29, false, format.BuildUT2004},
		{"BioShock whole 64", 141, 56, false, format.BuildBioShock},
		{"UE3 early", 369, 0, false, format.BuildDefault},
		{"UE3 late", 868, 0, false, format.BuildDefault},
		{"UE3 big endian", 868, 0, true, format.BuildDefault},
		{"Batman", 576, 21, false, format.BuildBatman},
		{"BioShock Infinite", 727, 75, false, format.BuildBioShockInfinite},
		{"MKKE", 472, 46, false, format.BuildMKKE},
		{"AHIT", 877, 5, false, format.BuildAHIT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewPackage(tt.version, tt.licensee)
			b.BigEndian = tt.bigEndian
			buildSample(b)
			path, layout := b.WriteFile(t, "Sample.u")

			p, err := Open(path, Options{})
			require.NoError(t, err)
			defer p.Close()

			assert.Equal(t, "Sample", p.Name)
			assert.Equal(t, tt.version, p.Version())
			assert.Equal(t, tt.licensee, p.Licensee())
			assert.Equal(t, tt.build, p.Build())
			assert.Equal(t, tt.bigEndian, p.Summary.BigEndian)
			assert.Equal(t, uint32(0x1), p.Summary.PackageFlags)
			require.Len(t, p.Exports, 2)
			require.Len(t, p.Imports, 2)

			tick := p.ExportObjects()[0]
			assert.Equal(t, "Tick", tick.Name)
			assert.Equal(t, "Function", tick.ClassName)
			assert.Equal(t, layout.ExportEntries[0], tick.Export.EntryOffset)
			assert.Equal(t, layout.Bodies[0], tick.Export.SerialOffset)

			wantFlags := uint64(0x0000007000000004)
			if p.Identity().ObjectFlagsEncoding() == format.FlagsWhole32 {
				wantFlags = 0x4
			}
			assert.Equal(t, wantFlags, tick.Export.ObjectFlags)

			thing := p.ExportObjects()[1]
			assert.Equal(t, tick, thing.Outer)
			assert.Equal(t, "Tick.Thing", thing.Path())
			assert.Equal(t, "Object'Sample.Tick.Thing'", thing.ReferencePath())

			require.Equal(t, Deserialized, tick.State(), "%v", tick.DeserializeErr)
			require.Equal(t, Deserialized, thing.State(), "%v", thing.DeserializeErr)

			var flags BinaryField
			for _, f := range tick.Meta.Fields {
				if f.Name == "FunctionFlags" {
					flags = f
				}
			}
			require.True(t, flags.Present())
			assert.Equal(t, uint64(0x400), flags.Value)
			assert.Equal(t, 4, flags.Size)
			assert.Equal(t, b.Exports[0].Body.Fields["FunctionFlags"], flags.Offset)
		})
	}
}

func TestLoadHMSRequiresOverride(t *testing.T) {
	b := testutil.NewPackage(868, 60)
	b.Build = format.BuildHMS
	buildSample(b)
	path, _ := b.WriteFile(t, "Hms.upk")

	p, err := Open(path, Options{Build: format.BuildHMS})
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, format.BuildHMS, p.Build())
	assert.Len(t, p.Exports, 2)
}

func TestLoadRejects(t *testing.T) {
	t.Run("signature", func(t *testing.T) {
		path := writeRaw(t, []byte{1, 2, 3, 4, 0, 0, 0, 0})
		_, err := Open(path, Options{})
		assert.True(t, errors.Is(err, format.ErrSignatureMismatch))
	})

	t.Run("newest generation", func(t *testing.T) {
		data := make([]byte, 16)
		buf.PutU32(data, format.Signature, false)
		buf.PutU32(data[4:], 0xFFFFFFF9, false)
		_, err := Open(writeRaw(t, data), Options{})
		assert.True(t, errors.Is(err, format.ErrNewestGeneration))
	})

	t.Run("compressed", func(t *testing.T) {
		b := testutil.NewPackage(868, 0)
		b.CompressedChunks = 2
		path, _ := b.WriteFile(t, "c.upk")
		_, err := Open(path, Options{})
		assert.True(t, errors.Is(err, format.ErrCompressed))
	})

	t.Run("truncated", func(t *testing.T) {
		b := testutil.NewPackage(868, 0)
		buildSample(b)
		data, layout := b.Bytes()
		_, err := Open(writeRaw(t, data[:layout.ExportTable+3]), Options{})
		require.Error(t, err)
	})
}

func TestDeserializeErrorIsRecorded(t *testing.T) {
	b := testutil.NewPackage(500, 0)
	b.AddExport(testutil.Export{
		Name:  "Broken",
		Class: b.AddImport("Core", "Class", "Struct", 0),
		Body:  b.StructBodyWithScript(8),
	})
	path, _ := b.WriteFile(t, "Broken.u")

	p, err := Open(path, Options{})
	require.NoError(t, err)
	defer p.Close()

	o := p.ExportObjects()[0]
	assert.Equal(t, DeserializeFailed, o.State())
	require.Error(t, o.DeserializeErr)
	assert.True(t, errors.Is(o.DeserializeErr, format.ErrUnsupported))
	assert.Positive(t, o.ErrorPosition)
}

func TestDeserializeOnDemand(t *testing.T) {
	b := testutil.NewPackage(868, 0)
	b.AddExport(testutil.Export{
		Name:  "Health",
		Class: b.AddImport("Core", "Class", "IntProperty", 0),
		Body:  b.PropertyBody(0x0000000100000001),
	})
	path, _ := b.WriteFile(t, "Lazy.u")

	p, err := Open(path, Options{DeserializeOnDemand: true})
	require.NoError(t, err)
	defer p.Close()

	o := p.ExportObjects()[0]
	assert.Equal(t, NotDeserialized, o.State())
	require.NoError(t, o.Deserialize())
	require.NoError(t, o.Deserialize())
	assert.Equal(t, Deserialized, o.State())

	var names []string
	for _, f := range o.Meta.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"NetIndex", "Next", "ArrayDim", "PropertyFlags"}, names)
	assert.Equal(t, uint64(0x0000000100000001), o.Meta.Fields[3].Value)
	assert.Equal(t, 8, o.Meta.Fields[3].Size)
}

func TestDecodersCoverFieldKinds(t *testing.T) {
	for _, version := range []int{61, 128, 369, 700, 868} {
		b := testutil.NewPackage(version, 0)
		core := func(name string) int32 { return b.AddImport("Core", "Class", name, 0) }
		b.AddExport(testutil.Export{Name: "MyClass", Body: b.ClassBody(0x1, 0x21)})
		b.AddExport(testutil.Export{Name: "Idle", Class: core("State"), Outer: 1, Body: b.StateBody(0x2)})
		b.AddExport(testutil.Export{Name: "Vec", Class: core("ScriptStruct"), Outer: 1, Body: b.ScriptStructBody(0x1)})
		b.AddExport(testutil.Export{Name: "Mode", Class: core("Enum"), Outer: 1, Body: b.EnumBody("A", "B")})
		b.AddExport(testutil.Export{Name: "Max", Class: core("Const"), Outer: 1, Body: b.ConstBody("10")})
		b.AddExport(testutil.Export{Name: "Fire", Class: core("Function"), Outer: 1, Body: b.FunctionBody(0x40)})
		path, _ := b.WriteFile(t, "Kinds.u")

		p, err := Open(path, Options{})
		require.NoError(t, err, "version %d", version)
		for _, o := range p.ExportObjects() {
			assert.Equal(t, Deserialized, o.State(), "version %d %s: %v", version, o.Name, o.DeserializeErr)
		}

		cls := p.ExportObjects()[0]
		assert.True(t, cls.IsClass())
		assert.Equal(t, "Class'Kinds.MyClass'", cls.ReferencePath())
		assert.Equal(t, b.Exports[0].Body.Fields["ClassFlags"], fieldOffset(cls, "ClassFlags"))
		if version >= format.VStateFlags {
			assert.Equal(t, b.Exports[1].Body.Fields["StateFlags"], fieldOffset(p.ExportObjects()[1], "StateFlags"))
		}
		require.NoError(t, p.Close())
	}
}

// ue2StructBody lays out a second generation struct body by hand, with the
// friendly name between Children and CppText. It returns the body and the
// offset of StructFlags.
func ue2StructBody(b *testutil.PackageBuilder, flags byte) ([]byte, int64) {
	none := format.EncodeIndex(b.Name("None"))
	var body []byte
	body = append(body, none...)     // end of script properties
	body = append(body, 0, 0)        // Super, Next
	body = append(body, 0, 0)        // ScriptText, Children
	body = append(body, none...)     // FriendlyName
	body = append(body, 0)           // CppText
	body = append(body, 10, 0, 0, 0) // Line
	body = append(body, 0x34, 0x12, 0, 0)
	body = append(body, 0, 0, 0, 0) // ScriptSize
	offset := int64(len(body))
	return append(body, flags, 0, 0, 0), offset
}

func TestUE2StructLayout(t *testing.T) {
	b := testutil.NewPackage(128, 29)
	raw, offset := ue2StructBody(b, 0x1)
	b.AddExport(testutil.Export{
		Name:  "Range",
		Class: b.AddImport("Core", "Class", "Struct", 0),
		Body:  testutil.Body{Bytes: raw},
	})
	path, _ := b.WriteFile(t, "Structs.u")

	p, err := Open(path, Options{})
	require.NoError(t, err)
	defer p.Close()

	o := p.ExportObjects()[0]
	require.Equal(t, Deserialized, o.State(), "%v", o.DeserializeErr)
	assert.Equal(t, offset, fieldOffset(o, "StructFlags"))
	assert.Equal(t, uint64(0x1), fieldValue(o, "StructFlags"))
	assert.Equal(t, uint64(10), fieldValue(o, "Line"))
	assert.Equal(t, uint64(0x1234), fieldValue(o, "TextPos"))
	assert.Equal(t, offset-4, fieldOffset(o, "ScriptSize"))
}

func TestStructTextFieldsByVersion(t *testing.T) {
	tests := []struct {
		version      int
		friendlyName bool
		cppText      bool
	}{
		{61, true, false},
		{119, true, false},
		{120, true, true},
		{128, true, true},
		{188, true, true},
		{189, false, true},
		{868, false, true},
	}
	for _, tt := range tests {
		b := testutil.NewPackage(tt.version, 0)
		b.AddExport(testutil.Export{
			Name:  "Vec",
			Class: b.AddImport("Core", "Class", "ScriptStruct", 0),
			Body:  b.ScriptStructBody(0x3),
		})
		path, _ := b.WriteFile(t, "Text.u")

		p, err := Open(path, Options{})
		require.NoError(t, err, "version %d", tt.version)
		o := p.ExportObjects()[0]
		require.Equal(t, Deserialized, o.State(), "version %d: %v", tt.version, o.DeserializeErr)
		assert.Equal(t, tt.friendlyName, fieldOffset(o, "FriendlyName") >= 0, "version %d", tt.version)
		assert.Equal(t, tt.cppText, fieldOffset(o, "CppText") >= 0, "version %d", tt.version)
		assert.Equal(t, b.Exports[0].Body.Fields["StructFlags"], fieldOffset(o, "StructFlags"), "version %d", tt.version)
		assert.Equal(t, uint64(0x3), fieldValue(o, "StructFlags"), "version %d", tt.version)
		require.NoError(t, p.Close())
	}
}

func TestPackedPropertiesDecode(t *testing.T) {
	b := testutil.NewPackage(128, 29)
	b.AddExport(testutil.Export{
		Name:  "Settings",
		Class: b.AddImport("Engine", "Class", "Info", 0),
		Body: b.ObjectBody(
			testutil.Tag{Name: "bEnabled", Type: "BoolProperty", Bool: true},
			testutil.Tag{Name: "Speed", Type: "FloatProperty", Value: []byte{0, 0, 128, 63}},
			testutil.Tag{Name: "Offset", Type: "StructProperty", StructName: "Vector", Value: make([]byte, 12)},
			testutil.Tag{Name: "Label", Type: "NameProperty", Value: make([]byte, 40)},
		),
	})
	path, _ := b.WriteFile(t, "Packed.u")

	p, err := Open(path, Options{})
	require.NoError(t, err)
	defer p.Close()
	o := p.ExportObjects()[0]
	assert.Equal(t, Deserialized, o.State(), "%v", o.DeserializeErr)
	assert.Equal(t, []string{"Info", "Actor", "Object"}, p.Ancestry(o))
}

func TestAncestryFollowsExportSupers(t *testing.T) {
	b := testutil.NewPackage(868, 0)
	actor := b.AddImport("Engine", "Class", "Actor", 0)
	b.AddExport(testutil.Export{Name: "MyActor", Super: actor, Body: b.ClassBody(0, 0)})
	b.AddExport(testutil.Export{Name: "MyPawn", Super: 1, Body: b.ClassBody(0, 0)})
	b.AddExport(testutil.Export{Name: "Inst", Class: 2, Body: b.ObjectBody()})
	b.AddExport(testutil.Export{Name: "Odd", Class: b.AddImport("Foo", "Class", "Widget", 0), Body: b.ObjectBody()})
	path, _ := b.WriteFile(t, "Anc.u")

	p, err := Open(path, Options{})
	require.NoError(t, err)
	defer p.Close()

	objs := p.ExportObjects()
	assert.Equal(t, []string{"MyPawn", "MyActor", "Actor", "Object"}, p.Ancestry(objs[2]))
	assert.Equal(t, []string{"Class", "State", "Struct", "Field", "Object"}, p.Ancestry(objs[0]))
	assert.Equal(t, []string{"Widget"}, p.Ancestry(objs[3]))
	assert.True(t, KnownClass("texture2d"))
	assert.False(t, KnownClass("Widget"))
}

func TestNumberedNames(t *testing.T) {
	b := testutil.NewPackage(868, 0)
	b.AddExport(testutil.Export{Name: "Light", Number: 3, Class: b.AddImport("Engine", "Class", "Light", 0), Body: b.ObjectBody()})
	path, _ := b.WriteFile(t, "Num.u")

	p, err := Open(path, Options{})
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, "Light_2", p.ExportObjects()[0].Name)
	assert.Equal(t, "<name 99>", p.NameString(NameRef{Index: 99}))
	assert.Nil(t, p.ObjectByRef(0))
	assert.Nil(t, p.ObjectByRef(42))
}

func fieldOffset(o *Object, name string) int64 {
	for _, f := range o.Meta.Fields {
		if f.Name == name {
			return f.Offset
		}
	}
	return -1
}

func fieldValue(o *Object, name string) uint64 {
	for _, f := range o.Meta.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return 0
}

func writeRaw(t *testing.T, data []byte) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "raw-*.upk")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}
