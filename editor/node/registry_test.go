package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/upkflags/internal/format"
	"github.com/joshuapare/upkflags/internal/testutil"
	"github.com/joshuapare/upkflags/upk"
)

func typeOf(t *testing.T, r *Registry, ancestry ...string) string {
	t.Helper()
	e, ok := r.Resolve(ancestry)
	require.True(t, ok, "%v", ancestry)
	return e.Factory(&Context{}, &upk.Object{ClassName: ancestry[0]}).TypeName()
}

func TestDefaultRegistryResolve(t *testing.T) {
	r := DefaultRegistry()
	tests := []struct {
		ancestry []string
		want     string
	}{
		{[]string{"Class", "State", "Struct", "Field", "Object"}, "Class"},
		{[]string{"Function", "Struct", "Field", "Object"}, "Function"},
		{[]string{"ScriptStruct", "Struct", "Field", "Object"}, "Struct"},
		{[]string{"IntProperty", "Property", "Field", "Object"}, "Property"},
		{[]string{"MyPawn", "MyActor", "Actor", "Object"}, "Object"},
		{[]string{"Package", "Object"}, "Package"},
		{[]string{"Object"}, "Object"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, typeOf(t, r, tt.ancestry...), "%v", tt.ancestry)
	}

	// exact-only registrations do not match subclasses
	_, ok := r.Resolve([]string{"MyState", "Struct"})
	assert.False(t, ok)
}

func TestRegistryPriority(t *testing.T) {
	r := NewRegistry()
	r.Register("Widget", SpecFactory(ConstSpec), PriorityDefault, false)
	r.Register("widget", SpecFactory(EnumSpec), PriorityObject, false)
	r.Register("Gadget", SpecFactory(ConstSpec), PriorityDefault, true)
	r.Register("Gadget", SpecFactory(EnumSpec), PriorityDefault, true)

	assert.Equal(t, "Enum", typeOf(t, r, "Widget"))
	assert.Equal(t, "Const", typeOf(t, r, "SubGadget", "Gadget"))
	assert.Equal(t, []string{"GADGET", "WIDGET"}, r.Classes())

	entries := r.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, "GADGET", entries[0].Class)
	assert.Equal(t, PriorityObject, entries[3].Priority)
}

func TestResolveObject(t *testing.T) {
	b := testutil.NewPackage(868, 0)
	b.AddExport(testutil.Export{Name: "Tex", Class: b.AddImport("Engine", "Class", "Texture2D", 0), Body: b.ObjectBody()})
	b.AddExport(testutil.Export{Name: "Count", Class: b.AddImport("Core", "Class", "IntProperty", 0), Body: b.PropertyBody(0)})
	b.AddExport(testutil.Export{Name: "MyClass", Body: b.ClassBody(0, 0)})
	p, _, _ := openBuilt(t, b, "Resolve.u", upk.Options{})

	r := DefaultRegistry()
	want := []string{"UNKNOWNOBJECT", "PROPERTY", "CLASS"}
	for i, o := range p.ExportObjects() {
		e, ok := r.ResolveObject(p, o)
		require.True(t, ok, o.Name)
		assert.Equal(t, want[i], e.Class, o.Name)
	}

	empty := NewRegistry()
	_, ok := empty.ResolveObject(p, p.ExportObjects()[0])
	assert.False(t, ok)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindFunction, ClassifyFunction(FuncFinal))
	assert.Equal(t, KindEvent, ClassifyFunction(FuncEvent))
	assert.Equal(t, KindOperator, ClassifyFunction(FuncOperator|FuncEvent))
	assert.Equal(t, KindDelegate, ClassifyFunction(FuncDelegate|FuncOperator))
	assert.Equal(t, "Delegate", KindDelegate.String())

	fn := &upk.Object{ClassName: "Function"}
	arr := &upk.Object{ClassName: "ArrayProperty"}
	cls := &upk.Object{ClassName: "Class"}
	assert.Equal(t, KindReturn, ClassifyProperty(PropReturnParm|PropParm, fn))
	assert.Equal(t, KindParameter, ClassifyProperty(PropParm, fn))
	assert.Equal(t, KindLocal, ClassifyProperty(0, fn))
	assert.Equal(t, KindTemplate, ClassifyProperty(0, arr))
	assert.Equal(t, KindVariable, ClassifyProperty(0, cls))
	assert.Equal(t, KindVariable, ClassifyProperty(0, nil))
	assert.Equal(t, "Local", KindLocal.String())
}

func TestTableResolve(t *testing.T) {
	ahit := format.Identity{Version: 877, Licensee: 5, Build: format.BuildAHIT}
	groups, skipped := FunctionFlagsTable.Resolve(ahit)
	assert.Empty(t, skipped)
	var headers []string
	for _, g := range groups {
		headers = append(headers, g.Header)
	}
	assert.Contains(t, headers, "AHIT")
	assert.NotContains(t, headers, "Vengeance")

	plain := format.Identity{Version: 868}
	groups, _ = FunctionFlagsTable.Resolve(plain)
	for _, g := range groups {
		assert.NotEqual(t, "AHIT", g.Header)
	}

	_, skipped = ClassFlagsTable.Resolve(format.Identity{Version: 128, Licensee: 29, Build: format.BuildUT2004})
	require.Len(t, skipped, 1)
	assert.Equal(t, "UT2004_CacheExempt", skipped[0].Flag.Name)
	assert.Equal(t, "HasComponents", skipped[0].By.Name)
}
