package testutil

import (
	"github.com/joshuapare/upkflags/internal/format"
)

// Tag is one script property written into an object body.
type Tag struct {
	Name       string
	Type       string // e.g. IntProperty, BoolProperty, StructProperty
	StructName string
	Value      []byte
	Bool       bool
}

// bodyWriter serializes one object body and remembers named offsets.
type bodyWriter struct {
	*writer
	b      *PackageBuilder
	fields map[string]int64
}

func (b *PackageBuilder) body() *bodyWriter {
	return &bodyWriter{writer: b.writer(), b: b, fields: map[string]int64{}}
}

func (w *bodyWriter) mark(name string) { w.fields[name] = w.pos() }

func (w *bodyWriter) done() Body {
	return Body{Bytes: w.buf.Bytes(), Fields: w.fields}
}

func (w *bodyWriter) object(isClass bool, tags []Tag) {
	if w.id.Version >= format.VNetObjects {
		w.u32(0)
	}
	if isClass {
		return
	}
	if w.id.Version < format.VUE3 {
		w.packedTags(tags)
	} else {
		w.tags(tags)
	}
	w.name(w.b.Name("None"), 0)
}

func (w *bodyWriter) tags(tags []Tag) {
	for _, t := range tags {
		w.name(w.b.Name(t.Name), 0)
		w.name(w.b.Name(t.Type), 0)
		w.u32(uint32(len(t.Value)))
		w.u32(0)
		switch t.Type {
		case "StructProperty":
			w.name(w.b.Name(t.StructName), 0)
		case "BoolProperty":
			var v uint8
			if t.Bool {
				v = 1
			}
			if w.id.Version < format.VBoolValueByte {
				w.u32(uint32(v))
			} else {
				w.u8(v)
			}
		case "ByteProperty":
			if w.id.Version >= format.VEnumNameInTag {
				w.name(w.b.Name("None"), 0)
			}
		}
		w.raw(t.Value)
	}
}

var packedTypes = map[string]uint8{
	"ByteProperty":   1,
	"IntProperty":    2,
	"BoolProperty":   3,
	"FloatProperty":  4,
	"ObjectProperty": 5,
	"NameProperty":   6,
	"StructProperty": 10,
}

func (w *bodyWriter) packedTags(tags []Tag) {
	for _, t := range tags {
		w.name(w.b.Name(t.Name), 0)
		typ := packedTypes[t.Type]
		info := typ
		value := t.Value
		if typ == 3 {
			value = nil
			if t.Bool {
				info |= 0x80
			}
		}
		var code uint8
		switch len(value) {
		case 0, 1:
			code = 0
		case 2:
			code = 1
		case 4:
			code = 2
		case 12:
			code = 3
		case 16:
			code = 4
		default:
			code = 7
		}
		info |= code << 4
		w.u8(info)
		if typ == 10 {
			w.name(w.b.Name(t.StructName), 0)
		}
		if code == 7 {
			w.u32(uint32(len(value)))
		}
		if typ == 3 {
			continue
		}
		if len(value) == 0 {
			w.u8(0)
			continue
		}
		w.raw(value)
	}
}

func (w *bodyWriter) field(isClass bool) {
	w.object(isClass, nil)
	if w.id.Version < format.VSuperInStruct {
		w.index(0)
	}
	w.index(0) // Next
}

func (w *bodyWriter) structPart(isClass bool, scriptSize int32) {
	w.field(isClass)
	if w.id.Version >= format.VSuperInStruct {
		w.index(0)
	}
	w.index(0) // ScriptText
	w.index(0) // Children
	if w.id.Version < format.VFriendlyName {
		w.mark("FriendlyName")
		w.name(w.b.Name("None"), 0)
	}
	if w.id.Version >= format.VCppText {
		w.index(0) // CppText
	}
	w.u32(0)   // Line
	w.u32(0)   // TextPos
	w.u32(uint32(scriptSize))
	if w.id.Version >= format.VScriptStorageSize {
		w.u32(uint32(scriptSize))
		w.zero(int(scriptSize))
	}
}

func (w *bodyWriter) statePart(isClass bool, stateFlags uint32) {
	w.structPart(isClass, 0)
	if w.id.Version < format.VProbeMaskReduced {
		w.u64(0)
		w.u64(0)
	} else {
		w.u32(0)
	}
	w.u16(0)
	if w.id.Version >= format.VStateFlags {
		w.mark("StateFlags")
		w.u32(stateFlags)
	}
	if w.id.Version >= format.VArchetype {
		w.u32(0)
	}
}

// ObjectBody writes a plain object body with the given script properties.
func (b *PackageBuilder) ObjectBody(tags ...Tag) Body {
	w := b.body()
	w.object(false, tags)
	return w.done()
}

// StructBody writes a struct body. On second generation packages a plain
// struct carries StructFlags.
func (b *PackageBuilder) StructBody(flags uint32) Body {
	w := b.body()
	w.structPart(false, 0)
	if b.Version >= format.VUE2 && b.Version < format.VUE3 {
		w.mark("StructFlags")
		w.u32(flags)
	}
	return w.done()
}

// StructBodyWithScript writes a struct body whose script size is scriptSize.
// Before format.VScriptStorageSize a non-zero size cannot be skipped.
func (b *PackageBuilder) StructBodyWithScript(scriptSize int32) Body {
	w := b.body()
	w.structPart(false, scriptSize)
	return w.done()
}

// ScriptStructBody writes a script struct body with StructFlags.
func (b *PackageBuilder) ScriptStructBody(flags uint32) Body {
	w := b.body()
	w.structPart(false, 0)
	w.mark("StructFlags")
	w.u32(flags)
	return w.done()
}

// StateBody writes a state body with StateFlags.
func (b *PackageBuilder) StateBody(flags uint32) Body {
	w := b.body()
	w.statePart(false, flags)
	return w.done()
}

// ClassBody writes a class body with StateFlags and ClassFlags.
func (b *PackageBuilder) ClassBody(stateFlags, classFlags uint32) Body {
	w := b.body()
	w.statePart(true, stateFlags)
	w.mark("ClassFlags")
	w.u32(classFlags)
	return w.done()
}

// FunctionBody writes a function body with FunctionFlags.
func (b *PackageBuilder) FunctionBody(flags uint32) Body {
	w := b.body()
	w.structPart(false, 0)
	if b.Version < format.VSizePrefixDeprecated {
		w.u16(0)
		w.u16(0)
		w.u8(0)
		w.u8(0)
		w.u16(0)
		w.mark("FunctionFlags")
		w.u32(flags)
		return w.done()
	}
	w.u16(0)
	w.u8(0)
	w.mark("FunctionFlags")
	w.u32(flags)
	if flags&0x40 != 0 {
		w.u16(0)
	}
	if b.Version >= format.VFriendlyName {
		w.name(b.Name("None"), 0)
	}
	return w.done()
}

// PropertyBody writes a property body with PropertyFlags, 64 bits wide
// from format.VPropertyFlags64.
func (b *PackageBuilder) PropertyBody(flags uint64) Body {
	w := b.body()
	w.field(false)
	w.u32(1) // ArrayDim
	w.mark("PropertyFlags")
	if b.Version >= format.VPropertyFlags64 {
		w.u64(flags)
	} else {
		w.u32(uint32(flags))
	}
	return w.done()
}

// EnumBody writes an enum body with the given names.
func (b *PackageBuilder) EnumBody(names ...string) Body {
	w := b.body()
	w.field(false)
	w.u32(uint32(len(names)))
	for _, n := range names {
		w.name(b.Name(n), 0)
	}
	return w.done()
}

// ConstBody writes a const body with the given value.
func (b *PackageBuilder) ConstBody(value string) Body {
	w := b.body()
	w.field(false)
	w.str(value)
	return w.done()
}
