package node

import (
	"fmt"
	"strings"

	"github.com/joshuapare/upkflags/editor/locate"
	"github.com/joshuapare/upkflags/editor/prop"
	"github.com/joshuapare/upkflags/internal/format"
	"github.com/joshuapare/upkflags/upk"
)

// WordSpec describes a flag word captured from an object body.
type WordSpec struct {
	// Names lists the field names the word may be recorded under.
	Names []string
	Table *Table
	// Required reports whether a missing field deserves an error notice.
	Required func(o *upk.Object) bool
	// Deny returns a reason when the word must not be edited in this
	// package.
	Deny func(id format.Identity) (string, bool)
}

// Spec describes one kind of object node.
type Spec struct {
	TypeName     string
	Sort         int
	Alphabetical bool
	// Deserialize asks for the object body before the words are read.
	Deserialize bool
	// Words lists the body words, base class first.
	Words []WordSpec
	// Display derives the kind shown to users. Nil shows the class name.
	Display func(n *Object) string
}

// Object is the node of a package object.
type Object struct {
	Base
	spec       *Spec
	obj        *upk.Object
	dummy      bool
	defaultObj bool

	flags *Word
	words []*Word
}

// NewObject returns the node of obj built from spec.
func NewObject(ctx *Context, spec *Spec, obj *upk.Object) *Object {
	n := &Object{spec: spec, obj: obj}
	n.self = n
	n.ctx = ctx
	n.name = obj.Name
	n.defaultObj = isDefaultObject(obj)
	return n
}

// NewDummy returns the node of an object without a registered kind. It
// shows the object flags only.
func NewDummy(ctx *Context, obj *upk.Object) *Object {
	n := NewObject(ctx, DummySpec, obj)
	n.dummy = true
	return n
}

func isDefaultObject(o *upk.Object) bool {
	return o.Package != nil && o.Package.Version() >= format.VObjectFlagsToULONG &&
		o.HasObjectFlag(DefaultObjectFlag)
}

// DefaultObjectFlag marks the default template of a class.
const DefaultObjectFlag = 0x200 << format.HighShift

// Kind returns the upper-case class name. Exports without a class are
// classes.
func (n *Object) Kind() string {
	if n.obj.IsExport() && n.obj.IsClass() || n.obj.ClassName == "" {
		return "CLASS"
	}
	return strings.ToUpper(n.obj.ClassName)
}

func (n *Object) TypeName() string      { return n.spec.TypeName }
func (n *Object) ReferencePath() string { return n.obj.ReferencePath() }
func (n *Object) Object() *upk.Object   { return n.obj }

// Dummy reports whether n stands in for an unregistered kind.
func (n *Object) Dummy() bool { return n.dummy }

// DefaultObject reports whether n is the default template of a class.
func (n *Object) DefaultObject() bool { return n.defaultObj }

func (n *Object) DisplayKind() string {
	if n.spec.Display != nil {
		return n.spec.Display(n)
	}
	if n.Kind() == "CLASS" {
		return "Class"
	}
	return n.obj.ClassName
}

func (n *Object) SortPriority() int {
	if n.defaultObj && (n.dummy || n.spec.Sort == SortObject) {
		return SortDefaults
	}
	return n.spec.Sort
}

func (n *Object) SortAlphabetically() bool { return n.spec.Alphabetical || n.defaultObj }

// ObjectFlags returns the export's object flags word, nil for imports or
// before InitNode.
func (n *Object) ObjectFlags() *Word { return n.flags }

// Word returns the body word recorded under name, or nil.
func (n *Object) Word(name string) *Word {
	for _, w := range n.words {
		if w.Name == name {
			return w
		}
	}
	return nil
}

func (n *Object) wordValue(name string) uint64 {
	if w := n.Word(name); w != nil {
		return w.Get()
	}
	return 0
}

// InitNode decodes the body when the kind needs it and reads the flag
// words. Missing required fields become error notices.
func (n *Object) InitNode() error {
	o := n.obj
	if n.spec.Deserialize && o.IsExport() && o.State() == upk.NotDeserialized {
		// Failures are recorded on the object.
		_ = o.Deserialize()
	}
	if o.State() == upk.DeserializeFailed {
		n.errFlags |= ErrDeserialization
		n.notice(LevelError, "Deserialization exception:", fmt.Sprintf(
			"At %d/%d in object buffer.\n%v\nThis package might not be fully supported.",
			o.ErrorPosition, o.Export.SerialSize, o.DeserializeErr))
	}

	if o.Export != nil {
		n.flags = newWord("ObjectFlags", o.Export.ObjectFlags)
		n.flags.Size = n.identity().ObjectFlagsEncoding().Size()
	}

	id := n.identity()
	n.words = make([]*Word, len(n.spec.Words))
	for i, ws := range n.spec.Words {
		required := ws.Required == nil || ws.Required(o)
		f, err := locate.Field(o.Meta, ws.Names, required)
		if err != nil {
			n.notice(LevelError, missingField(ws.Names), "")
		}
		w := newWord(ws.Names[len(ws.Names)-1], f.Value)
		if f.Present() {
			w.Name = f.Name
			w.Size = f.Size
			w.Offset = o.Export.SerialOffset + f.Offset
			if ws.Deny != nil {
				if reason, deny := ws.Deny(id); deny {
					w.Deny(reason)
					n.notice(LevelWarning, reason, "")
				}
			}
		}
		n.words[i] = w
	}
	return nil
}

func missingField(names []string) string {
	if len(names) == 1 {
		return fmt.Sprintf("Couldn't find recorded property %s!", names[0])
	}
	return fmt.Sprintf("Couldn't find recorded property with one of these names: %s!", strings.Join(names, ", "))
}

func (n *Object) identity() format.Identity {
	return n.ctx.Package.Identity()
}

// PreInitProperties builds the properties once: the dummy notice, the body
// words most derived first, then the object flags. A failed InitNode leaves
// only the first, a failed decode skips the body words.
func (n *Object) PreInitProperties() {
	if n.propsDone {
		return
	}
	n.PreInitNode()
	n.beginProperties()
	if n.dummy {
		n.notice(LevelInfo, "Unregistered node type: "+n.DisplayKind(), "")
	}
	if n.errFlags&ErrInit == 0 {
		if n.errFlags&ErrDeserialization == 0 {
			for i := len(n.words) - 1; i >= 0; i-- {
				n.addTable(n.words[i], n.spec.Words[i].Table)
			}
		}
		n.exportTableProperties()
	}
	n.finishProperties()
}

func (n *Object) exportTableProperties() {
	if n.flags == nil {
		return
	}
	id := n.identity()
	if !locate.ExportTableSupported(id) {
		reason := "Changes to ObjectFlags aren't supported for this package, as it uses an unsupported branch."
		n.notice(LevelWarning, reason, "")
		n.flags.Deny(reason)
	} else {
		loc, err := locate.ObjectFlags(n.ctx.Package.Stream(), id, n.obj.Export.EntryOffset, n.obj.Export.ObjectFlags)
		if err != nil {
			n.notice(LevelError, "Position lookup exception - Changes to ObjectFlags have been disabled.", err.Error())
			n.flags.Deny("object flags could not be located")
		} else {
			n.flags.Offset = loc.Offset
			n.flags.Size = loc.Size()
			n.flags.Split = loc.Encoding == format.FlagsSplit64
		}
	}
	n.addTable(n.flags, ObjectFlagsTable)
}

// SaveChanges writes the object flags, then the body words base first.
func (n *Object) SaveChanges() error {
	s := n.ctx.Package.Stream()
	if n.flags != nil {
		if _, err := n.flags.Save(s); err != nil {
			return err
		}
	}
	for _, w := range n.words {
		if _, err := w.Save(s); err != nil {
			return err
		}
	}
	return nil
}

// ApplyToDefault records every edited value as saved.
func (n *Object) ApplyToDefault() {
	n.applyProperties()
	if n.flags != nil {
		n.flags.ApplyToDefault()
	}
	for _, w := range n.words {
		w.ApplyToDefault()
	}
}

// addTable adds a header and flag properties for every group of t that
// applies to the package. Absent words add nothing.
func (b *Base) addTable(w *Word, t *Table) {
	if w == nil || !w.Present() {
		return
	}
	groups, skipped := t.Resolve(b.ctx.Package.Identity())
	for _, s := range skipped {
		b.notice(LevelInfo, fmt.Sprintf("%s skipped, mask 0x%X is already used by %s.",
			t.Identifier(s.Flag.Name), s.Flag.Mask, s.By.Name), "")
	}
	for _, g := range groups {
		var defs []FlagDef
		for _, d := range g.Flags {
			if w.fits(d.Mask) {
				defs = append(defs, d)
			}
		}
		if len(defs) == 0 {
			continue
		}
		if g.Header != "" {
			b.addProperty(prop.NewHeader(t.HeaderIdentifier(g.Header), g.Header))
		}
		for _, d := range defs {
			b.addProperty(b.bindFlag(w, t.Identifier(d.Name), d))
		}
	}
}

const lowHalf = 0xFFFFFFFF

func (b *Base) bindFlag(w *Word, id string, d FlagDef) prop.Property {
	denied, reason := w.Denied()
	opts := []prop.Option{
		prop.DeniedIf(denied, reason),
		prop.WithObserver(b),
		prop.Unverified(d.Unverified),
		prop.Describe(d.Description),
	}
	switch {
	case w.Split:
		get, set := prop.Split64(
			func() uint32 { return uint32(w.Get() >> format.HighShift) },
			w.Get32,
			func(v uint32) error { return w.Set(uint64(v)<<format.HighShift | w.Get()&lowHalf) },
			func(v uint32) error { return w.Set(w.Get()&^lowHalf | uint64(v)) },
		)
		return prop.NewFlag64(id, d.Mask, get, set, opts...)
	case w.Size <= 4:
		return prop.NewFlag32(id, uint32(d.Mask), w.Get32, w.Set32, opts...)
	default:
		return prop.NewFlag64(id, d.Mask, w.Get, w.Set, opts...)
	}
}

func isScriptStruct(o *upk.Object) bool { return strings.EqualFold(o.ClassName, "ScriptStruct") }

var (
	structWord = WordSpec{Names: []string{"StructFlags"}, Table: StructFlagsTable, Required: isScriptStruct}
	stateWord  = WordSpec{
		Names: []string{"_StateFlags", "StateFlags"},
		Table: StateFlagsTable,
		Required: func(o *upk.Object) bool {
			return o.Package != nil && o.Package.Version() >= format.VStateFlags
		},
	}
	classWord    = WordSpec{Names: []string{"ClassFlags"}, Table: ClassFlagsTable}
	functionWord = WordSpec{Names: []string{"FunctionFlags"}, Table: FunctionFlagsTable}
	propertyWord = WordSpec{
		Names: []string{"PropertyFlags"},
		Table: PropertyFlagsTable,
		Deny: func(id format.Identity) (string, bool) {
			if id.Build.Family() == format.FamilyRSS && id.Licensee >= 101 {
				return "Editing PropertyFlags has been momentarily disabled for Rocksteady games, due to a lack of clarity about their custom format.", true
			}
			return "", false
		},
	}
)

// Built-in node kinds.
var (
	ObjectSpec     = &Spec{TypeName: "Object", Sort: SortObject}
	DummySpec      = &Spec{TypeName: "Dummy", Sort: SortDummies}
	PackageSpec    = &Spec{TypeName: "Package", Sort: SortObject}
	TextBufferSpec = &Spec{TypeName: "TextBuffer", Sort: SortTextBuffer}
	MetaDataSpec   = &Spec{TypeName: "MetaData", Sort: SortMetaData}
	ConstSpec      = &Spec{TypeName: "Const", Sort: SortConst}
	EnumSpec       = &Spec{TypeName: "Enum", Sort: SortEnum}
	StructSpec     = &Spec{TypeName: "Struct", Sort: SortStruct, Deserialize: true, Words: []WordSpec{structWord}}
	StateSpec      = &Spec{TypeName: "State", Sort: SortState, Deserialize: true, Words: []WordSpec{structWord, stateWord}}
	ClassSpec      = &Spec{
		TypeName: "Class", Sort: SortClass, Alphabetical: true, Deserialize: true,
		Words: []WordSpec{structWord, stateWord, classWord},
	}
	FunctionSpec = &Spec{
		TypeName: "Function", Sort: SortFunction, Deserialize: true,
		Words: []WordSpec{structWord, functionWord},
		Display: func(n *Object) string {
			return ClassifyFunction(n.wordValue("FunctionFlags")).String()
		},
	}
	PropertySpec = &Spec{
		TypeName: "Property", Sort: SortProperty, Deserialize: true,
		Words: []WordSpec{propertyWord},
		Display: func(n *Object) string {
			return ClassifyProperty(n.wordValue("PropertyFlags"), n.obj.Outer).String()
		},
	}
)
