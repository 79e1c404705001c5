package upk

import "strings"

// coreSupers maps built-in class names to their parent class. Object is the
// root. Classes missing here are unknown to the editor.
var coreSupers = map[string]string{
	"Object":     "",
	"Field":      "Object",
	"Struct":     "Field",
	"State":      "Struct",
	"Class":      "State",
	"Function":   "Struct",
	"Const":      "Field",
	"Enum":       "Field",
	"Property":   "Field",
	"TextBuffer": "Object",
	"MetaData":   "Object",
	"Package":    "Object",
	"Subsystem":  "Object",

	"ScriptStruct": "Struct",

	"ByteProperty":       "Property",
	"IntProperty":        "Property",
	"BoolProperty":       "Property",
	"FloatProperty":      "Property",
	"ObjectProperty":     "Property",
	"ClassProperty":      "ObjectProperty",
	"ComponentProperty":  "ObjectProperty",
	"NameProperty":       "Property",
	"StrProperty":        "Property",
	"StringProperty":     "Property",
	"FixedArrayProperty": "Property",
	"ArrayProperty":      "Property",
	"MapProperty":        "Property",
	"StructProperty":     "Property",
	"DelegateProperty":   "Property",
	"InterfaceProperty":  "Property",
	"PointerProperty":    "Property",

	"Component":      "Object",
	"ActorComponent": "Component",
	"Actor":          "Object",
	"Info":           "Actor",
	"Brush":          "Actor",
	"Volume":         "Brush",

	"Surface":       "Object",
	"Texture":       "Surface",
	"Texture2D":     "Texture",
	"Material":      "Object",
	"Sound":         "Object",
	"SoundNodeWave": "Object",
	"Model":         "Object",
	"Polys":         "Object",
	"Level":         "Object",
	"World":         "Object",
	"Palette":       "Object",
	"Font":          "Object",
	"Mesh":          "Object",
	"StaticMesh":    "Object",
	"SkeletalMesh":  "Object",
}

var coreByUpper = func() map[string]string {
	m := make(map[string]string, len(coreSupers))
	for name := range coreSupers {
		m[strings.ToUpper(name)] = name
	}
	return m
}()

// KnownClass reports whether name is a built-in class, case-insensitively.
func KnownClass(name string) bool {
	_, ok := coreByUpper[strings.ToUpper(name)]
	return ok
}

// CoreAncestry returns the built-in ancestry of name, most specific first,
// or nil when name is unknown.
func CoreAncestry(name string) []string {
	canon, ok := coreByUpper[strings.ToUpper(name)]
	if !ok {
		return nil
	}
	var out []string
	for cur := canon; cur != ""; cur = coreSupers[cur] {
		out = append(out, cur)
	}
	return out
}

// maxAncestry bounds super chains so a cyclic table cannot loop forever.
const maxAncestry = 64

// Ancestry returns the class ancestry of o, most specific first. Classes
// defined in this package contribute their export super chain; the walk
// continues through the built-in table from the first built-in name.
// Unknown chains end without reaching Object.
func (p *Package) Ancestry(o *Object) []string {
	if o.IsClass() {
		return CoreAncestry("Class")
	}
	var out []string
	seen := 0
	cls := p.classObject(o)
	name := o.ClassName
	for cls != nil && cls.IsExport() && seen < maxAncestry {
		if KnownClass(cls.Name) {
			name = cls.Name
			cls = nil
			break
		}
		out = append(out, cls.Name)
		seen++
		name = ""
		cls = cls.Super
		if cls != nil {
			name = cls.Name
		}
	}
	if name == "" {
		return out
	}
	if core := CoreAncestry(name); core != nil {
		return append(out, core...)
	}
	return append(out, name)
}

// classObject returns the export or import that is o's class, if any.
func (p *Package) classObject(o *Object) *Object {
	if o.Export == nil {
		return nil
	}
	return p.ObjectByRef(o.Export.ClassIndex)
}
