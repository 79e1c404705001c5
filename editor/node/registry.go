package node

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/joshuapare/upkflags/upk"
)

// Registration priorities. Higher wins between entries matching at the
// same ancestry depth.
const (
	PriorityDefault  = 10
	PriorityProperty = 30
	PriorityObject   = 50
)

// UnknownClass is the discriminator resolved for classes missing from the
// built-in table.
const UnknownClass = "UnknownObject"

// Factory builds the node of obj.
type Factory func(ctx *Context, obj *upk.Object) Node

// Entry is one registration.
type Entry struct {
	// Class is the upper-case class discriminator.
	Class      string
	Factory    Factory
	Priority   int
	Subclasses bool
	order      int
}

// Registry maps class discriminators to node factories.
type Registry struct {
	byClass map[string][]Entry
	next    int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byClass: map[string][]Entry{}}
}

// Register adds a factory for class. With subclasses set it also applies to
// every class whose ancestry contains class.
func (r *Registry) Register(class string, f Factory, priority int, subclasses bool) {
	key := strings.ToUpper(class)
	r.byClass[key] = append(r.byClass[key], Entry{
		Class:      key,
		Factory:    f,
		Priority:   priority,
		Subclasses: subclasses,
		order:      r.next,
	})
	r.next++
}

// Resolve returns the entry for an ancestry, most specific class first. The
// first depth with a match wins; an exact match needs no subclass flag.
// Ties go to the higher priority, then to the earlier registration.
func (r *Registry) Resolve(ancestry []string) (Entry, bool) {
	for depth, class := range ancestry {
		var best Entry
		found := false
		for _, e := range r.byClass[strings.ToUpper(class)] {
			if depth > 0 && !e.Subclasses {
				continue
			}
			if !found || e.Priority > best.Priority || e.Priority == best.Priority && e.order < best.order {
				best, found = e, true
			}
		}
		if found {
			return best, true
		}
	}
	return Entry{}, false
}

// ResolveObject resolves the node kind of o. Classes the built-in table
// does not know fall back to UnknownClass.
func (r *Registry) ResolveObject(p *upk.Package, o *upk.Object) (Entry, bool) {
	anc := p.Ancestry(o)
	if e, ok := r.Resolve(anc); ok {
		return e, true
	}
	if len(anc) == 0 || !upk.KnownClass(anc[0]) {
		return r.Resolve([]string{UnknownClass})
	}
	return Entry{}, false
}

// Classes returns the registered discriminators in sorted order.
func (r *Registry) Classes() []string {
	keys := maps.Keys(r.byClass)
	slices.Sort(keys)
	return keys
}

// Entries returns every registration sorted by class, then registration
// order.
func (r *Registry) Entries() []Entry {
	var out []Entry
	for _, class := range r.Classes() {
		out = append(out, r.byClass[class]...)
	}
	return out
}

// SpecFactory returns a factory building Object nodes from spec.
func SpecFactory(spec *Spec) Factory {
	return func(ctx *Context, obj *upk.Object) Node { return NewObject(ctx, spec, obj) }
}

// DefaultRegistry registers the built-in node kinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	object := SpecFactory(ObjectSpec)
	r.Register("Object", object, PriorityObject, false)
	r.Register(UnknownClass, object, PriorityObject, false)
	r.Register("Actor", object, PriorityObject, true)
	r.Register("Component", object, PriorityObject, true)

	r.Register("Package", SpecFactory(PackageSpec), PriorityDefault, false)
	r.Register("TextBuffer", SpecFactory(TextBufferSpec), PriorityDefault, false)
	r.Register("MetaData", SpecFactory(MetaDataSpec), PriorityDefault, false)
	r.Register("Const", SpecFactory(ConstSpec), PriorityDefault, false)
	r.Register("Enum", SpecFactory(EnumSpec), PriorityDefault, false)
	r.Register("Struct", SpecFactory(StructSpec), PriorityDefault, false)
	r.Register("ScriptStruct", SpecFactory(StructSpec), PriorityDefault, false)
	r.Register("State", SpecFactory(StateSpec), PriorityDefault, false)
	r.Register("Class", SpecFactory(ClassSpec), PriorityDefault, false)
	r.Register("Function", SpecFactory(FunctionSpec), PriorityDefault, false)

	r.Register("Property", SpecFactory(PropertySpec), PriorityProperty, true)
	return r
}
