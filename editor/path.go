package editor

import (
	"strings"
	"unicode"

	"github.com/joshuapare/upkflags/editor/node"
)

// ObjectPath is a parsed object reference. Every string is upper-case.
type ObjectPath struct {
	// Type is the class named by a Type'...' cast, "" without one.
	Type     string
	Elements []string
}

func (p ObjectPath) String() string {
	s := strings.Join(p.Elements, ".")
	if p.Type != "" {
		return p.Type + "'" + s + "'"
	}
	return s
}

// ParseObjectPath parses Package.Group.Object, optionally wrapped in a
// Type'...' cast. Colons separate subobjects like periods do.
func ParseObjectPath(s string) (ObjectPath, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ObjectPath{}, pathErrorf(ErrInvalidPath, "Object path is empty!")
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return ObjectPath{}, pathErrorf(ErrInvalidPath,
			"Invalid whitespace found in object path %q! Object paths may not contain whitespace (such as spaces).", s)
	}

	var out ObjectPath
	path := s
	if i := strings.IndexByte(s, '\''); i >= 0 {
		if len(s)-i <= 1 || s[len(s)-1] != '\'' {
			return ObjectPath{}, pathErrorf(ErrInvalidPath, "Invalid or unclosed cast apostrophe found in object path %q!", s)
		}
		if len(s)-i == 2 {
			return ObjectPath{}, pathErrorf(ErrInvalidPath, "Object path is empty!")
		}
		path = s[i+1 : len(s)-1]
		if n := strings.Count(path, "'"); n > 0 {
			return ObjectPath{}, pathErrorf(ErrInvalidPath, "Invalid number of cast apostrophes %d in object path %q!", n+2, s)
		}
		out.Type = strings.ToUpper(s[:i])
	}

	out.Elements = strings.FieldsFunc(strings.ToUpper(path), func(r rune) bool {
		return r == '.' || r == ':'
	})
	if len(out.Elements) == 0 {
		return ObjectPath{}, pathErrorf(ErrInvalidPath, "Object path is empty!")
	}
	return out, nil
}

// FindObject resolves an object path against the hierarchy.
//
// The path is tried both with its first element naming the package and
// relative to the package root. A typed path prefers the package-qualified
// match when its type fits; an untyped path that resolves both ways is
// ambiguous. Not finding anything returns ErrObjectNotFound.
func (e *Engine) FindObject(path string) (node.Node, error) {
	p, err := ParseObjectPath(path)
	if err != nil {
		return nil, err
	}
	return e.Find(p)
}

// Find resolves a parsed object path. See FindObject.
func (e *Engine) Find(p ObjectPath) (node.Node, error) {
	if e.pkg == nil {
		return nil, ErrNoPackageLoaded
	}
	if !e.opts.Hierarchy {
		return nil, ErrNoHierarchy
	}

	var explicit node.Node
	if strings.EqualFold(e.root.Name(), p.Elements[0]) {
		explicit = e.walk(p.Elements[1:])
		if explicit != nil && p.Type != "" && isType(explicit, p.Type) {
			return explicit, nil
		}
	}
	implicit := e.walk(p.Elements)

	switch {
	case implicit != nil && explicit != nil:
		if p.Type == "" {
			hint := " Please specify a type in your object path."
			if implicit.Kind() == explicit.Kind() {
				hint = " Please specify the object's type, and write the full object path, including the root " + e.root.Name() + "."
			}
			return nil, pathErrorf(ErrAmbiguousPath, "Object path is ambiguous, and can mean either %s or %s!%s",
				implicit.ReferencePath(), explicit.ReferencePath(), hint)
		}
		if !isType(implicit, p.Type) {
			return nil, pathErrorf(ErrTypeMismatch, "Found objects %s and %s, but neither of them are of the required type %s!",
				explicit.ReferencePath(), implicit.ReferencePath(), p.Type)
		}
		return implicit, nil
	case implicit == nil && explicit == nil:
		return nil, pathErrorf(ErrObjectNotFound, "Could not find object %s!", p)
	case implicit == nil:
		if p.Type != "" {
			return nil, pathErrorf(ErrTypeMismatch, "Found object %s, but it's not of the required type %s!",
				explicit.ReferencePath(), p.Type)
		}
		return explicit, nil
	}
	if p.Type != "" && !isType(implicit, p.Type) {
		return nil, pathErrorf(ErrTypeMismatch, "Found object %s, but it's not of the required type %s!",
			implicit.ReferencePath(), p.Type)
	}
	return implicit, nil
}

// walk descends from the root one name at a time. Names compare without
// case.
func (e *Engine) walk(elements []string) node.Node {
	var current node.Node = e.root
	for _, name := range elements {
		var next node.Node
		for _, c := range current.Children() {
			if strings.EqualFold(c.Name(), name) {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		current = next
	}
	return current
}

func isType(n node.Node, typ string) bool {
	return typ == "" || n.Kind() == typ
}
