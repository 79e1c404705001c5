package upk

import (
	"strings"

	"github.com/pkg/errors"
)

// DeserializeState tracks whether an object body has been decoded.
type DeserializeState uint8

const (
	NotDeserialized DeserializeState = iota
	Deserialized
	DeserializeFailed
)

// Object is one export or import of a package.
type Object struct {
	Package *Package

	// Ref is the object reference that names this object in the tables:
	// export i is i+1, import i is -(i+1).
	Ref int32

	Name      string
	ClassName string
	// ClassPackage is set for imports only.
	ClassPackage string

	Outer *Object
	// Super is the parent struct or class for exports that have one.
	Super *Object

	Export *Export
	Import *Import

	// Meta holds the fields captured while decoding the body.
	Meta BinaryMetaData

	state          DeserializeState
	DeserializeErr error
	// ErrorPosition is the body-relative offset at which decoding failed.
	ErrorPosition int64
}

// IsExport reports whether the object is defined in this package.
func (o *Object) IsExport() bool { return o.Export != nil }

// IsClass reports whether the object is itself a class. Exports with a null
// class reference are classes.
func (o *Object) IsClass() bool {
	if o.Export != nil {
		return o.Export.ClassIndex == 0
	}
	return strings.EqualFold(o.ClassName, "Class")
}

// HasObjectFlag reports whether any bit of mask is set in the export's
// object flags. Imports have no flags.
func (o *Object) HasObjectFlag(mask uint64) bool {
	return o.Export != nil && o.Export.ObjectFlags&mask != 0
}

// Path returns the dot-joined names from the outermost object down to o.
func (o *Object) Path() string {
	var parts []string
	for cur := o; cur != nil; cur = cur.Outer {
		parts = append(parts, cur.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// PathWithPackage prefixes Path with the package name.
func (o *Object) PathWithPackage() string {
	if o.Package == nil {
		return o.Path()
	}
	return o.Package.Name + "." + o.Path()
}

// ReferencePath returns the Class'Package.Path' form used to name objects
// in instructions and reports.
func (o *Object) ReferencePath() string {
	class := o.ClassName
	if class == "" {
		class = "Class"
	}
	return class + "'" + o.PathWithPackage() + "'"
}

// State returns the body decoding state.
func (o *Object) State() DeserializeState { return o.state }

// Deserialize decodes the object body with the decoder registered for the
// nearest class in its ancestry. It runs at most once. A decoding failure is
// recorded on the object and also returned.
func (o *Object) Deserialize() error {
	if o.state != NotDeserialized {
		return o.DeserializeErr
	}
	if o.Package == nil {
		return ErrNoPackage
	}
	o.state = Deserialized
	if o.Export == nil || o.Export.SerialSize <= 0 {
		return nil
	}
	dec := o.Package.decoderFor(o)
	if dec == nil {
		return nil
	}

	r, err := newBodyReader(o.Package.stream, o)
	if err == nil {
		err = dec(r)
	}
	if err != nil {
		o.state = DeserializeFailed
		o.DeserializeErr = errors.Wrapf(err, "deserialize %s", o.ReferencePath())
		if r != nil {
			o.ErrorPosition = r.Position()
		}
		return o.DeserializeErr
	}
	return nil
}
