package upk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/joshuapare/upkflags/internal/format"
)

// Options configures Load.
type Options struct {
	// Build overrides build detection when not format.BuildDefault.
	Build format.Build
	// Decoders maps upper-case class names to body decoders. Nil selects
	// DefaultDecoders.
	Decoders map[string]BodyDecoder
	// DeserializeOnDemand defers body decoding until Object.Deserialize.
	DeserializeOnDemand bool
}

// Package is a loaded package: its summary, tables and object graph.
type Package struct {
	// Name is the file base name without extension.
	Name    string
	Summary *Summary
	Names   []NameEntry
	Imports []Import
	Exports []Export

	// Objects holds every export followed by every import.
	Objects []*Object

	exports  []*Object
	imports  []*Object
	stream   *Stream
	decoders map[string]BodyDecoder
	opts     Options
}

// Open opens path read-write and loads it.
func Open(path string, opts Options) (*Package, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	p, err := Load(NewStream(f), opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	return p, nil
}

// Load reads the summary and tables from s and builds the object graph.
// The package takes ownership of s.
func Load(s *Stream, opts Options) (*Package, error) {
	sum, err := readSummary(s, opts.Build)
	if err != nil {
		return nil, err
	}
	size, err := s.Size()
	if err != nil {
		return nil, err
	}

	p := &Package{
		Name:     packageName(s.Name()),
		Summary:  sum,
		stream:   s,
		decoders: opts.Decoders,
		opts:     opts,
	}
	if p.decoders == nil {
		p.decoders = DefaultDecoders()
	}
	if p.Names, err = readNames(s, sum, size); err != nil {
		return nil, err
	}
	if p.Imports, err = readImports(s, sum, size); err != nil {
		return nil, err
	}
	if p.Exports, err = readExports(s, sum, size); err != nil {
		return nil, err
	}
	p.buildObjects()

	if !opts.DeserializeOnDemand {
		for _, o := range p.exports {
			// failures stay on the object
			_ = o.Deserialize()
		}
	}
	return p, nil
}

func packageName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (p *Package) buildObjects() {
	p.exports = make([]*Object, len(p.Exports))
	for i := range p.Exports {
		exp := &p.Exports[i]
		p.exports[i] = &Object{
			Package: p,
			Ref:     int32(i + 1),
			Name:    p.NameString(exp.ObjectName),
			Export:  exp,
		}
	}
	p.imports = make([]*Object, len(p.Imports))
	for i := range p.Imports {
		imp := &p.Imports[i]
		p.imports[i] = &Object{
			Package:      p,
			Ref:          int32(-(i + 1)),
			Name:         p.NameString(imp.ObjectName),
			ClassName:    p.NameString(imp.ClassName),
			ClassPackage: p.NameString(imp.ClassPackage),
			Import:       imp,
		}
	}

	for _, o := range p.exports {
		if cls := p.ObjectByRef(o.Export.ClassIndex); cls != nil {
			o.ClassName = cls.Name
		} else {
			o.ClassName = "Class"
		}
		o.Outer = p.ObjectByRef(o.Export.OuterIndex)
		o.Super = p.ObjectByRef(o.Export.SuperIndex)
	}
	for _, o := range p.imports {
		o.Outer = p.ObjectByRef(o.Import.OuterIndex)
	}

	p.Objects = make([]*Object, 0, len(p.exports)+len(p.imports))
	p.Objects = append(p.Objects, p.exports...)
	p.Objects = append(p.Objects, p.imports...)
}

// ExportObjects returns the objects defined in the package, in table order.
func (p *Package) ExportObjects() []*Object { return p.exports }

// ImportObjects returns the imported objects, in table order.
func (p *Package) ImportObjects() []*Object { return p.imports }

// ObjectByRef resolves an object reference. Zero and out-of-range
// references return nil.
func (p *Package) ObjectByRef(ref int32) *Object {
	switch {
	case ref > 0 && int(ref) <= len(p.exports):
		return p.exports[ref-1]
	case ref < 0 && int(-ref) <= len(p.imports):
		return p.imports[-ref-1]
	}
	return nil
}

// NameString resolves a name reference. Numbered names render as
// Name_N with N one less than the stored number.
func (p *Package) NameString(ref NameRef) string {
	if ref.Index < 0 || int(ref.Index) >= len(p.Names) {
		return fmt.Sprintf("<name %d>", ref.Index)
	}
	n := p.Names[ref.Index].Name
	if ref.Number > 0 {
		return fmt.Sprintf("%s_%d", n, ref.Number-1)
	}
	return n
}

// Stream returns the live stream.
func (p *Package) Stream() *Stream { return p.stream }

// SetStream replaces the live stream without closing the previous one.
func (p *Package) SetStream(s *Stream) { p.stream = s }

// Identity returns the identity the package was loaded with.
func (p *Package) Identity() format.Identity { return p.stream.Identity() }

// Version returns the package file version.
func (p *Package) Version() int { return p.Summary.Version }

// Licensee returns the package licensee version.
func (p *Package) Licensee() int { return p.Summary.Licensee }

// Build returns the detected or overridden build.
func (p *Package) Build() format.Build { return p.stream.Identity().Build }

// DeserializeOnDemand reports whether bodies are decoded lazily.
func (p *Package) DeserializeOnDemand() bool { return p.opts.DeserializeOnDemand }

// Close closes the live stream.
func (p *Package) Close() error {
	if p.stream == nil {
		return nil
	}
	return errors.Wrap(p.stream.Close(), "close package")
}
