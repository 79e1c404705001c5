package node

import (
	"github.com/joshuapare/upkflags/editor/locate"
	"github.com/joshuapare/upkflags/upk"
)

// Root is the node of the package file itself. It owns the package flags
// of the summary.
type Root struct {
	Base
	flags *Word
}

// NewRoot returns the root node of ctx.Package.
func NewRoot(ctx *Context) *Root {
	r := &Root{}
	r.self = r
	r.ctx = ctx
	r.name = ctx.Package.Name
	return r
}

func (r *Root) Kind() string             { return "PACKAGE" }
func (r *Root) TypeName() string         { return "Root" }
func (r *Root) ReferencePath() string    { return "Package'" + r.name + "'" }
func (r *Root) DisplayKind() string      { return "Package" }
func (r *Root) Object() *upk.Object      { return nil }
func (r *Root) SortPriority() int        { return SortObject }
func (r *Root) SortAlphabetically() bool { return false }

// PackageFlags returns the summary's package flags word.
func (r *Root) PackageFlags() *Word { return r.flags }

func (r *Root) InitNode() error {
	r.flags = newWord("PackageFlags", uint64(r.ctx.Package.Summary.PackageFlags))
	r.flags.Size = 4
	return nil
}

// PreInitProperties locates the package flags and builds their properties
// once. A failed lookup leaves them read-only.
func (r *Root) PreInitProperties() {
	if r.propsDone {
		return
	}
	r.PreInitNode()
	r.beginProperties()
	if r.errFlags&ErrInit == 0 {
		p := r.ctx.Package
		id := p.Identity()
		if !locate.HeaderSupported(id) {
			reason := "Changes to PackageFlags aren't supported for UE4."
			r.notice(LevelWarning, reason, "")
			r.flags.Deny(reason)
		} else if off, err := locate.PackageFlags(p.Stream(), id, p.Summary.PackageFlags); err != nil {
			r.notice(LevelError, "Position lookup exception - Changes to PackageFlags have been disabled.", err.Error())
			r.flags.Deny("package flags could not be located")
		} else {
			r.flags.Offset = off
		}
		r.addTable(r.flags, PackageFlagsTable)
	}
	r.finishProperties()
}

// SaveChanges writes the package flags when they changed.
func (r *Root) SaveChanges() error {
	if r.flags == nil {
		return nil
	}
	_, err := r.flags.Save(r.ctx.Package.Stream())
	return err
}

func (r *Root) ApplyToDefault() {
	r.applyProperties()
	if r.flags != nil {
		r.flags.ApplyToDefault()
	}
}
