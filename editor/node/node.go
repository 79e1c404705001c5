// Package node binds package objects to editable flag words.
//
// Every export gets one Node, chosen through a Registry from the object's
// class ancestry. A node locates its flag words when it is initialized and
// builds prop.Flag values over them on demand. Nodes that were never asked
// for their properties report no changes.
//
// Nodes write through the package's live stream at save time, so a stream
// swapped by a migration is picked up without rebuilding them.
package node

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/joshuapare/upkflags/editor/prop"
	"github.com/joshuapare/upkflags/upk"
)

// ErrorFlags records the failures a node ran into.
type ErrorFlags uint8

const (
	// ErrDeserialization means the object body could not be decoded.
	ErrDeserialization ErrorFlags = 0x02
	// ErrInit means InitNode failed.
	ErrInit ErrorFlags = 0x04
	// ErrOther covers every other failure.
	ErrOther ErrorFlags = 0x08
)

func (f ErrorFlags) String() string {
	if f == 0 {
		return "none"
	}
	var out string
	add := func(s string) {
		if out != "" {
			out += "|"
		}
		out += s
	}
	if f&ErrDeserialization != 0 {
		add("deserialization")
	}
	if f&ErrInit != 0 {
		add("init")
	}
	if f&ErrOther != 0 {
		add("other")
	}
	return out
}

// Level is the severity of a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Notice is a message attached to a node during initialization.
type Notice struct {
	Level  Level
	Title  string
	Detail string
}

// Sort priorities. Lower values sort first.
const (
	SortMetaData   = 10
	SortClass      = 20
	SortTextBuffer = 30
	SortEnum       = 40
	SortStruct     = 50
	SortConst      = 60
	SortProperty   = 70
	SortFunction   = 80
	SortState      = 90
	SortObject     = 100
	SortDefaults   = 110
	SortDummies    = 500
)

// Node is one entry of the editor hierarchy.
type Node interface {
	// Kind is the upper-case class discriminator, PACKAGE for the root.
	Kind() string
	// TypeName names the node implementation, used as the last sort key.
	TypeName() string
	Name() string
	ReferencePath() string
	// DisplayKind is the kind shown to users. Functions and properties
	// derive it from their current flags.
	DisplayKind() string
	// Object returns the package object, nil for the root.
	Object() *upk.Object

	Parent() Node
	Children() []Node
	AddChild(child Node)

	// PreInitNode runs InitNode once, turning a failure into ErrInit and
	// a notice.
	PreInitNode()
	InitNode() error
	Initialized() bool
	// PreInitProperties builds the node's properties once.
	PreInitProperties()
	PropertiesInitialized() bool
	Properties() []prop.Property
	Property(id string) prop.Property

	HasAnyChanges() bool
	CountChanges() int
	// SaveChanges writes every changed flag word through the live stream.
	SaveChanges() error
	ApplyToDefault()

	Notices() []Notice
	ErrorFlags() ErrorFlags
	SortPriority() int
	SortAlphabetically() bool

	base() *Base
}

// Context is shared by every node of one loaded package.
type Context struct {
	Package *upk.Package
	// Observer is told about every property that really changed.
	Observer Observer
}

// Observer is notified after a node property changed.
type Observer interface {
	NodePropertyChanged(n Node, p prop.Property)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(n Node, p prop.Property)

// NodePropertyChanged calls f(n, p).
func (f ObserverFunc) NodePropertyChanged(n Node, p prop.Property) { f(n, p) }

// Base carries the state shared by every node: hierarchy, notices, error
// flags and the property list. Node implementations embed it.
type Base struct {
	self     Node
	ctx      *Context
	name     string
	parent   Node
	children []Node

	initDone    bool
	errFlags    ErrorFlags
	initNotices []Notice
	propNotices []Notice

	building  bool
	propsDone bool
	props     []prop.Property
	byID      map[string]prop.Property
}

func (b *Base) base() *Base { return b }

func (b *Base) Name() string           { return b.name }
func (b *Base) Parent() Node           { return b.parent }
func (b *Base) Children() []Node       { return b.children }
func (b *Base) Initialized() bool      { return b.initDone }
func (b *Base) ErrorFlags() ErrorFlags { return b.errFlags }

// AddChild appends child and makes b its parent.
func (b *Base) AddChild(child Node) {
	b.children = append(b.children, child)
	child.base().parent = b.self
}

// Notices returns the notices recorded by InitNode followed by those
// recorded while building properties.
func (b *Base) Notices() []Notice {
	out := make([]Notice, 0, len(b.initNotices)+len(b.propNotices))
	out = append(out, b.initNotices...)
	return append(out, b.propNotices...)
}

func (b *Base) notice(l Level, title, detail string) {
	n := Notice{Level: l, Title: title, Detail: detail}
	if b.building {
		b.propNotices = append(b.propNotices, n)
		return
	}
	b.initNotices = append(b.initNotices, n)
}

// PreInitNode runs InitNode at most once. Errors and panics become ErrInit
// plus an error notice.
func (b *Base) PreInitNode() {
	if b.initDone {
		return
	}
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.Errorf("panic: %v", r)
			}
		}()
		return b.self.InitNode()
	}()
	b.initDone = true
	if err != nil {
		b.errFlags |= ErrInit
		b.initNotices = append(b.initNotices, Notice{Level: LevelError, Title: "Node init exception:", Detail: err.Error()})
	}
}

// PropertiesInitialized reports whether PreInitProperties ran.
func (b *Base) PropertiesInitialized() bool { return b.propsDone }

// Properties returns the properties in display order.
func (b *Base) Properties() []prop.Property { return b.props }

// Property returns the property with identifier id, or nil.
func (b *Base) Property(id string) prop.Property { return b.byID[id] }

func (b *Base) beginProperties() {
	b.props = nil
	b.byID = nil
	b.propNotices = nil
	b.propsDone = false
	b.building = true
}

func (b *Base) addProperty(p prop.Property) {
	b.props = append(b.props, p)
}

func (b *Base) finishProperties() {
	b.byID = make(map[string]prop.Property, len(b.props))
	for _, p := range b.props {
		b.byID[p.Identifier()] = p
	}
	b.propsDone = true
	b.building = false
}

// HasAnyChanges reports whether any property differs from its original.
func (b *Base) HasAnyChanges() bool { return b.CountChanges() > 0 }

// CountChanges counts changed properties. Nodes whose properties were never
// built count zero.
func (b *Base) CountChanges() int {
	if !b.propsDone {
		return 0
	}
	n := 0
	for _, p := range b.props {
		if p.IsChanged() {
			n++
		}
	}
	return n
}

func (b *Base) applyProperties() {
	if !b.propsDone {
		return
	}
	for _, p := range b.props {
		p.ApplyToDefault()
	}
}

// PropertyChanged forwards a property change to the context observer.
func (b *Base) PropertyChanged(p prop.Property) {
	if b.ctx != nil && b.ctx.Observer != nil {
		b.ctx.Observer.NodePropertyChanged(b.self, p)
	}
}

// Bools returns the boolean properties of n in display order.
func Bools(n Node) []prop.Bool {
	var out []prop.Bool
	for _, p := range n.Properties() {
		if bp, ok := p.(prop.Bool); ok {
			out = append(out, bp)
		}
	}
	return out
}

// Walk calls fn for n and every descendant, depth first, parents first.
func Walk(n Node, fn func(Node)) {
	fn(n)
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}
