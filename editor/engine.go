// Package editor loads one package at a time, builds the node hierarchy
// over its objects, tracks pending flag edits and writes them back in
// place.
//
// An Engine is single-threaded. Every property change is reported to the
// engine through the node context; the engine keeps a cached change count
// according to its StatsPolicy and forwards the change to listeners.
//
// Example:
//
//	e := editor.New(editor.HeadlessOptions())
//	if err := e.LoadPackage("Engine.u"); err != nil {
//		return err
//	}
//	defer e.Close()
//	n, err := e.FindObject("Class'Engine.Actor'")
//	...
//	err = e.SaveOverwrite()
package editor

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/joshuapare/upkflags/editor/node"
	"github.com/joshuapare/upkflags/editor/prop"
	"github.com/joshuapare/upkflags/internal/logger"
	"github.com/joshuapare/upkflags/upk"
)

// Engine owns the loaded package and its nodes.
type Engine struct {
	opts     Options
	registry *node.Registry
	log      *logrus.Entry

	pkg   *upk.Package
	ctx   *node.Context
	root  *node.Root
	nodes []node.Node
	byObj map[*upk.Object]node.Node

	cachedChanges int
	statsStale    bool

	propertyListeners []func(node.Node, prop.Property)
	statsListeners    []func(count int)
}

// New returns an engine configured by base and opts.
func New(base Options, opts ...Option) *Engine {
	o := base
	for _, fn := range opts {
		fn(&o)
	}
	if !o.Hierarchy {
		o.Sort = false
	}
	if o.Registry == nil {
		o.Registry = node.DefaultRegistry()
	}
	if o.OpenFile == nil {
		o.OpenFile = osOpenFile
	}
	log := o.Logger
	if log == nil {
		log = logrus.NewEntry(logger.L)
	}
	e := &Engine{opts: o, registry: o.Registry, log: log}
	e.UpdateStats()
	return e
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Package returns the loaded package, or nil.
func (e *Engine) Package() *upk.Package { return e.pkg }

// Loaded reports whether a package is loaded.
func (e *Engine) Loaded() bool { return e.pkg != nil }

// Root returns the package root node, or nil.
func (e *Engine) Root() *node.Root { return e.root }

// Nodes returns every node, root first, in creation order.
func (e *Engine) Nodes() []node.Node { return e.nodes }

// NodeOf returns the node of o, or nil.
func (e *Engine) NodeOf(o *upk.Object) node.Node { return e.byObj[o] }

// OnPropertyChange registers fn to run after every property change.
func (e *Engine) OnPropertyChange(fn func(n node.Node, p prop.Property)) {
	e.propertyListeners = append(e.propertyListeners, fn)
}

// OnStatsUpdated registers fn to run whenever the stats are recomputed.
func (e *Engine) OnStatsUpdated(fn func(count int)) {
	e.statsListeners = append(e.statsListeners, fn)
}

// LoadPackage opens path read-write and builds its nodes. It fails when a
// package is already loaded. On failure nothing stays loaded.
func (e *Engine) LoadPackage(path string) error {
	if e.pkg != nil {
		return ErrPackageLoaded
	}
	f, err := e.opts.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return errors.Wrapf(err, "open package %s", path)
	}
	p, err := upk.Load(upk.NewStream(f), upk.Options{
		Build:               e.opts.Build,
		Decoders:            e.opts.Decoders,
		DeserializeOnDemand: e.opts.DeserializeOnDemand,
	})
	if err != nil {
		f.Close()
		e.UpdateStats()
		return errors.Wrapf(err, "load package %s", path)
	}

	e.pkg = p
	e.log = e.log.WithField("package", p.Name)
	e.initializeNodes()
	e.log.WithFields(logrus.Fields{
		"version":  p.Version(),
		"licensee": p.Licensee(),
		"build":    p.Build().String(),
		"nodes":    len(e.nodes),
	}).Debug("package loaded")
	e.UpdateStats()
	return nil
}

func (e *Engine) initializeNodes() {
	e.ctx = &node.Context{Package: e.pkg, Observer: e}
	e.root = node.NewRoot(e.ctx)
	e.root.PreInitNode()
	e.nodes = []node.Node{e.root}
	e.byObj = make(map[*upk.Object]node.Node, len(e.pkg.Exports))

	var objectNodes []node.Node
	for _, o := range e.pkg.ExportObjects() {
		n := e.newNode(o)
		e.nodes = append(e.nodes, n)
		e.byObj[o] = n
		objectNodes = append(objectNodes, n)
	}

	if !e.opts.Hierarchy {
		return
	}
	for _, n := range objectNodes {
		e.attach(n)
	}
	if e.opts.Sort {
		node.SortChildren(e.root, true)
	}
}

func (e *Engine) newNode(o *upk.Object) node.Node {
	if entry, ok := e.registry.ResolveObject(e.pkg, o); ok {
		return entry.Factory(e.ctx, o)
	}
	return node.NewDummy(e.ctx, o)
}

// attach parents n under the node of its outer. Outers without a node get
// a dummy, climbing until a known node or the root is reached.
func (e *Engine) attach(n node.Node) {
	current := n
	outer := n.Object().Outer
	for {
		if outer == nil {
			e.root.AddChild(current)
			return
		}
		if parent, ok := e.byObj[outer]; ok {
			parent.AddChild(current)
			return
		}
		dummy := node.NewDummy(e.ctx, outer)
		e.nodes = append(e.nodes, dummy)
		e.byObj[outer] = dummy
		dummy.AddChild(current)
		current = dummy
		outer = outer.Outer
	}
}

// NodePropertyChanged is called by nodes after one of their properties
// changed.
func (e *Engine) NodePropertyChanged(n node.Node, p prop.Property) {
	if e.opts.Stats == StatsEager {
		e.UpdateStats()
	} else {
		e.statsStale = true
	}
	e.log.WithFields(logrus.Fields{
		"node":     n.ReferencePath(),
		"property": p.Identifier(),
	}).Debug("property changed")
	for _, fn := range e.propertyListeners {
		fn(n, p)
	}
}

// Unload closes the loaded package and drops its nodes. It is a no-op when
// nothing is loaded.
func (e *Engine) Unload() error {
	if e.pkg == nil {
		return nil
	}
	err := e.pkg.Close()
	e.pkg = nil
	e.ctx = nil
	e.root = nil
	e.nodes = nil
	e.byObj = nil
	if e.opts.Logger != nil {
		e.log = e.opts.Logger
	} else {
		e.log = logrus.NewEntry(logger.L)
	}
	e.UpdateStats()
	return err
}

// Close unloads the package.
func (e *Engine) Close() error { return e.Unload() }
