package editor

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/joshuapare/upkflags/editor/node"
	"github.com/joshuapare/upkflags/internal/format"
	"github.com/joshuapare/upkflags/upk"
)

// StatsPolicy selects when the cached change count is recomputed.
type StatsPolicy int

const (
	// StatsLazy marks the stats stale after a change. ConditionalUpdateStats
	// recomputes them.
	StatsLazy StatsPolicy = iota
	// StatsEager recomputes the stats after every property change.
	StatsEager
)

func (p StatsPolicy) String() string {
	if p == StatsEager {
		return "eager"
	}
	return "lazy"
}

// OpenFileFunc opens the files the engine reads and writes. It has the
// shape of os.OpenFile.
type OpenFileFunc func(name string, flag int, perm os.FileMode) (upk.File, error)

func osOpenFile(name string, flag int, perm os.FileMode) (upk.File, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Options configures an Engine.
//
// Use DefaultOptions, HeadlessOptions or InteractiveOptions as a base.
type Options struct {
	// Hierarchy parents nodes under their outers. Object lookup and sorting
	// need it.
	Hierarchy bool
	// Sort orders every child list with node.Compare. Needs Hierarchy.
	Sort bool
	Stats StatsPolicy

	// Registry resolves node kinds. Nil selects node.DefaultRegistry().
	Registry *node.Registry
	// Logger receives engine logs. Nil selects the process logger.
	Logger *logrus.Entry
	// OpenFile opens package files. Nil selects os.OpenFile.
	OpenFile OpenFileFunc

	// Build overrides build detection when not format.BuildDefault.
	Build format.Build
	// Decoders replaces the body decoders. Nil selects upk.DefaultDecoders().
	Decoders map[string]upk.BodyDecoder
	// DeserializeOnDemand decodes object bodies when their node is
	// initialized rather than at load.
	DeserializeOnDemand bool
}

// DefaultOptions builds a sorted hierarchy with lazy stats.
func DefaultOptions() Options {
	return Options{Hierarchy: true, Sort: true, Stats: StatsLazy}
}

// HeadlessOptions builds an unsorted hierarchy with lazy stats. Batch
// drivers only need lookups.
func HeadlessOptions() Options {
	return Options{Hierarchy: true, Stats: StatsLazy}
}

// InteractiveOptions builds a sorted hierarchy and keeps the change count
// current after every edit.
func InteractiveOptions() Options {
	return Options{Hierarchy: true, Sort: true, Stats: StatsEager}
}

// Option adjusts Options.
type Option func(*Options)

// WithStatsPolicy sets the stats policy.
func WithStatsPolicy(p StatsPolicy) Option {
	return func(o *Options) { o.Stats = p }
}

// WithHierarchy enables or disables hierarchy building. Disabling it also
// disables sorting.
func WithHierarchy(v bool) Option {
	return func(o *Options) {
		o.Hierarchy = v
		if !v {
			o.Sort = false
		}
	}
}

// WithSorting enables or disables child sorting.
func WithSorting(v bool) Option {
	return func(o *Options) { o.Sort = v }
}

// WithRegistry sets the node registry.
func WithRegistry(r *node.Registry) Option {
	return func(o *Options) { o.Registry = r }
}

// WithLogger sets the engine logger.
func WithLogger(l *logrus.Entry) Option {
	return func(o *Options) { o.Logger = l }
}

// WithOpenFile replaces the file opener.
func WithOpenFile(fn OpenFileFunc) Option {
	return func(o *Options) { o.OpenFile = fn }
}

// WithBuild forces the build instead of detecting it.
func WithBuild(b format.Build) Option {
	return func(o *Options) { o.Build = b }
}

// WithDecoders replaces the body decoders.
func WithDecoders(d map[string]upk.BodyDecoder) Option {
	return func(o *Options) { o.Decoders = d }
}

// WithDeserializeOnDemand defers body decoding to node initialization.
func WithDeserializeOnDemand(v bool) Option {
	return func(o *Options) { o.DeserializeOnDemand = v }
}
