package prop

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// Option configures a Flag.
type Option func(*config)

type config struct {
	denied      bool
	reason      string
	observer    Observer
	unverified  bool
	description string
}

// Denied disallows every mutation of the flag.
func Denied(reason string) Option {
	return func(c *config) {
		c.denied = true
		c.reason = reason
	}
}

// DeniedIf is Denied when cond holds.
func DeniedIf(cond bool, reason string) Option {
	if !cond {
		return func(*config) {}
	}
	return Denied(reason)
}

// WithObserver sets the observer notified after each real change.
func WithObserver(o Observer) Option {
	return func(c *config) { c.observer = o }
}

// Unverified marks a flag whose bit position comes from legacy tables that
// were never confirmed against real packages.
func Unverified(v bool) Option {
	return func(c *config) { c.unverified = v }
}

// Describe attaches a human readable description.
func Describe(text string) Option {
	return func(c *config) { c.description = text }
}

// Flag is a boolean bound to one bit of a backing word reached through a
// get/set pair.
type Flag[W constraints.Unsigned] struct {
	id       string
	mask     W
	original bool
	current  bool
	get      func() W
	set      func(W) error
	cfg      config
}

// NewFlag reads the initial value of mask from get and returns the flag.
func NewFlag[W constraints.Unsigned](id string, mask W, get func() W, set func(W) error, opts ...Option) *Flag[W] {
	f := &Flag[W]{id: id, mask: mask, get: get, set: set}
	for _, opt := range opts {
		opt(&f.cfg)
	}
	f.original = f.read()
	f.current = f.original
	return f
}

// NewFlag32 returns a flag over a 32-bit word.
func NewFlag32(id string, mask uint32, get func() uint32, set func(uint32) error, opts ...Option) *Flag[uint32] {
	return NewFlag(id, mask, get, set, opts...)
}

// NewFlag64 returns a flag over a 64-bit word.
func NewFlag64(id string, mask uint64, get func() uint64, set func(uint64) error, opts ...Option) *Flag[uint64] {
	return NewFlag(id, mask, get, set, opts...)
}

func (f *Flag[W]) read() bool {
	if f.mask == 0 {
		return false
	}
	return f.get()&f.mask == f.mask
}

func (f *Flag[W]) Identifier() string  { return f.id }
func (f *Flag[W]) Get() bool           { return f.current }
func (f *Flag[W]) Original() bool      { return f.original }
func (f *Flag[W]) IsChanged() bool     { return f.original != f.current }
func (f *Flag[W]) ApplyToDefault()     { f.original = f.current }
func (f *Flag[W]) EditDenied() bool    { return f.cfg.denied }
func (f *Flag[W]) DenyReason() string  { return f.cfg.reason }
func (f *Flag[W]) Mask() W             { return f.mask }
func (f *Flag[W]) MaskBits() uint64    { return uint64(f.mask) }
func (f *Flag[W]) Unverified() bool    { return f.cfg.unverified }
func (f *Flag[W]) Description() string { return f.cfg.description }

// Constant reports whether the mask does not select exactly one bit. Such a
// flag keeps its initial value forever.
func (f *Flag[W]) Constant() bool {
	return bits.OnesCount64(uint64(f.mask)) != 1
}

// SetValue sets or clears the bit in the backing word. A denied flag
// returns a *PolicyError. Setting the held value or a constant is a no-op
// and does not notify.
func (f *Flag[W]) SetValue(v bool) error {
	if f.cfg.denied {
		return &PolicyError{Identifier: f.id, Reason: f.cfg.reason}
	}
	if v == f.current || f.Constant() {
		return nil
	}
	w := f.get()
	if v {
		w |= f.mask
	} else {
		w &^= f.mask
	}
	if err := f.set(w); err != nil {
		return err
	}
	f.current = v
	if f.cfg.observer != nil {
		f.cfg.observer.PropertyChanged(f)
	}
	return nil
}

// Split64 presents two 32-bit words as one 64-bit word, hi in the upper
// half.
func Split64(getHi, getLo func() uint32, setHi, setLo func(uint32) error) (func() uint64, func(uint64) error) {
	get := func() uint64 {
		return uint64(getHi())<<32 | uint64(getLo())
	}
	set := func(v uint64) error {
		if err := setHi(uint32(v >> 32)); err != nil {
			return err
		}
		return setLo(uint32(v))
	}
	return get, set
}
