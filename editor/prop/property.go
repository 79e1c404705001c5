// Package prop holds the editable properties a node exposes: boolean flags
// bound to one bit of a backing word, and header markers that group them.
package prop

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrEditDenied is wrapped by every *PolicyError.
var ErrEditDenied = errors.New("prop: editing is denied")

// PolicyError is returned when a denied property is mutated. The mutation
// is not applied.
type PolicyError struct {
	Identifier string
	Reason     string
}

func (e *PolicyError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("prop %s: editing is denied", e.Identifier)
	}
	return fmt.Sprintf("prop %s: editing is denied: %s", e.Identifier, e.Reason)
}

func (e *PolicyError) Unwrap() error { return ErrEditDenied }

// Property is the part of a property the change tracker and the
// persistence engine need.
type Property interface {
	// Identifier is the stable key of the property within its node.
	Identifier() string
	// IsChanged reports whether the current value differs from the
	// original one.
	IsChanged() bool
	// ApplyToDefault makes the current value the original one.
	ApplyToDefault()
	// EditDenied reports whether mutation is permanently disallowed.
	EditDenied() bool
}

// Bool is a boolean property independent of the width of its backing word.
type Bool interface {
	Property
	Get() bool
	Original() bool
	SetValue(v bool) error
	// Constant reports whether the mask does not select exactly one bit.
	Constant() bool
	// MaskBits returns the mask widened to 64 bits.
	MaskBits() uint64
	Unverified() bool
	Description() string
}

// Observer is notified after a property value really changed.
type Observer interface {
	PropertyChanged(p Property)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(p Property)

// PropertyChanged calls f(p).
func (f ObserverFunc) PropertyChanged(p Property) { f(p) }

// Header is a grouping marker. It never changes and cannot be edited.
type Header struct {
	ID    string
	Title string
}

// NewHeader returns a header with the given identifier.
func NewHeader(id, title string) *Header { return &Header{ID: id, Title: title} }

func (h *Header) Identifier() string { return h.ID }
func (h *Header) IsChanged() bool    { return false }
func (h *Header) ApplyToDefault()    {}
func (h *Header) EditDenied() bool   { return true }
