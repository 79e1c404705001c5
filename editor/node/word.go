package node

import (
	"github.com/pkg/errors"

	"github.com/joshuapare/upkflags/internal/format"
	"github.com/joshuapare/upkflags/upk"
)

// Word is a flag word of a node: where it lives in the file, how wide it
// is, the value last known to be on disk and the value being edited.
type Word struct {
	Name string
	// Offset is absolute, -1 while unresolved.
	Offset int64
	// Size is 0 when the word does not exist in this package.
	Size int
	// Split marks a 64-bit word stored as two uint32 halves, high first.
	Split bool

	saved   uint64
	current uint64
	denied  bool
	reason  string
}

func newWord(name string, value uint64) *Word {
	return &Word{Name: name, Offset: -1, saved: value, current: value}
}

// Present reports whether the word exists in the package.
func (w *Word) Present() bool { return w.Size != 0 }

// Resolved reports whether the word can be written.
func (w *Word) Resolved() bool { return w.Present() && w.Offset >= 0 && !w.denied }

// Get returns the value being edited.
func (w *Word) Get() uint64 { return w.current }

// Saved returns the value last known to be on disk.
func (w *Word) Saved() uint64 { return w.saved }

// Set updates the value being edited. Nothing is written.
func (w *Word) Set(v uint64) error {
	if w.denied {
		return errors.Errorf("word %s: %s", w.Name, w.reason)
	}
	w.current = v
	return nil
}

// Get32 and Set32 view the low half of the word.
func (w *Word) Get32() uint32 { return uint32(w.current) }

func (w *Word) Set32(v uint32) error { return w.Set(uint64(v)) }

// Changed reports whether the edited value differs from the saved one.
func (w *Word) Changed() bool { return w.current != w.saved }

// Deny disables writes of the word.
func (w *Word) Deny(reason string) {
	w.denied = true
	w.reason = reason
}

// Denied reports whether writes are disabled and why.
func (w *Word) Denied() (bool, string) { return w.denied, w.reason }

// Save writes the edited value at Offset when it changed. It reports
// whether anything was written.
func (w *Word) Save(s *upk.Stream) (bool, error) {
	if !w.Resolved() || !w.Changed() {
		return false, nil
	}
	if w.Split {
		if err := s.Seek(w.Offset); err != nil {
			return false, err
		}
		if err := s.WriteU32(uint32(w.current >> format.HighShift)); err != nil {
			return false, errors.Wrapf(err, "write %s high half", w.Name)
		}
		if err := s.Seek(w.Offset + 4); err != nil {
			return false, err
		}
		if err := s.WriteU32(uint32(w.current)); err != nil {
			return false, errors.Wrapf(err, "write %s low half", w.Name)
		}
		return true, nil
	}
	if err := s.Seek(w.Offset); err != nil {
		return false, err
	}
	if err := s.WriteSized(w.current, w.Size); err != nil {
		return false, errors.Wrapf(err, "write %s", w.Name)
	}
	return true, nil
}

// ApplyToDefault records the edited value as the one on disk.
func (w *Word) ApplyToDefault() { w.saved = w.current }

// fits reports whether mask addresses bits that exist in the word.
func (w *Word) fits(mask uint64) bool {
	if w.Size >= 8 || w.Size == 0 {
		return true
	}
	return mask>>(uint(w.Size)*8) == 0
}
