package editor

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/joshuapare/upkflags/upk"
)

// SaveOverwrite writes every pending change into the open file and flushes
// it. Nodes are saved in creation order; each saved node then takes its
// current values as the originals.
//
// On a write error the bytes already written are flushed when any node was
// attempted, and the error is returned. Nodes not yet saved keep their
// pending changes.
func (e *Engine) SaveOverwrite() error {
	if e.pkg == nil {
		return ErrNoPackageLoaded
	}
	attempted := false
	saved := 0
	err := func() error {
		for _, n := range e.nodes {
			if !n.HasAnyChanges() {
				continue
			}
			attempted = true
			if err := n.SaveChanges(); err != nil {
				return errors.Wrapf(err, "save %s", n.ReferencePath())
			}
			n.ApplyToDefault()
			saved++
		}
		return errors.Wrap(e.pkg.Stream().Flush(), "flush package")
	}()
	if err != nil {
		if attempted {
			if ferr := e.pkg.Stream().Flush(); ferr != nil {
				e.log.WithError(ferr).Warn("flush after failed save")
			}
		}
		e.log.WithError(err).Error("save failed")
		e.UpdateStats()
		return err
	}
	e.log.WithField("nodes", saved).Info("package saved")
	e.UpdateStats()
	return nil
}

// MigrateLoadedPackageToNewFile copies the open file byte for byte to path
// and continues editing the copy; the original file is closed. It returns
// false without doing anything when path names the open file. The
// directory of path must exist.
//
// On failure the package keeps its original stream and the new file is
// closed.
func (e *Engine) MigrateLoadedPackageToNewFile(path string) (bool, error) {
	if e.pkg == nil {
		return false, ErrNoPackageLoaded
	}
	old := e.pkg.Stream()
	if samePath(old.Name(), path) {
		return false, nil
	}

	f, err := e.opts.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return false, errors.Wrapf(err, "create %s", path)
	}
	s := upk.NewStream(f)
	fail := func(err error) (bool, error) {
		if e.pkg.Stream() != old {
			e.pkg.SetStream(old)
		}
		s.Close()
		e.log.WithError(err).WithField("path", path).Error("migrate failed")
		return false, err
	}

	pos, lastPos := old.Position(), old.LastPosition()
	if err := old.CopyTo(s); err != nil {
		return fail(errors.Wrapf(err, "copy package to %s", path))
	}
	s.Configure(old.BigEndian(), old.Identity())
	e.pkg.SetStream(s)
	if err := s.Restore(pos, lastPos); err != nil {
		return fail(err)
	}
	if err := old.Close(); err != nil {
		e.log.WithError(err).Warn("close original file after migrate")
	}
	e.log.WithFields(logrus.Fields{"from": old.Name(), "to": path}).Info("package migrated")
	return true, nil
}

// samePath reports whether a and b name the same file: equal once made
// absolute and cleaned, ignoring case, or the same file on disk.
func samePath(a, b string) bool {
	fa, errA := filepath.Abs(a)
	fb, errB := filepath.Abs(b)
	if errA == nil && errB == nil && strings.EqualFold(filepath.Clean(fa), filepath.Clean(fb)) {
		return true
	}
	sa, errA := os.Stat(a)
	sb, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(sa, sb)
}
