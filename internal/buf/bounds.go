package buf

import (
	"math"

	"github.com/pkg/errors"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int64.
func AddOverflowSafe(a, b int64) (int64, bool) {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return 0, false
	case b < 0 && a < math.MinInt64-b:
		return 0, false
	default:
		return a + b, true
	}
}

// InRegion reports whether [off, off+n) lies inside a file of the given size.
func InRegion(size, off, n int64) bool {
	if off < 0 || n < 0 || off > size {
		return false
	}
	end, ok := AddOverflowSafe(off, n)
	return ok && end <= size
}

// CheckTableBounds validates that a table of count entries, each at least
// minEntry bytes long, can start at offset inside a file of the given size.
// Entries are variable length, so this only rejects counts that cannot
// possibly fit.
//
//	if err := buf.CheckTableBounds(size, sum.NameOffset, sum.NameCount, 5); err != nil {
//	    return errors.Wrap(err, "name table")
//	}
func CheckTableBounds(size, offset int64, count, minEntry int) error {
	if offset < 0 {
		return errors.Errorf("negative offset: %d", offset)
	}
	if count < 0 {
		return errors.Errorf("negative count: %d", count)
	}
	if count == 0 {
		return nil
	}
	if minEntry > 0 && int64(count) > math.MaxInt64/int64(minEntry) {
		return errors.Errorf("overflow: count=%d * entry=%d", count, minEntry)
	}
	if !InRegion(size, offset, int64(count)*int64(minEntry)) {
		return errors.Errorf("bounds: %d entries at %d exceed file size %d", count, offset, size)
	}
	return nil
}
