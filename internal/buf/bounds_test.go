package buf

import (
	"math"
	"testing"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(math.MaxInt64, 1); ok {
		t.Fatalf("expected overflow when adding to MaxInt64")
	}
	if _, ok := AddOverflowSafe(math.MinInt64, -1); ok {
		t.Fatalf("expected underflow when subtracting from MinInt64")
	}
}

func TestInRegion(t *testing.T) {
	if !InRegion(10, 6, 4) {
		t.Fatalf("InRegion should accept a range ending at the file size")
	}
	if InRegion(10, 6, 5) {
		t.Fatalf("InRegion should reject a range past the file size")
	}
	if InRegion(10, -1, 1) || InRegion(10, 1, -1) {
		t.Fatalf("InRegion should reject negative values")
	}
	if InRegion(10, math.MaxInt64, 1) {
		t.Fatalf("InRegion should reject overflowing ranges")
	}
}

func TestCheckTableBounds(t *testing.T) {
	if err := CheckTableBounds(100, 50, 10, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckTableBounds(100, 50, 11, 5); err == nil {
		t.Fatalf("expected bounds error")
	}
	if err := CheckTableBounds(100, 500, 0, 5); err != nil {
		t.Fatalf("empty tables are always valid: %v", err)
	}
	if err := CheckTableBounds(100, 0, -1, 5); err == nil {
		t.Fatalf("expected negative count error")
	}
	if err := CheckTableBounds(100, 0, math.MaxInt, math.MaxInt); err == nil {
		t.Fatalf("expected overflow error")
	}
}
