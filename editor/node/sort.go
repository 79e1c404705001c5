package node

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Compare orders siblings: by sort priority, then by name when both opt in
// to alphabetical order, then by node type name.
func Compare(a, b Node) int {
	if pa, pb := a.SortPriority(), b.SortPriority(); pa != pb {
		return pa - pb
	}
	if a.SortAlphabetically() && b.SortAlphabetically() {
		return strings.Compare(a.Name(), b.Name())
	}
	return strings.Compare(a.TypeName(), b.TypeName())
}

// SortChildren sorts the children of n in place, keeping the table order of
// equal nodes.
func SortChildren(n Node, recursive bool) {
	slices.SortStableFunc(n.Children(), Compare)
	if !recursive {
		return
	}
	for _, c := range n.Children() {
		SortChildren(c, true)
	}
}
