package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/upkflags/editor"
	"github.com/joshuapare/upkflags/editor/node"
)

var (
	treeDepth int
	treeFlat  bool
	treeKinds bool
)

func init() {
	cmd := newTreeCmd()
	cmd.Flags().IntVar(&treeDepth, "depth", 0, "Maximum depth (0 for unlimited)")
	cmd.Flags().BoolVar(&treeFlat, "flat", false, "List exports in table order without building the hierarchy")
	cmd.Flags().BoolVar(&treeKinds, "kinds", false, "Show the class kind next to the display kind")
	rootCmd.AddCommand(cmd)
}

func newTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <package> [object-path]",
		Short: "Display the object hierarchy",
		Long: `The tree command displays the package's objects nested under their
outers, sorted the way the editor sorts them. Objects that failed to load
are marked with an exclamation mark.

Example:
  flagctl tree Engine.u
  flagctl tree Engine.u "Class'Engine.Actor'" --depth 1
  flagctl tree Engine.u --flat`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(args)
		},
	}
	return cmd
}

type treeNode struct {
	Name        string      `json:"name"`
	Kind        string      `json:"kind"`
	DisplayKind string      `json:"display_kind"`
	Path        string      `json:"path"`
	Errors      string      `json:"errors,omitempty"`
	Children    []*treeNode `json:"children,omitempty"`
}

func runTree(args []string) error {
	base := editor.DefaultOptions()
	if treeFlat {
		base.Hierarchy = false
		base.Sort = false
	}
	e, err := openEngine(args[0], base, editor.WithOpenFile(openMapped))
	if err != nil {
		return err
	}
	defer e.Close()

	var start node.Node = e.Root()
	if len(args) > 1 {
		if start, err = e.FindObject(args[1]); err != nil {
			return err
		}
	}

	out := buildTree(start, 0)
	if treeFlat && len(args) == 1 {
		// without a hierarchy the root has no children
		for _, n := range e.Nodes()[1:] {
			out.Children = append(out.Children, buildTree(n, 1))
		}
	}
	if jsonOut {
		return printJSON(out)
	}
	printTree(out, 0)
	return nil
}

func buildTree(n node.Node, depth int) *treeNode {
	t := &treeNode{
		Name:        n.Name(),
		Kind:        n.Kind(),
		DisplayKind: n.DisplayKind(),
		Path:        n.ReferencePath(),
	}
	if f := n.ErrorFlags(); f != 0 {
		t.Errors = f.String()
	}
	if treeDepth > 0 && depth >= treeDepth {
		return t
	}
	for _, c := range n.Children() {
		t.Children = append(t.Children, buildTree(c, depth+1))
	}
	return t
}

func printTree(t *treeNode, depth int) {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(t.Name)
	b.WriteString(" (")
	b.WriteString(t.DisplayKind)
	if treeKinds && !strings.EqualFold(t.Kind, t.DisplayKind) {
		b.WriteString(", ")
		b.WriteString(t.Kind)
	}
	b.WriteString(")")
	if t.Errors != "" {
		b.WriteString(" !")
	}
	printInfo("%s\n", b.String())
	for _, c := range t.Children {
		printTree(c, depth+1)
	}
}
