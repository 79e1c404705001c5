package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/upkflags/editor"
	"github.com/joshuapare/upkflags/editor/node"
	"github.com/joshuapare/upkflags/editor/prop"
)

var flagsAll bool

func init() {
	cmd := newFlagsCmd()
	cmd.Flags().BoolVar(&flagsAll, "all", false, "Include constant masks")
	rootCmd.AddCommand(cmd)
}

func newFlagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flags <package> [object-path]",
		Short: "List the flags of an object",
		Long: `The flags command lists every editable flag of an object grouped by
its flag word. Without an object path the package flags are listed.

Markers:
  [x] / [ ]   current value
  D           editing is denied
  ?           the mask is not verified for this engine version

Example:
  flagctl flags Engine.u "Class'Engine.Actor'"
  flagctl flags Engine.u Engine.Actor --json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlags(args)
		},
	}
	return cmd
}

type flagEntry struct {
	Identifier  string `json:"identifier"`
	Header      bool   `json:"header,omitempty"`
	Title       string `json:"title,omitempty"`
	Value       bool   `json:"value"`
	Mask        string `json:"mask,omitempty"`
	Denied      bool   `json:"denied,omitempty"`
	Unverified  bool   `json:"unverified,omitempty"`
	Description string `json:"description,omitempty"`
}

type noticeEntry struct {
	Level  string `json:"level"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

type flagsResult struct {
	Path    string        `json:"path"`
	Kind    string        `json:"kind"`
	Errors  string        `json:"errors,omitempty"`
	Flags   []flagEntry   `json:"flags"`
	Notices []noticeEntry `json:"notices,omitempty"`
}

func runFlags(args []string) error {
	e, err := openEngine(args[0], editor.HeadlessOptions(), editor.WithOpenFile(openMapped))
	if err != nil {
		return err
	}
	defer e.Close()

	var n node.Node = e.Root()
	if len(args) > 1 {
		if n, err = e.FindObject(args[1]); err != nil {
			return err
		}
	}
	n.PreInitProperties()

	res := collectFlags(n)
	if jsonOut {
		return printJSON(res)
	}

	printInfo("%s (%s)\n", res.Path, res.Kind)
	for _, f := range res.Flags {
		if f.Header {
			printInfo("\n  %s\n", f.Title)
			continue
		}
		mark := " "
		if f.Value {
			mark = "x"
		}
		line := fmt.Sprintf("    [%s] %-28s %s", mark, shortName(f.Identifier), f.Mask)
		if f.Denied {
			line += " D"
		}
		if f.Unverified {
			line += " ?"
		}
		printInfo("%s\n", line)
		if verbose && f.Description != "" {
			printInfo("        %s\n", f.Description)
		}
	}
	if len(res.Notices) > 0 {
		printInfo("\n")
	}
	for _, no := range res.Notices {
		printInfo("  %s: %s\n", strings.ToUpper(no.Level), no.Title)
		if no.Detail != "" {
			printVerbose("    %s\n", no.Detail)
		}
	}
	return nil
}

func collectFlags(n node.Node) flagsResult {
	res := flagsResult{Path: n.ReferencePath(), Kind: n.DisplayKind(), Flags: []flagEntry{}}
	if f := n.ErrorFlags(); f != 0 {
		res.Errors = f.String()
	}
	for _, p := range n.Properties() {
		switch p := p.(type) {
		case *prop.Header:
			res.Flags = append(res.Flags, flagEntry{Identifier: p.ID, Header: true, Title: p.Title})
		case prop.Bool:
			if p.Constant() && !flagsAll {
				continue
			}
			res.Flags = append(res.Flags, flagEntry{
				Identifier:  p.Identifier(),
				Value:       p.Get(),
				Mask:        fmt.Sprintf("0x%X", p.MaskBits()),
				Denied:      p.EditDenied(),
				Unverified:  p.Unverified(),
				Description: p.Description(),
			})
		}
	}
	for _, no := range n.Notices() {
		res.Notices = append(res.Notices, noticeEntry{Level: no.Level.String(), Title: no.Title, Detail: no.Detail})
	}
	return res
}
