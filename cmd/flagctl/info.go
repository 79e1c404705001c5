package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/upkflags/editor"
	"github.com/joshuapare/upkflags/editor/node"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <package>",
		Short: "Display package summary information",
		Long: `The info command displays the package summary: engine version,
licensee version, detected build, byte order, table sizes and the package
flags that are set.

Example:
  flagctl info Engine.u
  flagctl info Engine.u --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

type packageInfo struct {
	File         string   `json:"file"`
	Name         string   `json:"name"`
	Size         int64    `json:"size"`
	Version      int      `json:"version"`
	Licensee     int      `json:"licensee"`
	Build        string   `json:"build"`
	Generation   string   `json:"generation"`
	BigEndian    bool     `json:"big_endian"`
	FolderName   string   `json:"folder_name,omitempty"`
	PackageFlags string   `json:"package_flags"`
	SetFlags     []string `json:"set_flags"`
	Names        int      `json:"names"`
	Exports      int      `json:"exports"`
	Imports      int      `json:"imports"`
	Notices      []string `json:"notices,omitempty"`
}

func runInfo(args []string) error {
	path := args[0]
	e, err := openEngine(path, editor.HeadlessOptions(), editor.WithOpenFile(openMapped))
	if err != nil {
		return err
	}
	defer e.Close()

	p := e.Package()
	root := e.Root()
	root.PreInitProperties()

	info := packageInfo{
		File:         path,
		Name:         p.Name,
		Version:      p.Version(),
		Licensee:     p.Licensee(),
		Build:        p.Build().String(),
		Generation:   p.Identity().Generation().String(),
		BigEndian:    p.Summary.BigEndian,
		FolderName:   p.Summary.FolderName,
		PackageFlags: fmt.Sprintf("0x%08X", p.Summary.PackageFlags),
		SetFlags:     []string{},
		Names:        len(p.Names),
		Exports:      len(p.ExportObjects()),
		Imports:      len(p.ImportObjects()),
	}
	if stat, err := os.Stat(path); err == nil {
		info.Size = stat.Size()
	}
	for _, b := range node.Bools(root) {
		if b.Get() && !b.Constant() {
			info.SetFlags = append(info.SetFlags, shortName(b.Identifier()))
		}
	}
	for _, n := range root.Notices() {
		info.Notices = append(info.Notices, n.Title)
	}

	if jsonOut {
		return printJSON(info)
	}

	printInfo("\nPackage Information:\n")
	printInfo("  File: %s\n", info.File)
	printInfo("  Name: %s\n", info.Name)
	printInfo("  Size: %d bytes\n", info.Size)
	printInfo("  Version: %d/%d\n", info.Version, info.Licensee)
	printInfo("  Build: %s (%s)\n", info.Build, info.Generation)
	if info.BigEndian {
		printInfo("  Byte order: big endian\n")
	} else {
		printInfo("  Byte order: little endian\n")
	}
	if info.FolderName != "" {
		printInfo("  Folder: %s\n", info.FolderName)
	}
	printInfo("  Names: %d, Exports: %d, Imports: %d\n", info.Names, info.Exports, info.Imports)
	printInfo("  Package flags: %s\n", info.PackageFlags)
	if len(info.SetFlags) > 0 {
		printInfo("    %s\n", strings.Join(info.SetFlags, ", "))
	}
	for _, n := range info.Notices {
		printInfo("  ! %s\n", n)
	}
	return nil
}

// shortName returns the last segment of a property identifier.
func shortName(id string) string {
	if i := strings.LastIndexByte(id, '.'); i >= 0 {
		return id[i+1:]
	}
	return id
}
