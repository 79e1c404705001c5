package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/upkflags/upk"
)

func TestInfoCommand(t *testing.T) {
	resetFlags(t)
	path := writeGamePackage(t)

	output, err := captureOutput(t, func() error { return runInfo([]string{path}) })
	require.NoError(t, err)
	assertContains(t, output, []string{
		"Package Information:",
		"Name: Game",
		"Version: 868/0",
		"Build: Default",
		"Byte order: little endian",
		"Names:",
		"Exports: 3, Imports: 1",
		"Package flags: 0x00000008",
		"Cooked",
	})

	jsonOut = true
	output, err = captureOutput(t, func() error { return runInfo([]string{path}) })
	require.NoError(t, err)
	assertJSON(t, output)
	var info packageInfo
	require.NoError(t, json.Unmarshal([]byte(output), &info))
	assert.Equal(t, "Game", info.Name)
	assert.Equal(t, 3, info.Exports)
	assert.Equal(t, []string{"Cooked"}, info.SetFlags)
	assert.False(t, info.BigEndian)
}

func TestInfoCommandErrors(t *testing.T) {
	resetFlags(t)

	_, err := captureOutput(t, func() error {
		return runInfo([]string{filepath.Join(t.TempDir(), "Missing.u")})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to open")

	garbage := writeFile(t, "Garbage.u", "not a package at all")
	_, err = captureOutput(t, func() error { return runInfo([]string{garbage}) })
	require.Error(t, err)

	buildName = "NoSuchGame"
	_, err = captureOutput(t, func() error { return runInfo([]string{writeGamePackage(t)}) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown build "NoSuchGame"`)
}

func TestTreeCommand(t *testing.T) {
	resetFlags(t)
	path := writeGamePackage(t)

	output, err := captureOutput(t, func() error { return runTree([]string{path}) })
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	assert.Equal(t, []string{
		"Game (Package)",
		"  Pawn (Class)",
		"    Part (Object)",
		"  Thing (Object)",
	}, lines)

	treeDepth = 1
	output, err = captureOutput(t, func() error { return runTree([]string{path}) })
	require.NoError(t, err)
	assertNotContains(t, output, []string{"Part"})

	treeDepth = 0
	output, err = captureOutput(t, func() error { return runTree([]string{path, "Class'Pawn'"}) })
	require.NoError(t, err)
	assert.Equal(t, "Pawn (Class)\n  Part (Object)\n", output)

	treeFlat = true
	output, err = captureOutput(t, func() error { return runTree([]string{path}) })
	require.NoError(t, err)
	assertContains(t, output, []string{"  Pawn (Class)\n  Thing (Object)\n  Part (Object)\n"})

	treeFlat = false
	jsonOut = true
	output, err = captureOutput(t, func() error { return runTree([]string{path}) })
	require.NoError(t, err)
	var root treeNode
	require.NoError(t, json.Unmarshal([]byte(output), &root))
	assert.Equal(t, "PACKAGE", root.Kind)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "Class'Game.Pawn'", root.Children[0].Path)

	_, err = captureOutput(t, func() error { return runTree([]string{path, "Nope"}) })
	assert.Error(t, err)
}

func TestFlagsCommand(t *testing.T) {
	resetFlags(t)
	path := writeGamePackage(t)

	output, err := captureOutput(t, func() error { return runFlags([]string{path, "Thing"}) })
	require.NoError(t, err)
	assertContains(t, output, []string{
		"Object'Game.Thing' (Object)",
		"General",
		"[x] Public",
		"[ ] Final",
	})

	output, err = captureOutput(t, func() error { return runFlags([]string{path}) })
	require.NoError(t, err)
	assertContains(t, output, []string{"Package'Game' (Package)", "[x] Cooked", "[ ] AllowDownload"})

	jsonOut = true
	output, err = captureOutput(t, func() error { return runFlags([]string{path, "Class'Pawn'"}) })
	require.NoError(t, err)
	var res flagsResult
	require.NoError(t, json.Unmarshal([]byte(output), &res))
	assert.Equal(t, "Class'Game.Pawn'", res.Path)
	found := false
	for _, f := range res.Flags {
		if f.Identifier == "Class.ClassFlags.Abstract" {
			found = true
			assert.True(t, f.Value)
			assert.Equal(t, "0x1", f.Mask)
		}
	}
	assert.True(t, found, "Class.ClassFlags.Abstract listed")
}

func TestSetCommand(t *testing.T) {
	resetFlags(t)
	path := writeGamePackage(t)

	output, err := captureOutput(t, func() error {
		return runSet([]string{path, "Class'Game.Pawn'", "Class.ClassFlags.Config", "true"})
	})
	require.NoError(t, err)
	assert.Equal(t, "CHANGE : Class'Game.Pawn' - Class.ClassFlags.Config = true.\n", output)
	assert.Equal(t, uint64(0x5), classFlagsOf(t, path, "Pawn"))

	output, err = captureOutput(t, func() error {
		return runSet([]string{path, "Class'Game.Pawn'", "Class.ClassFlags.Config", "true"})
	})
	require.NoError(t, err)
	assertContains(t, output, []string{"NO CHANGE"})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad value", []string{path, "Thing", "Object.ObjectFlags.Final", "maybe"}, "invalid value"},
		{"missing object", []string{path, "Ghost", "Object.ObjectFlags.Final", "true"}, "Could not find object"},
		{"missing flag", []string{path, "Thing", "Object.ObjectFlags.Nope", "true"}, "could not find property"},
		{"header", []string{path, "Thing", "Object.ObjectFlags.Header.General", "true"}, "isn't a flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := captureOutput(t, func() error { return runSet(tt.args) })
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSetCommandOutput(t *testing.T) {
	resetFlags(t)
	path := writeGamePackage(t)
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	setOutput = filepath.Join(t.TempDir(), "Edited.u")
	_, err = captureOutput(t, func() error {
		return runSet([]string{path, "Package'Game'", "Package.PackageFlags.Cooked", "false"})
	})
	require.NoError(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, after)

	p, err := upk.Open(setOutput, upk.Options{})
	require.NoError(t, err)
	defer p.Close()
	assert.Zero(t, p.Summary.PackageFlags&0x8)
}

func TestApplyCommand(t *testing.T) {
	resetFlags(t)
	path := writeGamePackage(t)
	instr := writeFile(t, "edits.yaml", `objects:
  - path: Thing
    flags:
      - name: Object.ObjectFlags.Final
        value: true
`)

	output, err := captureOutput(t, func() error { return runApply([]string{path, instr}) })
	require.NoError(t, err)
	assertContains(t, output, []string{
		"CHANGE : Thing - Object.ObjectFlags.Final = True.",
		"Flag edits successful for package 'Game' - Changes: 1, Errors: 0, Warnings: 0.",
	})

	bad := writeFile(t, "bad.yaml", `objects:
  - path: Ghost
    flags:
      - name: Object.ObjectFlags.Final
        value: true
`)
	output, err = captureOutput(t, func() error { return runApply([]string{path, bad}) })
	var ee *exitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 1, ee.code)
	assertContains(t, output, []string{"ERROR (line 2): Could not find object Ghost!"})

	jsonOut = true
	output, err = captureOutput(t, func() error { return runApply([]string{path, bad}) })
	require.Error(t, err)
	var res applyResult
	require.NoError(t, json.Unmarshal([]byte(output), &res))
	assert.Equal(t, 1, res.Errors)
	assert.False(t, res.Saved)
	assert.NotEmpty(t, res.Messages)
}

func TestVersionCommand(t *testing.T) {
	output, err := captureOutput(t, func() error {
		versionCmd.Run(versionCmd, nil)
		return nil
	})
	require.NoError(t, err)
	assertContains(t, output, []string{"flagctl dev", "commit: none"})
}

func classFlagsOf(t *testing.T, path, name string) uint64 {
	t.Helper()
	p, err := upk.Open(path, upk.Options{})
	require.NoError(t, err)
	defer p.Close()
	for _, o := range p.ExportObjects() {
		if o.Name != name {
			continue
		}
		for _, f := range o.Meta.Fields {
			if f.Name == "ClassFlags" {
				return f.Value
			}
		}
	}
	t.Fatalf("no ClassFlags for %s", name)
	return 0
}
