package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshuapare/upkflags/internal/testutil"
)

// writeGamePackage writes Game.u: a class Pawn and an object Thing.
func writeGamePackage(t *testing.T) string {
	t.Helper()
	b := testutil.NewPackage(868, 0)
	b.PackageFlags = 0x8
	object := b.AddImport("Core", "Class", "Object", 0)
	pawn := b.AddExport(testutil.Export{Name: "Pawn", Body: b.ClassBody(0, 0x1)})
	b.AddExport(testutil.Export{Name: "Thing", Class: object, ObjectFlags: 0x4, Body: b.ObjectBody()})
	b.AddExport(testutil.Export{Name: "Part", Class: object, Outer: pawn, Body: b.ObjectBody()})
	path, _ := b.WriteFile(t, "Game.u")
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// resetFlags restores every global flag to its default when the test ends.
func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		verbose, quiet, jsonOut, noColor, eagerStats = false, false, false, false, false
		buildName = ""
		treeDepth, treeFlat, treeKinds = 0, false, false
		flagsAll = false
		setOutput = ""
	})
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		buf.ReadFrom(r)
		done <- buf.String()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	return <-done, fnErr
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	var result interface{}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}

// assertNotContains checks that output doesn't contain unwanted strings
func assertNotContains(t *testing.T, output string, unwanted []string) {
	t.Helper()
	for _, dont := range unwanted {
		if strings.Contains(output, dont) {
			t.Errorf("output contains unwanted string %q\nGot: %s", dont, output)
		}
	}
}
