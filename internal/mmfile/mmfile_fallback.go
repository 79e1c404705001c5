//go:build !unix && !windows

package mmfile

// Map reads the package at path into memory.
func Map(path string) ([]byte, func() error, error) { return readAll(path) }
