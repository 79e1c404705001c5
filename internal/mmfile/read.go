package mmfile

import (
	"os"

	"github.com/pkg/errors"
)

func noUnmap() error { return nil }

// readAll loads a whole package into memory for platforms that cannot map
// it. The returned release func does nothing.
func readAll(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, noUnmap, errors.Wrap(err, "read package")
	}
	return data, noUnmap, nil
}
