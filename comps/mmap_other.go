//go:build !unix

package comps

import (
	"os"
)

func _MapFile(file string, size int) ([]byte, func() error, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, nil, err
	}
	return data[:size], nil, nil
}
