package walker

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// HashFile computes the xxhash64 of a file's contents, streaming so large
// files never load fully into memory.
func HashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, fmt.Errorf("hash %s: %w", path, err)
	}
	return h.Sum64(), nil
}

// HashBytes computes the xxhash64 of an in-memory buffer. Used by tests and
// by callers that already hold file contents.
func HashBytes(data []byte) uint64 {
	return xxhash.Sum64(data)
}
