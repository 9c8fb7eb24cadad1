package os

import (
	"bytes"
	"fmt"
	"os"

	"github.com/creachadair/atomicfile"
)

func EnsureDir(dir string, mode os.FileMode) error {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, mode); err != nil {
			return fmt.Errorf("could not create directory %v: %w", dir, err)
		}
	case err != nil:
		return err
	case !info.IsDir():
		return fmt.Errorf("%v is not a directory", dir)
	}
	return nil
}

func FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}

// WriteFileAtomic writes contents to filePath so that readers observe
// either the previous contents or the new ones, never a partial write.
func WriteFileAtomic(filePath string, contents []byte, mode os.FileMode) error {
	if _, err := atomicfile.WriteAll(filePath, bytes.NewReader(contents), mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", filePath, err)
	}
	return nil
}
